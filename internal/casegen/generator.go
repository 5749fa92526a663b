package casegen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/abhisek/spincoach/internal/logger"
	"github.com/abhisek/spincoach/internal/scenario"
)

// MaxAttempts bounds generate-and-test iterations per Generate call.
const MaxAttempts = 30

var (
	urgencies           = []string{"плановая закупка", "замена поставщика", "новый проект", "срочная потребность"}
	universalPositions  = []string{"Владелец бизнеса", "Управляющий", "Коммерческий директор"}
	capitalFrequencies  = []string{"по проекту", "при модернизации"}
	defaultFrequency    = "ежемесячно"
	defaultUnit         = "единиц"
	defaultVolumeRange  = scenario.VolumeRange{Min: 10, Max: 100}
	capitalVolumeCeil   = 50
	serviceNameMarkers  = []string{"услуг", "service"}
	fallbackProductSize = 3
)

// sizeMultipliers scale product volume ranges by company size. Sizes are
// matched by keyword so catalogs may word them freely.
var sizeMultipliers = []struct {
	keywords []string
	factor   float64
}{
	{[]string{"микро", "micro"}, 0.2},
	{[]string{"мал", "small"}, 0.6},
	{[]string{"средн", "medium"}, 1.0},
	{[]string{"крупн", "large"}, 1.8},
}

// SizeMultiplier returns the volume factor for a company size label.
func SizeMultiplier(size string) float64 {
	s := strings.ToLower(size)
	for _, m := range sizeMultipliers {
		for _, k := range m.keywords {
			if strings.Contains(s, k) {
				return m.factor
			}
		}
	}
	return 1.0
}

// Generator samples cases. It is safe for concurrent use.
type Generator struct {
	cv  *scenario.CaseVariants
	log *logger.Logger

	feedbackWord string
	finishWord   string

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Generator)

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(g *Generator) { g.log = logger.OrNop(l) }
}

// WithCommands sets the chat words quoted in the rendered case footer.
func WithCommands(feedback, finish string) Option {
	return func(g *Generator) {
		g.feedbackWord = feedback
		g.finishWord = finish
	}
}

// ErrNoCatalog is returned by New when the scenario has no usable catalog.
var ErrNoCatalog = errors.New("scenario has no case catalog")

// New returns a Generator over cv.
func New(cv *scenario.CaseVariants, opts ...Option) (*Generator, error) {
	if cv == nil {
		return nil, ErrNoCatalog
	}
	if len(cv.Companies) == 0 || len(cv.Products) == 0 || len(cv.Regions) == 0 ||
		len(cv.BaseSituations) == 0 || len(cv.CompanySizes) == 0 {
		return nil, fmt.Errorf("%w: companies, company_sizes, regions, products and base_situations must be non-empty", ErrNoCatalog)
	}
	g := &Generator{
		cv:           cv,
		log:          logger.Nop(),
		feedbackWord: "ДА",
		finishWord:   "завершить",
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

func pick[T any](r *rand.Rand, xs []T) T {
	return xs[r.IntN(len(xs))]
}

// Generate returns a case whose fingerprint is not in exclude. It never
// fails: when the attempt budget runs out the last candidate is returned
// with Valid or Duplicate describing why it was not accepted.
func (g *Generator) Generate(exclude []string) *Case {
	g.mu.Lock()
	defer g.mu.Unlock()

	skip := make(map[string]bool, len(exclude))
	for _, fp := range exclude {
		skip[fp] = true
	}

	var last *Case
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		c := g.draw()
		c.Attempts = attempt
		c.Violations = g.check(c)
		c.Valid = len(c.Violations) == 0
		last = c

		if !c.Valid {
			g.log.Debug("case rejected", "attempt", attempt, "violations", c.Violations)
			continue
		}
		if skip[c.Fingerprint()] {
			c.Duplicate = true
			continue
		}
		g.log.Info("case generated",
			"position", c.Position,
			"company", c.Company.Type,
			"size", c.CompanySize,
			"product", c.Product.Name,
			"volume", c.VolumeText(),
			"attempts", attempt,
		)
		return c
	}

	g.log.Warn("case budget exhausted",
		"attempts", MaxAttempts,
		"valid", last.Valid,
		"duplicate", last.Duplicate,
		"violations", last.Violations,
	)
	return last
}

func (g *Generator) draw() *Case {
	company := pick(g.rng, g.cv.Companies)
	size := g.selectSize(company)
	product := g.selectProduct(company)
	volume, unit := g.volume(product, size)
	return &Case{
		Company:        company,
		CompanySize:    size,
		Position:       g.selectPosition(size),
		Product:        product,
		Volume:         volume,
		Unit:           unit,
		Frequency:      g.selectFrequency(product),
		Urgency:        pick(g.rng, urgencies),
		Region:         pick(g.rng, g.cv.Regions),
		Situation:      pick(g.rng, g.cv.BaseSituations),
		SuppliersCount: 1 + g.rng.IntN(5),
	}
}

func (g *Generator) selectSize(company scenario.Company) string {
	if len(company.TypicalSizes) > 0 {
		return pick(g.rng, company.TypicalSizes)
	}
	return pick(g.rng, g.cv.CompanySizes)
}

func (g *Generator) selectPosition(size string) string {
	if ps := g.cv.PositionsBySize[size]; len(ps) > 0 {
		return pick(g.rng, ps)
	}
	if len(g.cv.Positions) > 0 {
		return pick(g.rng, g.cv.Positions)
	}
	g.log.Warn("no positions for company size, using universal list", "size", size)
	return pick(g.rng, universalPositions)
}

func (g *Generator) selectProduct(company scenario.Company) scenario.Product {
	var compatible []scenario.Product
	for _, p := range g.cv.Products {
		if p.CompatibleWith(company.Type) {
			compatible = append(compatible, p)
		}
	}
	if len(compatible) > 0 {
		return pick(g.rng, compatible)
	}

	g.log.Error("no compatible products for company type", "company", company.Type)
	for _, p := range g.cv.Products {
		name := strings.ToLower(p.Name)
		for _, m := range serviceNameMarkers {
			if strings.Contains(name, m) {
				compatible = append(compatible, p)
				break
			}
		}
	}
	if len(compatible) == 0 {
		g.log.Error("no service products either, using the first catalog products", "company", company.Type)
		compatible = g.cv.Products[:min(fallbackProductSize, len(g.cv.Products))]
	}
	return pick(g.rng, compatible)
}

func (g *Generator) volume(p scenario.Product, size string) (int, string) {
	vr := defaultVolumeRange
	if p.VolumeRange != nil {
		vr = *p.VolumeRange
	}
	m := SizeMultiplier(size)
	lo := max(1, int(float64(vr.Min)*m))
	hi := max(lo, int(float64(vr.Max)*m))
	unit := p.Unit
	if unit == "" {
		unit = defaultUnit
	}
	return lo + g.rng.IntN(hi-lo+1), unit
}

func (g *Generator) selectFrequency(p scenario.Product) string {
	if len(p.FrequencyOptions) > 0 {
		return pick(g.rng, p.FrequencyOptions)
	}
	if p.IsCapitalEquipment {
		return pick(g.rng, capitalFrequencies)
	}
	return defaultFrequency
}

// check applies the consistency rules and returns every violation.
func (g *Generator) check(c *Case) []string {
	var v []string
	if !c.Product.CompatibleWith(c.Company.Type) {
		v = append(v, fmt.Sprintf("product %q is not sold to %q", c.Product.Name, c.Company.Type))
	}
	if ps := g.cv.PositionsBySize[c.CompanySize]; len(ps) > 0 && !slices.Contains(ps, c.Position) {
		v = append(v, fmt.Sprintf("position %q does not fit size %q", c.Position, c.CompanySize))
	}
	if c.Product.IsCapitalEquipment {
		ceil := capitalVolumeCeil
		if c.Product.VolumeRange != nil && c.Product.VolumeRange.Max > ceil {
			ceil = c.Product.VolumeRange.Max
		}
		if c.Volume > ceil {
			v = append(v, fmt.Sprintf("volume %d too large for capital equipment %q", c.Volume, c.Product.Name))
		}
	}
	if opts := c.Product.FrequencyOptions; len(opts) > 0 && !slices.Contains(opts, c.Frequency) {
		v = append(v, fmt.Sprintf("frequency %q not offered for %q", c.Frequency, c.Product.Name))
	}
	if ts := c.Company.TypicalSizes; len(ts) > 0 && !slices.Contains(ts, c.CompanySize) {
		v = append(v, fmt.Sprintf("size %q is atypical for %q", c.CompanySize, c.Company.Type))
	}
	return v
}

// Check reports the consistency violations of c against the catalog.
func (g *Generator) Check(c *Case) []string {
	return g.check(c)
}
