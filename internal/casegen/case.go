// Package casegen draws internally consistent sales cases from a scenario's
// case catalog.
package casegen

import (
	"fmt"

	"github.com/abhisek/spincoach/internal/scenario"
)

// Case is one generated client case.
type Case struct {
	Position       string
	Company        scenario.Company
	CompanySize    string
	Region         string
	Product        scenario.Product
	Situation      scenario.Situation
	Volume         int
	Unit           string
	SuppliersCount int
	Frequency      string
	Urgency        string

	// Valid is false when the attempt budget ran out before a case passed
	// every consistency rule. Violations then lists what failed.
	Valid      bool
	Violations []string

	// Duplicate is true when the case is valid but its fingerprint was in
	// the exclusion set on every attempt.
	Duplicate bool

	Attempts int
}

// Fingerprint identifies a case for repeat avoidance. It depends only on
// position, company type and product name.
func (c *Case) Fingerprint() string {
	return Fingerprint(c.Position, c.Company.Type, c.Product.Name)
}

// Fingerprint builds the repeat-avoidance key from its parts.
func Fingerprint(position, companyType, productName string) string {
	return position + "-" + companyType + "-" + productName
}

// VolumeText is the volume with its unit, e.g. "40 тонн".
func (c *Case) VolumeText() string {
	return fmt.Sprintf("%d %s", c.Volume, c.Unit)
}

// HistorySize is how many recent fingerprints are kept per user.
const HistorySize = 5

// Remember appends fp to recent, keeping at most HistorySize entries.
func Remember(recent []string, fp string) []string {
	out := append(append([]string(nil), recent...), fp)
	if len(out) > HistorySize {
		out = out[len(out)-HistorySize:]
	}
	return out
}
