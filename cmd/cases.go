package cmd

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/spincoach/internal/casegen"
	"github.com/abhisek/spincoach/internal/llm"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Generate sample cases from the scenario catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("count")
		seed, _ := cmd.Flags().GetUint64("seed")
		compare, _ := cmd.Flags().GetBool("compare")

		cfg, err := loadScenario(cmd)
		if err != nil {
			return err
		}
		if cfg.CaseVariants == nil {
			return fmt.Errorf("scenario %s has no case catalog", cfg.Path)
		}

		opts := []casegen.Option{
			casegen.WithLogger(log),
			casegen.WithCommands(cfg.UI.Command("feedback", "ДА"), cfg.UI.Command("finish", "завершить")),
		}
		if seed != 0 {
			opts = append(opts, casegen.WithRand(rand.New(rand.NewPCG(seed, seed))))
		}
		gen, err := casegen.New(cfg.CaseVariants, opts...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if compare {
			return compareRenderings(cmd, gen)
		}

		var recent []string
		var invalid, duplicate int
		for i := 1; i <= n; i++ {
			c := gen.Generate(recent)
			recent = casegen.Remember(recent, c.Fingerprint())
			status := mark(c.Valid)
			switch {
			case !c.Valid:
				invalid++
			case c.Duplicate:
				status = warnStyle.Render("=")
				duplicate++
			}
			fmt.Fprintf(out, "%3d %s %s\n", i, status, c.Summary())
			for _, v := range c.Violations {
				fmt.Fprintln(out, failStyle.Render("      - "+v))
			}
		}
		fmt.Fprintln(out, rule(60))
		fmt.Fprintf(out, "%d cases, %d invalid, %d repeated\n", n, invalid, duplicate)
		return nil
	},
}

// compareRenderings times the direct rendering against a model-written
// case built from the deprecated prompt.
func compareRenderings(cmd *cobra.Command, gen *casegen.Generator) error {
	out := cmd.OutOrStdout()
	c := gen.Generate(nil)

	start := time.Now()
	direct := gen.RenderDirect(c)
	directTook := time.Since(start)

	fmt.Fprintf(out, "Case: %s\n\n", c.Summary())
	fmt.Fprintf(out, "Direct rendering:  %v, %d chars\n", directTook, len([]rune(direct)))

	prompt := casegen.RenderPrompt(c)
	delegate := newDelegate(nil)
	if delegate == nil {
		fmt.Fprintf(out, "Model rendering:   skipped (prompt is %d chars)\n", len([]rune(prompt)))
		return nil
	}

	start = time.Now()
	text, err := delegate.Invoke(cmd.Context(), llm.KindResponse, prompt, "Создай кейс")
	modelTook := time.Since(start)
	if err != nil {
		fmt.Fprintf(out, "Model rendering:   failed after %v: %v\n", modelTook, err)
		return nil
	}
	fmt.Fprintf(out, "Model rendering:   %v, %d chars\n", modelTook, len([]rune(text)))
	if directTook > 0 {
		fmt.Fprintf(out, "Direct is %.0fx faster\n", float64(modelTook)/float64(directTook))
	}
	return nil
}

func init() {
	casesCmd.Flags().IntP("count", "n", 10, "Number of cases to generate")
	casesCmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	casesCmd.Flags().Bool("compare", false, "Compare direct and model rendering of one case")
}
