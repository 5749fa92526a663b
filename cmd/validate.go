package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/spincoach/internal/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the scenario file and audit its case catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadScenario(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s v%s", cfg.Info.Name, cfg.Info.Version)))
		fmt.Fprintf(out, "Path:      %s\n", cfg.Path)
		fmt.Fprintf(out, "Types:     %d\n", len(cfg.QuestionTypes))
		fmt.Fprintf(out, "Levels:    %d\n", len(cfg.Ranking.Levels))
		fmt.Fprintf(out, "Achievements: %d\n", len(cfg.Achievements.List))

		for _, w := range cfg.Warnings {
			fmt.Fprintln(out, warnStyle.Render("warning: "+w))
		}

		if cfg.CaseVariants == nil {
			fmt.Fprintln(out, "\nNo case catalog; cases are generated by the model.")
			return nil
		}

		audit := scenario.Audit(cfg.CaseVariants)
		fmt.Fprintf(out, "\n%s\n", audit)
		if len(audit.Errors) > 0 {
			fmt.Fprintln(out, failStyle.Render("catalog audit failed"))
			return fmt.Errorf("case catalog audit found %d errors", len(audit.Errors))
		}
		return nil
	},
}
