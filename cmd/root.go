package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/spincoach/internal/llm"
	"github.com/abhisek/spincoach/internal/logger"
	"github.com/abhisek/spincoach/internal/scenario"
	"github.com/abhisek/spincoach/internal/store"
)

var log = logger.Nop()

var rootCmd = &cobra.Command{
	Use:           "spincoach",
	Short:         "SPIN sales conversation trainer",
	Long:          "spincoach plays a client in a generated sales case and scores how well you uncover needs with SPIN questions.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		mode, _ := cmd.Flags().GetString("log-mode")
		if mode == "" {
			mode = os.Getenv("LOG_MODE")
		}
		l, err := logger.New(mode)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SPINCOACH_DB env var)")
	rootCmd.PersistentFlags().String("scenario", "", "Path to scenario JSON (overrides SCENARIO_PATH env var)")
	rootCmd.PersistentFlags().String("log-mode", "", "Log mode: dev or prod (overrides LOG_MODE env var)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(casesCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then SPINCOACH_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// loadScenario loads and validates the scenario named by --scenario,
// SCENARIO_PATH or the default path.
func loadScenario(cmd *cobra.Command) (*scenario.Config, error) {
	flag, _ := cmd.Flags().GetString("scenario")
	cfg, err := scenario.NewStore(scenario.PathFromEnv(flag), log).Get()
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	return cfg, nil
}

// newDelegate builds the LLM invoker from the environment. It returns nil
// when no usable provider is configured; callers then run on heuristics.
func newDelegate(repo store.EventRepo) llm.Delegate {
	cfg := llm.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Client answers will be unavailable; questions are classified by keywords.")
		return nil
	}
	return llm.NewInvoker(cfg, llm.NewRegistry(cfg, repo, log), log)
}
