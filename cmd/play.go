package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/spincoach/internal/session"
	"github.com/abhisek/spincoach/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a training conversation in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		cfg, err := loadScenario(cmd)
		if err != nil {
			return err
		}

		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			trainer, err := session.New(cfg, newDelegate(st.EventRepo()),
				session.WithLogger(log),
				session.WithEventRepo(st.EventRepo()))
			if err != nil {
				return fmt.Errorf("create trainer: %w", err)
			}

			plain, _ := cmd.Flags().GetBool("plain")
			if !plain {
				return runChat(ctx, cmd, trainer, userID)
			}

			out := cmd.OutOrStdout()
			say := func(text string) error {
				replies, err := trainer.Handle(ctx, userID, text)
				if err != nil {
					return err
				}
				for _, r := range replies {
					fmt.Fprintln(out, botStyle.Render(r))
				}
				return nil
			}

			if err := say("/start"); err != nil {
				return err
			}
			in := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, titleStyle.Render("> "))
				if !in.Scan() {
					break
				}
				line := strings.TrimSpace(in.Text())
				switch line {
				case "":
					continue
				case "/quit", "/exit":
					return nil
				}
				if err := say(line); err != nil {
					return err
				}
			}
			if err := in.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(out)
			return nil
		})
	},
}

func init() {
	playCmd.Flags().String("user", defaultUser(), "User id the session is kept under")
	playCmd.Flags().Bool("plain", false, "Read lines from stdin instead of the full-screen chat")
}

// runChat drives the trainer from the full-screen chat until the user
// quits. A trainer error ends the program and is returned.
func runChat(ctx context.Context, cmd *cobra.Command, trainer *session.Trainer, userID string) error {
	p := tea.NewProgram(newChatModel(ctx, trainer, userID),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run chat: %w", err)
	}
	if m, ok := final.(chatModel); ok && m.err != nil {
		return m.err
	}
	return nil
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
