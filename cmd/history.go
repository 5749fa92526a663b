package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/spincoach/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past trainings with their scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		userID, _ := cmd.Flags().GetString("user")
		all, _ := cmd.Flags().GetBool("all")
		if all {
			userID = ""
		}

		return withEvents(cmd, func(ctx context.Context, repo store.EventRepo) error {
			events, err := repo.QueryTrainingEvents(ctx, store.QueryOpts{Limit: limit, UserID: userID})
			if err != nil {
				return fmt.Errorf("query trainings: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No trainings recorded.")
				return nil
			}

			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%-19s  %-12s  %-7s  %4s  %5s  %5s  %-14s  %s",
				"Time", "User", "Action", "Q", "Score", "Level", "Badge", "Achievements")))
			fmt.Fprintln(out, rule(96))
			for _, e := range events {
				if e.Action != store.ActionFinish {
					fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%-19s  %-12s  %-7s",
						e.Timestamp.Local().Format(timeLayout), truncate(e.UserID, 12), e.Action)))
					continue
				}
				fmt.Fprintf(out, "%-19s  %-12s  %-7s  %4d  %5d  %5d  %-14s  %s\n",
					e.Timestamp.Local().Format(timeLayout), truncate(e.UserID, 12), e.Action,
					e.Questions, e.Score, e.Level, e.Badge, strings.Join(e.Achievements, ","))
			}
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	historyCmd.Flags().String("user", defaultUser(), "Only show this user's trainings")
	historyCmd.Flags().Bool("all", false, "Show every user")
}
