package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/spincoach/internal/llm"
	"github.com/abhisek/spincoach/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls, token usage and cost",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		kind, _ := cmd.Flags().GetString("kind")
		if kind != "" && !llm.Kind(kind).Valid() {
			return fmt.Errorf("unknown kind %q", kind)
		}

		return withEvents(cmd, func(ctx context.Context, repo store.EventRepo) error {
			events, err := repo.QueryLLMEvents(ctx, store.QueryOpts{Limit: limit, Kind: kind})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No model calls recorded.")
				return nil
			}

			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%-5s  %-19s  %-14s  %-28s  %6s  %6s  %7s",
				"ID", "Time", "Kind", "Model", "In", "Out", "Ms")))
			fmt.Fprintln(out, rule(96))
			for _, e := range events {
				fmt.Fprintf(out, "%-5d  %-19s  %-14s  %-28s  %6d  %6d  %7d  %s\n",
					e.ID, e.Timestamp.Local().Format(timeLayout), e.Kind, truncate(e.Model, 28),
					e.InputTokens, e.OutputTokens, e.LatencyMs, mark(e.Success))
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withEvents(cmd, func(ctx context.Context, repo store.EventRepo) error {
			e, err := repo.GetLLMEvent(ctx, id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}
			printCall(cmd.OutOrStdout(), e)
			return nil
		})
	},
}

func printCall(out io.Writer, e *store.LLMRequestEventRecord) {
	fields := [][2]string{
		{"Time", e.Timestamp.Local().Format(timeLayout)},
		{"Target", e.Provider + "/" + e.Model},
		{"Kind", e.Kind},
		{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
		{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
		{"Result", mark(e.Success)},
	}
	if e.ErrorMessage != "" {
		fields = append(fields, [2]string{"Error", failStyle.Render(e.ErrorMessage)})
	}

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Call #%d", e.ID)))
	for _, f := range fields {
		fmt.Fprintf(out, "%-9s %s\n", f[0]+":", f[1])
	}
	for _, part := range [][2]string{{"PROMPT", e.RequestBody}, {"REPLY", e.ResponseBody}} {
		body := part[1]
		if body == "" {
			body = mutedStyle.Render("(not captured)")
		}
		fmt.Fprintf(out, "\n%s\n%s\n%s\n", titleStyle.Render(part[0]), rule(60), body)
	}
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage per kind and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEvents(cmd, func(ctx context.Context, repo store.EventRepo) error {
			byKind, err := repo.LLMUsageByKind(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(byKind) == 0 {
				fmt.Fprintln(out, "No model usage recorded.")
				return nil
			}
			printKindUsage(out, byKind)

			byModel, err := repo.LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}
			printBill(out, llm.NewBill(byModel))
			return nil
		})
	},
}

func printKindUsage(out io.Writer, stats []store.LLMUsageStats) {
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%-16s  %6s  %6s  %10s  %10s  %8s",
		"Kind", "Calls", "Failed", "Input", "Output", "Avg Ms")))
	fmt.Fprintln(out, rule(66))

	var calls, failed, in, outTok int
	for _, st := range stats {
		fmt.Fprintf(out, "%-16s  %6d  %6d  %10d  %10d  %8d\n",
			st.Kind, st.Calls, st.Failures, st.InputTokens, st.OutputTokens, st.AvgLatencyMs)
		calls += st.Calls
		failed += st.Failures
		in += st.InputTokens
		outTok += st.OutputTokens
	}
	fmt.Fprintln(out, rule(66))
	fmt.Fprintf(out, "%-16s  %6d  %6d  %10d  %10d\n", "TOTAL", calls, failed, in, outTok)
}

func printBill(out io.Writer, bill llm.Bill) {
	if len(bill.Lines) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%-32s  %6s  %10s  %10s  %10s",
		"Model", "Calls", "Input", "Output", "USD")))
	fmt.Fprintln(out, rule(76))
	for _, l := range bill.Lines {
		cost := warnStyle.Render("?")
		if l.Cost != nil {
			cost = formatCost(*l.Cost)
		}
		fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n",
			truncate(l.Model, 32), l.Calls, l.InputTokens, l.OutputTokens, cost)
	}
	fmt.Fprintln(out, rule(76))

	label := "TOTAL"
	if bill.Partial() {
		label = "TOTAL (partial)"
	}
	fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(bill.Total))
	if bill.Partial() {
		fmt.Fprintln(out, warnStyle.Render("No pricing for: "+strings.Join(bill.Unpriced, ", ")))
	}
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("kind", "k", "", "Only show one kind (response, feedback, classification, context)")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
