package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tawjihi/mathbot/internal/store"
	"github.com/tawjihi/mathbot/internal/ui/theme"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent publish attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openLedgerFor(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventQuerier().QueryPostEvents(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No publish attempts recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-19s  %-8s  %-8s  %-7s  %-6s  %-2s  %s\n",
			"Time (UTC)", "Run", "Question", "Variant", "Status", "OK", "Error")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, e := range events {
			variant := ""
			if e.Variant {
				variant = "yes"
			}
			fmt.Fprintf(out, "%-19s  %-8s  %-8d  %-7s  %-6d  %-2s  %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"),
				truncate(e.RunID, 8),
				e.QuestionID,
				variant,
				e.StatusCode,
				theme.Mark(e.Success),
				truncate(e.ErrorMessage, 40),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show")
}
