package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/rev/internal/output"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List review sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun(cmd)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum sessions to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

func historyRun(cmd *cobra.Command) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	sessions, err := s.History(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		ui.Info("No review sessions yet. Run 'rev review \"summary\"' to start one.")
		return nil
	}

	table := ui.Table([]string{"ID", "STATUS", "ROUNDS", "ASSESSMENT", "UPDATED", "SUMMARY"})
	for _, sess := range sessions {
		assessment := "-"
		if last := sess.LatestRound(); last != nil {
			assessment = output.AssessmentColor(string(last.OverallAssessment))
		}
		table.Append([]string{
			output.Cyan(sess.ID),
			output.StatusColor(string(sess.Status)),
			fmt.Sprintf("%d", len(sess.Rounds)),
			assessment,
			sess.UpdatedAt.Local().Format("2006-01-02 15:04"),
			oneLine(sess.Request.Summary, 60),
		})
	}
	_ = table.Render()
	return nil
}
