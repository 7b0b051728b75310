package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/rev/internal/output"
)

var showCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a review session's rounds and findings",
	Long: `Show a full review session. With no argument (or "latest"), shows
the most recently written session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := "latest"
		if len(args) == 1 {
			id = args[0]
		}
		return showRun(cmd, id)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func showRun(cmd *cobra.Command, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	id, err = resolveSessionID(cmd.Context(), id)
	if err != nil {
		return err
	}

	session, err := s.GetSession(cmd.Context(), id)
	if err != nil {
		return err
	}

	ui.Info("Session %s  %s", output.Cyan(session.ID), output.StatusColor(string(session.Status)))
	fmt.Fprintf(ui.Out, "  Created: %s  Updated: %s\n",
		session.CreatedAt.Local().Format("2006-01-02 15:04"),
		session.UpdatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(ui.Out, "  Summary: %s\n", session.Request.Summary)
	if len(session.Request.Focus) > 0 {
		fmt.Fprintf(ui.Out, "  Focus:   %s\n", strings.Join(session.Request.Focus, ", "))
	}
	if len(session.Request.Docs) > 0 {
		fmt.Fprintf(ui.Out, "  Docs:    %s\n", strings.Join(session.Request.Docs, ", "))
	}

	if len(session.Rounds) == 0 {
		fmt.Fprintln(ui.Out)
		ui.Info("No rounds recorded yet.")
		return nil
	}

	for i := range session.Rounds {
		renderResult(&session.Rounds[i])
	}
	return nil
}
