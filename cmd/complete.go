package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/rev/internal/models"
	"github.com/joescharf/rev/internal/output"
)

var completeNotes string

var completeCmd = &cobra.Command{
	Use:   "complete <session-id> <status>",
	Short: "Close out a review session",
	Long: `Move a session to a terminal status: approved, abandoned, or merged.
This overrides whatever the last round concluded. Use "latest" as the
session id for the most recent session.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completeRun(cmd, args[0], args[1])
	},
}

func init() {
	completeCmd.Flags().StringVar(&completeNotes, "notes", "", "Closing notes to archive with the session")
	rootCmd.AddCommand(completeCmd)
}

func completeRun(cmd *cobra.Command, id, status string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	id, err = resolveSessionID(cmd.Context(), id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would mark session %s as %s", id, status)
		return nil
	}

	if err := s.Complete(cmd.Context(), id, models.SessionStatus(status), completeNotes); err != nil {
		return err
	}

	ui.Success("Session %s marked %s", output.Cyan(id), output.StatusColor(status))
	return nil
}
