package main

import (
	"encoding/json"
	"fmt"

	"github.com/Evans-Junior/chat-bot/internal/config"
	"github.com/Evans-Junior/chat-bot/internal/store"
	"github.com/spf13/cobra"
)

// newTranscriptCmd prints the archived exchanges of a session as JSON lines.
// It reads the archive directly and does not need an API key.
func newTranscriptCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "transcript <sessionId>",
		Short: "Print the archived transcript of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				cfg := config.ArchiveFromEnv()
				dbPath = cfg.DBPath
			}

			archive, err := store.NewSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer func() { _ = archive.Close() }()

			tasks, err := archive.SessionTranscript(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, t := range tasks {
				line := map[string]interface{}{
					"taskId":      t.ID,
					"status":      t.Status,
					"message":     t.Message,
					"submittedAt": t.SubmittedAt,
				}
				if t.Result != nil {
					line["response"] = t.Result.Message
					line["modelUsed"] = t.Result.ModelUsed
				}
				if t.Error != "" {
					line["error"] = t.Error
				}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Archive database path (defaults to ARCHIVE_DB_PATH)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of exchanges to print (0 = all)")
	return cmd
}
