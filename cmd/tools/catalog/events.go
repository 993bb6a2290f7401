// cmd/tools/catalog/events.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"activity-signup/internal/audit"
	"activity-signup/internal/common/config"
	"activity-signup/internal/common/database"
	"activity-signup/internal/common/logger"

	"github.com/spf13/cobra"
)

// openAuditDB connects to the audit database named in the server config.
// Tests replace it with a sqlmock connection.
var openAuditDB = func(ctx context.Context) (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg.DB, nil
}

func eventsCmd() *cobra.Command {
	var (
		name       string
		limit      int
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent signup and unregister events for an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			db, err := openAuditDB(ctx)
			if err != nil {
				return fmt.Errorf("open audit database: %w", err)
			}
			defer db.Close()

			events, err := audit.NewPostgresRecorder(db, logger.NewNoOpLogger()).Recent(ctx, name, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}
			if len(events) == 0 {
				fmt.Fprintf(out, "No events for %s\n", name)
				return nil
			}
			for _, e := range events {
				fmt.Fprintf(out, "%s  %-10s %s\n", e.OccurredAt, e.Action, e.Email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Activity name")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of events")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output events as JSON")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
