package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/herval/cliobot/internal/database"
)

// DefaultTasks builds the standard task registry for the bot.
func DefaultTasks(logger *slog.Logger, store database.Store) map[string]TaskFunc {
	return map[string]TaskFunc{
		"sql_maintenance": newSQLMaintenanceTask(logger, store),
	}
}

func newSQLMaintenanceTask(logger *slog.Logger, store database.Store) TaskFunc {
	log := logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		start := time.Now()
		if err := store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance failed", "error", err, "duration", time.Since(start))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance completed", "duration", time.Since(start))
		return nil
	}
}
