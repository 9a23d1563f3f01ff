// Package migration creates the report export schema on first start.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// SentinelTable is checked to decide whether the schema already exists.
const SentinelTable = "report_exports"

type step struct {
	Name string
	SQL  string
}

var steps = []step{
	{
		Name: "create_table_report_exports",
		SQL: `CREATE TABLE IF NOT EXISTS report_exports (
  id           UUID        PRIMARY KEY,
  kind         TEXT        NOT NULL,
  filename     TEXT        NOT NULL,
  storage_path TEXT        NOT NULL UNIQUE,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  content_type TEXT        NOT NULL,
  range_from   DATE        NOT NULL,
  range_to     DATE        NOT NULL,
  created_by   TEXT        NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK (range_to >= range_from)
);`,
	},
	{
		Name: "create_index_report_exports_kind",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_report_exports_kind ON report_exports (kind);`,
	},
	{
		Name: "create_index_report_exports_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_report_exports_created_at ON report_exports (created_at DESC);`,
	},
}

// Steps returns the names of the migration steps in order.
func Steps() []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

// EnsureMigrated runs every step unless the sentinel table already exists.
// It reports whether anything was applied.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logrus.Logger, dbHost string) (bool, error) {
	start := time.Now()
	entry := log.WithFields(logrus.Fields{"component": "database", "db_host": dbHost})
	entry.WithField("event", "db_migration_check").Info("checking schema")

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public."+SentinelTable+"') IS NOT NULL").Scan(&exists); err != nil {
		entry.WithFields(logrus.Fields{
			"event":       "db_migration_failed",
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Error("sentinel table check failed")
		return false, fmt.Errorf("check sentinel table: %w", err)
	}
	if exists {
		entry.WithFields(logrus.Fields{
			"event":       "db_migration_skip",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("schema already exists, skipping migration")
		return false, nil
	}

	for _, s := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, s.SQL); err != nil {
			entry.WithFields(logrus.Fields{
				"event":          "db_migration_failed",
				"migration_step": s.Name,
				"error":          err.Error(),
			}).Error("migration step failed")
			return false, fmt.Errorf("migration step %s: %w", s.Name, err)
		}
		entry.WithFields(logrus.Fields{
			"event":            "db_migration_step",
			"migration_step":   s.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Debug("migration step applied")
	}

	entry.WithFields(logrus.Fields{
		"event":       "db_migration_success",
		"steps":       len(steps),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("schema migrated")
	return true, nil
}
