package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// Stats counts jobs per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan queue stats: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Health folds Stats into the buckets shown by the status views. Jobs parked
// between stages (downloaded, transcribed, ...) count as processing.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	counts, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	var summary HealthSummary
	for status, n := range counts {
		summary.Total += n
		switch status {
		case StatusPending:
			summary.Pending += n
		case StatusFailed:
			summary.Failed += n
		case StatusCompleted:
			summary.Completed += n
		default:
			summary.Processing += n
		}
	}
	return summary, nil
}

// CheckHealth inspects the database file, schema version, jobs table and
// SQLite integrity. A missing file is reported, not returned as an error.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("queue database path is unknown")
	}
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return health, nil
	case err != nil:
		return health, fmt.Errorf("stat queue database: %w", err)
	case info.IsDir():
		return health, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true
	if s.db == nil {
		return health, errors.New("queue database connection unavailable")
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	checks := []func(context.Context, *DatabaseHealth) error{
		s.checkReadable,
		s.checkSchema,
		s.checkJobsTable,
		s.checkIntegrity,
	}
	for _, check := range checks {
		if err := check(ctx, &health); err != nil {
			health.Error = err.Error()
			return health, err
		}
	}
	return health, nil
}

func (s *Store) checkReadable(ctx context.Context, health *DatabaseHealth) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping queue database: %w", err)
	}
	health.DatabaseReadable = true
	return nil
}

func (s *Store) checkSchema(ctx context.Context, health *DatabaseHealth) error {
	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	health.SchemaVersion = strconv.Itoa(version)
	return nil
}

func (s *Store) checkJobsTable(ctx context.Context, health *DatabaseHealth) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info('queue_items')`)
	if err != nil {
		return fmt.Errorf("jobs table info: %w", err)
	}
	defer rows.Close()
	var present []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan jobs table info: %w", err)
		}
		present = append(present, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read jobs table info: %w", err)
	}
	if len(present) == 0 {
		return nil
	}
	health.TableExists = true
	health.ColumnsPresent = present
	for _, column := range strings.Split(itemColumns, ", ") {
		if !slices.Contains(present, column) {
			health.MissingColumns = append(health.MissingColumns, column)
		}
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM queue_items`).Scan(&health.TotalItems); err != nil {
		return fmt.Errorf("count jobs: %w", err)
	}
	return nil
}

func (s *Store) checkIntegrity(ctx context.Context, health *DatabaseHealth) error {
	var result string
	if err := s.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(result, "ok")
	return nil
}
