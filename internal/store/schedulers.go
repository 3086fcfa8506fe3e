package store

import (
	"context"
	"fmt"
	"time"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

// Scheduler is one scheduled job definition.
type Scheduler struct {
	Name     string
	Job      string
	Interval string // cron-like "min::hour::day::month::weekday"
	Status   string
	CatchUp  bool
}

// ReplaceSchedulers removes the rows for each template's job and inserts
// the template, all in one transaction. Running it twice leaves one row
// per job.
func (s *Store) ReplaceSchedulers(ctx context.Context, table string, jobs []Scheduler, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace schedulers: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	ts := now.UTC().Format(DateTimeFormat)
	del := fmt.Sprintf("DELETE FROM %s WHERE job = ?", quoteIdent(table))
	ins := fmt.Sprintf(`INSERT INTO %s
		(id, deleted, date_entered, date_modified, name, job, date_time_start, job_interval, status, catch_up)
		VALUES (?, 0, ?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdent(table))

	for _, j := range jobs {
		if _, err := tx.ExecContext(ctx, del, j.Job); err != nil {
			return fmt.Errorf("replace scheduler %s: %w", j.Job, err)
		}
		catchUp := 0
		if j.CatchUp {
			catchUp = 1
		}
		_, err := tx.ExecContext(ctx, ins,
			meta.SchedulerID(j.Job), ts, ts, j.Name, j.Job, ts, j.Interval, j.Status, catchUp)
		if err != nil {
			return fmt.Errorf("replace scheduler %s: %w", j.Job, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace schedulers: commit: %w", err)
	}
	return nil
}
