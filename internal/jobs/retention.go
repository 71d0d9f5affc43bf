package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"querydash/internal/database"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

// RetentionCleanupJob deletes search-query records older than the
// configured retention window.
type RetentionCleanupJob struct {
	db            *database.DB
	retentionDays int
}

// NewRetentionCleanupJob creates a new retention cleanup job.
func NewRetentionCleanupJob(db *database.DB, retentionDays int) *RetentionCleanupJob {
	return &RetentionCleanupJob{db: db, retentionDays: retentionDays}
}

// Run deletes all records older than the retention window and returns
// the number of rows removed.
func (j *RetentionCleanupJob) Run(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays).Unix()

	log.Printf("[RETENTION] Deleting search queries older than %d days...", j.retentionDays)
	startTime := time.Now()

	result, err := j.db.ExecContext(ctx, "DELETE FROM search_queries WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention cleanup failed: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("retention cleanup failed: %w", err)
	}

	log.Printf("[RETENTION] Deleted %d records in %v", deleted, time.Since(startTime))
	return deleted, nil
}

// StartRetentionScheduler validates the cron expression and schedules
// the cleanup job in UTC. The returned scheduler must be shut down on
// exit.
func StartRetentionScheduler(db *database.DB, retentionDays int, cronExpr string) (gocron.Scheduler, error) {
	// Standard 5-field expressions only
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cronExpr); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", cronExpr, err)
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	job := NewRetentionCleanupJob(db, retentionDays)

	_, err = scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := job.Run(ctx); err != nil {
				log.Printf("[RETENTION] %v", err)
			}
		}),
		gocron.WithName("retention-cleanup"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register retention job: %w", err)
	}

	scheduler.Start()
	log.Printf("📅 Retention cleanup scheduled (cron: %s, keep: %d days)", cronExpr, retentionDays)

	return scheduler, nil
}
