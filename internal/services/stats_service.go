package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"querydash/internal/database"
	"querydash/internal/models"
)

// ErrStorageUnavailable wraps any record-store failure during
// aggregation. The aggregator never retries; retry policy lives in the
// connection layer.
var ErrStorageUnavailable = errors.New("storage unavailable")

// recentQueryLimit is the size of the recent-queries list.
const recentQueryLimit = 10

// StatsService computes dashboard analytics from the search_queries
// table. Every call re-queries the store; nothing is cached.
type StatsService struct {
	db *database.DB

	// timelineWindowDays bounds the timeline to the last N days;
	// 0 means full history.
	timelineWindowDays int
}

// NewStatsService creates a new stats service.
func NewStatsService(db *database.DB, timelineWindowDays int) *StatsService {
	return &StatsService{db: db, timelineWindowDays: timelineWindowDays}
}

// ComputeSnapshot runs the six aggregation reads and assembles one
// Snapshot. The reads are independent; concurrent writes between them
// can skew sub-results by a few rows, which is accepted.
func (s *StatsService) ComputeSnapshot(ctx context.Context) (*models.Snapshot, error) {
	total, err := s.total(ctx)
	if err != nil {
		return nil, err
	}

	searchTypes, err := s.searchTypeBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	platforms, err := s.platformBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	timeline, err := s.timeline(ctx)
	if err != nil {
		return nil, err
	}

	dateRange, err := s.dateRange(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.recentQueries(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Snapshot{
		Total:               total,
		SearchTypeBreakdown: searchTypes,
		PlatformBreakdown:   platforms,
		TimelineData:        timeline,
		DateRange:           dateRange,
		RecentQueries:       recent,
	}, nil
}

func (s *StatsService) total(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_queries").Scan(&total)
	if err != nil {
		return 0, storageErr("count", err)
	}
	return total, nil
}

// searchTypeBreakdown groups all records by search type. Records with
// no search type are bucketed under "Unknown".
func (s *StatsService) searchTypeBreakdown(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(search_type, ?) AS label, COUNT(*)
		FROM search_queries
		GROUP BY COALESCE(search_type, ?)
	`, models.UnknownSearchType, models.UnknownSearchType)
	if err != nil {
		return nil, storageErr("search type breakdown", err)
	}
	defer rows.Close()

	return scanBreakdown(rows, "search type breakdown")
}

// platformBreakdown groups records by platform, excluding records with
// no platform from both the counts and the key set.
func (s *StatsService) platformBreakdown(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT platform_name, COUNT(*)
		FROM search_queries
		WHERE platform_name IS NOT NULL
		GROUP BY platform_name
	`)
	if err != nil {
		return nil, storageErr("platform breakdown", err)
	}
	defer rows.Close()

	return scanBreakdown(rows, "platform breakdown")
}

// timeline counts records per UTC calendar day.
func (s *StatsService) timeline(ctx context.Context) (map[string]int64, error) {
	query := fmt.Sprintf(`
		SELECT %s AS day, COUNT(*)
		FROM search_queries
	`, s.db.DayExpr())

	args := []any{}
	if s.timelineWindowDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -s.timelineWindowDays).Unix()
		query += " WHERE created_at >= ?"
		args = append(args, cutoff)
	}
	query += " GROUP BY day"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("timeline", err)
	}
	defer rows.Close()

	return scanBreakdown(rows, "timeline")
}

func (s *StatsService) dateRange(ctx context.Context) (models.DateRange, error) {
	var earliest, latest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MIN(created_at), MAX(created_at) FROM search_queries",
	).Scan(&earliest, &latest)
	if err != nil {
		return models.DateRange{}, storageErr("date range", err)
	}

	var dr models.DateRange
	if earliest.Valid {
		t := time.Unix(earliest.Int64, 0).UTC()
		dr.Earliest = &t
	}
	if latest.Valid {
		t := time.Unix(latest.Int64, 0).UTC()
		dr.Latest = &t
	}
	return dr, nil
}

// recentQueries returns the newest records, id as the tiebreaker so
// repeated calls with no writes are byte-identical.
func (s *StatsService) recentQueries(ctx context.Context) ([]models.RecentQuery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, keyword, search_type, platform_name, created_at
		FROM search_queries
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, recentQueryLimit)
	if err != nil {
		return nil, storageErr("recent queries", err)
	}
	defer rows.Close()

	recent := make([]models.RecentQuery, 0, recentQueryLimit)
	for rows.Next() {
		var (
			q         models.RecentQuery
			createdAt int64
		)
		if err := rows.Scan(&q.ID, &q.Keyword, &q.SearchType, &q.PlatformName, &createdAt); err != nil {
			return nil, storageErr("recent queries", err)
		}
		q.CreatedAt = time.Unix(createdAt, 0).UTC()
		recent = append(recent, q)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("recent queries", err)
	}
	return recent, nil
}

func scanBreakdown(rows *sql.Rows, op string) (map[string]int64, error) {
	breakdown := make(map[string]int64)
	for rows.Next() {
		var (
			label string
			count int64
		)
		if err := rows.Scan(&label, &count); err != nil {
			return nil, storageErr(op, err)
		}
		breakdown[label] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return breakdown, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
