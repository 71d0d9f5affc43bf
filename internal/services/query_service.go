package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"querydash/internal/database"
	"querydash/internal/models"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// QueryService provides CRUD access to search-query records for the
// admin API. The statistics layer reads the same table independently.
type QueryService struct {
	db *database.DB
}

// NewQueryService creates a new query service.
func NewQueryService(db *database.DB) *QueryService {
	return &QueryService{db: db}
}

// List returns one page of records, newest first.
func (s *QueryService) List(ctx context.Context, limit, offset int) (*models.SearchQueryPage, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_queries").Scan(&total); err != nil {
		return nil, storageErr("list count", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, keyword, platform_name, search_type, error, result_count, created_at
		FROM search_queries
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer rows.Close()

	items := make([]models.SearchQuery, 0, limit)
	for rows.Next() {
		record, err := scanSearchQuery(rows)
		if err != nil {
			return nil, storageErr("list", err)
		}
		items = append(items, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list", err)
	}

	return &models.SearchQueryPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// Get returns one record by id.
func (s *QueryService) Get(ctx context.Context, id int64) (*models.SearchQuery, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, keyword, platform_name, search_type, error, result_count, created_at
		FROM search_queries
		WHERE id = ?
	`, id)

	record, err := scanSearchQuery(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get", err)
	}
	return record, nil
}

// Create inserts a new record. CreatedAt defaults to now.
func (s *QueryService) Create(ctx context.Context, input models.SearchQueryInput) (*models.SearchQuery, error) {
	createdAt := time.Now().UTC()
	if input.CreatedAt != nil {
		createdAt = input.CreatedAt.UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO search_queries (keyword, platform_name, search_type, error, result_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, input.Keyword, input.PlatformName, input.SearchType, input.Error, input.ResultCount, createdAt.Unix())
	if err != nil {
		return nil, storageErr("create", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageErr("create", err)
	}

	return s.Get(ctx, id)
}

// Update replaces the mutable fields of a record. created_at is only
// changed when the input provides it.
func (s *QueryService) Update(ctx context.Context, id int64, input models.SearchQueryInput) (*models.SearchQuery, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	createdAt := existing.CreatedAt
	if input.CreatedAt != nil {
		createdAt = input.CreatedAt.UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE search_queries
		SET keyword = ?, platform_name = ?, search_type = ?, error = ?, result_count = ?, created_at = ?
		WHERE id = ?
	`, input.Keyword, input.PlatformName, input.SearchType, input.Error, input.ResultCount, createdAt.Unix(), id)
	if err != nil {
		return nil, storageErr("update", err)
	}

	return s.Get(ctx, id)
}

// Delete removes a record by id.
func (s *QueryService) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM search_queries WHERE id = ?", id)
	if err != nil {
		return storageErr("delete", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storageErr("delete", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearchQuery(row rowScanner) (*models.SearchQuery, error) {
	var (
		record    models.SearchQuery
		createdAt int64
	)
	err := row.Scan(
		&record.ID,
		&record.Keyword,
		&record.PlatformName,
		&record.SearchType,
		&record.Error,
		&record.ResultCount,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &record, nil
}
