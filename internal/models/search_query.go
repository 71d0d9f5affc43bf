package models

import "time"

// SearchQuery is a single search-query record. Records are written by
// the external ingestion pipeline and by the admin CRUD API; the
// statistics layer only reads them.
type SearchQuery struct {
	ID           int64     `json:"id"`
	Keyword      *string   `json:"keyword"`
	PlatformName *string   `json:"platform_name"`
	SearchType   *string   `json:"search_type"`
	Error        *string   `json:"error,omitempty"`
	ResultCount  *int64    `json:"result_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SearchQueryInput is the client-supplied shape for create/update.
// CreatedAt is optional on create and defaults to the current time.
type SearchQueryInput struct {
	Keyword      *string    `json:"keyword"`
	PlatformName *string    `json:"platform_name"`
	SearchType   *string    `json:"search_type"`
	Error        *string    `json:"error"`
	ResultCount  *int64     `json:"result_count"`
	CreatedAt    *time.Time `json:"created_at"`
}

// SearchQueryPage is a paginated listing of records, newest first.
type SearchQueryPage struct {
	Items  []SearchQuery `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}
