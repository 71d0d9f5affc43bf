package models

import "time"

// UnknownSearchType is the bucket label for records with no search
// type. Records with no platform are excluded from the platform
// breakdown instead; the asymmetry is deliberate.
const UnknownSearchType = "Unknown"

// DateRange spans the earliest and latest created_at across all
// records. Both fields are null for an empty store.
type DateRange struct {
	Earliest *time.Time `json:"earliest"`
	Latest   *time.Time `json:"latest"`
}

// RecentQuery is the projection of a record used in the recent-queries
// list. The error/result fields of the full record are not included.
type RecentQuery struct {
	ID           int64     `json:"id"`
	Keyword      *string   `json:"keyword"`
	SearchType   *string   `json:"search_type"`
	PlatformName *string   `json:"platform_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Snapshot is the complete analytics result of one aggregation pass.
// The sub-results are independent reads; under concurrent writes they
// may disagree by a few rows, which is accepted.
type Snapshot struct {
	Total               int64            `json:"total"`
	SearchTypeBreakdown map[string]int64 `json:"searchTypeBreakdown"`
	PlatformBreakdown   map[string]int64 `json:"platformBreakdown"`
	TimelineData        map[string]int64 `json:"timelineData"`
	DateRange           DateRange        `json:"dateRange"`
	RecentQueries       []RecentQuery    `json:"recentQueries"`
}
