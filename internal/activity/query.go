// Package activity keeps the journal of domain events per session and per
// form, so a session's history can be replayed after the session is gone.
package activity

import "time"

// QueryOptions controls filtering and pagination for journal queries.
type QueryOptions struct {
	Since      *time.Time
	Until      *time.Time
	Categories []string // filter to specific event categories
	MinWeight  string   // minimum weight threshold (default: "info")
	Limit      int      // max results (default: 100, max: 500)
	Cursor     string   // cursor for pagination
}

// DefaultQueryOptions returns QueryOptions with sensible defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		MinWeight: WeightInfo,
		Limit:     100,
	}
}

func (o QueryOptions) limit() int {
	if o.Limit <= 0 || o.Limit > 500 {
		return 100
	}
	return o.Limit
}
