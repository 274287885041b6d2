package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// SortColumns whitelists the columns a list query may be ordered by. Caller
// input never reaches SQL except as one of these names.
type SortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

// NewSortColumns builds a whitelist. fallback is used for empty or unknown input
// and is always allowed.
func NewSortColumns(fallback string, columns ...string) SortColumns {
	allowed := make(map[string]struct{}, len(columns)+1)
	allowed[fallback] = struct{}{}
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return SortColumns{allowed: allowed, fallback: fallback}
}

// Column resolves a requested column name. Matching is exact after trimming.
func (s SortColumns) Column(requested string) string {
	requested = strings.TrimSpace(requested)
	if _, ok := s.allowed[requested]; ok {
		return requested
	}
	return s.fallback
}

// OrderBy returns the ORDER BY clause for a request. Only "asc" (any case)
// sorts ascending. Ties break on id so pages are stable.
func (s SortColumns) OrderBy(column, direction string) clause.OrderBy {
	col := s.Column(column)
	desc := !strings.EqualFold(strings.TrimSpace(direction), "asc")

	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: col}, Desc: desc},
	}}
	if col != "id" {
		order.Columns = append(order.Columns, clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	return order
}

// exceptionSortColumns orders the exception queue
var exceptionSortColumns = NewSortColumns("created_at",
	"id",
	"updated_at",
	"severity",
	"exception_code",
	"resolution_status",
	"resolved_at",
)
