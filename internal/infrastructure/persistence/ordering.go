package persistence

import (
	"strings"
)

// ordering maps the sort keys a list endpoint accepts onto columns. Anything
// outside the map falls back to the default column, so caller input never
// reaches the ORDER BY clause.
type ordering struct {
	columns  map[string]string
	fallback string
}

// exportJobOrdering is the history list ordering; newest first by default
var exportJobOrdering = ordering{
	columns: map[string]string{
		"created_at":    "created_at",
		"updated_at":    "updated_at",
		"completed_at":  "completed_at",
		"channel":       "channel",
		"status":        "status",
		"voucher_count": "voucher_count",
		"vouchers":      "voucher_count",
		"pages":         "page_count",
	},
	fallback: "created_at",
}

// clause builds the ORDER BY expression. Ties on a secondary column are
// broken by creation time so paging stays stable.
func (o ordering) clause(key, dir string) string {
	column, ok := o.columns[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		column = o.fallback
	}
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		direction = "ASC"
	}
	if column == o.fallback {
		return column + " " + direction
	}
	return column + " " + direction + ", " + o.fallback + " DESC"
}
