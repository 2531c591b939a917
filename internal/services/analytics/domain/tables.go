// Package domain names the analytics tables and their column order
package domain

// Table is a clickhouse table and the column order rows are appended in
type Table struct {
	Name    string
	Columns []string
}

// ImpressionEvents holds every impression entry the API saw, kept or not
var ImpressionEvents = Table{
	Name: "impression_events",
	Columns: []string{
		"event_time", "session_id", "work_id", "user_id",
		"impression_type", "page_context", "position",
		"intersection_ratio", "display_duration_ms",
		"viewport_width", "viewport_height",
		"status", "reason",
	},
}

// ABComparisons holds one row per comparison run
var ABComparisons = Table{
	Name: "ab_comparisons",
	Columns: []string{
		"id", "compared_at", "user_id", "strategy", "requested",
		"pg_ms", "app_ms", "pg_count", "app_count",
		"overlap_count", "overlap_pct", "pg_faster",
		"pg_error", "app_error",
	},
}
