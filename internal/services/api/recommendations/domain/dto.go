// Package domain holds DTOs and ports for recommendation http, service and
// adapter contracts
package domain

import (
	"time"

	"bunshare/internal/core/ranking"
)

// Engine names a recommendation source
type Engine string

const (
	// EnginePostgres ranks inside the database through stored functions
	EnginePostgres Engine = "postgresql"
	// EngineApplication ranks in process from raw signals
	EngineApplication Engine = "application"
)

// Valid reports whether e is a known engine
func (e Engine) Valid() bool { return e == EnginePostgres || e == EngineApplication }

// Work is a ranked work as served to clients
type Work struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	AuthorID   string    `json:"authorId"`
	Category   string    `json:"category,omitempty"`
	Tags       []string  `json:"tags"`
	Excerpt    string    `json:"excerpt,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Views      int64     `json:"views"`
	Likes      int64     `json:"likes"`
	Comments   int64     `json:"comments"`
	Bookmarks  int64     `json:"bookmarks"`
	Shares     int64     `json:"shares"`
	TrendScore float64   `json:"trendScore"`
	Score      float64   `json:"score"`
}

// RankInput is one adapter call
type RankInput struct {
	UserID   string
	Strategy ranking.Strategy
	Limit    int
	Offset   int
}

// Ranked is an adapter's answer
type Ranked struct {
	Works     []Work
	Engine    Engine
	Strategy  ranking.Strategy
	Source    string
	QueryTime time.Duration
}

// Request is one orchestrated recommendation call. Empty Strategy means
// infer it; empty Engine means the configured default.
type Request struct {
	UserID     string
	ExcludeIDs []string
	Limit      int
	Offset     int
	Strategy   ranking.Strategy
	Engine     Engine
}

// Result is the recommendation envelope. HasMore is a hint: it is true when
// more than Limit works survived exclusion in the over-fetched pool.
type Result struct {
	Works     []Work           `json:"works"`
	Strategy  ranking.Strategy `json:"strategy"`
	Source    string           `json:"source"`
	Engine    Engine           `json:"engine,omitempty"`
	Total     int              `json:"total"`
	QueryTime float64          `json:"queryTime"` // milliseconds
	HasMore   bool             `json:"hasMore"`
	Degraded  bool             `json:"degraded,omitempty"`
}

// MoreInput is the load-more body
type MoreInput struct {
	ExcludeWorkIDs []string `json:"excludeWorkIds" validate:"max=500,dive,notblank" example:"[\"9b2f6c1e-1111-4a8e-9b7d-2a1f0c3d4e5f\"]"`
	Offset         int      `json:"offset" validate:"min=0" example:"20"`
	Limit          int      `json:"limit,omitempty" validate:"omitempty,min=1,max=50" example:"20"`
	Strategy       string   `json:"strategy,omitempty" validate:"omitempty,oneof=personalized adaptive popular" example:"adaptive"`
}

// EngineInput is the body of POST /recommendations/postgresql
type EngineInput struct {
	Limit          int      `json:"limit,omitempty" validate:"omitempty,min=1,max=50" example:"20"`
	Offset         int      `json:"offset" validate:"min=0" example:"0"`
	Strategy       string   `json:"strategy,omitempty" validate:"omitempty,oneof=personalized adaptive popular" example:"popular"`
	ExcludeWorkIDs []string `json:"excludeWorkIds,omitempty" validate:"max=500,dive,notblank"`
}

// Millis renders d as fractional milliseconds
func Millis(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
