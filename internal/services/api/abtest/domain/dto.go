// Package domain holds the A/B comparison types and ports
package domain

import (
	"context"
	"time"

	"bunshare/internal/core/ranking"
	recdomain "bunshare/internal/services/api/recommendations/domain"
)

// CompareInput selects what both engines are asked for
type CompareInput struct {
	UserID   string
	Limit    int
	Strategy ranking.Strategy
	Refresh  bool
}

// CompareBody is the POST /ab-test/compare payload
type CompareBody struct {
	UserID   string `json:"userId"   validate:"omitempty,uuid"`
	Limit    int    `json:"limit"    validate:"omitempty,min=1,max=50"`
	Strategy string `json:"strategy" validate:"omitempty,oneof=personalized adaptive popular"`
	Refresh  bool   `json:"refresh"`
}

// Outcome is one engine's answer or its error
type Outcome struct {
	Engine    recdomain.Engine `json:"engine"`
	Success   bool             `json:"success"`
	Strategy  ranking.Strategy `json:"strategy,omitempty"`
	Source    string           `json:"source,omitempty"`
	Works     []recdomain.Work `json:"works"`
	Count     int              `json:"count"`
	ElapsedMs float64          `json:"elapsedMs"`
	Error     string           `json:"error,omitempty"`
}

// IDs returns the returned work ids in rank order
func (o Outcome) IDs() []string {
	out := make([]string, len(o.Works))
	for i, w := range o.Works {
		out[i] = w.ID
	}
	return out
}

// Metrics compares two outcomes
type Metrics struct {
	PostgreSQLTimeMs  float64 `json:"postgresqlTime"`
	ApplicationTimeMs float64 `json:"applicationTime"`
	OverlapCount      int     `json:"overlapCount"`
	OverlapPercentage float64 `json:"overlapPercentage"`
	PostgreSQLFaster  bool    `json:"postgresqlFaster"`
	BothSucceeded     bool    `json:"bothSucceeded"`
}

// Comparison is one comparison run
type Comparison struct {
	ID          string           `json:"id"`
	ComparedAt  time.Time        `json:"comparedAt"`
	UserID      string           `json:"userId,omitempty"`
	Limit       int              `json:"limit"`
	Strategy    ranking.Strategy `json:"strategy"`
	Refreshed   bool             `json:"refreshed"`
	PostgreSQL  Outcome          `json:"postgresql"`
	Application Outcome          `json:"application"`
	Metrics     Metrics          `json:"comparison"`
}

// EngineStats aggregates one engine over a window
type EngineStats struct {
	Engine   recdomain.Engine `json:"engine"`
	AvgMs    float64          `json:"avgMs"`
	Failures int64            `json:"failures"`
}

// Stats aggregates logged comparisons since a point in time
type Stats struct {
	Since               time.Time     `json:"since"`
	Runs                int64         `json:"runs"`
	AvgOverlapPct       float64       `json:"avgOverlapPercentage"`
	PostgreSQLFasterPct float64       `json:"postgresqlFasterPercentage"`
	Engines             []EngineStats `json:"engines"`
}

// ComparatorPort runs comparisons and reports their history
type ComparatorPort interface {
	Compare(ctx context.Context, in CompareInput) (Comparison, error)
	Stats(ctx context.Context, window time.Duration) (Stats, error)
}

// Refresher recomputes the stored ranking scores
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StatsSource reads aggregated comparison history
type StatsSource interface {
	Stats(ctx context.Context, since time.Time) (Stats, error)
}
