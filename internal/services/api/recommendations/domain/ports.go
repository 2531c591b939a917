package domain

import "context"

// Adapter is one interchangeable ranking source
type Adapter interface {
	Engine() Engine
	Rank(ctx context.Context, in RankInput) (Ranked, error)
}

// ServicePort is the orchestrator contract
type ServicePort interface {
	Recommend(ctx context.Context, req Request) (Result, error)
}

// SignalCounter reports how much behavioral history a user has
type SignalCounter interface {
	SignalCount(ctx context.Context, userID string) (int, error)
}
