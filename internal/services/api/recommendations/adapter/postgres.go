package adapter

import (
	"context"

	"bunshare/internal/platform/breaker"
	ptime "bunshare/internal/platform/time"
	"bunshare/internal/services/api/recommendations/domain"
	"bunshare/internal/services/api/recommendations/repo"
)

// Postgres delegates ranking to the stored recommendation functions
type Postgres struct {
	repo  repo.Repo
	br    *breaker.Breaker[[]repo.RowWork]
	clock ptime.Clock
}

// NewPostgres returns the database ranking adapter
func NewPostgres(r repo.Repo, opts ...Option) *Postgres {
	if r == nil {
		panic("adapter.Postgres requires a non nil Repo")
	}
	s := resolve(opts)
	return &Postgres{
		repo:  r,
		br:    breaker.New[[]repo.RowWork](s.breakerName+string(domain.EnginePostgres), s.breaker),
		clock: s.clock,
	}
}

// Engine implements domain.Adapter
func (p *Postgres) Engine() domain.Engine { return domain.EnginePostgres }

// Rank calls the function for the effective strategy and keeps its order
func (p *Postgres) Rank(ctx context.Context, in domain.RankInput) (domain.Ranked, error) {
	st := effective(in)
	fn := repo.FunctionFor(st)

	start := p.clock.Now()
	rows, err := p.br.Execute(func() ([]repo.RowWork, error) {
		return p.repo.RankFunction(ctx, fn, in.UserID, in.Limit, in.Offset)
	})
	took := p.clock.Now().Sub(start)
	observe(domain.EnginePostgres, st, took, err)
	if err != nil {
		return domain.Ranked{}, err
	}

	works := make([]domain.Work, 0, len(rows))
	for _, r := range rows {
		works = append(works, toWork(r, r.Score))
	}
	return domain.Ranked{
		Works:     works,
		Engine:    domain.EnginePostgres,
		Strategy:  st,
		Source:    string(fn),
		QueryTime: took,
	}, nil
}
