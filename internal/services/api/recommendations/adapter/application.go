package adapter

import (
	"context"
	"slices"

	"bunshare/internal/core/ranking"
	"bunshare/internal/platform/breaker"
	ptime "bunshare/internal/platform/time"
	"bunshare/internal/services/api/recommendations/domain"
	"bunshare/internal/services/api/recommendations/repo"

	"golang.org/x/sync/errgroup"
)

// SourceApplication labels results scored in process
const SourceApplication = "weighted_blend"

// Application scores a candidate pool against the user's signals
type Application struct {
	repo         repo.Repo
	br           *breaker.Breaker[pool]
	clock        ptime.Clock
	weights      WeightSet
	poolSize     int
	historyLimit int
}

type pool struct {
	rows    []repo.RowWork
	profile ranking.Profile
}

// NewApplication returns the application ranking adapter
func NewApplication(r repo.Repo, opts ...Option) *Application {
	if r == nil {
		panic("adapter.Application requires a non nil Repo")
	}
	s := resolve(opts)
	return &Application{
		repo:         r,
		br:           breaker.New[pool](s.breakerName+string(domain.EngineApplication), s.breaker),
		clock:        s.clock,
		weights:      s.weights,
		poolSize:     s.poolSize,
		historyLimit: s.historyLimit,
	}
}

// Engine implements domain.Adapter
func (a *Application) Engine() domain.Engine { return domain.EngineApplication }

// Weights returns the blend weights for s
func (a *Application) Weights(s ranking.Strategy) ranking.Weights { return a.weights[s] }

// Rank fetches the pool and signals concurrently, scores and pages them
func (a *Application) Rank(ctx context.Context, in domain.RankInput) (domain.Ranked, error) {
	st := effective(in)

	start := a.clock.Now()
	p, err := a.br.Execute(func() (pool, error) {
		return a.fetch(ctx, in.UserID, max(a.poolSize, in.Offset+in.Limit))
	})
	if err != nil {
		observe(domain.EngineApplication, st, a.clock.Now().Sub(start), err)
		return domain.Ranked{}, err
	}

	cands := make([]ranking.Candidate, len(p.rows))
	byID := make(map[string]repo.RowWork, len(p.rows))
	for i, r := range p.rows {
		cands[i] = r.Candidate()
		byID[r.ID] = r
	}
	scored := ranking.Rank(cands, p.profile, a.weights[st])

	lo := min(max(in.Offset, 0), len(scored))
	hi := len(scored)
	if in.Limit > 0 {
		hi = min(lo+in.Limit, hi)
	}
	works := make([]domain.Work, 0, hi-lo)
	for _, s := range scored[lo:hi] {
		works = append(works, toWork(byID[s.ID], s.Score))
	}

	took := a.clock.Now().Sub(start)
	observe(domain.EngineApplication, st, took, nil)
	return domain.Ranked{
		Works:     works,
		Engine:    domain.EngineApplication,
		Strategy:  st,
		Source:    SourceApplication,
		QueryTime: took,
	}, nil
}

// fetch loads the candidate pool and, for a known user, every signal kind.
// The first failure cancels the rest.
func (a *Application) fetch(ctx context.Context, userID string, size int) (pool, error) {
	g, gctx := errgroup.WithContext(ctx)

	var rows []repo.RowWork
	g.Go(func() error {
		var err error
		rows, err = a.repo.Candidates(gctx, size)
		return err
	})

	var (
		liked, saved, viewed []ranking.Interaction
		followed             []string
		coLikes              map[string]int
	)
	if userID != "" {
		history := func(kind ranking.InteractionKind, dst *[]ranking.Interaction) func() error {
			return func() error {
				var err error
				*dst, err = a.repo.History(gctx, userID, kind, a.historyLimit)
				return err
			}
		}
		g.Go(history(ranking.Liked, &liked))
		g.Go(history(ranking.Bookmarked, &saved))
		g.Go(history(ranking.Viewed, &viewed))
		g.Go(func() error {
			var err error
			followed, err = a.repo.Followed(gctx, userID)
			return err
		})
		g.Go(func() error {
			var err error
			coLikes, err = a.repo.CoLikes(gctx, userID, size)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return pool{}, err
	}

	return pool{
		rows:    rows,
		profile: ranking.NewProfile(userID, slices.Concat(liked, saved, viewed), followed, coLikes),
	}, nil
}
