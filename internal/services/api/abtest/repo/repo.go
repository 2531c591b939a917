// Package repo holds the A/B test storage: the score refresh in postgres and
// the comparison history in clickhouse
package repo

import (
	"context"
	"math"
	"time"

	"bunshare/internal/modkit/repokit"
	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/store"
	"bunshare/internal/services/api/abtest/domain"
	recdomain "bunshare/internal/services/api/recommendations/domain"
)

// PGRefresher calls the stored score refresh function
type PGRefresher struct{ q repokit.Queryer }

// NewRefresher binds the refresher to q
func NewRefresher(q repokit.Queryer) *PGRefresher {
	if q == nil {
		panic("abtest.PGRefresher requires a non nil Queryer")
	}
	return &PGRefresher{q: q}
}

// Refresh implements domain.Refresher
func (r *PGRefresher) Refresh(ctx context.Context) error {
	_, err := r.q.Exec(ctx, `select refresh_recommendation_scores()`)
	return perr.FromPostgres(err, "refresh recommendation scores")
}

// CHStats reads ab_comparisons
type CHStats struct{ ch store.Clickhouse }

// NewCHStats binds the reader to ch
func NewCHStats(ch store.Clickhouse) *CHStats {
	if ch == nil {
		panic("abtest.CHStats requires a clickhouse connection")
	}
	return &CHStats{ch: ch}
}

// Stats implements domain.StatsSource
func (s *CHStats) Stats(ctx context.Context, since time.Time) (domain.Stats, error) {
	const sql = `
select
count() as runs,
avg(pg_ms), avg(app_ms),
countIf(pg_error != ''), countIf(app_error != ''),
avg(overlap_pct), countIf(pg_faster)
from ab_comparisons
where compared_at >= ?
`
	rows, err := s.ch.Query(ctx, sql, since)
	if err != nil {
		return domain.Stats{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "comparison history unavailable")
	}
	defer rows.Close()

	var (
		runs, pgFail, appFail, pgFaster uint64
		pgMs, appMs, overlap            float64
	)
	if rows.Next() {
		if err := rows.Scan(&runs, &pgMs, &appMs, &pgFail, &appFail, &overlap, &pgFaster); err != nil {
			return domain.Stats{}, perr.Wrap(err, perr.ErrorCodeUnknown, "scan comparison stats")
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Stats{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "comparison history unavailable")
	}

	st := domain.Stats{
		Since: since,
		Runs:  int64(runs),
		Engines: []domain.EngineStats{
			{Engine: recdomain.EnginePostgres, Failures: int64(pgFail)},
			{Engine: recdomain.EngineApplication, Failures: int64(appFail)},
		},
	}
	// avg over no rows is nan
	if runs == 0 {
		return st, nil
	}
	st.AvgOverlapPct = round2(overlap)
	st.PostgreSQLFasterPct = round2(float64(pgFaster) / float64(runs) * 100)
	st.Engines[0].AvgMs = round2(pgMs)
	st.Engines[1].AvgMs = round2(appMs)
	return st, nil
}

func round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return math.Round(f*100) / 100
}
