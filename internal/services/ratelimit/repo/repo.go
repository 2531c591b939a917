// Package repo is the postgres-backed rate limit store, shared by every API
// process pointing at the same database
package repo

import (
	"context"
	_ "embed"
	"time"

	"bunshare/internal/core/ratelimit"
	"bunshare/internal/modkit/repokit"
	perr "bunshare/internal/platform/errors"
)

// Schema is the DDL for rate_limit_windows
//
//go:embed schema.sql
var Schema string

// PGStore implements ratelimit.Store with one upsert per hit
type PGStore struct {
	q       repokit.Queryer
	timeout time.Duration
}

// NewPGStore binds the store to q. timeout bounds each round trip; the
// limiter fails open when it is exceeded.
func NewPGStore(q repokit.Queryer, timeout time.Duration) *PGStore {
	if q == nil {
		panic("ratelimit.PGStore requires a non nil Queryer")
	}
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}
	return &PGStore{q: q, timeout: timeout}
}

// Hit opens a window when none is live at now, otherwise increments it.
// The SET expressions read the pre-update row, so reset and increment are
// decided atomically against the same state.
func (s *PGStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (ratelimit.Window, error) {
	const sql = `
insert into rate_limit_windows as w (key, count, reset_at)
values ($1, 1, $3)
on conflict (key) do update set
count = case when w.reset_at <= $2 then 1 else w.count + 1 end,
reset_at = case when w.reset_at <= $2 then excluded.reset_at else w.reset_at end
returning count, reset_at
`
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var w ratelimit.Window
	if err := s.q.QueryRow(ctx, sql, key, now, now.Add(window)).Scan(&w.Count, &w.ResetAt); err != nil {
		return ratelimit.Window{}, perr.FromPostgres(err, "rate limit hit failed")
	}
	return w, nil
}

// Sweep deletes windows that expired at or before now
func (s *PGStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.q.Exec(ctx, `delete from rate_limit_windows where reset_at <= $1`, now)
	if err != nil {
		return 0, perr.FromPostgres(err, "rate limit sweep failed")
	}
	return int(tag.RowsAffected()), nil
}

// Migrate applies Schema
func Migrate(ctx context.Context, q repokit.Queryer) error {
	_, err := q.Exec(ctx, Schema)
	return perr.FromPostgres(err, "rate limit schema")
}
