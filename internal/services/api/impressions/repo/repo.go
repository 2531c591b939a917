// Package repo persists accepted impressions in postgres
package repo

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"bunshare/internal/core/impression"
	"bunshare/internal/modkit/repokit"
	perr "bunshare/internal/platform/errors"
	pstrings "bunshare/internal/platform/strings"

	"github.com/google/uuid"
)

// Schema is the DDL for work_impressions
//
//go:embed schema.sql
var Schema string

const (
	columnsPerRow = 13
	chunkRows     = 500
)

// Repo is the persistence surface for impressions
type Repo interface {
	// Insert writes events and returns how many rows were new; rows that
	// hit the session dedup key are skipped
	Insert(ctx context.Context, userID string, at time.Time, events []impression.Event) (int64, error)
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Insert(ctx context.Context, userID string, at time.Time, events []impression.Event) (int64, error) {
	var total int64
	for start := 0; start < len(events); start += chunkRows {
		chunk := events[start:min(start+chunkRows, len(events))]
		sql, args := insertSQL(userID, at, chunk)
		tag, err := r.q.Exec(ctx, sql, args...)
		if err != nil {
			return total, perr.FromPostgres(err, "insert impressions")
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func insertSQL(userID string, at time.Time, events []impression.Event) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`insert into work_impressions
(id, session_id, work_id, user_id, impression_type, page_context, position,
intersection_ratio, display_duration_ms, viewport_width, viewport_height, user_agent, created_at) values `)

	args := make([]any, 0, len(events)*columnsPerRow)
	for i, e := range events {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		for c := range columnsPerRow {
			if c > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "$%d", i*columnsPerRow+c+1)
		}
		sb.WriteByte(')')

		args = append(args,
			uuid.New(), e.SessionID, e.WorkID, pstrings.SQLNull(userID),
			string(e.Type), string(e.PageContext), e.Position,
			e.IntersectionRatio, e.DisplayDuration, e.ViewportWidth, e.ViewportHeight,
			pstrings.SQLNull(e.UserAgent), at,
		)
	}
	// session dedup key
	sb.WriteString(` on conflict (session_id, work_id, impression_type, page_context) do nothing`)
	return sb.String(), args
}

// Migrate applies Schema
func Migrate(ctx context.Context, q repokit.Queryer) error {
	_, err := q.Exec(ctx, Schema)
	return perr.FromPostgres(err, "impressions schema")
}
