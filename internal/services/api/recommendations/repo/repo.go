// Package repo provides postgres access for recommendations: the stored
// ranking functions and the raw signals the application engine scores
package repo

import (
	"context"
	"fmt"
	"time"

	"bunshare/internal/core/ranking"
	"bunshare/internal/modkit/repokit"
	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/store"
	pstrings "bunshare/internal/platform/strings"
)

// Repo defines the repository contract for recommendations
type Repo interface {
	RankFunction(ctx context.Context, fn Function, userID string, limit, offset int) ([]RowWork, error)
	Candidates(ctx context.Context, limit int) ([]RowWork, error)
	History(ctx context.Context, userID string, kind ranking.InteractionKind, limit int) ([]ranking.Interaction, error)
	Followed(ctx context.Context, userID string) ([]string, error)
	CoLikes(ctx context.Context, userID string, limit int) (map[string]int, error)
	SignalCount(ctx context.Context, userID string) (int, error)
}

// Function is a stored ranking function
type Function string

// Stored ranking functions, one per strategy
const (
	FnPersonalized Function = "get_personalized_recommendations"
	FnAdaptive     Function = "get_adaptive_recommendations"
	FnPopular      Function = "get_popular_recommendations"
)

// FunctionFor maps a strategy to its stored function; unknown strategies rank as popular
func FunctionFor(s ranking.Strategy) Function {
	switch s {
	case ranking.Personalized:
		return FnPersonalized
	case ranking.Adaptive:
		return FnAdaptive
	default:
		return FnPopular
	}
}

func (f Function) valid() bool {
	return f == FnPersonalized || f == FnAdaptive || f == FnPopular
}

// RowWork is a work row with its counters. Score is set by the stored
// functions and zero for candidate rows.
type RowWork struct {
	ID              string
	Title           string
	AuthorID        string
	Category        string
	Tags            []string
	Excerpt         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Views           int64
	Likes           int64
	Comments        int64
	Bookmarks       int64
	Shares          int64
	TrendScore      float64
	AuthorFollowers int64
	Score           float64
}

// Candidate projects r for scoring
func (r RowWork) Candidate() ranking.Candidate {
	return ranking.Candidate{
		ID:              r.ID,
		AuthorID:        r.AuthorID,
		Category:        r.Category,
		Tags:            r.Tags,
		Views:           r.Views,
		Likes:           r.Likes,
		Comments:        r.Comments,
		Bookmarks:       r.Bookmarks,
		Shares:          r.Shares,
		AuthorFollowers: r.AuthorFollowers,
	}
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func scanWork(r store.Row) (RowWork, error) {
	var w RowWork
	err := r.Scan(
		&w.ID, &w.Title, &w.AuthorID, &w.Category, &w.Tags, &w.Excerpt,
		&w.CreatedAt, &w.UpdatedAt,
		&w.Views, &w.Likes, &w.Comments, &w.Bookmarks, &w.Shares,
		&w.TrendScore, &w.AuthorFollowers, &w.Score,
	)
	return w, err
}

func (r *queries) RankFunction(ctx context.Context, fn Function, userID string, limit, offset int) ([]RowWork, error) {
	if !fn.valid() {
		return nil, perr.InvalidArgf("unknown ranking function %q", fn)
	}
	sql := fmt.Sprintf(`
select r.id::text, r.title, r.author_id::text, coalesce(r.category, ''), coalesce(r.tags, '{}'), coalesce(r.excerpt, ''),
r.created_at, r.updated_at,
coalesce(r.views_count, 0)::bigint, coalesce(r.likes_count, 0)::bigint, coalesce(r.comments_count, 0)::bigint,
coalesce(r.bookmarks_count, 0)::bigint, coalesce(r.shares_count, 0)::bigint,
coalesce(r.trend_score, 0)::float8, 0::bigint, coalesce(r.recommendation_score, 0)::float8
from %s($1::uuid, $2, $3) r
`, fn)
	rows, err := store.Many(ctx, r.q, scanWork, sql, pstrings.SQLNull(userID), limit, offset)
	return rows, perr.FromPostgres(err, "ranking function failed")
}

func (r *queries) Candidates(ctx context.Context, limit int) ([]RowWork, error) {
	const sql = `
select w.id::text, w.title, w.author_id::text, coalesce(w.category, ''), coalesce(w.tags, '{}'), coalesce(w.excerpt, ''),
w.created_at, w.updated_at,
w.views_count::bigint, w.likes_count::bigint, w.comments_count::bigint, w.bookmarks_count::bigint, w.shares_count::bigint,
coalesce(w.trend_score, 0)::float8, coalesce(f.followers, 0)::bigint, 0::float8
from works w
left join (
select following_id, count(*) as followers from follows group by following_id
) f on f.following_id = w.author_id
where w.is_published
order by w.trend_score desc nulls last, w.created_at desc, w.id
limit $1
`
	rows, err := store.Many(ctx, r.q, scanWork, sql, limit)
	return rows, perr.FromPostgres(err, "candidate pool query failed")
}

// history queries per interaction kind; each returns (work_id, category, tags)
var historySQL = map[ranking.InteractionKind]string{
	ranking.Liked: `
select w.id::text, coalesce(w.category, ''), coalesce(w.tags, '{}')
from likes x join works w on w.id = x.work_id
where x.user_id = $1::uuid
order by x.created_at desc
limit $2`,
	ranking.Bookmarked: `
select w.id::text, coalesce(w.category, ''), coalesce(w.tags, '{}')
from bookmarks x join works w on w.id = x.work_id
where x.user_id = $1::uuid
order by x.created_at desc
limit $2`,
	ranking.Viewed: `
select w.id::text, coalesce(w.category, ''), coalesce(w.tags, '{}')
from work_views x join works w on w.id = x.work_id
where x.user_id = $1::uuid
order by x.viewed_at desc
limit $2`,
}

func (r *queries) History(ctx context.Context, userID string, kind ranking.InteractionKind, limit int) ([]ranking.Interaction, error) {
	sql, ok := historySQL[kind]
	if !ok {
		return nil, perr.InvalidArgf("unknown interaction kind %d", kind)
	}
	out, err := store.Many(ctx, r.q, func(row store.Row) (ranking.Interaction, error) {
		in := ranking.Interaction{Kind: kind}
		err := row.Scan(&in.WorkID, &in.Category, &in.Tags)
		return in, err
	}, sql, userID, limit)
	return out, perr.FromPostgres(err, "interaction history query failed")
}

func (r *queries) Followed(ctx context.Context, userID string) ([]string, error) {
	const sql = `select following_id::text from follows where follower_id = $1::uuid`
	out, err := store.Many(ctx, r.q, func(row store.Row) (string, error) {
		var id string
		err := row.Scan(&id)
		return id, err
	}, sql, userID)
	return out, perr.FromPostgres(err, "follows query failed")
}

type coLike struct {
	workID string
	users  int
}

func (r *queries) CoLikes(ctx context.Context, userID string, limit int) (map[string]int, error) {
	const sql = `
select other.work_id::text, count(distinct other.user_id)::int
from likes mine
join likes peer on peer.work_id = mine.work_id and peer.user_id <> mine.user_id
join likes other on other.user_id = peer.user_id
where mine.user_id = $1::uuid
group by other.work_id
order by 2 desc, 1
limit $2
`
	rows, err := store.Many(ctx, r.q, func(row store.Row) (coLike, error) {
		var c coLike
		err := row.Scan(&c.workID, &c.users)
		return c, err
	}, sql, userID, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "co-likes query failed")
	}
	out := make(map[string]int, len(rows))
	for _, c := range rows {
		out[c.workID] = c.users
	}
	return out, nil
}

func (r *queries) SignalCount(ctx context.Context, userID string) (int, error) {
	const sql = `
select
(select count(*) from likes where user_id = $1::uuid)
+ (select count(*) from bookmarks where user_id = $1::uuid)
+ (select count(*) from follows where follower_id = $1::uuid)
`
	n, err := store.Scalar[int64](ctx, r.q, sql, userID)
	return int(n), perr.FromPostgres(err, "signal count query failed")
}
