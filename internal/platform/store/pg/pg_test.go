package pg

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()
	in := "SELECT id,\n\t  title\n FROM works\r\nWHERE  id = $1"
	if got := Compact(in); got != "SELECT id, title FROM works WHERE id = $1" {
		t.Fatalf("Compact = %q", got)
	}
}

func TestTracerLevels(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf).Level(zerolog.DebugLevel))

	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT 1", ElapsedUS: 1500})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT pg_sleep(1)", Slow: true, Args: []any{1}})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT x", Err: errors.New("undefined column")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d: %s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"level":"debug"`) || !strings.Contains(lines[0], `"elapsed_ms":1.5`) {
		t.Fatalf("line0 = %s", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"warn"`) || !strings.Contains(lines[1], `"args":1`) {
		t.Fatalf("line1 = %s", lines[1])
	}
	if !strings.Contains(lines[2], `"error":"undefined column"`) {
		t.Fatalf("line2 = %s", lines[2])
	}
}

func TestOpenAppliesConfig(t *testing.T) {
	var seen *pgxpool.Config
	orig := newPool
	newPool = func(_ context.Context, c *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = c
		return nil, errors.New("no server")
	}
	t.Cleanup(func() { newPool = orig })

	_, err := Open(context.Background(), Config{URL: "postgres://u:p@localhost:5432/bunshare", MaxConns: 7}, nil,
		func(c *pgxpool.Config) { c.MinConns = 2 })
	if err == nil {
		t.Fatalf("expected pool error")
	}
	if seen.MaxConns != 7 || seen.MinConns != 2 {
		t.Fatalf("config = max %d min %d", seen.MaxConns, seen.MinConns)
	}
	if seen.ConnConfig.RuntimeParams["application_name"] != "bunshare" {
		t.Fatalf("application_name = %q", seen.ConnConfig.RuntimeParams["application_name"])
	}
}

func TestOpenBadURL(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), Config{URL: "postgres://%zz"}, nil, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}
