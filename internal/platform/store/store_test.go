package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	perr "bunshare/internal/platform/errors"
)

// fakeRows serves canned rows of (id string, score float64)
type fakeRows struct {
	data    [][]any
	i       int
	err     error
	scanErr error
	closed  bool
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dst ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.i-1]
	*(dst[0].(*string)) = row[0].(string)
	*(dst[1].(*float64)) = row[1].(float64)
	return nil
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }

type fakeQuerier struct {
	rows *fakeRows
	qerr error
}

func (f fakeQuerier) Exec(context.Context, string, ...any) (CommandTag, error) { return nil, nil }
func (f fakeQuerier) Query(context.Context, string, ...any) (Rows, error) {
	if f.qerr != nil {
		return nil, f.qerr
	}
	return f.rows, nil
}
func (f fakeQuerier) QueryRow(context.Context, string, ...any) Row { return nil }

type scored struct {
	ID    string
	Score float64
}

func scanScored(r Row) (scored, error) {
	var s scored
	err := r.Scan(&s.ID, &s.Score)
	return s, err
}

func TestManyAndOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rows := &fakeRows{data: [][]any{{"w1", 0.9}, {"w2", 0.4}}}
	got, err := Many(ctx, fakeQuerier{rows: rows}, scanScored, "SELECT")
	if err != nil || len(got) != 2 || got[1].ID != "w2" {
		t.Fatalf("Many = %+v, %v", got, err)
	}
	if !rows.closed {
		t.Fatalf("rows not closed")
	}

	one, err := One(ctx, fakeQuerier{rows: &fakeRows{data: [][]any{{"w9", 1.0}}}}, scanScored, "SELECT")
	if err != nil || one.ID != "w9" {
		t.Fatalf("One = %+v, %v", one, err)
	}

	_, err = One(ctx, fakeQuerier{rows: &fakeRows{}}, scanScored, "SELECT")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("One empty = %v", err)
	}
	_, err = One(ctx, fakeQuerier{rows: &fakeRows{data: [][]any{{"a", 1.0}, {"b", 2.0}}}}, scanScored, "SELECT")
	if err == nil || !strings.Contains(err.Error(), "got 2") {
		t.Fatalf("One many = %v", err)
	}
}

func TestManyPropagatesErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")

	if _, err := Many(ctx, fakeQuerier{qerr: boom}, scanScored, "SELECT"); !errors.Is(err, boom) {
		t.Fatalf("query err = %v", err)
	}
	if _, err := Many(ctx, fakeQuerier{rows: &fakeRows{data: [][]any{{"a", 1.0}}, scanErr: boom}}, scanScored, "SELECT"); !errors.Is(err, boom) {
		t.Fatalf("scan err = %v", err)
	}
	if _, err := Many(ctx, fakeQuerier{rows: &fakeRows{err: boom}}, scanScored, "SELECT"); !errors.Is(err, boom) {
		t.Fatalf("rows err = %v", err)
	}
}

type pingClickhouse struct {
	err    error
	closed bool
}

func (p *pingClickhouse) AppendBatch(context.Context, string, []string, [][]any) error { return nil }
func (p *pingClickhouse) Query(context.Context, string, ...any) (Rows, error)         { return nil, nil }
func (p *pingClickhouse) Ping(context.Context) error                                  { return p.err }
func (p *pingClickhouse) Close() error                                                { p.closed = true; return nil }

func TestGuardAndClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	empty := &Store{}
	if err := empty.Guard(ctx); err != nil {
		t.Fatalf("empty guard = %v", err)
	}

	ch := &pingClickhouse{err: errors.New("connection refused")}
	s := &Store{CH: ch}
	if err := s.Guard(ctx); err == nil || !strings.Contains(err.Error(), "ch: connection refused") {
		t.Fatalf("guard = %v", err)
	}
	if err := s.Close(ctx); err != nil || !ch.closed {
		t.Fatalf("close = %v closed=%v", err, ch.closed)
	}

	var nilStore *Store
	if err := nilStore.Guard(ctx); err == nil {
		t.Fatalf("nil store guard should fail")
	}
}

func TestOpenNothingEnabled(t *testing.T) {
	t.Parallel()
	s, err := Open(context.Background(), Config{})
	if err != nil || s.PG != nil || s.CH != nil {
		t.Fatalf("Open = %+v, %v", s, err)
	}
}
