// Package service filters impression batches, persists what survives and
// mirrors every entry to the analytics sink
package service

import (
	"context"
	"time"

	"bunshare/internal/core/impression"
	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/logger"
	"bunshare/internal/platform/metrics"
	ptime "bunshare/internal/platform/time"
	"bunshare/internal/services/api/impressions/domain"
	"bunshare/internal/services/api/impressions/repo"
)

// Analytics receives one row per entry in analytics.ImpressionEvents column order
type Analytics interface {
	Enqueue(rows ...[]any) int
}

// Svc implements domain.RecorderPort
type Svc struct {
	repo      repo.Repo
	validator impression.Validator
	analytics Analytics
	clock     ptime.Clock
	log       *logger.Logger
}

// Option configures Svc
type Option func(*Svc)

// WithAnalytics mirrors entries to a
func WithAnalytics(a Analytics) Option { return func(s *Svc) { s.analytics = a } }

// WithClock replaces the system clock
func WithClock(c ptime.Clock) Option { return func(s *Svc) { s.clock = c } }

// New returns the recorder over r
func New(r repo.Repo, v impression.Validator, opts ...Option) *Svc {
	s := &Svc{
		repo:      r,
		validator: v,
		clock:     ptime.System{},
		log:       logger.Named("impressions"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ domain.RecorderPort = (*Svc)(nil)

// Record splits b, inserts the accepted entries and reports the counts.
// Filtered entries never fail the batch. A store failure fails the whole
// call as unavailable.
func (s *Svc) Record(ctx context.Context, b domain.Batch) (impression.Summary, error) {
	if len(b.Events) > domain.MaxBatch {
		return impression.Summary{}, perr.WithField(
			perr.Validationf("impressions must contain at most %d items", domain.MaxBatch), "impressions")
	}
	now := s.clock.Now().UTC()
	v := s.validator.Split(b.Events, b.UserAgent)
	for reason, n := range v.ByReason() {
		metrics.Impressions.WithLabelValues("filtered", string(reason)).Add(float64(n))
	}

	var recorded int64
	if len(v.Accepted) > 0 {
		n, err := s.repo.Insert(ctx, b.UserID, now, v.Accepted)
		if err != nil {
			logger.C(ctx).Error().Err(err).Int("accepted", len(v.Accepted)).Msg("impressions not recorded")
			return impression.Summary{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "impressions could not be recorded")
		}
		recorded = n
		metrics.Impressions.WithLabelValues("recorded", "").Add(float64(n))
		if dup := int64(len(v.Accepted)) - n; dup > 0 {
			metrics.Impressions.WithLabelValues("duplicate", "").Add(float64(dup))
		}
	}

	s.mirror(now, b.UserID, v)
	return impression.Summary{
		Success:  true,
		Recorded: int(recorded),
		Filtered: len(v.Filtered),
	}, nil
}

func (s *Svc) mirror(at time.Time, userID string, v impression.Verdict) {
	if s.analytics == nil {
		return
	}
	rows := make([][]any, 0, len(v.Accepted)+len(v.Filtered))
	for _, e := range v.Accepted {
		rows = append(rows, Row(at, userID, e, "accepted", ""))
	}
	for _, f := range v.Filtered {
		rows = append(rows, Row(at, userID, f.Event, "filtered", f.Reason))
	}
	s.analytics.Enqueue(rows...)
}

// Row renders e for the impression_events table; a missing position is -1
func Row(at time.Time, userID string, e impression.Event, status string, reason impression.Reason) []any {
	pos := int32(-1)
	if e.Position != nil {
		pos = int32(*e.Position)
	}
	return []any{
		at, e.SessionID, e.WorkID, userID,
		string(e.Type), string(e.PageContext), pos,
		e.IntersectionRatio, e.DisplayDuration,
		int32(e.ViewportWidth), int32(e.ViewportHeight),
		status, string(reason),
	}
}
