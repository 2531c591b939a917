// Package service buffers analytics rows and appends them to clickhouse in
// batches. Sinks are lossy: a full buffer or a failed append drops rows
// and counts them.
package service

import (
	"context"
	"time"

	"bunshare/internal/platform/logger"
	"bunshare/internal/platform/metrics"
	"bunshare/internal/services/analytics/domain"
)

// Writer is the clickhouse append surface
type Writer interface {
	AppendBatch(ctx context.Context, table string, columns []string, rows [][]any) error
}

// Config tunes a Sink; zero values take the defaults
type Config struct {
	Buffer        int
	BatchSize     int
	FlushInterval time.Duration
	WriteTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Buffer <= 0 {
		c.Buffer = 10000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 2 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	return c
}

// Sink queues rows for one table. Enqueue never blocks; Serve drains the
// queue and is meant to run under the supervisor.
type Sink struct {
	w     Writer
	table domain.Table
	cfg   Config
	rows  chan []any
	log   *logger.Logger
}

// NewSink returns a Sink appending to t through w
func NewSink(w Writer, t domain.Table, cfg Config) *Sink {
	if w == nil {
		panic("analytics: nil writer")
	}
	cfg = cfg.withDefaults()
	return &Sink{
		w:     w,
		table: t,
		cfg:   cfg,
		rows:  make(chan []any, cfg.Buffer),
		log:   logger.Named("sink." + t.Name),
	}
}

// Table is the destination table
func (s *Sink) Table() domain.Table { return s.table }

// Enqueue offers rows without blocking and returns how many were queued.
// Rows that do not fit are dropped. A nil Sink accepts nothing.
func (s *Sink) Enqueue(rows ...[]any) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, r := range rows {
		select {
		case s.rows <- r:
			n++
		default:
		}
	}
	if dropped := len(rows) - n; dropped > 0 {
		metrics.SinkEvents.WithLabelValues(s.table.Name, "dropped").Add(float64(dropped))
		s.log.Warn().Int("dropped", dropped).Msg("analytics buffer full")
	}
	metrics.SinkQueueDepth.WithLabelValues(s.table.Name).Set(float64(len(s.rows)))
	return n
}

// Serve flushes whenever BatchSize rows are pending or FlushInterval
// elapses. On cancel it drains what is queued and flushes once more.
func (s *Sink) Serve(ctx context.Context) error {
	tick := time.NewTicker(s.cfg.FlushInterval)
	defer tick.Stop()

	batch := make([][]any, 0, s.cfg.BatchSize)
	for {
		select {
		case <-ctx.Done():
			batch = s.drain(batch)
			s.flush(batch)
			return nil
		case r := <-s.rows:
			batch = append(batch, r)
			if len(batch) >= s.cfg.BatchSize {
				batch = s.flush(batch)
			}
		case <-tick.C:
			batch = s.flush(batch)
		}
	}
}

func (s *Sink) drain(batch [][]any) [][]any {
	for {
		select {
		case r := <-s.rows:
			batch = append(batch, r)
		default:
			return batch
		}
	}
}

// flush appends batch in BatchSize chunks and returns it emptied for reuse
func (s *Sink) flush(batch [][]any) [][]any {
	for start := 0; start < len(batch); start += s.cfg.BatchSize {
		chunk := batch[start:min(start+s.cfg.BatchSize, len(batch))]
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		err := s.w.AppendBatch(ctx, s.table.Name, s.table.Columns, chunk)
		cancel()
		if err != nil {
			metrics.SinkEvents.WithLabelValues(s.table.Name, "failed").Add(float64(len(chunk)))
			s.log.Error().Err(err).Int("rows", len(chunk)).Msg("analytics append failed")
			continue
		}
		metrics.SinkEvents.WithLabelValues(s.table.Name, "flushed").Add(float64(len(chunk)))
	}
	metrics.SinkQueueDepth.WithLabelValues(s.table.Name).Set(float64(len(s.rows)))
	clear(batch)
	return batch[:0]
}

func (s *Sink) String() string { return "analytics-sink-" + s.table.Name }
