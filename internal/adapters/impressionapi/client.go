// Package impressionapi is the client side of POST /impressions/record. It
// satisfies the tracker's Sender and BeaconSender.
package impressionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"bunshare/internal/core/impression"
	"bunshare/internal/core/tracker"
	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/logger"
)

const (
	defaultPath      = "/api/v1/impressions/record"
	defaultTimeout   = 5 * time.Second
	defaultUA        = "bunshare-tracker"
	defaultMaxRetry  = 2
	defaultRetryBase = 250 * time.Millisecond
	defaultRetryWait = 30 * time.Second
	defaultInflight  = 4
)

// Options configures the Client
type Options struct {
	BaseURL   string
	Path      string
	UserAgent string
	Timeout   time.Duration

	// Token is sent as a bearer credential; empty records anonymously
	Token string

	// Retry config for transient and rate limited responses; negative
	// MaxRetries disables retries
	MaxRetries int
	RetryBase  time.Duration

	// MaxRetryWait caps any single wait, including a server Retry-After
	MaxRetryWait time.Duration

	// MaxInflight bounds concurrent beacons; a full client refuses new ones
	MaxInflight int
}

// Client posts impression batches to the API
type Client struct {
	http     *http.Client
	opts     Options
	url      string
	log      logger.Logger
	sleep    func(context.Context, time.Duration) error
	inflight chan struct{}
	wg       sync.WaitGroup
}

var (
	_ tracker.Sender       = (*Client)(nil)
	_ tracker.BeaconSender = (*Client)(nil)
)

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.Path == "" {
		o.Path = defaultPath
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.MaxRetryWait <= 0 {
		o.MaxRetryWait = defaultRetryWait
	}
	if o.MaxInflight <= 0 {
		o.MaxInflight = defaultInflight
	}
	return &Client{
		http:     &http.Client{Timeout: o.Timeout},
		opts:     o,
		url:      strings.TrimRight(o.BaseURL, "/") + o.Path,
		log:      *logger.Named("impressionapi"),
		sleep:    sleepCtx,
		inflight: make(chan struct{}, o.MaxInflight),
	}
}

type recordBody struct {
	Impressions []impression.Event `json:"impressions"`
}

type envelope struct {
	Code  perr.ErrorCode     `json:"code"`
	Error string             `json:"error"`
	Field string             `json:"field"`
	Data  impression.Summary `json:"data"`
}

// Send posts batch and returns the server's summary. Transient failures are
// retried with exponential backoff; other failures come back as the
// server's error code.
func (c *Client) Send(ctx context.Context, batch []impression.Event) (impression.Summary, error) {
	body, err := json.Marshal(recordBody{Impressions: batch})
	if err != nil {
		return impression.Summary{}, perr.Wrapf(err, perr.ErrorCodeJSON, "encode impressions")
	}
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return impression.Summary{}, perr.FromContext(err, "impression send cancelled")
		}
		sum, wait, err := c.post(ctx, body)
		if err == nil {
			return sum, nil
		}
		if wait < 0 || attempts >= c.opts.MaxRetries {
			return impression.Summary{}, err
		}
		if wait == 0 {
			wait = c.backoff(attempts)
		}
		wait = min(wait, c.opts.MaxRetryWait)
		c.log.Warn().Err(err).Dur("retry_in", wait).Int("attempt", attempts).Msg("impression send retrying")
		if err := c.sleep(ctx, wait); err != nil {
			return impression.Summary{}, perr.FromContext(err, "impression send cancelled")
		}
		attempts++
	}
}

// sleepCtx waits d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// post makes one attempt. wait < 0 means the failure is final; wait > 0 is
// a server supplied delay.
func (c *Client) post(ctx context.Context, body []byte) (impression.Summary, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return impression.Summary{}, -1, perr.Wrapf(err, perr.ErrorCodeUnknown, "impression new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return impression.Summary{}, 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "impression post failed")
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	decodeErr := json.Unmarshal(raw, &env)

	switch {
	case resp.StatusCode == http.StatusOK:
		if decodeErr != nil {
			return impression.Summary{}, -1, perr.Wrapf(decodeErr, perr.ErrorCodeJSON, "decode impression summary")
		}
		return env.Data, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := time.Duration(atoi(resp.Header.Get("Retry-After"))) * time.Second
		return impression.Summary{}, wait, perr.Newf(perr.ErrorCodeTooManyRequests, "impressions rate limited")
	case resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusGatewayTimeout:
		return impression.Summary{}, 0, perr.Newf(perr.ErrorCodeUnavailable, "impressions transient status %d", resp.StatusCode)
	}

	if decodeErr != nil || env.Error == "" {
		return impression.Summary{}, -1, perr.Newf(perr.ErrorCodeUnknown, "impressions unexpected status %d body %s", resp.StatusCode, tail(raw))
	}
	out := perr.New(env.Code, env.Error)
	if env.Field != "" {
		out = perr.WithField(out, env.Field)
	}
	return impression.Summary{}, -1, out
}

// Beacon sends batch on its own goroutine and reports whether it was taken.
// Delivery is not confirmed; a saturated client refuses the batch.
func (c *Client) Beacon(batch []impression.Event) bool {
	if len(batch) == 0 {
		return false
	}
	select {
	case c.inflight <- struct{}{}:
	default:
		return false
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() { <-c.inflight }()
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		defer cancel()
		body, err := json.Marshal(recordBody{Impressions: batch})
		if err != nil {
			return
		}
		if _, _, err := c.post(ctx, body); err != nil {
			c.log.Debug().Err(err).Int("events", len(batch)).Msg("impression beacon failed")
		}
	}()
	return true
}

// Wait blocks until every beacon has finished
func (c *Client) Wait() { c.wg.Wait() }

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	return min(d, 10*time.Second)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func tail(b []byte) string {
	if len(b) > 256 {
		b = b[:256]
	}
	return string(b)
}
