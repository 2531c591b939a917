// Command bunshare-replay feeds a recorded visibility log through the
// impression tracker and posts the resulting batches to the API
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bunshare/internal/adapters/impressionapi"
	"bunshare/internal/core/tracker"
	"bunshare/internal/platform/logger"
	"bunshare/internal/services/replay"
)

func main() {
	var (
		fIn       = flag.String("in", "-", "visibility log (JSON lines); - reads stdin")
		fAPI      = flag.String("api", "http://localhost:4000", "API base URL")
		fToken    = flag.String("token", "", "bearer session token; empty replays anonymously")
		fDry      = flag.Bool("dry-run", false, "run the trackers without posting anything")
		fUA       = flag.String("user-agent", "", "user agent stamped on events")
		fWidth    = flag.Int("viewport-width", 1280, "viewport width in CSS pixels")
		fHeight   = flag.Int("viewport-height", 800, "viewport height in CSS pixels")
		fDwell    = flag.Duration("dwell", time.Second, "continuous visibility before an impression counts")
		fDelay    = flag.Duration("flush-delay", 2*time.Second, "debounce before a batch is sent")
		fThresh   = flag.Float64("threshold", 0.5, "intersection ratio that counts as visible")
		fMaxQueue = flag.Int("max-queue", 100, "events held per session before new ones are dropped")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := logger.Get()

	var in io.Reader = os.Stdin
	if *fIn != "-" {
		f, err := os.Open(*fIn)
		if err != nil {
			l.Fatal().Err(err).Str("in", *fIn).Msg("open visibility log")
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var (
		sender tracker.Sender
		beacon tracker.BeaconSender
		client *impressionapi.Client
	)
	if !*fDry {
		client = impressionapi.NewClient(impressionapi.Options{BaseURL: *fAPI, Token: *fToken})
		sender, beacon = client, client
	}

	runner := replay.New(sender, beacon, tracker.Config{
		Threshold:  *fThresh,
		MinDwell:   *fDwell,
		FlushDelay: *fDelay,
		MaxQueue:   *fMaxQueue,
		Viewport:   tracker.Viewport{Width: *fWidth, Height: *fHeight},
		UserAgent:  *fUA,
	})
	stats, err := runner.Run(ctx, in)
	if client != nil {
		client.Wait()
	}

	_ = json.NewEncoder(os.Stdout).Encode(stats)
	if err != nil {
		l.Error().Err(err).Msg("replay stopped")
		os.Exit(1)
	}
}
