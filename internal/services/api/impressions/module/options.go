package module

import (
	"regexp"

	"bunshare/internal/core/impression"
	"bunshare/internal/platform/config"
	"bunshare/internal/services/api/impressions/service"
)

// Options controls the impressions module
type Options struct {
	Rules impression.Rules

	// Analytics mirrors entries to clickhouse; nil disables mirroring
	Analytics service.Analytics
}

// FromConfig reads the IMPRESSIONS_* validator thresholds. An invalid bot
// pattern panics at startup.
func FromConfig(cfg config.Conf) Options {
	d := impression.DefaultRules()
	r := impression.Rules{
		MinDuration: cfg.MayDuration("IMPRESSIONS_MIN_DURATION", d.MinDuration),
		MinRatio:    cfg.MayFloat64("IMPRESSIONS_MIN_RATIO", d.MinRatio),
		MinViewport: cfg.MayInt("IMPRESSIONS_MIN_VIEWPORT", d.MinViewport),
		MaxViewport: cfg.MayInt("IMPRESSIONS_MAX_VIEWPORT", d.MaxViewport),
		BotPattern:  d.BotPattern,
	}
	if p := cfg.MayString("IMPRESSIONS_BOT_PATTERN", ""); p != "" {
		r.BotPattern = regexp.MustCompile(p)
	}
	return Options{Rules: r}
}
