package store

import (
	"time"

	"bunshare/internal/platform/config"
)

// Config aggregates per-backend configuration
type Config struct {
	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and SQL tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // ping attempts before Open gives up
	PingTimeout    time.Duration // per attempt
}

// CHConfig configures the clickhouse analytics connection
type CHConfig struct {
	Enabled     bool
	URL         string
	ClientName  string
	ClientTag   string
	DialTimeout time.Duration
}

// PGFromEnv reads ENABLED, URL, MAX_CONNS, LOG_SQL, SLOW_MS, CONNECT_RETRIES, PING_TIMEOUT
func PGFromEnv(cfg config.Conf) PGConfig {
	c := PGConfig{
		Enabled:        cfg.MayBool("ENABLED", true),
		MaxConns:       int32(cfg.MayInt("MAX_CONNS", 16)),
		LogSQL:         cfg.MayBool("LOG_SQL", false),
		SlowQueryMs:    cfg.MayInt("SLOW_MS", 250),
		ConnectRetries: cfg.MayInt("CONNECT_RETRIES", 8),
		PingTimeout:    cfg.MayDuration("PING_TIMEOUT", 3*time.Second),
	}
	if c.Enabled {
		c.URL = cfg.MustString("URL")
	}
	return c
}

// CHFromEnv reads ENABLED, URL, DIAL_TIMEOUT; analytics is off unless enabled
func CHFromEnv(cfg config.Conf, clientName, clientTag string) CHConfig {
	c := CHConfig{
		Enabled:     cfg.MayBool("ENABLED", false),
		ClientName:  clientName,
		ClientTag:   clientTag,
		DialTimeout: cfg.MayDuration("DIAL_TIMEOUT", 5*time.Second),
	}
	if c.Enabled {
		c.URL = cfg.MustString("URL")
	}
	return c
}
