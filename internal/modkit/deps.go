package modkit

import (
	"time"

	"bunshare/internal/modkit/repokit"
	"bunshare/internal/platform/config"
	"bunshare/internal/platform/logger"
	"bunshare/internal/platform/store"
	ptime "bunshare/internal/platform/time"
)

// Deps holds the shared dependencies handed to every module.
// PG and CH are nil when the backend is disabled.
type Deps struct {
	Log   logger.Logger
	Cfg   config.Conf
	PG    repokit.TxRunner
	CH    store.Clickhouse
	Clock ptime.Clock
}

// FromStore fills the storage seams from an opened store
func (d Deps) FromStore(st *store.Store) Deps {
	if st == nil {
		return d
	}
	d.PG = st.PG
	d.CH = st.CH
	return d
}

// Logger returns a child logger tagged with component
func (d Deps) Logger(component string) *logger.Logger {
	l := d.Log.With().Str("component", component).Logger()
	return &l
}

// Time returns the configured clock, the system clock by default
func (d Deps) Time() ptime.Clock {
	if d.Clock == nil {
		return ptime.System{}
	}
	return d.Clock
}

// Now is shorthand for d.Time().Now()
func (d Deps) Now() time.Time { return d.Time().Now() }
