package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mgrivas/folio/internal/config"
	"github.com/rs/zerolog"
)

// Default refresher timings. The startup delay keeps rate refreshes off
// the critical path of process start; retries back off 5, 10, 20 minutes.
const (
	DefaultStartupDelay    = 2 * time.Minute
	DefaultRefreshInterval = 24 * time.Hour
	DefaultRetryBackoff    = 5 * time.Minute
	MaxRetries             = 3
)

// RateUpdater refreshes stored rates for a set of pairs
type RateUpdater interface {
	UpdateAll(pairs []config.CurrencyPair) error
}

// Refresher drives the periodic rate refresh cycle on its own
// goroutine. A failed cycle retries with doubling backoff up to
// MaxRetries, then waits for the next interval; failure is never fatal
// to the process.
type Refresher struct {
	updater RateUpdater
	pairs   []config.CurrencyPair
	log     zerolog.Logger

	startupDelay time.Duration
	interval     time.Duration
	retryBackoff time.Duration

	// sleep waits for a duration or cancellation, returning false when
	// cancelled. Swappable so tests can observe the wait sequence.
	sleep func(ctx context.Context, d time.Duration) bool

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewRefresher creates a refresher with default timings
func NewRefresher(updater RateUpdater, pairs []config.CurrencyPair, log zerolog.Logger) *Refresher {
	r := &Refresher{
		updater:      updater,
		pairs:        pairs,
		log:          log.With().Str("component", "rate_refresher").Logger(),
		startupDelay: DefaultStartupDelay,
		interval:     DefaultRefreshInterval,
		retryBackoff: DefaultRetryBackoff,
	}
	r.sleep = r.timerSleep
	return r
}

// Start launches the refresh loop. Call Stop to shut it down.
func (r *Refresher) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.loop(ctx)

	r.log.Info().
		Dur("startup_delay", r.startupDelay).
		Dur("interval", r.interval).
		Int("pairs", len(r.pairs)).
		Msg("Rate refresher started")
}

// Stop cancels the loop and waits for it to exit
func (r *Refresher) Stop() {
	r.once.Do(func() {
		if r.cancel != nil {
			r.cancel()
			<-r.done
		}
		r.log.Info().Msg("Rate refresher stopped")
	})
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.done)

	if !r.sleep(ctx, r.startupDelay) {
		return
	}

	for {
		r.runCycle(ctx)

		if !r.sleep(ctx, r.interval) {
			return
		}
	}
}

// runCycle attempts one refresh, retrying with doubling backoff.
// One cycle, including its retries, carries a single run ID in logs.
func (r *Refresher) runCycle(ctx context.Context) {
	runID := uuid.New().String()
	log := r.log.With().Str("run_id", runID).Logger()

	backoff := r.retryBackoff
	for attempt := 0; ; attempt++ {
		err := r.updater.UpdateAll(r.pairs)
		if err == nil {
			log.Info().Int("attempt", attempt+1).Msg("Rate refresh cycle completed")
			return
		}

		if attempt >= MaxRetries {
			log.Error().Err(err).
				Int("attempts", attempt+1).
				Msg("Rate refresh cycle exhausted retries, waiting for next interval")
			return
		}

		log.Warn().Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Rate refresh failed, retrying")

		if !r.sleep(ctx, backoff) {
			return
		}
		backoff *= 2
	}
}

// timerSleep waits for d or until the context is cancelled. It returns
// false on cancellation.
func (r *Refresher) timerSleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
