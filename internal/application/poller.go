package application

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultPollInterval = 5 * time.Minute

// Poller drives the service on a fixed interval. A failed cycle is a
// recoverable condition: it logs a warning, keeps the last snapshot and waits
// for the next tick.
type Poller struct {
	service  *Service
	interval time.Duration
	logger   zerolog.Logger
	onUpdate func(Snapshot)

	mu      sync.RWMutex
	latest  Snapshot
	hasData bool
}

func NewPoller(service *Service, interval time.Duration, logger zerolog.Logger, onUpdate func(Snapshot)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Poller{
		service:  service,
		interval: interval,
		logger:   logger,
		onUpdate: onUpdate,
	}
}

// Run refreshes once immediately, then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// Latest returns the most recent successful snapshot, if any.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.latest, p.hasData
}

func (p *Poller) refresh(ctx context.Context) {
	snapshot, err := p.service.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn().Err(err).Msg("update failed, keeping last schedules")
		return
	}

	p.mu.Lock()
	p.latest = snapshot
	p.hasData = true
	p.mu.Unlock()
	p.logger.Info().Int("students", len(snapshot.Students)).Msg("schedules refreshed")

	if p.onUpdate != nil {
		p.onUpdate(snapshot)
	}
}
