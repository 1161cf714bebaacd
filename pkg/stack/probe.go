package stack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edgesoc/sentinel/pkg/state"
)

// Probe polls the orchestrator for the status of the fixed service list and
// publishes docker_healthy. Unlike the connectivity set, it short-circuits:
// services are checked in order and the first one that is not running (or
// not found) fails the whole stack, which keeps the probe cheap and the
// failing service named in the log.
type Probe struct {
	orch     Orchestrator
	services []string
	store    *state.Store
	interval time.Duration
	logger   zerolog.Logger

	// OnHealth, when set, receives the overall verdict after every cycle.
	// The vector manager hooks this to derive the log shipper's proxy
	// health.
	OnHealth func(healthy bool)

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewProbe creates a stack health probe over the given service list.
func NewProbe(orch Orchestrator, services []string, store *state.Store, interval time.Duration, logger zerolog.Logger) *Probe {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Probe{
		orch:     orch,
		services: services,
		store:    store,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the polling loop.
func (p *Probe) Start() {
	go p.loop()
}

// Stop terminates the polling loop and waits for it to exit.
func (p *Probe) Stop() {
	close(p.stopCh)
	<-p.doneCh
}

func (p *Probe) loop() {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.stopCh
		cancel()
	}()

	p.RunCycle(ctx)
	for {
		select {
		case <-ticker.C:
			p.RunCycle(ctx)
		case <-p.stopCh:
			return
		}
	}
}

// RunCycle performs one ordered pass over the service list.
func (p *Probe) RunCycle(ctx context.Context) {
	healthy := p.checkAll(ctx)

	p.store.Set(state.KeyDockerHealthy, healthy)
	if p.OnHealth != nil {
		p.OnHealth(healthy)
	}
}

func (p *Probe) checkAll(ctx context.Context) bool {
	if err := p.orch.Ping(ctx); err != nil {
		p.logger.Error().Err(err).Msg("orchestrator not reachable")
		p.store.SetError(err.Error())
		return false
	}

	for _, svc := range p.services {
		status, err := p.orch.ServiceStatus(ctx, svc)
		if err != nil {
			if errors.Is(err, ErrServiceNotFound) {
				p.logger.Warn().Str("service", svc).Msg("stack service not found")
			} else {
				p.logger.Error().Err(err).Str("service", svc).Msg("stack service status failed")
			}
			p.store.SetError(err.Error())
			return false
		}
		if status != StatusRunning {
			p.logger.Warn().Str("service", svc).Str("status", status).Msg("stack service not running")
			p.store.SetError(fmt.Sprintf("service %s not running: %s", svc, status))
			return false
		}
	}
	return true
}
