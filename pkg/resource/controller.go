package resource

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/edgesoc/sentinel/pkg/state"
)

// Limits holds the utilization thresholds the controller derives levels from.
type Limits struct {
	// CPUPercent and RAMPercent are the base limits; the Light/Moderate/
	// Severe bands sit at limit, limit+5 and limit+10.
	CPUPercent float64
	RAMPercent float64

	// Hysteresis widens the exit band by this many percentage points when
	// set. Zero keeps the original recompute-from-scratch behavior, which
	// can oscillate every tick at a threshold edge.
	Hysteresis float64
}

// sampleFn reads current CPU and RAM utilization in percent. Swapped in
// tests. The production sampler must not block waiting for a measurement
// window.
type sampleFn func() (cpuPct, ramPct float64, err error)

func sampleSystem() (float64, float64, error) {
	// Interval 0 returns the usage since the previous call instead of
	// blocking for a measurement window. The first call yields 0, which is
	// acceptable for a 1s cadence.
	cpuPcts, err := cpu.Percent(0, false)
	if err != nil {
		return 0, 0, err
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	var cpuPct float64
	if len(cpuPcts) > 0 {
		cpuPct = cpuPcts[0]
	}
	return cpuPct, vm.UsedPercent, nil
}

// Controller samples CPU/RAM on a fixed cadence, derives the throttling
// level and publishes cpu_usage, ram_usage and throttling_level every tick.
type Controller struct {
	store    *state.Store
	limits   Limits
	interval time.Duration
	logger   zerolog.Logger

	sample sampleFn
	last   Level
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewController creates a resource controller publishing into store.
func NewController(store *state.Store, limits Limits, interval time.Duration, logger zerolog.Logger) *Controller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Controller{
		store:    store,
		limits:   limits,
		interval: interval,
		logger:   logger,
		sample:   sampleSystem,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the sampling loop.
func (c *Controller) Start() {
	go c.loop()
}

// Stop terminates the sampling loop and waits for it to exit.
func (c *Controller) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

func (c *Controller) loop() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Sample immediately on start, then on every tick.
	c.tick()
	for {
		select {
		case <-ticker.C:
			c.tick()
		case <-c.stopCh:
			return
		}
	}
}

// tick performs one sample/derive/publish cycle. A failed sample holds the
// previous level rather than assuming Normal, so real pressure is never
// masked by a sensor hiccup.
func (c *Controller) tick() {
	cpuPct, ramPct, err := c.sample()
	if err != nil {
		c.logger.Error().Err(err).Msg("resource sample failed, holding previous level")
		c.store.Set(state.KeyThrottlingLevel, int(c.last))
		return
	}

	level := LevelFor(cpuPct, ramPct, c.limits.CPUPercent, c.limits.RAMPercent)

	// Optional hysteresis: de-escalation needs the sample to clear the
	// lower band by the configured margin.
	if c.limits.Hysteresis > 0 && level < c.last {
		relaxed := LevelFor(cpuPct+c.limits.Hysteresis, ramPct+c.limits.Hysteresis,
			c.limits.CPUPercent, c.limits.RAMPercent)
		if relaxed >= c.last {
			level = c.last
		}
	}

	c.store.Set(state.KeyCPUUsage, cpuPct)
	c.store.Set(state.KeyRAMUsage, ramPct)
	c.store.Set(state.KeyThrottlingLevel, int(level))

	if level > LevelNormal {
		c.logger.Warn().
			Str("level", level.String()).
			Float64("cpu", cpuPct).
			Float64("ram", ramPct).
			Msg("throttling active")
	} else if c.last > LevelNormal {
		c.logger.Info().
			Float64("cpu", cpuPct).
			Float64("ram", ramPct).
			Msg("throttling cleared")
	}
	c.last = level
}
