package resource

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/edgesoc/sentinel/pkg/state"
)

func newTestController(st *state.Store, limits Limits) *Controller {
	return NewController(st, limits, time.Second, zerolog.Nop())
}

func TestController_PublishesSamplesAndLevel(t *testing.T) {
	st := state.NewStore()
	c := newTestController(st, Limits{CPUPercent: 70, RAMPercent: 70})
	c.sample = func() (float64, float64, error) { return 76.5, 30, nil }

	c.tick()

	assert.Equal(t, 76.5, st.Float(state.KeyCPUUsage, -1))
	assert.Equal(t, 30.0, st.Float(state.KeyRAMUsage, -1))
	assert.Equal(t, float64(LevelModerate), st.Float(state.KeyThrottlingLevel, -1))
}

func TestController_SampleErrorHoldsPreviousLevel(t *testing.T) {
	st := state.NewStore()
	c := newTestController(st, Limits{CPUPercent: 70, RAMPercent: 70})

	c.sample = func() (float64, float64, error) { return 85, 0, nil }
	c.tick()
	assert.Equal(t, float64(LevelSevere), st.Float(state.KeyThrottlingLevel, -1))

	// A failing sensor must not reset the level to Normal.
	c.sample = func() (float64, float64, error) { return 0, 0, errors.New("proc unavailable") }
	c.tick()
	assert.Equal(t, float64(LevelSevere), st.Float(state.KeyThrottlingLevel, -1))

	// CPU/RAM keys keep their last good values.
	assert.Equal(t, 85.0, st.Float(state.KeyCPUUsage, -1))
}

func TestController_NoHysteresisFlapsAtBoundary(t *testing.T) {
	st := state.NewStore()
	c := newTestController(st, Limits{CPUPercent: 70, RAMPercent: 70})

	c.sample = func() (float64, float64, error) { return 70.5, 0, nil }
	c.tick()
	assert.Equal(t, float64(LevelLight), st.Float(state.KeyThrottlingLevel, -1))

	c.sample = func() (float64, float64, error) { return 69.5, 0, nil }
	c.tick()
	assert.Equal(t, float64(LevelNormal), st.Float(state.KeyThrottlingLevel, -1))
}

func TestController_HysteresisDampensDeescalation(t *testing.T) {
	st := state.NewStore()
	c := newTestController(st, Limits{CPUPercent: 70, RAMPercent: 70, Hysteresis: 3})

	c.sample = func() (float64, float64, error) { return 71, 0, nil }
	c.tick()
	assert.Equal(t, float64(LevelLight), st.Float(state.KeyThrottlingLevel, -1))

	// 69.5 is below the limit but within the 3-point exit band: hold Light.
	c.sample = func() (float64, float64, error) { return 69.5, 0, nil }
	c.tick()
	assert.Equal(t, float64(LevelLight), st.Float(state.KeyThrottlingLevel, -1))

	// Clearing the band de-escalates.
	c.sample = func() (float64, float64, error) { return 60, 0, nil }
	c.tick()
	assert.Equal(t, float64(LevelNormal), st.Float(state.KeyThrottlingLevel, -1))
}

func TestController_StartStop(t *testing.T) {
	st := state.NewStore()
	c := NewController(st, Limits{CPUPercent: 70, RAMPercent: 70}, 10*time.Millisecond, zerolog.Nop())
	c.sample = func() (float64, float64, error) { return 5, 5, nil }

	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()

	_, ok := st.Get(state.KeyCPUUsage)
	assert.True(t, ok)
}
