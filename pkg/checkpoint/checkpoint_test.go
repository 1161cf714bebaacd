package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgesoc/sentinel/pkg/state"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.db")

	cp, err := Open(path)
	require.NoError(t, err)

	st := state.NewStore()
	st.Set(state.KeyCPUUsage, 42.0)
	st.Set(state.KeyPipelineOK, true)
	st.Set(state.KeyLastError, "tls handshake failed")

	require.NoError(t, cp.Save(st.Snapshot()))
	require.NoError(t, cp.Close())

	// Reopen, as sentinel status would after a daemon restart.
	cp, err = Open(path)
	require.NoError(t, err)
	defer cp.Close()

	snap, err := cp.Load()
	require.NoError(t, err)

	assert.Equal(t, 42.0, snap[state.KeyCPUUsage].Value)
	assert.Equal(t, true, snap[state.KeyPipelineOK].Value)
	assert.Equal(t, "tls handshake failed", snap[state.KeyLastError].Value)
	assert.False(t, snap[state.KeyCPUUsage].UpdatedAt.IsZero())
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.db")

	cp, err := Open(path)
	require.NoError(t, err)
	defer cp.Close()

	st := state.NewStore()
	st.Set(state.KeyPipelineOK, false)
	require.NoError(t, cp.Save(st.Snapshot()))

	st.Set(state.KeyPipelineOK, true)
	require.NoError(t, cp.Save(st.Snapshot()))

	snap, err := cp.Load()
	require.NoError(t, err)
	assert.Equal(t, true, snap[state.KeyPipelineOK].Value)
}

func TestLoad_EmptyDB(t *testing.T) {
	cp, err := Open(filepath.Join(t.TempDir(), "sentinel.db"))
	require.NoError(t, err)
	defer cp.Close()

	snap, err := cp.Load()
	require.NoError(t, err)
	assert.Empty(t, snap)
}
