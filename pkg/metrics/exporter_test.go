package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgesoc/sentinel/pkg/state"
)

func TestExporter_MirrorsStore(t *testing.T) {
	st := state.NewStore()
	st.Set(state.KeyCPUUsage, 33.5)
	st.Set(state.KeyRAMUsage, 60.0)
	st.Set(state.KeyThrottlingLevel, 2)
	st.Set(state.KeyPipelineOK, true)
	st.Set(state.KeyAWSReady, true)
	st.Set(state.KeyRedisReady, false)
	st.Set(state.KeyVectorHealthy, true)
	st.Set(state.KeyDockerHealthy, true)
	st.Set(state.KeyRedisQueueDepth, 150.0)

	NewExporter(st, 0).Collect()

	assert.Equal(t, 33.5, testutil.ToFloat64(CPUUsage))
	assert.Equal(t, 60.0, testutil.ToFloat64(RAMUsage))
	assert.Equal(t, 2.0, testutil.ToFloat64(ThrottlingLevel))
	assert.Equal(t, 1.0, testutil.ToFloat64(PipelineOK))
	assert.Equal(t, 1.0, testutil.ToFloat64(AWSReady))
	assert.Equal(t, 0.0, testutil.ToFloat64(RedisReady))
	assert.Equal(t, 1.0, testutil.ToFloat64(VectorHealth))
	assert.Equal(t, 150.0, testutil.ToFloat64(RedisQueueDepth))
}

func TestExporter_ScrapeIsIdempotent(t *testing.T) {
	st := state.NewStore()
	st.Set(state.KeyCPUUsage, 12.0)
	st.Set(state.KeyPipelineOK, true)

	e := NewExporter(st, 0)
	e.Collect()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	// Only the ids2_ family is compared; the default gatherer also serves
	// runtime metrics that move on their own.
	scrape := func() []string {
		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var lines []string
		for _, line := range strings.Split(string(body), "\n") {
			if strings.HasPrefix(line, "ids2_") {
				lines = append(lines, line)
			}
		}
		return lines
	}

	first := scrape()
	second := scrape()

	// No probe activity between the two scrapes: identical values.
	assert.Contains(t, first, "ids2_cpu_usage_percent 12")
	assert.Equal(t, first, second)
}

func TestExporter_NeverWritesBack(t *testing.T) {
	st := state.NewStore()
	st.Set(state.KeyCPUUsage, 5.0)

	before := st.Snapshot()
	NewExporter(st, 0).Collect()
	after := st.Snapshot()

	assert.Equal(t, before, after)
}
