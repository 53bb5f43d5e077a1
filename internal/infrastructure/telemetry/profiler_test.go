package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler(t *testing.T) {
	log := zaptest.NewLogger(t)

	t.Run("disabled is a no-op", func(t *testing.T) {
		p, err := NewProfiler(ProfilerConfig{}, log)
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("requires an address", func(t *testing.T) {
		_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "stockledger", ProfileCPU: true}, log)
		assert.Error(t, err)
	})

	t.Run("requires a profile type", func(t *testing.T) {
		_, err := NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040", ApplicationName: "stockledger"}, log)
		assert.Error(t, err)
	})
}

func TestProfilerConfig_ProfileTypes(t *testing.T) {
	cfg := ProfilerConfig{ProfileCPU: true, ProfileInuseSpace: true, ProfileMutex: true}

	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileInuseObjects,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileMutexCount,
		pyroscope.ProfileMutexDuration,
	}, cfg.profileTypes())
	assert.Empty(t, ProfilerConfig{}.profileTypes())
}

func TestLabelPairs(t *testing.T) {
	long := strings.Repeat("x", MaxLabelValueLength+20)

	pairs := labelPairs(map[string]string{
		"Route":                 "/api/v1/stock-records",
		"company-id":            "c1",
		"empty":                 "",
		"!!":                    "dropped",
		"http.method":           "POST",
		ProfilingLabelOperation: long,
	})

	assert.Equal(t, []string{
		"company_id", "c1",
		"http_method", "POST",
		"operation", long[:MaxLabelValueLength],
		"route", "/api/v1/stock-records",
	}, pairs)
}

func TestWithProfilingLabels(t *testing.T) {
	labels := HTTPRequestLabels("stock-records", "/api/v1/stock-records", "POST", "")

	var route, company string
	var companySet bool
	WithProfilingLabels(context.Background(), labels, func(ctx context.Context) {
		route, _ = pprof.Label(ctx, ProfilingLabelRoute)
		company, companySet = pprof.Label(ctx, ProfilingLabelCompanyID)
	})

	assert.Equal(t, "/api/v1/stock-records", route)
	assert.False(t, companySet, company)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}
