package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint
	Name string
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRegisterDBMetrics(t *testing.T) {
	db := openSQLite(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := telemetry.RegisterDBMetrics(db, mp.Meter("test"), telemetry.DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: time.Nanosecond,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, m)
	t.Cleanup(m.Stop)

	require.NoError(t, db.Create(&widget{Name: "bolt"}).Error)
	var found widget
	require.NoError(t, db.First(&found).Error)
	err = db.Where("name = ?", "missing").First(&found).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	metrics := collect(t, reader)

	queries, ok := metrics["db_query_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[string]int64{}
	for _, dp := range queries.DataPoints {
		op, _ := dp.Attributes.Value(telemetry.AttrDBOperation)
		outcome, _ := dp.Attributes.Value(telemetry.AttrOutcome)
		table, _ := dp.Attributes.Value(telemetry.AttrDBTable)
		assert.Equal(t, "widgets", table.AsString())
		counts[op.AsString()+"/"+outcome.AsString()] += dp.Value
	}
	assert.Equal(t, int64(1), counts["create/ok"])
	assert.Equal(t, int64(2), counts["select/ok"], "not found is not an error")

	slow, ok := metrics["db_slow_query_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.NotEmpty(t, slow.DataPoints)

	pool, ok := metrics["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, pool.DataPoints, 1)
	assert.Equal(t, int64(1), pool.DataPoints[0].Value)

	states, ok := metrics["db_pool_connections"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, states.DataPoints, 2)
}

func TestRegisterDBMetrics_Disabled(t *testing.T) {
	db := openSQLite(t)
	m, err := telemetry.RegisterDBMetrics(db, sdkmetric.NewMeterProvider().Meter("test"), telemetry.DBMetricsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestDBTracingPlugin(t *testing.T) {
	t.Run("spans and slow query log", func(t *testing.T) {
		recorder := recordSpans(t)
		core, logs := observer.New(zap.WarnLevel)
		db := openSQLite(t)

		cfg := telemetry.DefaultDBTracingConfig()
		cfg.Enabled = true
		cfg.DBSystem = "sqlite"
		cfg.SlowQueryThresh = time.Nanosecond
		require.NoError(t, telemetry.NewDBTracingPlugin(cfg, zap.New(core)).RegisterOtelGorm(db))

		require.NoError(t, db.Create(&widget{Name: "nut"}).Error)

		assert.NotEmpty(t, recorder.Ended())
		slow := logs.FilterMessage("Slow query").All()
		require.NotEmpty(t, slow)
		fields := slow[0].ContextMap()
		assert.Equal(t, "create", fields["operation"])
		assert.Equal(t, "widgets", fields["table"])
	})

	t.Run("disabled registers nothing", func(t *testing.T) {
		recorder := recordSpans(t)
		db := openSQLite(t)

		require.NoError(t, telemetry.NewDBTracingPlugin(telemetry.DefaultDBTracingConfig(), zap.NewNop()).RegisterOtelGorm(db))
		require.NoError(t, db.Create(&widget{Name: "nut"}).Error)

		assert.Empty(t, recorder.Ended())
	})
}
