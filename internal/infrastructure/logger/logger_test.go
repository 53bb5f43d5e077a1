package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigs(t *testing.T) {
	assert.Equal(t, "console", DefaultConfig().Format)
	assert.Equal(t, "info", DefaultConfig().Level)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseLevel(in))
		})
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = path

	l, err := New(cfg)
	require.NoError(t, err)
	l.Info("stock record created", zap.String("type", "Sale"))
	Sync(l)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry))
	assert.Equal(t, "stock record created", entry["msg"])
	assert.Equal(t, "Sale", entry["type"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_TeesExtraCores(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	cfg := DefaultConfig()
	cfg.Output = filepath.Join(t.TempDir(), "out.log")

	l, err := New(cfg, core)
	require.NoError(t, err)
	l.Warn("low stock")

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "low stock", recorded.All()[0].Message)
}

func TestNew_BadOutputPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = filepath.Join(t.TempDir(), "missing", "dir", "out.log")

	_, err := New(cfg)

	assert.Error(t, err)
}
