package telemetry

import (
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BridgeLogger returns a logger that writes to base and also exports every
// entry base would emit through the OTLP log pipeline. Without an enabled
// provider base is returned unchanged.
func BridgeLogger(base *zap.Logger, lp *LoggerProvider, name string) (*zap.Logger, error) {
	if !lp.IsEnabled() {
		return base, nil
	}
	exported, err := zapcore.NewIncreaseLevelCore(
		otelzap.NewCore(name, otelzap.WithLoggerProvider(lp.sdk)),
		base.Level(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to bridge logger: %w", err)
	}
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, exported)
	})), nil
}
