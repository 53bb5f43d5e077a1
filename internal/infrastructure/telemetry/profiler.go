package telemetry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig holds Pyroscope settings.
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	Tags              map[string]string

	ProfileCPU        bool
	ProfileAllocSpace bool // allocated objects and bytes
	ProfileInuseSpace bool // live objects and bytes
	ProfileGoroutines bool
	ProfileMutex      bool // contention count and duration
	ProfileBlock      bool
}

// runtime sampling rates for mutex and block profiles
const (
	mutexProfileFraction = 5
	blockProfileRate     = 5
)

func (c ProfilerConfig) profileTypes() []pyroscope.ProfileType {
	var types []pyroscope.ProfileType
	add := func(on bool, t ...pyroscope.ProfileType) {
		if on {
			types = append(types, t...)
		}
	}
	add(c.ProfileCPU, pyroscope.ProfileCPU)
	add(c.ProfileAllocSpace, pyroscope.ProfileAllocObjects, pyroscope.ProfileAllocSpace)
	add(c.ProfileInuseSpace, pyroscope.ProfileInuseObjects, pyroscope.ProfileInuseSpace)
	add(c.ProfileGoroutines, pyroscope.ProfileGoroutines)
	add(c.ProfileMutex, pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration)
	add(c.ProfileBlock, pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration)
	return types
}

// Profiler pushes continuous profiles to Pyroscope.
type Profiler struct {
	session *pyroscope.Profiler
	once    sync.Once
}

// NewProfiler starts the profiler. A disabled config yields a Profiler whose
// Stop does nothing.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return &Profiler{}, nil
	}
	if cfg.ServerAddress == "" || cfg.ApplicationName == "" {
		return nil, errors.New("profiling needs a server address and an application name")
	}

	types := cfg.profileTypes()
	if len(types) == 0 {
		return nil, errors.New("profiling enabled without any profile type")
	}
	if cfg.ProfileMutex {
		runtime.SetMutexProfileFraction(mutexProfileFraction)
	}
	if cfg.ProfileBlock {
		runtime.SetBlockProfileRate(blockProfileRate)
	}

	tags := maps.Clone(cfg.Tags)
	if tags == nil {
		tags = map[string]string{}
	}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Tags:              tags,
		ProfileTypes:      types,
		Logger:            pyroscopeLogger{logger.Named("pyroscope").Sugar()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}

	logger.Info("Continuous profiling enabled",
		zap.String("server_address", cfg.ServerAddress),
		zap.Int("profile_types", len(types)),
	)
	return &Profiler{session: session}, nil
}

// IsEnabled reports whether profiles are being pushed.
func (p *Profiler) IsEnabled() bool {
	return p.session != nil
}

// Stop flushes and stops the profiler. Later calls are no-ops.
func (p *Profiler) Stop() error {
	if p.session == nil {
		return nil
	}
	var err error
	p.once.Do(func() { err = p.session.Stop() })
	return err
}

// pyroscopeLogger demotes the agent's chatter to debug
type pyroscopeLogger struct {
	s *zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

// Profiling label keys.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelCompanyID  = "company_id"
	ProfilingLabelOperation  = "operation"
)

// MaxLabelValueLength caps label values; longer ones are truncated.
const MaxLabelValueLength = 128

// HTTPRequestLabels builds the labels attached to a request goroutine.
func HTTPRequestLabels(controller, route, method, companyID string) map[string]string {
	return map[string]string{
		ProfilingLabelController: controller,
		ProfilingLabelRoute:      route,
		ProfilingLabelMethod:     method,
		ProfilingLabelCompanyID:  companyID,
	}
}

// WithProfilingLabels runs fn with labels attached to the goroutine so its
// samples can be filtered in Pyroscope. Empty values are skipped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// labelPairs flattens labels into sorted key, value pairs with normalised
// keys and capped values
func labelPairs(labels map[string]string) []string {
	clean := make(map[string]string, len(labels))
	for key, value := range labels {
		if key = labelKey(key); key == "" || value == "" {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		clean[key] = value
	}
	pairs := make([]string, 0, len(clean)*2)
	for _, key := range slices.Sorted(maps.Keys(clean)) {
		pairs = append(pairs, key, clean[key])
	}
	return pairs
}

func labelKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == '-' || r == '.' || r == ' ':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(key))
}
