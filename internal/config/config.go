// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"net"
	"strconv"
	"time"
)

// Defaults applied by New.
const (
	DefaultHost            = "localhost"
	DefaultPort            = 5555
	DefaultEnv             = EnvDevelopment
	DefaultQueueSize       = 1024
	DefaultWorkerCount     = 2
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// EnvDevelopment is the environment name that turns debug on.
const EnvDevelopment = "development"

// Config contains process configuration.
type Config struct {
	// Host is the interface the HTTP server binds to. A blank value falls back to DefaultHost.
	Host string `koanf:"host"`

	// HostFallback is set when a blank host was replaced by DefaultHost.
	HostFallback bool `koanf:"-"`

	// Port is the TCP port. Values that do not parse as a port fall back to DefaultPort.
	Port int `koanf:"-"`

	// RawPort keeps the configured port text; PortFallback is set when it did not parse.
	RawPort      string `koanf:"-"`
	PortFallback bool   `koanf:"-"`

	// Env names the runtime environment; "development" enables debug.
	Env string `koanf:"env"`

	// LogLevel controls verbosity: debug, info, warn, error. Empty picks a level from Env.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json. Empty picks a format from Env.
	LogFormat string `koanf:"log_format"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of submission observer workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxBodyBytes caps the size of a POST /contact body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// ShutdownTimeoutMS bounds graceful shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		Host:              DefaultHost,
		Port:              DefaultPort,
		Env:               DefaultEnv,
		QueueSize:         DefaultQueueSize,
		WorkerCount:       DefaultWorkerCount,
		MaxBodyBytes:      DefaultMaxBodyBytes,
		ShutdownTimeoutMS: int(DefaultShutdownTimeout / time.Millisecond),
	}
}

// Debug reports whether the app runs in debug mode.
func (c *Config) Debug() bool {
	return c.Env == EnvDevelopment
}

// Addr returns the listen address built from Host and Port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// EffectiveLogLevel returns LogLevel, or debug/info depending on Debug when unset.
func (c *Config) EffectiveLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	if c.Debug() {
		return "debug"
	}
	return "info"
}

// EffectiveLogFormat returns LogFormat, or text/json depending on Debug when unset.
func (c *Config) EffectiveLogFormat() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	if c.Debug() {
		return "text"
	}
	return "json"
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutMS <= 0 {
		return DefaultShutdownTimeout
	}
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
