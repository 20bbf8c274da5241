package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvConfigFile = "AUSCRIPT_CONFIG"
	envPrefix     = "AUSCRIPT_"
	envHost       = "SERVER_HOST"
	envPort       = "SERVER_PORT"
	envFlaskEnv   = "FLASK_ENV"
)

const maxPort = 65535

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML, or TOML for a .toml path) if AUSCRIPT_CONFIG is set
//  3. env (prefix AUSCRIPT_)
//  4. SERVER_HOST, SERVER_PORT, FLASK_ENV
//
// Host and port never fail loading: a blank host is replaced by DefaultHost
// (HostFallback) and anything that is not a valid port number by DefaultPort
// (PortFallback).
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, loadFailed(path, err)
		}
	}

	// AUSCRIPT_QUEUE_SIZE -> queue_size (flat keys matching the koanf tags).
	prefixed := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, loadFailed("env", err)
	}

	server := env.Provider("SERVER_", ".", func(s string) string {
		switch s {
		case envHost:
			return "host"
		case envPort:
			return "port"
		default:
			return "server." + strings.ToLower(s)
		}
	})
	if err := k.Load(server, nil); err != nil {
		return nil, loadFailed("env", err)
	}

	flask := env.Provider(envFlaskEnv, ".", func(s string) string {
		if s == envFlaskEnv {
			return "env"
		}
		return "flask." + strings.ToLower(s)
	})
	if err := k.Load(flask, nil); err != nil {
		return nil, loadFailed("env", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, loadFailed("unmarshal", err)
	}

	if k.Exists("port") {
		cfg.RawPort = fmt.Sprint(k.Get("port"))
		port, ok := ParsePort(cfg.RawPort)
		cfg.Port = port
		cfg.PortFallback = !ok
	}

	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = DefaultHost
		cfg.HostFallback = true
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParsePort converts raw into a TCP port. It returns DefaultPort and false
// when raw is not an integer in [0, 65535].
func ParsePort(raw string) (int, bool) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || port < 0 || port > maxPort {
		return DefaultPort, false
	}
	return port, true
}

func (c *Config) validate() error {
	switch {
	case c.QueueSize <= 0:
		return invalid("queue_size must be positive, got %d", c.QueueSize)
	case c.WorkerCount <= 0:
		return invalid("worker_count must be positive, got %d", c.WorkerCount)
	case c.MaxBodyBytes <= 0:
		return invalid("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}
