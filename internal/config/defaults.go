package config

import (
	"os"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// OutputDefaultApplier handles Output configuration defaults.
type OutputDefaultApplier struct{}

func (OutputDefaultApplier) Domain() string { return "output" }

func (OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Backend == "" {
		cfg.Output.Backend = BackendFS
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "./published"
	}
	if cfg.Output.BaseURL == "" {
		cfg.Output.BaseURL = "/system"
	}
	if cfg.Output.S3 != nil && cfg.Output.S3.Region == "" {
		cfg.Output.S3.Region = "us-east-1"
	}
	return nil
}

// TopologyDefaultApplier handles Topology configuration defaults.
type TopologyDefaultApplier struct{}

func (TopologyDefaultApplier) Domain() string { return "topology" }

func (TopologyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Topology.CacheSize <= 0 {
		cfg.Topology.CacheSize = 256
	}
	if cfg.Topology.Timeout <= 0 {
		cfg.Topology.Timeout = 10 * time.Second
	}
	if m := NormalizeRetryBackoff(string(cfg.Topology.Retry.Backoff)); m != "" {
		cfg.Topology.Retry.Backoff = m
	} else {
		cfg.Topology.Retry.Backoff = RetryBackoffExponential
	}
	if cfg.Topology.Retry.Initial <= 0 {
		cfg.Topology.Retry.Initial = 500 * time.Millisecond
	}
	if cfg.Topology.Retry.Max <= 0 {
		cfg.Topology.Retry.Max = 10 * time.Second
	}
	if cfg.Topology.Retry.MaxRetries < 0 {
		cfg.Topology.Retry.MaxRetries = 0
	}
	return nil
}

// DaemonDefaultApplier handles daemon and notification defaults.
type DaemonDefaultApplier struct{}

func (DaemonDefaultApplier) Domain() string { return "daemon" }

func (DaemonDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Daemon.Debounce <= 0 {
		cfg.Daemon.Debounce = 2 * time.Second
	}
	if cfg.Notify.NATSURL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "siteconfig.published"
	}
	return nil
}

// LoggingDefaultApplier normalizes logging settings; SITECONFIG_LOG_LEVEL overrides the file.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	level := string(cfg.Logging.Level)
	if env := os.Getenv("SITECONFIG_LOG_LEVEL"); env != "" {
		level = env
	}
	cfg.Logging.Level = NormalizeLogLevel(level)
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		OutputDefaultApplier{},
		TopologyDefaultApplier{},
		DaemonDefaultApplier{},
		LoggingDefaultApplier{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers() {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
