package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Snapshot    SnapshotConfig    `yaml:"snapshot"`
	Publication PublicationConfig `yaml:"publication"`
	Publishing  PublishingConfig  `yaml:"publishing"`
	Topology    TopologyConfig    `yaml:"topology"`
	Output      OutputConfig      `yaml:"output"`
	History     HistoryConfig     `yaml:"history,omitempty"`
	Notify      NotifyConfig      `yaml:"notify,omitempty"`
	Daemon      DaemonConfig      `yaml:"daemon,omitempty"`
	Logging     LoggingConfig     `yaml:"logging,omitempty"`

	// path of the file this config was loaded from; relative paths resolve against its directory
	sourcePath string
}

// SnapshotConfig locates the content snapshot (publications, records, schemas).
type SnapshotConfig struct {
	Path string             `yaml:"path,omitempty"`
	Git  *GitSnapshotConfig `yaml:"git,omitempty"`
}

// GitSnapshotConfig reads the snapshot file from a git repository.
type GitSnapshotConfig struct {
	URL   string `yaml:"url"`
	Ref   string `yaml:"ref,omitempty"`  // branch name, defaults to the remote HEAD
	File  string `yaml:"file,omitempty"` // path inside the repository
	Token string `yaml:"token,omitempty"`
}

// PublicationConfig selects the context publication and its core configuration record.
type PublicationConfig struct {
	ID         string `yaml:"id"`
	CoreConfig string `yaml:"core_config"`
}

// PublishingConfig carries the publishing-context flags of a run.
type PublishingConfig struct {
	CMSVersion         string `yaml:"cms_version,omitempty"`
	EnvironmentPurpose string `yaml:"environment_purpose,omitempty"`
	XPMEnabled         bool   `yaml:"xpm_enabled,omitempty"`
	Staging            bool   `yaml:"staging,omitempty"`
}

// TopologyConfig configures the topology lookups. Either static values or an HTTP endpoint.
type TopologyConfig struct {
	CMWebsiteURL    string           `yaml:"cm_website_url,omitempty"`
	SearchQueryURLs []SearchQueryURL `yaml:"search_query_urls,omitempty"`
	Endpoint        string           `yaml:"endpoint,omitempty"`
	CacheSize       int              `yaml:"cache_size,omitempty"`
	Timeout         time.Duration    `yaml:"timeout,omitempty"`
	Retry           RetryConfig      `yaml:"retry,omitempty"`
}

// SearchQueryURL maps a CD environment purpose (optionally per publication) to a search endpoint.
type SearchQueryURL struct {
	Publication string `yaml:"publication,omitempty"`
	Purpose     string `yaml:"purpose"`
	URL         string `yaml:"url"`
}

// RetryConfig configures backoff for remote topology calls.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff,omitempty"`
	Initial    time.Duration    `yaml:"initial,omitempty"`
	Max        time.Duration    `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries,omitempty"`
}

// HistoryConfig enables the SQLite run history. Empty database disables it.
type HistoryConfig struct {
	Database string `yaml:"database,omitempty"`
}

// NotifyConfig enables publishing run reports to NATS. Empty URL disables it.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// DaemonConfig configures watch mode.
type DaemonConfig struct {
	Interval    time.Duration `yaml:"interval,omitempty"`
	Watch       bool          `yaml:"watch,omitempty"`
	Debounce    time.Duration `yaml:"debounce,omitempty"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").Fatal().WithContext("path", configPath).Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	cfg.sourcePath = configPath
	cfg.resolvePaths()
	return cfg, nil
}

// Parse decodes, defaults and validates a configuration document.
// Unknown keys are rejected so typos surface early.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SourcePath returns the file the configuration was loaded from (empty when parsed from memory).
func (c *Config) SourcePath() string { return c.sourcePath }

// resolvePaths anchors relative file paths at the config file directory.
func (c *Config) resolvePaths() {
	base := filepath.Dir(c.sourcePath)
	anchor := func(p string) string {
		if p == "" || filepath.IsAbs(p) || p == ":memory:" {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Snapshot.Path = anchor(c.Snapshot.Path)
	c.Output.Directory = anchor(c.Output.Directory)
	c.History.Database = anchor(c.History.Database)
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Config{
		Snapshot:    SnapshotConfig{Path: "content-snapshot.yaml"},
		Publication: PublicationConfig{ID: "5", CoreConfig: "100"},
		Publishing: PublishingConfig{
			CMSVersion:         "8.5",
			EnvironmentPurpose: "Live",
		},
		Topology: TopologyConfig{
			CMWebsiteURL: "https://cm.example.com",
			SearchQueryURLs: []SearchQueryURL{
				{Purpose: "Live", URL: "https://search.example.com/live"},
				{Purpose: "Staging", URL: "https://search.example.com/staging"},
			},
		},
		Output: OutputConfig{Directory: "./published", BaseURL: "/system", Backend: BackendFS},
		Daemon: DaemonConfig{Interval: 15 * time.Minute, Watch: true, MetricsAddr: ":9464"},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").WithContext("path", configPath).Build()
	}
	return nil
}
