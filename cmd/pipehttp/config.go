package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DaianCosta/pipehttp"
	"github.com/DaianCosta/pipehttp/internal/constants"
	"github.com/DaianCosta/pipehttp/internal/store/postgresql"
	"github.com/DaianCosta/pipehttp/internal/util"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr         string `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  string `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout" yaml:"write_timeout"`
}

type PipelinesConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type ClientConfig struct {
	Timeout             string `mapstructure:"timeout" yaml:"timeout"`
	Insecure            bool   `mapstructure:"insecure" yaml:"insecure"`
	MinTLSVersion       string `mapstructure:"min_tls_version" yaml:"min_tls_version"`
	MaxTLSVersion       string `mapstructure:"max_tls_version" yaml:"max_tls_version"`
	MaxIdleConnsPerHost int    `mapstructure:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`
	Tracing             bool   `mapstructure:"tracing" yaml:"tracing"`
}

type ExecutionConfig struct {
	// Timeout bounds one whole execution. Empty means no deadline.
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`                   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"`                 // text, json, color
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"` // enable/disable sensitive data masking
}

type SQLiteStoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type StoreConfig struct {
	Disabled    bool              `mapstructure:"disabled" yaml:"disabled"`
	SaveResults bool              `mapstructure:"save_results" yaml:"save_results"`
	Type        string            `mapstructure:"type" yaml:"type"`
	SQLite      SQLiteStoreConfig `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres    postgresql.Config `mapstructure:"postgres" yaml:"postgres"`
	// Optional table name customization
	TablePrefix string `mapstructure:"table_prefix" yaml:"table_prefix"`
	TableRuns   string `mapstructure:"table_runs" yaml:"table_runs"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Pretty  bool `mapstructure:"pretty" yaml:"pretty"`
}

type ConfigDoc struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Pipelines PipelinesConfig `mapstructure:"pipelines" yaml:"pipelines"`
	Client    ClientConfig    `mapstructure:"client" yaml:"client"`
	Execution ExecutionConfig `mapstructure:"execution" yaml:"execution"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
}

func (c *ConfigDoc) Load(path string) error {
	clean := filepath.Clean(path)
	// Ensure path points to a regular file to avoid opening directories/special files
	if info, statErr := os.Stat(clean); statErr != nil || !info.Mode().IsRegular() {
		if statErr != nil {
			return statErr
		}
		return fmt.Errorf("not a regular file: %s", clean)
	}
	// #nosec G304 -- config path is provided intentionally by the operator; cleaned and validated above
	f, err := os.Open(clean)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decode %s: %w", clean, err)
	}
	return nil
}

// ApplyDefaults fills every empty setting that has a service default.
func (c *ConfigDoc) ApplyDefaults() {
	c.Server.Addr = util.TrimWithDefault(c.Server.Addr, constants.DefaultListenAddr)
	c.Pipelines.Path = util.TrimWithDefault(c.Pipelines.Path, constants.DefaultPipelineFile)
	if c.Client.MaxIdleConnsPerHost <= 0 {
		c.Client.MaxIdleConnsPerHost = constants.DefaultMaxIdleConnsPerHost
	}
}

// ClientTimeout returns the per-call timeout. Empty means the default;
// "0" disables it.
func (c *ConfigDoc) ClientTimeout() (time.Duration, error) {
	d, err := parseDuration("client.timeout", c.Client.Timeout)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		if _, set := util.TrimEmptyCheck(c.Client.Timeout); set {
			return -1, nil
		}
		return constants.DefaultClientTimeout, nil
	}
	return d, nil
}

// ExecutionTimeout returns the overall deadline, zero when unset.
func (c *ConfigDoc) ExecutionTimeout() (time.Duration, error) {
	return parseDuration("execution.timeout", c.Execution.Timeout)
}

func parseDuration(field, s string) (time.Duration, error) {
	v, ok := util.TrimEmptyCheck(s)
	if !ok {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", field, s)
	}
	return d, nil
}

// SetupLogging configures the global logger based on config settings
func (c *ConfigDoc) SetupLogging() error {
	level, ok := pipehttp.ParseLogLevel(util.TrimAndLower(c.Logging.Level))
	if !ok {
		return fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", c.Logging.Level)
	}

	var logger *pipehttp.Logger
	format := util.TrimAndLower(c.Logging.Format)
	switch format {
	case "json":
		logger = pipehttp.NewJSONLogger(level)
	case "text", "":
		logger = pipehttp.NewLogger(level)
	case "color", "console":
		logger = pipehttp.NewConsoleLogger(os.Stdout, level)
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json, color)", c.Logging.Format)
	}

	maskingEnabled := true
	if c.Logging.MaskSensitive != nil {
		maskingEnabled = *c.Logging.MaskSensitive
	}
	pipehttp.EnableMasking(maskingEnabled)
	pipehttp.SetDefaultLogger(logger)

	logger.Debug("logging configured",
		"level", level.String(),
		"format", util.TrimWithDefault(format, "text"),
		"mask_sensitive", maskingEnabled)
	return nil
}
