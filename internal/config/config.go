// Package config loads run configuration from flags, EDGAR_* environment
// variables, and an optional YAML file, following the layered precedence
// viper-based CLI tools use.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the ingest pipeline's full runtime configuration.
type Config struct {
	Fetcher  FetcherConfig  `yaml:"fetcher" mapstructure:"fetcher"`
	Sink     SinkConfig     `yaml:"sink" mapstructure:"sink"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Run      RunConfig      `yaml:"run" mapstructure:"run"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// FetcherConfig configures the rate-limited EDGAR HTTP client.
type FetcherConfig struct {
	Organization string `yaml:"organization" mapstructure:"organization"`
	Contact      string `yaml:"contact" mapstructure:"contact"`
}

// SinkConfig configures where finished artifacts and metadata land.
type SinkConfig struct {
	LocalDir       string `yaml:"local_dir" mapstructure:"local_dir"`
	SkipUpload     bool   `yaml:"skip_upload" mapstructure:"skip_upload"`
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	CredentialPath string `yaml:"credential_path" mapstructure:"credential_path"`
}

// RegistryConfig points at the fiscal-year-end registry file.
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RunConfig configures one ingest run's scope and concurrency.
type RunConfig struct {
	Workers          int `yaml:"workers" mapstructure:"workers"`
	PerFilingTimeout int `yaml:"per_filing_timeout_secs" mapstructure:"per_filing_timeout_secs"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the fields every run mode needs regardless of CLI
// flags: a non-empty contact email, a database URL unless uploads are
// skipped, and a worker count between 1 and 5.
func (c *Config) Validate() error {
	var errs []string

	if c.Fetcher.Contact == "" {
		errs = append(errs, "fetcher.contact is required (SEC requires a contact email in the User-Agent)")
	}
	if !c.Sink.SkipUpload && c.Sink.DatabaseURL == "" {
		errs = append(errs, "sink.database_url is required unless sink.skip_upload is set")
	}
	if c.Run.Workers < 1 || c.Run.Workers > 5 {
		errs = append(errs, "run.workers must be between 1 and 5")
	}

	if len(errs) > 0 {
		return eris.New("config: validation failed: " + strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from an optional ./config.yaml, then
// EDGAR_*-prefixed environment variables, then registered defaults,
// in viper's standard precedence order (flags applied by the caller
// win over all of it).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("EDGAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so that Unmarshal sees its EDGAR_* env
	// variable; viper only consults the environment for known keys.
	v.SetDefault("fetcher.organization", "edgaringest")
	v.SetDefault("fetcher.contact", "")
	v.SetDefault("sink.local_dir", "./out")
	v.SetDefault("sink.skip_upload", false)
	v.SetDefault("sink.database_url", "")
	v.SetDefault("sink.credential_path", "")
	v.SetDefault("registry.path", "./registry.yaml")
	v.SetDefault("run.workers", 3)
	v.SetDefault("run.per_filing_timeout_secs", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger builds the process-wide zap logger from LogConfig.
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	return logger, nil
}
