// Package config loads and validates downloader configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // download.timezone must resolve without a system zoneinfo

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JakeFAU/hudoc-downloader/internal/subsite"
	"github.com/JakeFAU/hudoc-downloader/internal/writer"
)

// EnvPrefix is prepended to every environment override, e.g. HUDOC_DOWNLOAD_THREADS.
const EnvPrefix = "HUDOC"

// DefaultUserAgent identifies the downloader to HUDOC servers.
const DefaultUserAgent = "hudoc-downloader/1.0 (+https://github.com/JakeFAU/hudoc-downloader)"

// DefaultMaxBodySize caps document pages at 64 MiB.
const DefaultMaxBodySize = 64 << 20

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Download DownloadConfig              `mapstructure:"download"`
	HTTP     HTTPConfig                  `mapstructure:"http"`
	Logging  LoggingConfig               `mapstructure:"logging"`
	Metrics  MetricsConfig               `mapstructure:"metrics"`
	Subsites map[string]subsite.Override `mapstructure:"subsites"`
}

// DownloadConfig governs the batch and the output layout.
type DownloadConfig struct {
	OutputDir       string        `mapstructure:"output_dir"`
	Limit           int           `mapstructure:"limit"`
	Threads         int           `mapstructure:"threads"`
	ConversionDelay time.Duration `mapstructure:"conversion_delay"`
	Evid            bool          `mapstructure:"evid"`
	Markup          string        `mapstructure:"markup"`
	// Timezone is an IANA name for metadata dates; empty uses the local zone.
	Timezone string `mapstructure:"timezone"`
}

// HTTPConfig configures the conversion endpoint client.
type HTTPConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	// MaxBodySize caps response bodies in bytes; 0 disables the cap.
	MaxBodySize int `mapstructure:"max_body_size"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
	Verbose     bool `mapstructure:"verbose"`
}

// MetricsConfig sets where the Prometheus textfile is written at exit.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"output-dir":       "download.output_dir",
	"limit":            "download.limit",
	"threads":          "download.threads",
	"conversion-delay": "download.conversion_delay",
	"evid":             "download.evid",
	"markup":           "download.markup",
	"verbose":          "logging.verbose",
	"metrics-file":     "metrics.textfile",
}

// Load builds a Config from defaults, an optional file at path, the
// environment, and any of flags that were set.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("download.output_dir", "data")
	v.SetDefault("download.limit", 3)
	v.SetDefault("download.threads", 10)
	v.SetDefault("download.conversion_delay", 2*time.Second)
	v.SetDefault("download.evid", false)
	v.SetDefault("download.markup", string(writer.MarkupTypst))
	v.SetDefault("download.timezone", "")
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.max_body_size", DefaultMaxBodySize)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.verbose", false)
	v.SetDefault("metrics.textfile", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	var errs []error
	if c.Download.Threads <= 0 {
		errs = append(errs, errors.New("download.threads must be > 0"))
	}
	if c.Download.Limit < 0 {
		errs = append(errs, errors.New("download.limit must be >= 0"))
	}
	if c.Download.ConversionDelay < 0 {
		errs = append(errs, errors.New("download.conversion_delay must be >= 0"))
	}
	if _, err := writer.ParseMarkup(c.Download.Markup); err != nil {
		errs = append(errs, fmt.Errorf("download.markup: %w", err))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be > 0"))
	}
	if c.HTTP.MaxAttempts <= 0 {
		errs = append(errs, errors.New("http.max_attempts must be > 0"))
	}
	if c.HTTP.MaxBodySize < 0 {
		errs = append(errs, errors.New("http.max_body_size must be >= 0"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Markup returns the validated output markup.
func (c Config) Markup() writer.Markup {
	m, err := writer.ParseMarkup(c.Download.Markup)
	if err != nil {
		return writer.MarkupTypst
	}
	return m
}

// Location resolves download.timezone, defaulting to the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Download.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Download.Timezone)
	if err != nil {
		return nil, fmt.Errorf("download.timezone: %w", err)
	}
	return loc, nil
}

// Sites returns the built-in subsite table with configured overrides applied.
func (c Config) Sites() (subsite.Table, error) {
	table, err := subsite.Default().Merge(c.Subsites)
	if err != nil {
		return nil, fmt.Errorf("subsites: %w", err)
	}
	return table, nil
}
