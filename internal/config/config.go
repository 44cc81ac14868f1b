// Package config resolves the harvester's runtime settings from flags,
// ISONEWS_* environment variables, an optional config file and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. ISONEWS_OUTPUT_DIR.
const EnvPrefix = "ISONEWS"

// Configuration keys.
const (
	KeyConfigFile         = "config"
	KeyOutputDir          = "output_dir"
	KeyFilePrefix         = "file_prefix"
	KeyProvidersFile      = "providers_file"
	KeySeedFile           = "seed_file"
	KeyPublishersFile     = "publishers_file"
	KeyLogLevel           = "log_level"
	KeyLogFormat          = "log_format"
	KeyRequestTimeout     = "request_timeout"
	KeyRequestDelay       = "request_delay"
	KeyUserAgent          = "user_agent"
	KeyInsecureArticleTLS = "insecure_article_tls"
	KeyContentCap         = "content_cap"
	KeySummaryCap         = "summary_cap"
)

// Configuration validation errors.
var (
	ErrMissingOutputDir  = errors.New("output_dir is required")
	ErrMissingFilePrefix = errors.New("file_prefix is required")
	ErrInvalidTimeout    = errors.New("request_timeout must be positive")
	ErrInvalidDelay      = errors.New("request_delay must be non-negative")
	ErrInvalidContentCap = errors.New("content_cap must be at least 1")
	ErrInvalidSummaryCap = errors.New("summary_cap must be at least 1")
	ErrInvalidLogLevel   = errors.New("log_level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat  = errors.New("log_format must be 'console' or 'json'")
)

// Config is the resolved runtime configuration of one run.
type Config struct {
	OutputDir          string
	FilePrefix         string
	ProvidersFile      string
	SeedFile           string
	PublishersFile     string
	LogLevel           string
	LogFormat          string
	RequestTimeout     time.Duration
	RequestDelay       time.Duration
	UserAgent          string
	InsecureArticleTLS bool
	ContentCap         int
	SummaryCap         int
}

type flagDef struct {
	key   string
	name  string
	usage string
}

var flagDefs = []flagDef{
	{KeyOutputDir, "output-dir", "directory receiving report files"},
	{KeyFilePrefix, "file-prefix", "report file name prefix"},
	{KeyProvidersFile, "providers", "YAML/JSON providers file (built-in providers when empty)"},
	{KeySeedFile, "seeds", "YAML/JSON file of hand-curated article stubs"},
	{KeyPublishersFile, "publishers", "YAML/JSON publishers file (no notifications when empty)"},
	{KeyLogLevel, "log-level", "debug, info, warn or error"},
	{KeyLogFormat, "log-format", "console or json"},
	{KeyRequestTimeout, "timeout", "per-request timeout"},
	{KeyRequestDelay, "delay", "pause between article fetches"},
	{KeyUserAgent, "user-agent", "User-Agent sent with every request"},
	{KeyInsecureArticleTLS, "insecure-article-tls", "skip certificate validation for article pages"},
	{KeyContentCap, "content-cap", "maximum runes kept of each article body"},
	{KeySummaryCap, "summary-cap", "maximum runes of each summary before the ellipsis"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyOutputDir, "src/data/iso_news")
	v.SetDefault(KeyFilePrefix, "iso_news_articulos")
	v.SetDefault(KeyProvidersFile, "")
	v.SetDefault(KeySeedFile, "")
	v.SetDefault(KeyPublishersFile, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyRequestTimeout, 15*time.Second)
	v.SetDefault(KeyRequestDelay, time.Second)
	v.SetDefault(KeyUserAgent, "")
	v.SetDefault(KeyInsecureArticleTLS, true)
	v.SetDefault(KeyContentCap, 10000)
	v.SetDefault(KeySummaryCap, 200)
}

// NewFlagSet declares the command-line flags. Flag defaults mirror the
// configuration defaults; only flags set explicitly override other sources.
func NewFlagSet(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.String(KeyConfigFile, "", "optional YAML/JSON/TOML config file")

	defaults := viper.New()
	setDefaults(defaults)
	for _, fd := range flagDefs {
		switch v := defaults.Get(fd.key).(type) {
		case bool:
			flags.Bool(fd.name, v, fd.usage)
		case int:
			flags.Int(fd.name, v, fd.usage)
		case time.Duration:
			flags.Duration(fd.name, v, fd.usage)
		default:
			flags.String(fd.name, defaults.GetString(fd.key), fd.usage)
		}
	}
	return flags
}

// Load parses args and resolves the configuration. Precedence: explicit flags,
// environment, config file, defaults.
func Load(args []string) (*Config, error) {
	flags := NewFlagSet("harvester")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	return FromFlags(flags)
}

// FromFlags resolves the configuration from an already parsed flag set.
func FromFlags(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, fd := range flagDefs {
		if f := flags.Lookup(fd.name); f != nil {
			if err := v.BindPFlag(fd.key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", fd.name, err)
			}
		}
	}

	path, _ := flags.GetString(KeyConfigFile)
	if path == "" {
		path = v.GetString(KeyConfigFile)
	}
	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		OutputDir:          strings.TrimSpace(v.GetString(KeyOutputDir)),
		FilePrefix:         strings.TrimSpace(v.GetString(KeyFilePrefix)),
		ProvidersFile:      strings.TrimSpace(v.GetString(KeyProvidersFile)),
		SeedFile:           strings.TrimSpace(v.GetString(KeySeedFile)),
		PublishersFile:     strings.TrimSpace(v.GetString(KeyPublishersFile)),
		LogLevel:           strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat:          strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		RequestTimeout:     v.GetDuration(KeyRequestTimeout),
		RequestDelay:       v.GetDuration(KeyRequestDelay),
		UserAgent:          strings.TrimSpace(v.GetString(KeyUserAgent)),
		InsecureArticleTLS: v.GetBool(KeyInsecureArticleTLS),
		ContentCap:         v.GetInt(KeyContentCap),
		SummaryCap:         v.GetInt(KeySummaryCap),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return ErrMissingOutputDir
	}
	if c.FilePrefix == "" {
		return ErrMissingFilePrefix
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RequestDelay < 0 {
		return ErrInvalidDelay
	}
	if c.ContentCap < 1 {
		return ErrInvalidContentCap
	}
	if c.SummaryCap < 1 {
		return ErrInvalidSummaryCap
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogFormat, c.LogFormat)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the process environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
