// Package config handles loading and validation of the fileferry.toml
// configuration file.
//
// Loading and validation are separate steps: Load maps the file into the
// Config struct with defaults applied, Validate checks semantic rules.
// Secrets (bearer token, basic password) may come from the environment via a
// .env file loaded before viper binds FILEFERRY_* variables.
package config

import (
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"fileferry/internal/errors"
)

// Config is the full fileferry configuration.
type Config struct {
	Producer  ProducerConfig  `mapstructure:"producer"`
	Files     FilesConfig     `mapstructure:"files"`
	Stability StabilityConfig `mapstructure:"stability"`
	Transform TransformConfig `mapstructure:"transform"`
	API       APIConfig       `mapstructure:"api"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Loop      LoopConfig      `mapstructure:"loop"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Lookup    LookupConfig    `mapstructure:"lookup"`
	Log       LogConfig       `mapstructure:"log"`
}

// ProducerConfig describes the external extractor process.
type ProducerConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Command string            `mapstructure:"command"`
	Args    []string          `mapstructure:"args"`
	Env     map[string]string `mapstructure:"env"`
	Dir     string            `mapstructure:"dir"`
}

// FilesConfig describes the watched directory.
type FilesConfig struct {
	WatchDir        string `mapstructure:"watch_dir"`
	Pattern         string `mapstructure:"pattern"`
	TimestampPrefix bool   `mapstructure:"timestamp_prefix"`
}

// StabilityConfig tunes the quiet-period gate.
type StabilityConfig struct {
	QuietPeriodSecs  int `mapstructure:"quiet_period_secs"`
	PollIntervalSecs int `mapstructure:"poll_interval_secs"` // 0 = use quiet period
	MaxWaitSecs      int `mapstructure:"max_wait_secs"`
}

// QuietPeriod returns the configured quiet period as a duration.
func (s StabilityConfig) QuietPeriod() time.Duration {
	return time.Duration(s.QuietPeriodSecs) * time.Second
}

// PollInterval returns the poll interval, defaulting to the quiet period.
func (s StabilityConfig) PollInterval() time.Duration {
	if s.PollIntervalSecs > 0 {
		return time.Duration(s.PollIntervalSecs) * time.Second
	}
	return s.QuietPeriod()
}

// MaxWait returns the per-cycle stability wait budget.
func (s StabilityConfig) MaxWait() time.Duration {
	return time.Duration(s.MaxWaitSecs) * time.Second
}

// TransformConfig tunes the normalization pass.
type TransformConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Format        string   `mapstructure:"format"` // "tsv" | "csv"
	SkipRows      int      `mapstructure:"skip_rows"`
	Header        []string `mapstructure:"header"`
	HeaderOrdered bool     `mapstructure:"header_ordered"`
	Dedupe        bool     `mapstructure:"dedupe"`
	Trim          bool     `mapstructure:"trim"`
	LineEnding    string   `mapstructure:"line_ending"` // "lf" | "crlf"
}

// APIConfig describes the upload endpoint.
type APIConfig struct {
	Endpoint      string            `mapstructure:"endpoint"`
	Mode          string            `mapstructure:"mode"` // "multipart" | "json_base64" | "lookup_enrich"
	FieldName     string            `mapstructure:"field_name"`
	FilenameKey   string            `mapstructure:"filename_key"`
	DataKey       string            `mapstructure:"data_key"`
	ExtraFields   map[string]string `mapstructure:"extra_fields"`
	TimeoutSecs   int               `mapstructure:"timeout_secs"`
	Auth          string            `mapstructure:"auth"` // "none" | "bearer" | "basic"
	BearerToken   string            `mapstructure:"bearer_token"`
	BasicUser     string            `mapstructure:"basic_user"`
	BasicPassword string            `mapstructure:"basic_password"`
}

// Timeout returns the per-attempt request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// RetryConfig tunes the upload retry policy.
type RetryConfig struct {
	MaxAttempts   int     `mapstructure:"max_attempts"`
	BaseDelaySecs float64 `mapstructure:"base_delay_secs"`
	Multiplier    float64 `mapstructure:"multiplier"`
	MaxDelaySecs  float64 `mapstructure:"max_delay_secs"`
}

// BaseDelay returns the first-retry delay.
func (r RetryConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelaySecs * float64(time.Second))
}

// MaxDelay returns the backoff cap.
func (r RetryConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelaySecs * float64(time.Second))
}

// LoopConfig tunes the cycle loop.
type LoopConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"` // 0 = run once
}

// Interval returns the inter-cycle sleep.
func (l LoopConfig) Interval() time.Duration {
	return time.Duration(l.IntervalSeconds) * time.Second
}

// ArchiveConfig describes post-success relocation.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// LookupConfig describes the enrichment endpoints.
type LookupConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	URL         string `mapstructure:"url"`      // GET base; part numbers appended urlencoded
	PostURL     string `mapstructure:"post_url"` // form POST destination
	ChunkSize   int    `mapstructure:"chunk_size"`
	Cookie      string `mapstructure:"cookie"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Timeout returns the lookup request timeout.
func (l LookupConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSecs) * time.Second
}

// LogConfig tunes logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" | "json"
}

// Load reads the configuration file at path and returns the parsed Config
// with defaults applied. A .env file in the working directory, if present,
// is loaded first so FILEFERRY_* environment overrides can carry secrets.
// Returns E_CONFIG_NOT_FOUND / E_CONFIG_INVALID on failure.
func Load(path string) (Config, error) {
	// Best-effort: absence of .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)

	v.SetEnvPrefix("FILEFERRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if stderrors.As(err, &notFound) || os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.EConfigNotFound, "config file not found: "+path, err)
		}
		return Config{}, errors.Wrap(errors.EConfigInvalid, "failed to parse "+path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.EConfigInvalid, "failed to map configuration", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("producer.enabled", false)

	v.SetDefault("files.pattern", "*")
	v.SetDefault("files.timestamp_prefix", false)

	v.SetDefault("stability.quiet_period_secs", 2)
	v.SetDefault("stability.poll_interval_secs", 0)
	v.SetDefault("stability.max_wait_secs", 60)

	v.SetDefault("transform.enabled", false)
	v.SetDefault("transform.format", "tsv")
	v.SetDefault("transform.skip_rows", 0)
	v.SetDefault("transform.header_ordered", false)
	v.SetDefault("transform.dedupe", false)
	v.SetDefault("transform.trim", true)
	v.SetDefault("transform.line_ending", "lf")

	v.SetDefault("api.mode", "multipart")
	v.SetDefault("api.field_name", "file")
	v.SetDefault("api.filename_key", "filename")
	v.SetDefault("api.data_key", "data")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.auth", "none")
	// Registered so FILEFERRY_API_* env overrides bind even when the keys
	// are absent from the file.
	v.SetDefault("api.bearer_token", "")
	v.SetDefault("api.basic_user", "")
	v.SetDefault("api.basic_password", "")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_secs", 1)
	v.SetDefault("retry.multiplier", 2)
	v.SetDefault("retry.max_delay_secs", 30)

	v.SetDefault("loop.interval_seconds", 0)

	v.SetDefault("archive.enabled", false)

	v.SetDefault("lookup.enabled", false)
	v.SetDefault("lookup.chunk_size", 50)
	v.SetDefault("lookup.timeout_secs", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
