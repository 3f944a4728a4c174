package tinygraph

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/tinygraph-io/tinygraph-client/grpcutil"
)

// Duration is a time.Duration that decodes from its string form in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return errors.WithStack(err)
}

// Config configures a client built with Open.
type Config struct {
	Endpoints []string          `toml:"endpoints"`
	Userid    string            `toml:"userid"`
	Password  string            `toml:"password"`
	Namespace uint64            `toml:"namespace"`
	Security  grpcutil.Security `toml:"security"`
	Retry     RetryConfig       `toml:"retry"`
}

// RetryConfig mirrors RetryPolicy in config form.
type RetryConfig struct {
	MaxRetries int      `toml:"max-retries"`
	BaseDelay  Duration `toml:"base-delay"`
	MaxDelay   Duration `toml:"max-delay"`
	Jitter     float64  `toml:"jitter"`
}

// DefaultConfig returns a config pointing at a local server with the stock
// retry policy.
func DefaultConfig() *Config {
	return &Config{
		Endpoints: []string{"127.0.0.1:9080"},
		Retry: RetryConfig{
			MaxRetries: DefaultMaxRetries,
			BaseDelay:  Duration{DefaultBaseDelay},
			MaxDelay:   Duration{DefaultMaxDelay},
			Jitter:     DefaultJitter,
		},
	}
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config before any connection is attempted.
func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return errors.New("at least one endpoint is required")
	}
	if c.Userid == "" && c.Password != "" {
		return errors.New("password set without userid")
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	return c.RetryPolicy().Validate()
}

// RetryPolicy converts the configured retry section into a RetryPolicy.
func (c *Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: c.Retry.MaxRetries,
		BaseDelay:  c.Retry.BaseDelay.Duration,
		MaxDelay:   c.Retry.MaxDelay.Duration,
		Jitter:     c.Retry.Jitter,
	}
}
