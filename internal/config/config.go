// Package config loads shopcheck settings from a YAML file, SHOPCHECK_
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/shopcheck/internal/transport"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Workflow selection modes.
const (
	// ModeSequence runs every configured workflow, in order, each iteration.
	ModeSequence = "sequence"
	// ModeWeighted runs one workflow per iteration, picked by weight.
	ModeWeighted = "weighted"
)

// Config holds all shopcheck configuration
type Config struct {
	Target   TargetConfig
	Run      RunConfig
	Actor    ActorConfig
	Fixtures FixturesConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Report   ReportConfig
}

// TargetConfig describes the backend under test
type TargetConfig struct {
	Protocol      string // graphql or rest
	GraphQLURL    string
	RESTURL       string
	CookieName    string
	Timeout       time.Duration
	TLSSkipVerify bool
}

// RunConfig controls actors and iterations
type RunConfig struct {
	Actors      int
	Iterations  int
	Concurrency int
	SpawnRate   float64 // actors started per second, 0 = unthrottled
	Mode        string
	Workflows   []string // empty = all registered
}

// ActorConfig controls generated credentials
type ActorConfig struct {
	Prefix         string
	PasswordLength int
	Seed           uint64
}

// FixturesConfig names the seeded data the workflows rely on
type FixturesConfig struct {
	ProductSlug      string
	Currency         string
	InitialBalance   int64 // minor units
	OrderQty         int64
	SearchQuery      string
	ZeroCurrency     string
	WalletCurrencies []string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Listen string // empty disables the endpoint
	Path   string
}

// ReportConfig controls the console report
type ReportConfig struct {
	Verbose bool
}

// Load loads configuration from a YAML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with SHOPCHECK_ prefix (e.g., SHOPCHECK_TARGET_PROTOCOL)
// 2. The file at path, or shopcheck.yaml in . or ./configs when path is empty
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("shopcheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SHOPCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Target: TargetConfig{
			Protocol:      strings.ToLower(v.GetString("target.protocol")),
			GraphQLURL:    v.GetString("target.graphql_url"),
			RESTURL:       v.GetString("target.rest_url"),
			CookieName:    v.GetString("target.cookie_name"),
			Timeout:       v.GetDuration("target.timeout"),
			TLSSkipVerify: v.GetBool("target.tls_skip_verify"),
		},
		Run: RunConfig{
			Actors:      v.GetInt("run.actors"),
			Iterations:  v.GetInt("run.iterations"),
			Concurrency: v.GetInt("run.concurrency"),
			SpawnRate:   v.GetFloat64("run.spawn_rate"),
			Mode:        strings.ToLower(v.GetString("run.mode")),
			Workflows:   v.GetStringSlice("run.workflows"),
		},
		Actor: ActorConfig{
			Prefix:         v.GetString("actor.prefix"),
			PasswordLength: v.GetInt("actor.password_length"),
			Seed:           v.GetUint64("actor.seed"),
		},
		Fixtures: FixturesConfig{
			ProductSlug:      v.GetString("fixtures.product_slug"),
			Currency:         strings.ToUpper(v.GetString("fixtures.currency")),
			InitialBalance:   v.GetInt64("fixtures.initial_balance"),
			OrderQty:         v.GetInt64("fixtures.order_qty"),
			SearchQuery:      v.GetString("fixtures.search_query"),
			ZeroCurrency:     strings.ToUpper(v.GetString("fixtures.zero_currency")),
			WalletCurrencies: v.GetStringSlice("fixtures.wallet_currencies"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Metrics: MetricsConfig{
			Listen: v.GetString("metrics.listen"),
			Path:   v.GetString("metrics.path"),
		},
		Report: ReportConfig{
			Verbose: v.GetBool("report.verbose"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target.protocol", string(transport.ProtocolGraphQL))
	v.SetDefault("target.graphql_url", "http://localhost:4000/graphql")
	v.SetDefault("target.rest_url", "http://localhost:4000")
	v.SetDefault("target.cookie_name", "session")
	v.SetDefault("target.timeout", 30*time.Second)
	v.SetDefault("target.tls_skip_verify", false)

	v.SetDefault("run.actors", 1)
	v.SetDefault("run.iterations", 1)
	v.SetDefault("run.concurrency", 10)
	v.SetDefault("run.spawn_rate", 0)
	v.SetDefault("run.mode", ModeSequence)
	v.SetDefault("run.workflows", []string{})

	v.SetDefault("actor.prefix", "sc")
	v.SetDefault("actor.password_length", 12)
	v.SetDefault("actor.seed", 0)

	v.SetDefault("fixtures.product_slug", "wireless-headphones")
	v.SetDefault("fixtures.currency", "USD")
	v.SetDefault("fixtures.initial_balance", 1000000)
	v.SetDefault("fixtures.order_qty", 2)
	v.SetDefault("fixtures.search_query", "cable")
	v.SetDefault("fixtures.zero_currency", "JPY")
	v.SetDefault("fixtures.wallet_currencies", []string{"EUR", "GBP"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("metrics.listen", "")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("report.verbose", false)
}

// Validate checks the configuration for values the runner cannot work with.
func (c *Config) Validate() error {
	switch transport.Protocol(c.Target.Protocol) {
	case transport.ProtocolGraphQL:
		if err := checkURL("target.graphql_url", c.Target.GraphQLURL); err != nil {
			return err
		}
	case transport.ProtocolREST:
		if err := checkURL("target.rest_url", c.Target.RESTURL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: target.protocol must be graphql or rest, got %q", ErrInvalidConfig, c.Target.Protocol)
	}
	if c.Target.CookieName == "" {
		return fmt.Errorf("%w: target.cookie_name is required", ErrInvalidConfig)
	}
	if c.Target.Timeout <= 0 {
		return fmt.Errorf("%w: target.timeout must be positive", ErrInvalidConfig)
	}

	if c.Run.Actors < 1 {
		return fmt.Errorf("%w: run.actors must be at least 1", ErrInvalidConfig)
	}
	if c.Run.Iterations < 1 {
		return fmt.Errorf("%w: run.iterations must be at least 1", ErrInvalidConfig)
	}
	if c.Run.Concurrency < 1 {
		return fmt.Errorf("%w: run.concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.Run.SpawnRate < 0 {
		return fmt.Errorf("%w: run.spawn_rate cannot be negative", ErrInvalidConfig)
	}
	if c.Run.Mode != ModeSequence && c.Run.Mode != ModeWeighted {
		return fmt.Errorf("%w: run.mode must be %s or %s, got %q", ErrInvalidConfig, ModeSequence, ModeWeighted, c.Run.Mode)
	}

	f := c.Fixtures
	if f.ProductSlug == "" {
		return fmt.Errorf("%w: fixtures.product_slug is required", ErrInvalidConfig)
	}
	if f.InitialBalance < 0 || f.OrderQty < 1 {
		return fmt.Errorf("%w: fixtures.initial_balance cannot be negative and fixtures.order_qty must be positive", ErrInvalidConfig)
	}
	if len(f.WalletCurrencies) != 2 {
		return fmt.Errorf("%w: fixtures.wallet_currencies needs exactly two currencies, got %d", ErrInvalidConfig, len(f.WalletCurrencies))
	}
	for _, cur := range append([]string{f.Currency, f.ZeroCurrency}, f.WalletCurrencies...) {
		if len(cur) != 3 {
			return fmt.Errorf("%w: currency %q is not a 3-letter code", ErrInvalidConfig, cur)
		}
	}
	for _, cur := range f.WalletCurrencies {
		if strings.EqualFold(cur, f.Currency) || strings.EqualFold(cur, f.ZeroCurrency) {
			return fmt.Errorf("%w: fixtures.wallet_currencies must differ from the order and zero-balance currencies", ErrInvalidConfig)
		}
	}
	return nil
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute URL, got %q", ErrInvalidConfig, key, raw)
	}
	return nil
}
