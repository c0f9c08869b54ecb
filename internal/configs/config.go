package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/PolarWolf314/condlock/internal/catalog"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/oracle"
	"github.com/shopspring/decimal"
)

// Config is the contents of config.toml.
type Config struct {
	Oracle  OracleConfig  `toml:"oracle"`
	Catalog CatalogConfig `toml:"catalog"`
	Server  ServerConfig  `toml:"server"`
}

// OracleConfig controls how unlock conditions are checked.
type OracleConfig struct {
	Quorum        int      `toml:"quorum"`
	AllowDegraded bool     `toml:"allow_degraded"`
	SourceTimeout Duration `toml:"source_timeout"`
	RoundTimeout  Duration `toml:"round_timeout"`
	Retries       int      `toml:"retries"`
	TimeTolerance Duration `toml:"time_tolerance"`

	PriceSources []string `toml:"price_sources"`
	TimeSources  []string `toml:"time_sources"`
	NTPHost      string   `toml:"ntp_host"`

	// PriceTolerances maps an asset class (major, crypto, forex) to the largest
	// relative spread accepted between price sources, e.g. "0.005".
	PriceTolerances map[string]string `toml:"price_tolerances"`

	// HostRequestsPerSecond throttles requests to each upstream host.
	HostRequestsPerSecond float64 `toml:"host_requests_per_second"`
}

// CatalogConfig controls where the asset list comes from.
type CatalogConfig struct {
	// Online fetches the symbol list from ExchangeInfoURL instead of using the
	// built-in list.
	Online          bool   `toml:"online"`
	ExchangeInfoURL string `toml:"exchange_info_url"`
}

// ServerConfig controls `condlock serve`.
type ServerConfig struct {
	Listen            string  `toml:"listen"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	MaxBodyBytes      int64   `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a string such as "8s" in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Oracle: OracleConfig{
			Quorum:        oracle.DefaultQuorum,
			SourceTimeout: Duration{oracle.DefaultSourceTimeout},
			RoundTimeout:  Duration{30 * time.Second},
			Retries:       oracle.DefaultRetries,
			TimeTolerance: Duration{oracle.DefaultTimeTolerance},
			PriceSources:  slices.Clone(oracle.DefaultPriceSources),
			TimeSources:   slices.Clone(oracle.DefaultTimeSources),
			NTPHost:       oracle.DefaultNTPHost,
			PriceTolerances: map[string]string{
				string(catalog.ClassMajor):  "0.005",
				string(catalog.ClassCrypto): "0.02",
				string(catalog.ClassForex):  "0.003",
			},
			HostRequestsPerSecond: 2,
		},
		Catalog: CatalogConfig{
			ExchangeInfoURL: catalog.DefaultExchangeInfoURL,
		},
		Server: ServerConfig{
			Listen:            "127.0.0.1:8420",
			RequestsPerSecond: 5,
			Burst:             10,
			MaxBodyBytes:      1 << 20,
		},
	}
}

// Load reads the config at path on top of the defaults. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	if err := LoadTOML(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrConfigInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if err := SaveTOML(path, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{kerrors.ErrConfigInvalid}, args...)...)
	}

	o := c.Oracle
	if o.Quorum < oracle.DefaultQuorum {
		return invalid("oracle.quorum must be at least %d, got %d (set oracle.allow_degraded to accept single-source decisions)", oracle.DefaultQuorum, o.Quorum)
	}
	if o.Retries < 0 {
		return invalid("oracle.retries must not be negative, got %d", o.Retries)
	}
	if o.SourceTimeout.Duration <= 0 || o.RoundTimeout.Duration <= 0 {
		return invalid("oracle timeouts must be positive")
	}
	if o.TimeTolerance.Duration <= 0 {
		return invalid("oracle.time_tolerance must be positive")
	}
	if len(o.PriceSources) == 0 && len(o.TimeSources) == 0 {
		return invalid("at least one price or time source must be enabled")
	}
	if _, err := c.Oracle.Tolerances(); err != nil {
		return err
	}
	if o.HostRequestsPerSecond < 0 {
		return invalid("oracle.host_requests_per_second must not be negative")
	}

	if c.Catalog.Online && c.Catalog.ExchangeInfoURL == "" {
		return invalid("catalog.exchange_info_url is required when catalog.online is set")
	}

	s := c.Server
	if s.Listen == "" {
		return invalid("server.listen must not be empty")
	}
	if s.RequestsPerSecond < 0 || s.Burst < 0 {
		return invalid("server rate limits must not be negative")
	}
	if s.MaxBodyBytes <= 0 {
		return invalid("server.max_body_bytes must be positive")
	}
	return nil
}

// Tolerances parses PriceTolerances.
func (o OracleConfig) Tolerances() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(o.PriceTolerances))
	for class, raw := range o.PriceTolerances {
		switch class {
		case "major", "crypto", "forex":
		default:
			return nil, fmt.Errorf("%w: unknown asset class %q in oracle.price_tolerances", kerrors.ErrConfigInvalid, class)
		}
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() || v.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%w: oracle.price_tolerances.%s must be a fraction between 0 and 1, got %q", kerrors.ErrConfigInvalid, class, raw)
		}
		out[class] = v
	}
	return out, nil
}
