package workflows

import (
	"context"
	"net/http"
	"time"

	"github.com/PolarWolf314/condlock/internal/catalog"
	"github.com/PolarWolf314/condlock/internal/configs"
	"github.com/PolarWolf314/condlock/internal/oracle"
	"github.com/PolarWolf314/condlock/internal/ratelimit"
)

// OracleDeps are the shared pieces a checker is built from.
type OracleDeps struct {
	Client  *http.Client
	Catalog *catalog.Catalog
	Logger  oracle.Logger
	Metrics *oracle.Metrics
}

// NewChecker builds an oracle checker from the [oracle] config table.
func NewChecker(cfg configs.OracleConfig, deps OracleDeps) (*oracle.Checker, error) {
	opts := oracle.SourceOptions{
		Client:  deps.Client,
		Limiter: ratelimit.New(cfg.HostRequestsPerSecond, 4, 10*time.Minute),
	}

	prices, err := oracle.NewPriceSources(cfg.PriceSources, opts)
	if err != nil {
		return nil, err
	}
	clocks, err := oracle.NewTimeSources(cfg.TimeSources, opts, cfg.NTPHost)
	if err != nil {
		return nil, err
	}

	parsed, err := cfg.Tolerances()
	if err != nil {
		return nil, err
	}
	tolerances := oracle.DefaultTolerances()
	for class, v := range parsed {
		tolerances[catalog.Class(class)] = v
	}

	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}

	return &oracle.Checker{
		PriceSources: prices,
		TimeSources:  clocks,
		Catalog:      deps.Catalog,
		Policy: oracle.Policy{
			Quorum:        cfg.Quorum,
			AllowDegraded: cfg.AllowDegraded,
			TimeTolerance: cfg.TimeTolerance.Duration,
		},
		Tolerances: tolerances,
		Timeout:    cfg.SourceTimeout.Duration,
		Retries:    uint64(retries),
		Logger:     deps.Logger,
		Metrics:    deps.Metrics,
	}, nil
}

// LoadCatalog returns the online catalog when configured, falling back to the
// built-in list if it cannot be fetched. The error is returned alongside the
// fallback so callers can warn about it.
func LoadCatalog(ctx context.Context, cfg configs.CatalogConfig, client *http.Client) (*catalog.Catalog, error) {
	if !cfg.Online {
		return catalog.Builtin(), nil
	}
	c, err := catalog.Load(ctx, client, cfg.ExchangeInfoURL)
	if err != nil {
		return catalog.Builtin(), err
	}
	return c, nil
}
