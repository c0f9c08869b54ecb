package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PolarWolf314/condlock/internal/catalog"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/ratelimit"
	"github.com/PolarWolf314/condlock/internal/utils"
	"github.com/shopspring/decimal"
)

// PriceSource reports the current price of an asset.
type PriceSource interface {
	Name() string
	Supports(asset catalog.Asset) bool
	// Price returns the price and the instant the source observed it.
	Price(ctx context.Context, asset catalog.Asset) (decimal.Decimal, time.Time, error)
}

// TimeSource reports the current instant.
type TimeSource interface {
	Name() string
	Now(ctx context.Context) (time.Time, error)
}

// errUnsupportedAsset is returned by sources asked for an asset they do not quote.
var errUnsupportedAsset = errors.New("asset not quoted by this source")

// SourceOptions configure the HTTP-backed sources.
type SourceOptions struct {
	Client *http.Client
	// Limiter throttles requests per upstream host. Nil disables throttling.
	Limiter *ratelimit.KeyedLimiter
	// BaseURL overrides the source's default endpoint.
	BaseURL string
}

// httpSource holds what every HTTP-backed source shares.
type httpSource struct {
	name    string
	baseURL string
	client  *http.Client
	limiter *ratelimit.KeyedLimiter
}

func newHTTPSource(name, defaultURL string, opts SourceOptions) httpSource {
	base := opts.BaseURL
	if base == "" {
		base = defaultURL
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return httpSource{
		name:    name,
		baseURL: strings.TrimRight(base, "/"),
		client:  client,
		limiter: opts.Limiter,
	}
}

func (s httpSource) Name() string { return s.name }

// get fetches path (which may carry a query) and decodes the JSON body into out.
func (s httpSource) get(ctx context.Context, path string, out any) error {
	u := s.baseURL + path
	if parsed, err := url.Parse(u); err == nil {
		if err := s.limiter.Wait(ctx, parsed.Host); err != nil {
			return err
		}
	}
	return utils.GetJSON(ctx, s.client, u, out)
}

// parsePrice converts a provider's textual price into a positive decimal.
func parsePrice(source, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid price %q: %w", source, raw, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s: non-positive price %s", source, d)
	}
	return d, nil
}

// Source names accepted in configuration.
const (
	SourceBinance      = "binance"
	SourceCoinbase     = "coinbase"
	SourceCoinGecko    = "coingecko"
	SourceFrankfurter  = "frankfurter"
	SourceExchangeRate = "exchangerate"

	SourceDrand           = "drand"
	SourceDrandCloudflare = "drand-cloudflare"
	SourceNTP             = "ntp"
)

// DefaultPriceSources lists every built-in price source.
var DefaultPriceSources = []string{SourceBinance, SourceCoinbase, SourceCoinGecko, SourceFrankfurter, SourceExchangeRate}

// DefaultTimeSources lists every built-in time source.
var DefaultTimeSources = []string{SourceDrand, SourceDrandCloudflare, SourceNTP}

// NewPriceSources builds the named price sources.
func NewPriceSources(names []string, opts SourceOptions) ([]PriceSource, error) {
	out := make([]PriceSource, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case SourceBinance:
			out = append(out, NewBinance(opts))
		case SourceCoinbase:
			out = append(out, NewCoinbase(opts))
		case SourceCoinGecko:
			out = append(out, NewCoinGecko(opts))
		case SourceFrankfurter:
			out = append(out, NewFrankfurter(opts))
		case SourceExchangeRate:
			out = append(out, NewExchangeRate(opts))
		default:
			return nil, fmt.Errorf("%w: unknown price source %q", kerrors.ErrConfigInvalid, name)
		}
	}
	return out, nil
}

// NewTimeSources builds the named time sources. ntpHost is used by the ntp source.
func NewTimeSources(names []string, opts SourceOptions, ntpHost string) ([]TimeSource, error) {
	out := make([]TimeSource, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case SourceDrand:
			out = append(out, NewDrand(SourceDrand, DrandMainURL, opts))
		case SourceDrandCloudflare:
			out = append(out, NewDrand(SourceDrandCloudflare, DrandCloudflareURL, opts))
		case SourceNTP:
			out = append(out, NewNTP(ntpHost))
		default:
			return nil, fmt.Errorf("%w: unknown time source %q", kerrors.ErrConfigInvalid, name)
		}
	}
	return out, nil
}
