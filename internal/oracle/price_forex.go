package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PolarWolf314/condlock/internal/catalog"
	"github.com/shopspring/decimal"
)

// forexSupported reports whether a forex source can quote asset. Metals are
// not published by the central-bank feeds.
func forexSupported(asset catalog.Asset) bool {
	return asset.Class == catalog.ClassForex &&
		len(asset.Base) == 3 && len(asset.Quote) == 3 &&
		!strings.EqualFold(asset.Base, "XAU") && !strings.EqualFold(asset.Quote, "XAU")
}

// Frankfurter quotes ECB reference rates.
type Frankfurter struct{ httpSource }

// NewFrankfurter returns a Frankfurter exchange rate source.
func NewFrankfurter(opts SourceOptions) *Frankfurter {
	return &Frankfurter{newHTTPSource(SourceFrankfurter, "https://api.frankfurter.app", opts)}
}

func (f *Frankfurter) Supports(asset catalog.Asset) bool { return forexSupported(asset) }

func (f *Frankfurter) Price(ctx context.Context, asset catalog.Asset) (decimal.Decimal, time.Time, error) {
	if !f.Supports(asset) {
		return decimal.Zero, time.Time{}, errUnsupportedAsset
	}
	base, quote := strings.ToUpper(asset.Base), strings.ToUpper(asset.Quote)

	var resp struct {
		Base  string                 `json:"base"`
		Date  string                 `json:"date"`
		Rates map[string]json.Number `json:"rates"`
	}
	q := url.Values{"from": {base}, "to": {quote}}
	if err := f.get(ctx, "/latest?"+q.Encode(), &resp); err != nil {
		return decimal.Zero, time.Time{}, err
	}
	rate, ok := resp.Rates[quote]
	if !ok {
		return decimal.Zero, time.Time{}, fmt.Errorf("%s: no %s rate for %s", f.name, quote, base)
	}
	p, err := parsePrice(f.name, rate.String())
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	observed, err := time.Parse("2006-01-02", resp.Date)
	if err != nil {
		observed = time.Now().UTC()
	}
	return p, observed, nil
}

// ExchangeRate quotes open.er-api.com daily rates.
type ExchangeRate struct{ httpSource }

// NewExchangeRate returns an ExchangeRate-API source.
func NewExchangeRate(opts SourceOptions) *ExchangeRate {
	return &ExchangeRate{newHTTPSource(SourceExchangeRate, "https://open.er-api.com", opts)}
}

func (e *ExchangeRate) Supports(asset catalog.Asset) bool { return forexSupported(asset) }

func (e *ExchangeRate) Price(ctx context.Context, asset catalog.Asset) (decimal.Decimal, time.Time, error) {
	if !e.Supports(asset) {
		return decimal.Zero, time.Time{}, errUnsupportedAsset
	}
	base, quote := strings.ToUpper(asset.Base), strings.ToUpper(asset.Quote)

	var resp struct {
		Result      string                 `json:"result"`
		LastUpdated int64                  `json:"time_last_update_unix"`
		Rates       map[string]json.Number `json:"rates"`
	}
	if err := e.get(ctx, "/v6/latest/"+url.PathEscape(base), &resp); err != nil {
		return decimal.Zero, time.Time{}, err
	}
	if resp.Result != "success" {
		return decimal.Zero, time.Time{}, fmt.Errorf("%s: result %q", e.name, resp.Result)
	}
	rate, ok := resp.Rates[quote]
	if !ok {
		return decimal.Zero, time.Time{}, fmt.Errorf("%s: no %s rate for %s", e.name, quote, base)
	}
	p, err := parsePrice(e.name, rate.String())
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	observed := time.Now().UTC()
	if resp.LastUpdated > 0 {
		observed = time.Unix(resp.LastUpdated, 0).UTC()
	}
	return p, observed, nil
}
