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

// Binance quotes spot prices for its own symbols.
type Binance struct{ httpSource }

// NewBinance returns a Binance spot price source.
func NewBinance(opts SourceOptions) *Binance {
	return &Binance{newHTTPSource(SourceBinance, "https://api.binance.com", opts)}
}

func (b *Binance) Supports(asset catalog.Asset) bool {
	return asset.Class != catalog.ClassForex && asset.Symbol != ""
}

func (b *Binance) Price(ctx context.Context, asset catalog.Asset) (decimal.Decimal, time.Time, error) {
	if !b.Supports(asset) {
		return decimal.Zero, time.Time{}, errUnsupportedAsset
	}
	var resp struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := b.get(ctx, "/api/v3/ticker/price?symbol="+url.QueryEscape(asset.Symbol), &resp); err != nil {
		return decimal.Zero, time.Time{}, err
	}
	p, err := parsePrice(b.name, resp.Price)
	return p, time.Now().UTC(), err
}

// Coinbase quotes spot prices for crypto against fiat. Dollar stablecoin
// quotes are served from the USD price.
type Coinbase struct{ httpSource }

// NewCoinbase returns a Coinbase spot price source.
func NewCoinbase(opts SourceOptions) *Coinbase {
	return &Coinbase{newHTTPSource(SourceCoinbase, "https://api.coinbase.com", opts)}
}

func (c *Coinbase) Supports(asset catalog.Asset) bool {
	return asset.Class != catalog.ClassForex && fiatQuote(asset.Quote) != ""
}

func (c *Coinbase) Price(ctx context.Context, asset catalog.Asset) (decimal.Decimal, time.Time, error) {
	if !c.Supports(asset) {
		return decimal.Zero, time.Time{}, errUnsupportedAsset
	}
	var resp struct {
		Data struct {
			Amount   string `json:"amount"`
			Base     string `json:"base"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	pair := url.PathEscape(strings.ToUpper(asset.Base) + "-" + fiatQuote(asset.Quote))
	if err := c.get(ctx, "/v2/prices/"+pair+"/spot", &resp); err != nil {
		return decimal.Zero, time.Time{}, err
	}
	p, err := parsePrice(c.name, resp.Data.Amount)
	return p, time.Now().UTC(), err
}

// coinGeckoIDs maps base symbols to CoinGecko coin ids.
var coinGeckoIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"BNB":  "binancecoin",
	"XRP":  "ripple",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
	"AVAX": "avalanche-2",
	"DOT":  "polkadot",
	"LINK": "chainlink",
	"LTC":  "litecoin",
	"TRX":  "tron",
	"ATOM": "cosmos",
	"NEAR": "near",
}

// CoinGecko quotes aggregated prices for the coins it has an id for.
type CoinGecko struct{ httpSource }

// NewCoinGecko returns a CoinGecko simple-price source.
func NewCoinGecko(opts SourceOptions) *CoinGecko {
	return &CoinGecko{newHTTPSource(SourceCoinGecko, "https://api.coingecko.com", opts)}
}

func (g *CoinGecko) Supports(asset catalog.Asset) bool {
	_, ok := coinGeckoIDs[strings.ToUpper(asset.Base)]
	return ok && asset.Class != catalog.ClassForex && fiatQuote(asset.Quote) != ""
}

func (g *CoinGecko) Price(ctx context.Context, asset catalog.Asset) (decimal.Decimal, time.Time, error) {
	if !g.Supports(asset) {
		return decimal.Zero, time.Time{}, errUnsupportedAsset
	}
	id := coinGeckoIDs[strings.ToUpper(asset.Base)]
	vs := strings.ToLower(fiatQuote(asset.Quote))

	var resp map[string]map[string]json.Number
	q := url.Values{"ids": {id}, "vs_currencies": {vs}, "include_last_updated_at": {"true"}}
	if err := g.get(ctx, "/api/v3/simple/price?"+q.Encode(), &resp); err != nil {
		return decimal.Zero, time.Time{}, err
	}
	quote, ok := resp[id][vs]
	if !ok {
		return decimal.Zero, time.Time{}, fmt.Errorf("%s: no %s price for %s", g.name, vs, id)
	}
	p, err := parsePrice(g.name, quote.String())
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	observed := time.Now().UTC()
	if ts, err := resp[id]["last_updated_at"].Int64(); err == nil && ts > 0 {
		observed = time.Unix(ts, 0).UTC()
	}
	return p, observed, nil
}

// fiatQuote maps a quote currency to the fiat code the aggregators price in.
// Dollar stablecoins map to USD; unsupported quotes map to "".
func fiatQuote(quote string) string {
	switch strings.ToUpper(quote) {
	case "USD", "USDT", "USDC", "BUSD", "FDUSD", "TUSD":
		return "USD"
	case "EUR":
		return "EUR"
	case "GBP":
		return "GBP"
	case "JPY":
		return "JPY"
	}
	return ""
}
