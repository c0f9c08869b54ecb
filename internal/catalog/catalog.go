package catalog

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/PolarWolf314/condlock/internal/utils"
)

// Class groups assets by how tightly independent price feeds should agree.
type Class string

const (
	// ClassMajor covers BTC and ETH against dollar-like quotes.
	ClassMajor Class = "major"
	// ClassCrypto covers every other crypto pair.
	ClassCrypto Class = "crypto"
	// ClassForex covers fiat and metal pairs.
	ClassForex Class = "forex"
)

// DefaultExchangeInfoURL lists Binance spot symbols.
const DefaultExchangeInfoURL = "https://api.binance.com/api/v3/exchangeInfo"

// Asset is a tradable pair such as BTCUSDT or EURUSD.
type Asset struct {
	Symbol string `json:"symbol"`
	Base   string `json:"base"`
	Quote  string `json:"quote"`
	Class  Class  `json:"class"`
}

// Catalog is an immutable set of known assets. Build it once and pass it to
// whatever needs it.
type Catalog struct {
	bySymbol map[string]Asset
	sorted   []Asset
}

// ForexPairs are offered alongside crypto symbols.
var ForexPairs = []string{
	"XAUUSD", "EURUSD", "GBPUSD", "USDJPY", "USDCHF", "USDCAD", "AUDUSD", "NZDUSD",
	"EURJPY", "GBPJPY", "EURGBP", "EURCHF", "GBPCHF", "AUDCAD", "AUDJPY", "NZDJPY",
}

// quoteSuffixes are tried longest first when splitting an unknown symbol.
var quoteSuffixes = []string{"FDUSD", "USDT", "USDC", "BUSD", "TUSD", "USD", "EUR", "GBP", "JPY", "TRY", "BRL", "BTC", "ETH", "BNB"}

var dollarQuotes = map[string]bool{"USD": true, "USDT": true, "USDC": true, "BUSD": true, "FDUSD": true, "TUSD": true}

// New builds a catalog from assets. Later duplicates win.
func New(assets ...Asset) *Catalog {
	c := &Catalog{bySymbol: make(map[string]Asset, len(assets))}
	for _, a := range assets {
		a.Symbol = strings.ToUpper(a.Symbol)
		if a.Class == "" {
			a.Class = classify(a.Base, a.Quote, false)
		}
		c.bySymbol[a.Symbol] = a
	}
	c.sorted = make([]Asset, 0, len(c.bySymbol))
	for _, a := range c.bySymbol {
		c.sorted = append(c.sorted, a)
	}
	sort.Slice(c.sorted, func(i, j int) bool {
		fi, fj := c.sorted[i].Class == ClassForex, c.sorted[j].Class == ClassForex
		if fi != fj {
			return fj
		}
		return c.sorted[i].Symbol < c.sorted[j].Symbol
	})
	return c
}

// Builtin returns a small offline catalog of common pairs.
func Builtin() *Catalog {
	var assets []Asset
	for _, base := range []string{"BTC", "ETH", "SOL", "BNB", "XRP", "ADA", "DOGE", "AVAX", "DOT", "LINK", "LTC", "TRX"} {
		for _, quote := range []string{"USDT", "USDC"} {
			assets = append(assets, Asset{Symbol: base + quote, Base: base, Quote: quote})
		}
	}
	return New(append(assets, forexAssets()...)...)
}

func forexAssets() []Asset {
	out := make([]Asset, 0, len(ForexPairs))
	for _, pair := range ForexPairs {
		out = append(out, Asset{Symbol: pair, Base: pair[:3], Quote: pair[3:], Class: ClassForex})
	}
	return out
}

type exchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// Load fetches trading symbols from a Binance-compatible exchangeInfo endpoint
// and adds the forex pairs.
func Load(ctx context.Context, client *http.Client, url string) (*Catalog, error) {
	if url == "" {
		url = DefaultExchangeInfoURL
	}

	var info exchangeInfo
	if err := utils.GetJSON(ctx, client, url, &info); err != nil {
		return nil, fmt.Errorf("loading asset catalog: %w", err)
	}

	assets := make([]Asset, 0, len(info.Symbols)+len(ForexPairs))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		assets = append(assets, Asset{Symbol: s.Symbol, Base: s.BaseAsset, Quote: s.QuoteAsset})
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("loading asset catalog: no trading symbols returned")
	}
	return New(append(assets, forexAssets()...)...), nil
}

// Len returns the number of assets.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.sorted)
}

// Lookup returns the asset for symbol.
func (c *Catalog) Lookup(symbol string) (Asset, bool) {
	if c == nil {
		return Asset{}, false
	}
	a, ok := c.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return a, ok
}

// Resolve returns the catalog entry for symbol, or a best-effort asset built by
// splitting the symbol on a known quote suffix. ok is false when the symbol is
// neither known nor splittable.
func (c *Catalog) Resolve(symbol string) (Asset, bool) {
	if a, ok := c.Lookup(symbol); ok {
		return a, true
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	symbol = strings.NewReplacer("/", "", "-", "", "_", "").Replace(symbol)
	if a, ok := c.Lookup(symbol); ok {
		return a, true
	}
	for _, q := range quoteSuffixes {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			base := strings.TrimSuffix(symbol, q)
			return Asset{Symbol: symbol, Base: base, Quote: q, Class: classify(base, q, true)}, true
		}
	}
	return Asset{}, false
}

// Search returns up to limit assets whose symbol or base starts with prefix.
func (c *Catalog) Search(prefix string, limit int) []Asset {
	if c == nil {
		return nil
	}
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	var out []Asset
	for _, a := range c.sorted {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.HasPrefix(a.Symbol, prefix) || strings.HasPrefix(a.Base, prefix) {
			out = append(out, a)
		}
	}
	return out
}

func classify(base, quote string, guessed bool) Class {
	base, quote = strings.ToUpper(base), strings.ToUpper(quote)
	if (base == "BTC" || base == "ETH") && dollarQuotes[quote] {
		return ClassMajor
	}
	if guessed && isFiat(base) && isFiat(quote) {
		return ClassForex
	}
	return ClassCrypto
}

func isFiat(code string) bool {
	switch code {
	case "USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "NZD", "XAU":
		return true
	}
	return false
}
