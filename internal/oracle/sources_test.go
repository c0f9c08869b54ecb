package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PolarWolf314/condlock/internal/catalog"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/utils"
	"github.com/beevik/ntp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	btcusdt = catalog.Asset{Symbol: "BTCUSDT", Base: "BTC", Quote: "USDT", Class: catalog.ClassMajor}
	eurusd  = catalog.Asset{Symbol: "EURUSD", Base: "EUR", Quote: "USD", Class: catalog.ClassForex}
	xauusd  = catalog.Asset{Symbol: "XAUUSD", Base: "XAU", Quote: "USD", Class: catalog.ClassForex}
)

// serve returns a test server answering path with body and recording the request URI.
func serve(t *testing.T, path, body string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = r.URL.RequestURI()
		}
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, utils.UserAgent, r.Header.Get("User-Agent"))
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBinance(t *testing.T) {
	var uri string
	srv := serve(t, "/api/v3/ticker/price", `{"symbol":"BTCUSDT","price":"64250.12000000"}`, &uri)
	src := NewBinance(SourceOptions{BaseURL: srv.URL, Client: srv.Client()})

	assert.True(t, src.Supports(btcusdt))
	assert.False(t, src.Supports(eurusd))

	p, _, err := src.Price(context.Background(), btcusdt)
	require.NoError(t, err)
	assert.Equal(t, "64250.12", p.String())
	assert.Equal(t, "/api/v3/ticker/price?symbol=BTCUSDT", uri)
}

func TestCoinbase(t *testing.T) {
	var uri string
	srv := serve(t, "/v2/prices/BTC-USD/spot", `{"data":{"amount":"64231.5","base":"BTC","currency":"USD"}}`, &uri)
	src := NewCoinbase(SourceOptions{BaseURL: srv.URL, Client: srv.Client()})

	p, _, err := src.Price(context.Background(), btcusdt)
	require.NoError(t, err)
	assert.Equal(t, "64231.5", p.String())
	assert.False(t, src.Supports(catalog.Asset{Base: "ETH", Quote: "BTC", Class: catalog.ClassCrypto}))
}

func TestCoinGecko(t *testing.T) {
	var uri string
	srv := serve(t, "/api/v3/simple/price", `{"bitcoin":{"usd":64199.87,"last_updated_at":1714694551}}`, &uri)
	src := NewCoinGecko(SourceOptions{BaseURL: srv.URL, Client: srv.Client()})

	p, observed, err := src.Price(context.Background(), btcusdt)
	require.NoError(t, err)
	assert.Equal(t, "64199.87", p.String())
	assert.Equal(t, int64(1714694551), observed.Unix())
	assert.Contains(t, uri, "ids=bitcoin")
	assert.Contains(t, uri, "vs_currencies=usd")

	assert.False(t, src.Supports(catalog.Asset{Symbol: "PEPEUSDT", Base: "PEPE", Quote: "USDT", Class: catalog.ClassCrypto}))
}

func TestFrankfurter(t *testing.T) {
	var uri string
	srv := serve(t, "/latest", `{"amount":1.0,"base":"EUR","date":"2024-05-03","rates":{"USD":1.0765}}`, &uri)
	src := NewFrankfurter(SourceOptions{BaseURL: srv.URL, Client: srv.Client()})

	assert.True(t, src.Supports(eurusd))
	assert.False(t, src.Supports(xauusd))
	assert.False(t, src.Supports(btcusdt))

	p, observed, err := src.Price(context.Background(), eurusd)
	require.NoError(t, err)
	assert.Equal(t, "1.0765", p.String())
	assert.Equal(t, "2024-05-03", observed.Format("2006-01-02"))
	assert.Equal(t, "/latest?from=EUR&to=USD", uri)
}

func TestExchangeRate(t *testing.T) {
	srv := serve(t, "/v6/latest/EUR", `{"result":"success","time_last_update_unix":1714694551,"rates":{"USD":1.0771,"GBP":0.85}}`, nil)
	src := NewExchangeRate(SourceOptions{BaseURL: srv.URL, Client: srv.Client()})

	p, _, err := src.Price(context.Background(), eurusd)
	require.NoError(t, err)
	assert.Equal(t, "1.0771", p.String())

	_, _, err = src.Price(context.Background(), catalog.Asset{Symbol: "EURCHF", Base: "EUR", Quote: "CHF", Class: catalog.ClassForex})
	assert.ErrorContains(t, err, "no CHF rate")
}

func TestSources_ErrorsAndUnsupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	src := NewBinance(SourceOptions{BaseURL: srv.URL, Client: srv.Client()})
	_, _, err := src.Price(context.Background(), btcusdt)
	var se *utils.HTTPStatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, permanent(err))

	_, _, err = src.Price(context.Background(), eurusd)
	assert.True(t, permanent(err))

	bad := serve(t, "/api/v3/ticker/price", `{"symbol":"BTCUSDT","price":"0"}`, nil)
	_, _, err = NewBinance(SourceOptions{BaseURL: bad.URL, Client: bad.Client()}).Price(context.Background(), btcusdt)
	assert.ErrorContains(t, err, "non-positive")
}

func TestDrand(t *testing.T) {
	infoCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/info":
			infoCalls++
			fmt.Fprint(w, `{"public_key":"868f","period":30,"genesis_time":1595431050,"hash":"8990"}`)
		case "/public/latest":
			fmt.Fprint(w, `{"round":3,"randomness":"ab","signature":"cd"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := NewDrand("drand-test", srv.URL, SourceOptions{Client: srv.Client()})
	now, err := d.Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1595431050+2*30), now.Unix())

	_, err = d.Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, infoCalls, "chain info is cached")
	assert.Equal(t, "drand-test", d.Name())
}

func TestNTP(t *testing.T) {
	local := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	n := NewNTP("")
	n.now = func() time.Time { return local }
	n.query = func(host string, opt ntp.QueryOptions) (*ntp.Response, error) {
		assert.Equal(t, DefaultNTPHost, host)
		return &ntp.Response{Stratum: 2, Time: local, ReferenceTime: local, ClockOffset: 3 * time.Second}, nil
	}

	got, err := n.Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, local.Add(3*time.Second), got)
	assert.Equal(t, "ntp:pool.ntp.org", n.Name())

	n.query = func(string, ntp.QueryOptions) (*ntp.Response, error) {
		return nil, errors.New("i/o timeout")
	}
	_, err = n.Now(context.Background())
	assert.ErrorContains(t, err, "i/o timeout")

	n.query = func(string, ntp.QueryOptions) (*ntp.Response, error) {
		return &ntp.Response{Stratum: 0}, nil
	}
	_, err = n.Now(context.Background())
	assert.Error(t, err, "kiss-of-death responses are rejected")
}

func TestNewSources(t *testing.T) {
	ps, err := NewPriceSources(DefaultPriceSources, SourceOptions{})
	require.NoError(t, err)
	assert.Len(t, ps, 5)

	ts, err := NewTimeSources(DefaultTimeSources, SourceOptions{}, "")
	require.NoError(t, err)
	assert.Len(t, ts, 3)

	_, err = NewPriceSources([]string{"binance", "kraken"}, SourceOptions{})
	assert.ErrorIs(t, err, kerrors.ErrConfigInvalid)

	_, err = NewTimeSources([]string{"sundial"}, SourceOptions{}, "")
	assert.ErrorIs(t, err, kerrors.ErrConfigInvalid)
}
