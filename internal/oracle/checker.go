package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PolarWolf314/condlock/internal/catalog"
	"github.com/PolarWolf314/condlock/internal/conditions"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Logger is the subset of logging the checker uses.
type Logger interface {
	Debugf(msg string, args ...any)
	Warnf(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// Tolerances maps an asset class to the largest relative price spread accepted
// between sources.
type Tolerances map[catalog.Class]decimal.Decimal

// DefaultTolerances returns 0.5% for majors, 2% for other crypto and 0.3% for forex.
func DefaultTolerances() Tolerances {
	return Tolerances{
		catalog.ClassMajor:  decimal.RequireFromString("0.005"),
		catalog.ClassCrypto: decimal.RequireFromString("0.02"),
		catalog.ClassForex:  decimal.RequireFromString("0.003"),
	}
}

// For returns the tolerance for class, falling back to the defaults and then
// to the crypto tolerance for unknown classes.
func (t Tolerances) For(class catalog.Class) decimal.Decimal {
	if v, ok := t[class]; ok {
		return v
	}
	if v, ok := DefaultTolerances()[class]; ok {
		return v
	}
	return DefaultTolerances()[catalog.ClassCrypto]
}

// Checker asks every configured source concurrently and decides each
// sub-condition of an unlock condition.
type Checker struct {
	PriceSources []PriceSource
	TimeSources  []TimeSource
	Catalog      *catalog.Catalog
	Policy       Policy
	Tolerances   Tolerances

	// Timeout bounds each attempt against a single source.
	Timeout time.Duration
	// Retries is the number of extra attempts per source after a transient failure.
	Retries uint64
	// RetryInterval is the initial backoff between attempts.
	RetryInterval time.Duration

	Logger  Logger
	Metrics *Metrics
	Now     func() time.Time
}

// DefaultSourceTimeout and DefaultRetryInterval apply when the Checker fields
// are zero. DefaultRetries is the configured default; a zero Retries field
// means a single attempt.
const (
	DefaultSourceTimeout = 8 * time.Second
	DefaultRetries       = 2
	DefaultRetryInterval = 300 * time.Millisecond
)

func (c *Checker) logger() Logger {
	if c.Logger == nil {
		return nopLogger{}
	}
	return c.Logger
}

func (c *Checker) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultSourceTimeout
	}
	return c.Timeout
}

func (c *Checker) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

// Check runs one oracle round for cond. The returned report always has a
// branch for every sub-condition present in cond. An error is returned only
// for an invalid condition or when ctx ends before the round completes.
func (c *Checker) Check(ctx context.Context, cond conditions.Condition) (*Report, error) {
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	report := &Report{RoundID: uuid.NewString(), CheckedAt: c.now()}
	log := c.logger()
	log.Debugf("oracle round %s: checking %s", report.RoundID, cond)

	var (
		g          errgroup.Group
		timeReads  []TimeReading
		priceReads []PriceReading
		asset      catalog.Asset
	)

	if cond.HasTime() {
		timeReads = make([]TimeReading, len(c.TimeSources))
		for i, src := range c.TimeSources {
			g.Go(func() error {
				timeReads[i] = c.readTime(ctx, src)
				return nil
			})
		}
	}

	if cond.HasPrice() {
		var ok bool
		asset, ok = c.Catalog.Resolve(cond.Asset)
		if !ok {
			log.Warnf("asset %s is not in the catalog and could not be split into base and quote", cond.Asset)
		}
		var sources []PriceSource
		for _, src := range c.PriceSources {
			if ok && src.Supports(asset) {
				sources = append(sources, src)
			}
		}
		priceReads = make([]PriceReading, len(sources))
		for i, src := range sources {
			g.Go(func() error {
				priceReads[i] = c.readPrice(ctx, src, asset)
				return nil
			})
		}
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: oracle round interrupted: %v", kerrors.ErrOracleUnavailable, err)
	}

	if cond.HasTime() {
		unlockAt, _ := cond.UnlockAt()
		report.Time = &Branch{
			Kind:      BranchTime,
			Predicate: "time >= " + cond.UnlockTime,
			Decision:  EvaluateTime(timeReads, unlockAt, c.Policy),
			Times:     timeReads,
		}
	}
	tolerance := c.Tolerances.For(asset.Class)
	if cond.HasTarget() {
		target, _ := cond.Target()
		report.Above = &Branch{
			Kind:      BranchAbove,
			Predicate: cond.Asset + " >= " + cond.TargetPrice,
			Decision:  EvaluatePrice(priceReads, Rule{Op: AtLeast, Threshold: target}, tolerance, c.Policy),
			Prices:    priceReads,
		}
	}
	if cond.HasMin() {
		floor, _ := cond.Min()
		report.Below = &Branch{
			Kind:      BranchBelow,
			Predicate: cond.Asset + " <= " + cond.MinPrice,
			Decision:  EvaluatePrice(priceReads, Rule{Op: AtMost, Threshold: floor}, tolerance, c.Policy),
			Prices:    priceReads,
		}
	}

	for _, b := range report.Branches() {
		c.Metrics.observeBranch(b)
		log.Debugf("oracle round %s: %s is %s (%d/%d sources)", report.RoundID, b.Predicate, b.Status, b.Succeeded, b.Sources)
	}
	return report, nil
}

func (c *Checker) readPrice(ctx context.Context, src PriceSource, asset catalog.Asset) PriceReading {
	r := PriceReading{Source: src.Name()}
	start := time.Now()
	err := c.retry(ctx, func(ctx context.Context) error {
		price, observed, err := src.Price(ctx, asset)
		if err == nil {
			r.Price, r.ObservedAt = price, observed
		}
		return err
	})
	r.Latency = time.Since(start)
	c.Metrics.observeSource(r.Source, r.Latency, err)
	if err != nil {
		r.Error = err.Error()
		c.logger().Warnf("price source %s failed for %s: %v", r.Source, asset.Symbol, err)
	}
	return r
}

func (c *Checker) readTime(ctx context.Context, src TimeSource) TimeReading {
	r := TimeReading{Source: src.Name()}
	start := time.Now()
	err := c.retry(ctx, func(ctx context.Context) error {
		now, err := src.Now(ctx)
		if err == nil {
			r.Time = now.UTC()
		}
		return err
	})
	r.Latency = time.Since(start)
	c.Metrics.observeSource(r.Source, r.Latency, err)
	if err != nil {
		r.Error = err.Error()
		c.logger().Warnf("time source %s failed: %v", r.Source, err)
	}
	return r
}

// retry runs fn with a per-attempt timeout and exponential backoff between
// transient failures. Client errors are not retried.
func (c *Checker) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = DefaultRetryInterval
	if c.RetryInterval > 0 {
		eb.InitialInterval = c.RetryInterval
	}
	eb.MaxInterval = 2 * time.Second
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(eb, c.Retries)
	b = backoff.WithContext(b, ctx)

	return backoff.Retry(func() error {
		actx, cancel := context.WithTimeout(ctx, c.timeout())
		defer cancel()
		err := fn(actx)
		if err != nil && permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

func permanent(err error) bool {
	if errors.Is(err, errUnsupportedAsset) {
		return true
	}
	var se *utils.HTTPStatusError
	return errors.As(err, &se) && se.Permanent()
}
