package oracle

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the outcome of evaluating one sub-condition.
type Status int

const (
	// StatusNotMet means enough sources answered and they agree the
	// sub-condition is false, or they disagree beyond tolerance.
	StatusNotMet Status = iota
	// StatusMet means a quorum of agreeing sources says the sub-condition holds.
	StatusMet
	// StatusUnavailable means too few sources answered to decide.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusMet:
		return "met"
	case StatusNotMet:
		return "not met"
	case StatusUnavailable:
		return "unavailable"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText renders the status for JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DefaultQuorum is the number of agreeing sources required when Policy.Quorum is unset.
const DefaultQuorum = 2

// DefaultTimeTolerance is the largest spread tolerated between time sources.
const DefaultTimeTolerance = 30 * time.Minute

// Policy controls how readings are turned into a decision.
type Policy struct {
	// Quorum is the minimum number of successful, agreeing sources.
	Quorum int
	// AllowDegraded lets a branch be decided by fewer than Quorum sources
	// (down to one). Such decisions are flagged Degraded.
	AllowDegraded bool
	// TimeTolerance is the largest spread tolerated between time readings.
	TimeTolerance time.Duration
}

func (p Policy) quorum() int {
	if p.Quorum <= 0 {
		return DefaultQuorum
	}
	return p.Quorum
}

func (p Policy) timeTolerance() time.Duration {
	if p.TimeTolerance <= 0 {
		return DefaultTimeTolerance
	}
	return p.TimeTolerance
}

// PriceReading is one source's answer for an asset price.
type PriceReading struct {
	Source     string          `json:"source"`
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observedAt"`
	Latency    time.Duration   `json:"latency"`
	Error      string          `json:"error,omitempty"`
}

// OK reports whether the reading carries a value.
func (r PriceReading) OK() bool { return r.Error == "" }

// TimeReading is one source's answer for the current instant.
type TimeReading struct {
	Source  string        `json:"source"`
	Time    time.Time     `json:"time"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// OK reports whether the reading carries a value.
func (r TimeReading) OK() bool { return r.Error == "" }

// Op is a price comparison.
type Op int

const (
	// AtLeast holds when price >= threshold.
	AtLeast Op = iota
	// AtMost holds when price <= threshold.
	AtMost
)

// Rule is a price sub-condition.
type Rule struct {
	Op        Op
	Threshold decimal.Decimal
}

// Satisfied reports whether price satisfies the rule.
func (r Rule) Satisfied(price decimal.Decimal) bool {
	if r.Op == AtMost {
		return price.LessThanOrEqual(r.Threshold)
	}
	return price.GreaterThanOrEqual(r.Threshold)
}

func (r Rule) String() string {
	if r.Op == AtMost {
		return "<= " + r.Threshold.String()
	}
	return ">= " + r.Threshold.String()
}

// Decision is the evaluated outcome of one sub-condition.
type Decision struct {
	Status    Status `json:"status"`
	Degraded  bool   `json:"degraded,omitempty"`
	Sources   int    `json:"sources"`
	Succeeded int    `json:"succeeded"`
	Agreeing  int    `json:"agreeing"`
	Quorum    int    `json:"quorum"`
	// Reference is the median observation, Low and High bound the spread.
	Reference string `json:"reference,omitempty"`
	Low       string `json:"low,omitempty"`
	High      string `json:"high,omitempty"`
	// Disputed is set when the readings spread beyond the tolerance.
	Disputed  bool   `json:"disputed,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// effectiveQuorum settles the quorum for n successful readings. ok is false
// when the branch cannot be decided at all. A decision resting on fewer than
// DefaultQuorum readings is degraded, whatever Policy.Quorum says.
func effectiveQuorum(n int, p Policy) (quorum int, degraded bool, ok bool) {
	q := p.quorum()
	switch {
	case n == 0:
		return q, false, false
	case n >= q:
		return q, n < DefaultQuorum, true
	case p.AllowDegraded:
		return n, true, true
	}
	return q, false, false
}

// EvaluatePrice applies rule to price readings. tolerance is the largest
// relative spread (max-min)/min accepted between successful readings. A
// reading with a zero or negative price counts as failed.
func EvaluatePrice(readings []PriceReading, rule Rule, tolerance decimal.Decimal, p Policy) Decision {
	var prices []decimal.Decimal
	for _, r := range readings {
		if r.OK() && r.Price.IsPositive() {
			prices = append(prices, r.Price)
		}
	}

	d := Decision{Sources: len(readings), Succeeded: len(prices)}
	quorum, degraded, ok := effectiveQuorum(len(prices), p)
	d.Quorum, d.Degraded = quorum, degraded
	if !ok {
		d.Status = StatusUnavailable
		d.Reason = fmt.Sprintf("%d of %d price sources answered, %d required", len(prices), len(readings), quorum)
		return d
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })
	low, high := prices[0], prices[len(prices)-1]
	d.Low, d.High = low.String(), high.String()
	d.Reference = medianPrice(prices).String()

	if spread := high.Sub(low).Div(low); spread.GreaterThan(tolerance) {
		d.Status, d.Disputed = StatusNotMet, true
		d.Reason = fmt.Sprintf("price sources disagree by %s%%, tolerance is %s%%",
			spread.Mul(decimal.NewFromInt(100)).StringFixed(2),
			tolerance.Mul(decimal.NewFromInt(100)).StringFixed(2))
		return d
	}

	for _, price := range prices {
		if rule.Satisfied(price) {
			d.Agreeing++
		}
	}
	if d.Agreeing >= quorum {
		d.Status = StatusMet
		d.Degraded = d.Degraded || d.Agreeing < DefaultQuorum
		return d
	}
	d.Status = StatusNotMet
	d.Reason = fmt.Sprintf("price %s does not satisfy %s", d.Reference, rule)
	return d
}

// EvaluateTime decides whether unlockAt has passed according to time readings.
func EvaluateTime(readings []TimeReading, unlockAt time.Time, p Policy) Decision {
	var times []time.Time
	for _, r := range readings {
		if r.OK() {
			times = append(times, r.Time)
		}
	}

	d := Decision{Sources: len(readings), Succeeded: len(times)}
	quorum, degraded, ok := effectiveQuorum(len(times), p)
	d.Quorum, d.Degraded = quorum, degraded
	if !ok {
		d.Status = StatusUnavailable
		d.Reason = fmt.Sprintf("%d of %d time sources answered, %d required", len(times), len(readings), quorum)
		return d
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	low, high := times[0], times[len(times)-1]
	d.Low, d.High = low.UTC().Format(time.RFC3339), high.UTC().Format(time.RFC3339)
	d.Reference = times[len(times)/2].UTC().Format(time.RFC3339)

	if spread := high.Sub(low); spread > p.timeTolerance() {
		d.Status, d.Disputed = StatusNotMet, true
		d.Reason = fmt.Sprintf("time sources disagree by %s, tolerance is %s", spread.Round(time.Second), p.timeTolerance())
		return d
	}

	for _, t := range times {
		if !t.Before(unlockAt) {
			d.Agreeing++
		}
	}
	if d.Agreeing >= quorum {
		d.Status = StatusMet
		d.Degraded = d.Degraded || d.Agreeing < DefaultQuorum
		return d
	}
	d.Status = StatusNotMet
	d.Reason = fmt.Sprintf("unlock time %s has not been reached", unlockAt.UTC().Format(time.RFC3339))
	return d
}

func medianPrice(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
}
