package conditions

import (
	"fmt"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/shopspring/decimal"
)

// TimeLayout is the layout of Condition.UnlockTime.
const TimeLayout = time.RFC3339

// Condition is an unlock condition as it travels in an envelope.
//
// Every field holds its canonical string form exactly as written at
// encryption time. The strings feed the condition-key derivation, so they are
// never reformatted; numeric and time values are parsed on demand.
type Condition struct {
	Asset       string `json:"asset,omitempty"`
	TargetPrice string `json:"targetPrice,omitempty"`
	MinPrice    string `json:"minPrice,omitempty"`
	UnlockTime  string `json:"time,omitempty"`
}

// New builds a condition from user input. The asset is trimmed and upper-cased,
// prices are trimmed but otherwise kept verbatim, and unlockAt is rendered in UTC.
func New(asset, targetPrice, minPrice string, unlockAt *time.Time) Condition {
	c := Condition{
		Asset:       strings.ToUpper(strings.TrimSpace(asset)),
		TargetPrice: strings.TrimSpace(targetPrice),
		MinPrice:    strings.TrimSpace(minPrice),
	}
	if unlockAt != nil {
		c.UnlockTime = unlockAt.UTC().Truncate(time.Second).Format(TimeLayout)
	}
	return c
}

// HasTime reports whether a time sub-condition is present.
func (c Condition) HasTime() bool { return c.UnlockTime != "" }

// HasTarget reports whether a "price at or above" sub-condition is present.
func (c Condition) HasTarget() bool { return c.TargetPrice != "" }

// HasMin reports whether a "price at or below" sub-condition is present.
func (c Condition) HasMin() bool { return c.MinPrice != "" }

// HasPrice reports whether any price sub-condition is present.
func (c Condition) HasPrice() bool { return c.HasTarget() || c.HasMin() }

// Validate checks the structural invariants of the condition.
func (c Condition) Validate() error {
	if !c.HasTime() && !c.HasPrice() {
		return fmt.Errorf("%w: at least one of target price, min price or unlock time is required", kerrors.ErrInvalidCondition)
	}
	if c.HasPrice() && c.Asset == "" {
		return fmt.Errorf("%w: an asset is required for price conditions", kerrors.ErrInvalidCondition)
	}
	if c.HasTarget() {
		if _, err := c.Target(); err != nil {
			return err
		}
	}
	if c.HasMin() {
		if _, err := c.Min(); err != nil {
			return err
		}
	}
	if c.HasTime() {
		if _, err := c.UnlockAt(); err != nil {
			return err
		}
	}
	return nil
}

// Target returns the parsed target price.
func (c Condition) Target() (decimal.Decimal, error) {
	return parsePrice("target price", c.TargetPrice)
}

// Min returns the parsed minimum price.
func (c Condition) Min() (decimal.Decimal, error) {
	return parsePrice("min price", c.MinPrice)
}

// UnlockAt returns the parsed unlock instant.
func (c Condition) UnlockAt() (time.Time, error) {
	t, err := time.Parse(TimeLayout, c.UnlockTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unlock time %q is not RFC 3339", kerrors.ErrInvalidCondition, c.UnlockTime)
	}
	return t.UTC(), nil
}

func parsePrice(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a decimal number", kerrors.ErrInvalidCondition, name, raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be greater than zero", kerrors.ErrInvalidCondition, name)
	}
	return d, nil
}

// String renders the unlock predicate for display.
func (c Condition) String() string {
	var parts []string
	if c.HasTime() {
		parts = append(parts, "time >= "+c.UnlockTime)
	}
	if c.HasTarget() {
		parts = append(parts, c.Asset+" >= "+c.TargetPrice)
	}
	if c.HasMin() {
		parts = append(parts, c.Asset+" <= "+c.MinPrice)
	}
	return strings.Join(parts, " OR ")
}
