package oracle

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func prices(values ...string) []PriceReading {
	out := make([]PriceReading, 0, len(values))
	for i, v := range values {
		r := PriceReading{Source: "src" + string(rune('a'+i))}
		if v == "" {
			r.Error = "timeout"
		} else {
			r.Price = decimal.RequireFromString(v)
		}
		out = append(out, r)
	}
	return out
}

var twoPercent = decimal.RequireFromString("0.02")

func atLeast(v string) Rule { return Rule{Op: AtLeast, Threshold: decimal.RequireFromString(v)} }
func atMost(v string) Rule  { return Rule{Op: AtMost, Threshold: decimal.RequireFromString(v)} }

func TestEvaluatePrice(t *testing.T) {
	tests := []struct {
		name     string
		readings []PriceReading
		rule     Rule
		policy   Policy
		want     Status
		degraded bool
	}{
		{"two agreeing above target", prices("101", "100.5"), atLeast("100"), Policy{}, StatusMet, false},
		{"exactly at target", prices("100", "100"), atLeast("100"), Policy{}, StatusMet, false},
		{"below target", prices("999", "999"), atLeast("1000000"), Policy{}, StatusNotMet, false},
		{"at most satisfied", prices("95", "95.5"), atMost("96"), Policy{}, StatusMet, false},
		{"at most not satisfied", prices("97", "97.1"), atMost("96"), Policy{}, StatusNotMet, false},
		{"no sources configured", nil, atLeast("1"), Policy{}, StatusUnavailable, false},
		{"all sources failed", prices("", "", ""), atLeast("1"), Policy{}, StatusUnavailable, false},
		{"one of three answered", prices("500", "", ""), atLeast("1"), Policy{}, StatusUnavailable, false},
		{"one of three answered degraded", prices("500", "", ""), atLeast("1"), Policy{AllowDegraded: true}, StatusMet, true},
		{"degraded still evaluates the rule", prices("", "0.5"), atLeast("1"), Policy{AllowDegraded: true}, StatusNotMet, true},
		{"spread beyond tolerance", prices("100", "110"), atLeast("50"), Policy{}, StatusNotMet, false},
		{"split vote below quorum", prices("99", "100.5"), atLeast("100"), Policy{}, StatusNotMet, false},
		{"quorum of three", prices("100", "100", "100"), atLeast("100"), Policy{Quorum: 3}, StatusMet, false},
		{"quorum of one is degraded", prices("2000000", "", ""), atLeast("1000000"), Policy{Quorum: 1}, StatusMet, true},
		{"single agreeing source is degraded", prices("2000000", "1990000"), atLeast("1995000"), Policy{Quorum: 1}, StatusMet, true},
		{"zero price counts as failed", prices("0", "100", "100.5"), atLeast("50"), Policy{}, StatusMet, false},
		{"only non-positive prices", prices("0", "-3"), atLeast("1"), Policy{}, StatusUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluatePrice(tt.readings, tt.rule, twoPercent, tt.policy)
			assert.Equal(t, tt.want, d.Status, d.Reason)
			assert.Equal(t, tt.degraded, d.Degraded)
		})
	}
}

func TestEvaluatePrice_Diagnostics(t *testing.T) {
	d := EvaluatePrice(prices("999", "", "1001"), atLeast("1000000"), twoPercent, Policy{})
	assert.Equal(t, StatusNotMet, d.Status)
	assert.Equal(t, 3, d.Sources)
	assert.Equal(t, 2, d.Succeeded)
	assert.Equal(t, 0, d.Agreeing)
	assert.Equal(t, "1000", d.Reference)
	assert.False(t, d.Disputed)
	assert.Equal(t, "999", d.Low)
	assert.Equal(t, "1001", d.High)
	assert.Contains(t, d.Reason, ">= 1000000")

	d = EvaluatePrice(prices("100", "110"), atLeast("1"), twoPercent, Policy{})
	assert.True(t, d.Disputed)
	assert.Contains(t, d.Reason, "10.00%")
	assert.Contains(t, d.Reason, "2.00%")
}

func TestEvaluatePrice_NonPositiveReadingsAreDropped(t *testing.T) {
	d := EvaluatePrice(prices("0", "100", "101"), atLeast("50"), twoPercent, Policy{})
	assert.Equal(t, StatusMet, d.Status, d.Reason)
	assert.Equal(t, 3, d.Sources)
	assert.Equal(t, 2, d.Succeeded)
	assert.Equal(t, "100", d.Low)
	assert.False(t, d.Disputed)
}

func TestEvaluateTime_QuorumOfOneIsDegraded(t *testing.T) {
	unlock := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	d := EvaluateTime(times(unlock.Add(time.Minute), time.Time{}), unlock, Policy{Quorum: 1})
	assert.Equal(t, StatusMet, d.Status, d.Reason)
	assert.True(t, d.Degraded)
	assert.Equal(t, 1, d.Quorum)
}

func times(values ...time.Time) []TimeReading {
	out := make([]TimeReading, 0, len(values))
	for i, v := range values {
		r := TimeReading{Source: "clock" + string(rune('a'+i))}
		if v.IsZero() {
			r.Error = "unreachable"
		} else {
			r.Time = v
		}
		out = append(out, r)
	}
	return out
}

func TestEvaluateTime(t *testing.T) {
	unlock := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	after := unlock.Add(time.Minute)
	before := unlock.Add(-time.Minute)

	tests := []struct {
		name     string
		readings []TimeReading
		policy   Policy
		want     Status
	}{
		{"all past unlock", times(after, after.Add(2*time.Second)), Policy{}, StatusMet},
		{"exactly at unlock", times(unlock, unlock), Policy{}, StatusMet},
		{"before unlock", times(before, before), Policy{}, StatusNotMet},
		{"straddling unlock", times(before, after), Policy{}, StatusNotMet},
		{"single answer", times(after, time.Time{}), Policy{}, StatusUnavailable},
		{"single answer degraded", times(after, time.Time{}), Policy{AllowDegraded: true}, StatusMet},
		{"clocks disagree", times(after, after.Add(2*time.Hour)), Policy{}, StatusNotMet},
		{"custom tolerance", times(after, after.Add(2*time.Hour)), Policy{TimeTolerance: 3 * time.Hour}, StatusMet},
		{"none answered", times(time.Time{}, time.Time{}), Policy{AllowDegraded: true}, StatusUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluateTime(tt.readings, unlock, tt.policy)
			assert.Equal(t, tt.want, d.Status, d.Reason)
		})
	}
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "met", StatusMet.String())
	assert.Equal(t, "not met", StatusNotMet.String())
	assert.Equal(t, "unavailable", StatusUnavailable.String())

	b, err := StatusUnavailable.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "unavailable", string(b))
}

func TestReportStatus(t *testing.T) {
	met := &Branch{Decision: Decision{Status: StatusMet}}
	notMet := &Branch{Decision: Decision{Status: StatusNotMet}}
	unavailable := &Branch{Decision: Decision{Status: StatusUnavailable}}

	assert.Equal(t, StatusMet, (&Report{Time: met, Above: unavailable}).Status(), "any met branch unlocks")
	assert.Equal(t, StatusMet, (&Report{Time: notMet, Below: met}).Status())
	assert.Equal(t, StatusUnavailable, (&Report{Time: notMet, Above: unavailable}).Status())
	assert.Equal(t, StatusNotMet, (&Report{Time: notMet, Above: notMet, Below: notMet}).Status())
	assert.Equal(t, StatusUnavailable, (&Report{}).Status(), "a report without branches never unlocks")

	degraded := &Branch{Decision: Decision{Status: StatusMet, Degraded: true}}
	assert.True(t, (&Report{Above: degraded}).Degraded())
	assert.False(t, (&Report{Above: met}).Degraded())
	assert.Len(t, (&Report{Time: met, Below: notMet}).Branches(), 2)
}
