package workflows

import (
	"fmt"
	"time"

	"github.com/PolarWolf314/condlock/internal/conditions"
	"github.com/PolarWolf314/condlock/internal/oracle"
)

// StatusMessages describes each sub-condition of cond as seen by report.
func StatusMessages(cond conditions.Condition, report *oracle.Report, now time.Time) []string {
	if report == nil {
		return nil
	}

	var out []string
	if b := report.Time; b != nil {
		out = append(out, timeMessage(cond, b, now))
	}
	if b := report.Above; b != nil {
		out = append(out, priceMessage(b, "target", cond.TargetPrice, "below", "at or above"))
	}
	if b := report.Below; b != nil {
		out = append(out, priceMessage(b, "minimum", cond.MinPrice, "above", "at or below"))
	}

	if report.Degraded() {
		out = append(out, "decided by fewer sources than the configured quorum")
	}
	if report.Status() == oracle.StatusUnavailable {
		out = append(out, "oracles could not decide; try again later")
	}
	return out
}

func timeMessage(cond conditions.Condition, b *oracle.Branch, now time.Time) string {
	switch b.Status {
	case oracle.StatusMet:
		return "unlock time " + cond.UnlockTime + " has passed"
	case oracle.StatusUnavailable:
		return "time oracles unavailable: " + b.Reason
	}

	unlockAt, err := cond.UnlockAt()
	if err != nil {
		return b.Reason
	}
	if remaining := unlockAt.Sub(now); remaining > 0 {
		return fmt.Sprintf("unlocks in %s (at %s)", FormatRemaining(remaining), cond.UnlockTime)
	}
	// The local clock has passed but the oracles disagree or lag.
	return b.Reason
}

func priceMessage(b *oracle.Branch, label, threshold, failing, passing string) string {
	switch b.Status {
	case oracle.StatusUnavailable:
		return "price oracles unavailable: " + b.Reason
	case oracle.StatusMet:
		return fmt.Sprintf("current price %s is %s %s %s", b.Reference, passing, label, threshold)
	}

	if b.Disputed || b.Reference == "" {
		return b.Reason
	}
	if b.Agreeing == 0 {
		return fmt.Sprintf("current price %s is %s %s %s", b.Reference, failing, label, threshold)
	}
	return fmt.Sprintf("only %d of %d sources report a price %s %s %s, %d required",
		b.Agreeing, b.Succeeded, passing, label, threshold, b.Quorum)
}

// FormatRemaining renders a duration as "2h 5m", "3d 4h 0m" or "45s".
func FormatRemaining(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int((d+time.Second-1)/time.Second))
	}
	d = d.Round(time.Minute)
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
