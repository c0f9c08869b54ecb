// Package oracle decides whether an unlock condition currently holds.
//
// A Checker asks every configured price and time source concurrently. Each
// source is retried on transient failures within its own timeout, and the
// round as a whole is bounded by the caller's context. Once all readings are
// in, the pure functions EvaluatePrice and EvaluateTime turn them into a
// Decision per sub-condition:
//
//   - no successful readings, or fewer than the quorum, is Unavailable
//     (unless the policy allows degraded decisions);
//   - readings that disagree beyond the tolerance are NotMet;
//   - a quorum of readings satisfying the rule is Met.
//
// A Report combines the sub-conditions with OR semantics. Unavailable is kept
// distinct from NotMet so callers can tell "try again later" from "locked".
package oracle
