// Package conditions models the unlock condition of a locked note.
//
// A condition is any combination of a time sub-condition (unlock at or after
// an instant) and price sub-conditions (asset price at or above a target, or at
// or below a minimum). The overall predicate is the logical OR of whatever is
// present.
package conditions
