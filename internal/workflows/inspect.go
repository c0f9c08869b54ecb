package workflows

import (
	"context"
	"time"

	"github.com/PolarWolf314/condlock/internal/audit"
	"github.com/PolarWolf314/condlock/internal/conditions"
	"github.com/PolarWolf314/condlock/internal/envelope"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/oracle"
)

// InspectOptions configures the inspect workflow.
type InspectOptions struct {
	// Envelope is the ENC[...] string.
	Envelope string

	// Checker, when set, is asked whether the condition currently holds.
	Checker ConditionChecker

	// History records the operation. Nil disables recording.
	History *audit.Log

	// Now overrides the clock used for status messages.
	Now func() time.Time
}

// InspectResult describes an envelope without decrypting it.
type InspectResult struct {
	Version   int                  `json:"version"`
	Digest    string               `json:"digest"`
	Condition conditions.Condition `json:"condition"`
	Predicate string               `json:"predicate"`

	// Report and Status are set only when a checker was supplied.
	Report   *oracle.Report `json:"report,omitempty"`
	Status   string         `json:"status,omitempty"`
	Messages []string       `json:"messages,omitempty"`
}

// Inspect decodes and verifies an envelope and, if a checker is supplied,
// reports whether its condition currently holds. The note is never decrypted.
//
// Returns ErrFormat, ErrUnsupportedVersion or ErrIntegrity for envelopes that
// cannot be trusted.
func Inspect(ctx context.Context, opts InspectOptions) (*InspectResult, error) {
	entry := audit.Entry{Operation: "inspect"}
	result, err := inspect(ctx, opts, &entry)
	if err != nil {
		entry.Error = kerrors.Category(err)
	}
	opts.History.Append(entry)
	return result, err
}

func inspect(ctx context.Context, opts InspectOptions, entry *audit.Entry) (*InspectResult, error) {
	env, err := envelope.Decode(opts.Envelope)
	if err != nil {
		return nil, err
	}
	if err := envelope.Verify(env); err != nil {
		return nil, err
	}
	entry.Digest = env.Digest()
	entry.Condition = env.Condition.String()

	result := &InspectResult{
		Version:   env.Version,
		Digest:    env.Digest(),
		Condition: env.Condition,
		Predicate: env.Condition.String(),
	}
	if opts.Checker == nil {
		return result, nil
	}

	report, err := opts.Checker.Check(ctx, env.Condition)
	if err != nil {
		return nil, err
	}
	entry.RoundID = report.RoundID
	entry.Status = report.Status().String()
	entry.Degraded = report.Degraded()

	result.Report = report
	result.Status = report.Status().String()
	result.Messages = StatusMessages(env.Condition, report, clock(opts.Now))
	return result, nil
}
