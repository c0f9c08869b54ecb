package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PolarWolf314/condlock/internal/audit"
	"github.com/PolarWolf314/condlock/internal/conditions"
	"github.com/PolarWolf314/condlock/internal/envelope"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/oracle"
	"github.com/PolarWolf314/condlock/internal/secrets"
)

// ConditionChecker runs one oracle round for a condition.
type ConditionChecker interface {
	Check(ctx context.Context, cond conditions.Condition) (*oracle.Report, error)
}

// DecryptOptions configures the decrypt workflow.
type DecryptOptions struct {
	// Envelope is the ENC[...] string.
	Envelope string

	// Checker decides whether the condition holds. Required unless Force is set.
	Checker ConditionChecker

	// Force skips the oracle check and opens the note regardless of the
	// condition. The envelope is still verified.
	Force bool

	// Cipher is the zero value in normal use.
	Cipher secrets.Cipher

	// History records the attempt. Nil disables recording.
	History *audit.Log

	// Now overrides the clock used for status messages.
	Now func() time.Time
}

// DecryptResult contains the outcome of a successful decrypt.
type DecryptResult struct {
	// Note is the recovered plaintext.
	Note []byte

	// Condition is the unlock condition carried by the envelope.
	Condition conditions.Condition

	// Digest is the envelope fingerprint.
	Digest string

	// Report is the oracle round that unlocked the note. Nil when forced.
	Report *oracle.Report

	// Messages describe each sub-condition for display.
	Messages []string
}

// LockedError is returned when the oracles did not allow the note to be opened.
// It wraps ErrConditionNotMet or ErrOracleUnavailable.
type LockedError struct {
	Err       error
	Condition conditions.Condition
	Report    *oracle.Report
	Messages  []string
}

func (e *LockedError) Error() string {
	if len(e.Messages) == 0 {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + strings.Join(e.Messages, "; ")
}

func (e *LockedError) Unwrap() error { return e.Err }

// Decrypt opens a locked note once its unlock condition holds.
//
// The envelope is decoded and its signature verified before any oracle is
// contacted, and the note is only decrypted after the oracles report the
// condition as met.
//
// Returns ErrFormat or ErrUnsupportedVersion if the envelope cannot be parsed.
// Returns ErrIntegrity if any field was modified.
// Returns a *LockedError wrapping ErrConditionNotMet or ErrOracleUnavailable
// if the condition does not hold or could not be decided.
// Returns ErrDecryptFailed if the ciphertexts cannot be opened.
func Decrypt(ctx context.Context, opts DecryptOptions) (*DecryptResult, error) {
	entry := audit.Entry{Operation: "decrypt", Forced: opts.Force}
	result, err := decrypt(ctx, opts, &entry)
	if err != nil {
		entry.Error = kerrors.Category(err)
	}
	opts.History.Append(entry)
	return result, err
}

func decrypt(ctx context.Context, opts DecryptOptions, entry *audit.Entry) (*DecryptResult, error) {
	env, err := envelope.Decode(opts.Envelope)
	if err != nil {
		return nil, err
	}
	if err := envelope.Verify(env); err != nil {
		return nil, err
	}
	entry.Digest = env.Digest()
	entry.Condition = env.Condition.String()

	result := &DecryptResult{Condition: env.Condition, Digest: env.Digest()}

	if !opts.Force {
		if opts.Checker == nil {
			return nil, fmt.Errorf("%w: no condition checker configured", kerrors.ErrOracleUnavailable)
		}
		report, err := opts.Checker.Check(ctx, env.Condition)
		if err != nil {
			return nil, err
		}
		entry.RoundID = report.RoundID
		entry.Status = report.Status().String()
		entry.Degraded = report.Degraded()

		messages := StatusMessages(env.Condition, report, clock(opts.Now))
		switch report.Status() {
		case oracle.StatusMet:
		case oracle.StatusUnavailable:
			return nil, &LockedError{Err: kerrors.ErrOracleUnavailable, Condition: env.Condition, Report: report, Messages: messages}
		default:
			return nil, &LockedError{Err: kerrors.ErrConditionNotMet, Condition: env.Condition, Report: report, Messages: messages}
		}
		result.Report = report
		result.Messages = messages
	}

	note, err := envelope.Open(env, opts.Cipher)
	if err != nil {
		return nil, err
	}
	result.Note = note
	return result, nil
}
