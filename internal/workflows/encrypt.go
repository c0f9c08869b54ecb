package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/PolarWolf314/condlock/internal/audit"
	"github.com/PolarWolf314/condlock/internal/catalog"
	"github.com/PolarWolf314/condlock/internal/conditions"
	"github.com/PolarWolf314/condlock/internal/envelope"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/secrets"
)

// EncryptOptions configures the encrypt workflow.
type EncryptOptions struct {
	// Note is the plaintext to lock. It must not be empty.
	Note []byte

	// Asset, TargetPrice and MinPrice describe the price sub-conditions.
	// Prices are kept exactly as written.
	Asset       string
	TargetPrice string
	MinPrice    string

	// UnlockAt is the time sub-condition. It must be in the future.
	UnlockAt *time.Time

	// Catalog, when set, must contain Asset.
	Catalog *catalog.Catalog

	// Cipher supplies randomness. The zero value uses crypto/rand.
	Cipher secrets.Cipher

	// History records the operation. Nil disables recording.
	History *audit.Log

	// Now overrides the clock used for the future-time check.
	Now func() time.Time
}

// EncryptResult contains the outcome of an encrypt operation.
type EncryptResult struct {
	// Envelope is the ENC[...] string to store or share.
	Envelope string `json:"envelope"`

	// Digest is a short public fingerprint of the envelope.
	Digest string `json:"digest"`

	// Condition is the unlock condition as stored in the envelope.
	Condition conditions.Condition `json:"condition"`
}

// Encrypt locks a note behind an unlock condition.
//
// Returns ErrEmptyNote if there is nothing to encrypt.
// Returns ErrInvalidCondition if no sub-condition is given, a price is not a
// positive decimal, or the unlock time is not in the future.
// Returns ErrUnknownAsset if a catalog is supplied and does not list the asset.
func Encrypt(ctx context.Context, opts EncryptOptions) (*EncryptResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cond := conditions.New(opts.Asset, opts.TargetPrice, opts.MinPrice, opts.UnlockAt)
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	if cond.HasTime() {
		unlockAt, _ := cond.UnlockAt()
		if !unlockAt.After(clock(opts.Now)) {
			return nil, fmt.Errorf("%w: unlock time %s is not in the future", kerrors.ErrInvalidCondition, cond.UnlockTime)
		}
	}

	if cond.HasPrice() && opts.Catalog != nil {
		if _, ok := opts.Catalog.Lookup(cond.Asset); !ok {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrUnknownAsset, cond.Asset)
		}
	}

	env, err := envelope.Seal(opts.Note, cond, opts.Cipher)
	if err != nil {
		return nil, err
	}

	encoded, err := envelope.Encode(env)
	if err != nil {
		return nil, err
	}

	opts.History.Append(audit.Entry{
		Operation: "encrypt",
		Digest:    env.Digest(),
		Condition: cond.String(),
	})

	return &EncryptResult{
		Envelope:  encoded,
		Digest:    env.Digest(),
		Condition: cond,
	}, nil
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
