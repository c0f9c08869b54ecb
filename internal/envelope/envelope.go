package envelope

import (
	"bytes"
	"fmt"

	"github.com/PolarWolf314/condlock/internal/conditions"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/secrets"
)

// Envelope is the persisted and transmitted unit of a locked note.
// It is created once by Seal and never modified afterwards.
type Envelope struct {
	Version   int
	Cipher1   []byte
	Cipher2   []byte
	IV1       []byte
	IV2       []byte
	Salt      []byte
	Condition conditions.Condition
	Signature string
}

// Seal encrypts note so that it can only be opened once cond is satisfied.
func Seal(note []byte, cond conditions.Condition, c secrets.Cipher) (*Envelope, error) {
	if len(note) == 0 {
		return nil, kerrors.ErrEmptyNote
	}
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	salt, err := c.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("%w: generating salt: %v", kerrors.ErrEncryptFailed, err)
	}

	conditionKey, err := secrets.DeriveConditionKey(secrets.CurrentSchema, cond, salt)
	if err != nil {
		return nil, err
	}

	sealed, err := c.Seal(note, conditionKey)
	if err != nil {
		return nil, err
	}

	e := &Envelope{
		Version:   secrets.CurrentSchema,
		Cipher1:   sealed.Cipher1,
		Cipher2:   sealed.Cipher2,
		IV1:       sealed.IV1,
		IV2:       sealed.IV2,
		Salt:      salt,
		Condition: cond,
	}
	e.Signature = Signature(e)
	return e, nil
}

// Open verifies the envelope and decrypts the note.
//
// Open does not check the unlock condition; callers must have confirmed it
// with the oracles first.
func Open(e *Envelope, c secrets.Cipher) ([]byte, error) {
	if err := Verify(e); err != nil {
		return nil, err
	}

	conditionKey, err := secrets.DeriveConditionKey(e.Version, e.Condition, e.Salt)
	if err != nil {
		return nil, err
	}

	return c.Open(secrets.Sealed{
		Cipher1: e.Cipher1,
		Cipher2: e.Cipher2,
		IV1:     e.IV1,
		IV2:     e.IV2,
	}, conditionKey)
}

// Equal reports whether two envelopes carry identical fields.
func (e *Envelope) Equal(o *Envelope) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Version == o.Version &&
		bytes.Equal(e.Cipher1, o.Cipher1) &&
		bytes.Equal(e.Cipher2, o.Cipher2) &&
		bytes.Equal(e.IV1, o.IV1) &&
		bytes.Equal(e.IV2, o.IV2) &&
		bytes.Equal(e.Salt, o.Salt) &&
		e.Condition == o.Condition &&
		e.Signature == o.Signature
}

// Digest is a short public fingerprint of the serialized envelope.
func (e *Envelope) Digest() string {
	if len(e.Signature) < 16 {
		return e.Signature
	}
	return e.Signature[:16]
}
