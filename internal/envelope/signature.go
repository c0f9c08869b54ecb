package envelope

import (
	"crypto/subtle"
	"encoding/base64"
	"strconv"

	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/secrets"
)

const signatureTag = "condlock/envelope"

// canonicalBytes is the single serialization covered by the signature.
// Encrypt and decrypt paths both go through here; the field order below is fixed.
func canonicalBytes(e *Envelope) []byte {
	b64 := base64.StdEncoding.EncodeToString
	return secrets.NewTuple(signatureTag).
		Add("v", strconv.Itoa(e.Version)).
		Add("cipher1", b64(e.Cipher1)).
		Add("cipher2", b64(e.Cipher2)).
		Add("iv1", b64(e.IV1)).
		Add("iv2", b64(e.IV2)).
		Add("salt", b64(e.Salt)).
		Add("asset", e.Condition.Asset).
		Add("targetPrice", e.Condition.TargetPrice).
		Add("minPrice", e.Condition.MinPrice).
		Add("time", e.Condition.UnlockTime).
		Bytes()
}

// Signature computes the integrity digest over every field except the signature.
func Signature(e *Envelope) string {
	return secrets.HashHex(canonicalBytes(e))
}

// Verify recomputes the signature and compares it with the stored one.
func Verify(e *Envelope) error {
	want := Signature(e)
	if subtle.ConstantTimeCompare([]byte(want), []byte(e.Signature)) != 1 {
		return kerrors.ErrIntegrity
	}
	return nil
}
