package secrets

import (
	"encoding/base64"
	"fmt"

	"github.com/PolarWolf314/condlock/internal/conditions"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
)

// SchemaV1 is the first envelope schema: SHA-256 over a tagged tuple of the
// condition fields and the base64 salt, AES-256-GCM for both layers.
const SchemaV1 = 1

// CurrentSchema is the schema used for new envelopes.
const CurrentSchema = SchemaV1

// SaltSize is the size of the per-envelope random salt.
const SaltSize = 16

const conditionKeyTagV1 = "condlock/condition-key/v1"

// ConditionKeyMaterial returns the canonical bytes hashed into the condition key.
//
// Absent fields are encoded as empty strings. The field order is part of the
// schema: changing it changes every derived key.
func ConditionKeyMaterial(schema int, c conditions.Condition, salt []byte) ([]byte, error) {
	switch schema {
	case SchemaV1:
		return NewTuple(conditionKeyTagV1).
			Add("asset", c.Asset).
			Add("targetPrice", c.TargetPrice).
			Add("minPrice", c.MinPrice).
			Add("time", c.UnlockTime).
			Add("salt", base64.StdEncoding.EncodeToString(salt)).
			Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", kerrors.ErrUnsupportedVersion, schema)
	}
}

// DeriveConditionKey derives the key that wraps the content key.
//
// The key is recomputed by the decryptor from public envelope fields, so it
// gates on the condition rather than hiding anything on its own.
func DeriveConditionKey(schema int, c conditions.Condition, salt []byte) ([32]byte, error) {
	material, err := ConditionKeyMaterial(schema, c, salt)
	if err != nil {
		return [32]byte{}, err
	}
	return HashBytes(material), nil
}
