package envelope

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PolarWolf314/condlock/internal/conditions"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/secrets"
)

const (
	prefix = "ENC["
	suffix = "]"
)

// wireEnvelope is the JSON inside ENC[...]. Older writers used "coin" and
// "price" for the asset and target price; both spellings are accepted.
type wireEnvelope struct {
	Version     int    `json:"v,omitempty"`
	Cipher1     string `json:"cipher1"`
	Cipher2     string `json:"cipher2"`
	IV1         string `json:"iv1"`
	IV2         string `json:"iv2"`
	Salt        string `json:"salt"`
	Asset       string `json:"asset,omitempty"`
	Coin        string `json:"coin,omitempty"`
	TargetPrice string `json:"targetPrice,omitempty"`
	Price       string `json:"price,omitempty"`
	MinPrice    string `json:"minPrice,omitempty"`
	Time        string `json:"time,omitempty"`
	Sig         string `json:"sig"`
}

// Encode serializes e as ENC[base64(JSON)].
func Encode(e *Envelope) (string, error) {
	b64 := base64.StdEncoding.EncodeToString
	w := wireEnvelope{
		Version:     e.Version,
		Cipher1:     b64(e.Cipher1),
		Cipher2:     b64(e.Cipher2),
		IV1:         b64(e.IV1),
		IV2:         b64(e.IV2),
		Salt:        b64(e.Salt),
		Asset:       e.Condition.Asset,
		TargetPrice: e.Condition.TargetPrice,
		MinPrice:    e.Condition.MinPrice,
		Time:        e.Condition.UnlockTime,
		Sig:         e.Signature,
	}
	data, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("marshaling envelope: %w", err)
	}
	return prefix + base64.StdEncoding.EncodeToString(data) + suffix, nil
}

// Decode parses an ENC[...] string. Anything outside the exact wrapper is
// rejected before base64 or JSON decoding is attempted. Decode does not verify
// the signature; see Verify.
func Decode(s string) (*Envelope, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, suffix) || len(s) <= len(prefix)+len(suffix) {
		return nil, fmt.Errorf("%w: expected ENC[...]", kerrors.ErrFormat)
	}
	body := s[len(prefix) : len(s)-len(suffix)]

	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: body is not base64", kerrors.ErrFormat)
	}

	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: body is not an envelope JSON object", kerrors.ErrFormat)
	}

	return fromWire(w)
}

func fromWire(w wireEnvelope) (*Envelope, error) {
	e := &Envelope{Version: w.Version}
	if e.Version == 0 {
		e.Version = secrets.SchemaV1
	}
	if e.Version != secrets.SchemaV1 {
		return nil, fmt.Errorf("%w: %d", kerrors.ErrUnsupportedVersion, e.Version)
	}

	fields := []struct {
		name string
		in   string
		out  *[]byte
		size int
	}{
		{"cipher1", w.Cipher1, &e.Cipher1, 0},
		{"cipher2", w.Cipher2, &e.Cipher2, 0},
		{"iv1", w.IV1, &e.IV1, secrets.IVSize},
		{"iv2", w.IV2, &e.IV2, secrets.IVSize},
		{"salt", w.Salt, &e.Salt, secrets.SaltSize},
	}
	for _, f := range fields {
		b, err := base64.StdEncoding.DecodeString(f.in)
		if err != nil || len(b) == 0 {
			return nil, fmt.Errorf("%w: field %s is missing or not base64", kerrors.ErrFormat, f.name)
		}
		if f.size > 0 && len(b) != f.size {
			return nil, fmt.Errorf("%w: field %s must be %d bytes, got %d", kerrors.ErrFormat, f.name, f.size, len(b))
		}
		*f.out = b
	}

	asset, err := alias("asset", w.Asset, "coin", w.Coin)
	if err != nil {
		return nil, err
	}
	target, err := alias("targetPrice", w.TargetPrice, "price", w.Price)
	if err != nil {
		return nil, err
	}
	e.Condition = conditions.Condition{
		Asset:       asset,
		TargetPrice: target,
		MinPrice:    w.MinPrice,
		UnlockTime:  w.Time,
	}

	if len(w.Sig) != 64 {
		return nil, fmt.Errorf("%w: sig must be 64 hex characters", kerrors.ErrFormat)
	}
	if _, err := hex.DecodeString(w.Sig); err != nil {
		return nil, fmt.Errorf("%w: sig is not hex", kerrors.ErrFormat)
	}
	e.Signature = strings.ToLower(w.Sig)

	return e, nil
}

func alias(name, value, oldName, oldValue string) (string, error) {
	switch {
	case value == "":
		return oldValue, nil
	case oldValue == "" || oldValue == value:
		return value, nil
	default:
		return "", fmt.Errorf("%w: %s and %s disagree", kerrors.ErrFormat, name, oldName)
	}
}
