package secrets

import (
	"bytes"
	"errors"
	"testing"

	"github.com/PolarWolf314/condlock/internal/conditions"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
)

func TestHashHex_KnownVectors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"hello", "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
	}
	for _, tt := range tests {
		if got := HashHex(tt.input); got != tt.want {
			t.Errorf("HashHex(%q) = %s, want %s", tt.input, got, tt.want)
		}
		if got := HashHex([]byte(tt.input)); got != tt.want {
			t.Errorf("HashHex([]byte(%q)) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestHashBytes_Avalanche(t *testing.T) {
	a := HashBytes("condlock note 1")
	b := HashBytes("condlock note 2")

	differingBits := 0
	for i := range a {
		x := a[i] ^ b[i]
		for x != 0 {
			differingBits += int(x & 1)
			x >>= 1
		}
	}
	// 256-bit digests of near-identical inputs should differ in roughly half the bits.
	if differingBits < 80 || differingBits > 176 {
		t.Errorf("expected an avalanched digest, %d of 256 bits differ", differingBits)
	}
}

func TestTuple_EmptyFieldsAreUnambiguous(t *testing.T) {
	a := NewTuple("t").Add("a", "xy").Add("b", "").Bytes()
	b := NewTuple("t").Add("a", "x").Add("b", "y").Bytes()
	if bytes.Equal(a, b) {
		t.Fatal("tuples with different field boundaries must not collide")
	}

	c := NewTuple("t").Add("a", "xy").Add("b", "").Bytes()
	if !bytes.Equal(a, c) {
		t.Fatal("tuple encoding must be deterministic")
	}
}

func TestDeriveConditionKey(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltSize)
	cond := conditions.Condition{Asset: "BTCUSDT", TargetPrice: "1000000", UnlockTime: "2030-01-01T00:00:00Z"}

	k1, err := DeriveConditionKey(SchemaV1, cond, salt)
	if err != nil {
		t.Fatalf("DeriveConditionKey failed: %v", err)
	}
	k2, _ := DeriveConditionKey(SchemaV1, cond, salt)
	if k1 != k2 {
		t.Fatal("derivation must be deterministic")
	}

	variants := []conditions.Condition{
		{Asset: "ETHUSDT", TargetPrice: "1000000", UnlockTime: "2030-01-01T00:00:00Z"},
		{Asset: "BTCUSDT", TargetPrice: "1000000.0", UnlockTime: "2030-01-01T00:00:00Z"},
		{Asset: "BTCUSDT", MinPrice: "1000000", UnlockTime: "2030-01-01T00:00:00Z"},
		{Asset: "BTCUSDT", TargetPrice: "1000000", UnlockTime: "2030-01-01T00:00:01Z"},
	}
	for _, v := range variants {
		k, _ := DeriveConditionKey(SchemaV1, v, salt)
		if k == k1 {
			t.Errorf("condition %+v derived the same key as %+v", v, cond)
		}
		if k[0] == k1[0] && k[1] == k1[1] && k[2] == k1[2] && k[3] == k1[3] {
			t.Errorf("condition %+v shares a 4-byte prefix with the original key", v)
		}
	}

	otherSalt := bytes.Repeat([]byte{8}, SaltSize)
	k3, _ := DeriveConditionKey(SchemaV1, cond, otherSalt)
	if k3 == k1 {
		t.Error("a different salt must derive a different key")
	}
}

func TestDeriveConditionKey_UnknownSchema(t *testing.T) {
	_, err := DeriveConditionKey(99, conditions.Condition{UnlockTime: "2030-01-01T00:00:00Z"}, make([]byte, SaltSize))
	if !errors.Is(err, kerrors.ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestCipher_RoundTrip(t *testing.T) {
	var c Cipher
	key := HashBytes("condition")

	sealed, err := c.Seal([]byte("hello"), key)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if len(sealed.IV1) != IVSize || len(sealed.IV2) != IVSize {
		t.Fatalf("unexpected IV sizes %d/%d", len(sealed.IV1), len(sealed.IV2))
	}
	if bytes.Contains(sealed.Cipher1, []byte("hello")) {
		t.Fatal("cipher1 contains plaintext")
	}

	note, err := c.Open(*sealed, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(note) != "hello" {
		t.Errorf("got %q, want %q", note, "hello")
	}
}

func TestCipher_SealIsNonDeterministic(t *testing.T) {
	var c Cipher
	key := HashBytes("condition")
	a, _ := c.Seal([]byte("same note"), key)
	b, _ := c.Seal([]byte("same note"), key)
	if bytes.Equal(a.Cipher1, b.Cipher1) || bytes.Equal(a.Cipher2, b.Cipher2) {
		t.Error("sealing the same note twice must produce different ciphertexts")
	}
}

func TestCipher_OpenFailuresAreGeneric(t *testing.T) {
	var c Cipher
	key := HashBytes("condition")
	sealed, err := c.Seal([]byte("secret"), key)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	flip := func(b []byte) []byte {
		out := append([]byte(nil), b...)
		out[len(out)-1] ^= 0x01
		return out
	}

	cases := map[string]struct {
		sealed Sealed
		key    [32]byte
	}{
		"wrong condition key": {*sealed, HashBytes("other condition")},
		"corrupted cipher1":   {Sealed{Cipher1: flip(sealed.Cipher1), Cipher2: sealed.Cipher2, IV1: sealed.IV1, IV2: sealed.IV2}, key},
		"corrupted cipher2":   {Sealed{Cipher1: sealed.Cipher1, Cipher2: flip(sealed.Cipher2), IV1: sealed.IV1, IV2: sealed.IV2}, key},
		"corrupted iv1":       {Sealed{Cipher1: sealed.Cipher1, Cipher2: sealed.Cipher2, IV1: flip(sealed.IV1), IV2: sealed.IV2}, key},
		"short iv2":           {Sealed{Cipher1: sealed.Cipher1, Cipher2: sealed.Cipher2, IV1: sealed.IV1, IV2: sealed.IV2[:12]}, key},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			note, err := c.Open(tc.sealed, tc.key)
			if err != kerrors.ErrDecryptFailed {
				t.Fatalf("expected bare ErrDecryptFailed, got %v", err)
			}
			if note != nil {
				t.Fatalf("expected no plaintext, got %q", note)
			}
		})
	}
}

func TestCipher_ShortRandomSource(t *testing.T) {
	c := Cipher{Rand: bytes.NewReader(make([]byte, 8))}
	_, err := c.Seal([]byte("x"), HashBytes("k"))
	if !errors.Is(err, kerrors.ErrEncryptFailed) {
		t.Fatalf("expected ErrEncryptFailed, got %v", err)
	}
}
