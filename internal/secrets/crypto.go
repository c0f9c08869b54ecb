package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/condlock/internal/errors"
)

const (
	// ContentKeySize is the size of the random key that encrypts the note.
	ContentKeySize = 32

	// IVSize is the size of each layer's random IV.
	IVSize = 16
)

var (
	layer1AAD = []byte("condlock/layer1/note")
	layer2AAD = []byte("condlock/layer2/content-key")
)

// Sealed holds the two ciphertexts and their IVs.
type Sealed struct {
	Cipher1 []byte // note under the content key
	Cipher2 []byte // content key under the condition key
	IV1     []byte
	IV2     []byte
}

// Cipher is the two-layer envelope cipher. The zero value uses crypto/rand.
type Cipher struct {
	// Rand is the source of keys and IVs. Tests may substitute a deterministic reader.
	Rand io.Reader
}

func (c Cipher) random() io.Reader {
	if c.Rand != nil {
		return c.Rand
	}
	return rand.Reader
}

// CreateSymmetricKey generates a new random content key.
func (c Cipher) CreateSymmetricKey() ([]byte, error) {
	symKey := make([]byte, ContentKeySize) // AES-256
	if _, err := io.ReadFull(c.random(), symKey); err != nil {
		return nil, err
	}
	return symKey, nil
}

// NewSalt generates a fresh public salt for the condition-key derivation.
func (c Cipher) NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(c.random(), salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Seal encrypts note under a fresh content key (layer 1) and the content key
// under conditionKey (layer 2).
func (c Cipher) Seal(note []byte, conditionKey [32]byte) (*Sealed, error) {
	// 1. create content key in memory
	contentKey, err := c.CreateSymmetricKey()
	if err != nil {
		return nil, fmt.Errorf("%w: generating content key: %v", kerrors.ErrEncryptFailed, err)
	}
	defer zero(contentKey)

	// 2. encrypt the note with the content key
	iv1, cipher1, err := c.encrypt(contentKey, note, layer1AAD)
	if err != nil {
		return nil, fmt.Errorf("%w: layer 1: %v", kerrors.ErrEncryptFailed, err)
	}

	// 3. wrap the content key with the condition key
	iv2, cipher2, err := c.encrypt(conditionKey[:], contentKey, layer2AAD)
	if err != nil {
		return nil, fmt.Errorf("%w: layer 2: %v", kerrors.ErrEncryptFailed, err)
	}

	return &Sealed{Cipher1: cipher1, Cipher2: cipher2, IV1: iv1, IV2: iv2}, nil
}

// Open reverses Seal. Callers must only call it once the unlock condition has
// been confirmed. Every failure is reported as ErrDecryptFailed without saying
// which layer failed.
func (c Cipher) Open(s Sealed, conditionKey [32]byte) ([]byte, error) {
	contentKey, err := decrypt(conditionKey[:], s.IV2, s.Cipher2, layer2AAD)
	if err != nil || len(contentKey) != ContentKeySize {
		return nil, kerrors.ErrDecryptFailed
	}
	defer zero(contentKey)

	note, err := decrypt(contentKey, s.IV1, s.Cipher1, layer1AAD)
	if err != nil {
		return nil, kerrors.ErrDecryptFailed
	}
	return note, nil
}

func (c Cipher) encrypt(key, plaintext, aad []byte) (iv, ciphertext []byte, err error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, nil, err
	}

	iv = make([]byte, IVSize)
	if _, err := io.ReadFull(c.random(), iv); err != nil {
		return nil, nil, fmt.Errorf("failed on ReadFull method: %w", err)
	}

	return iv, aead.Seal(nil, iv, plaintext, aad), nil
}

func decrypt(key, iv, ciphertext, aad []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", IVSize, len(iv))
	}
	return aead.Open(nil, iv, ciphertext, aad)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid symmetric key length: expected 32 bytes, got %d bytes", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, IVSize)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
