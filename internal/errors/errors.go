package errors

import "errors"

// Envelope errors indicate the input could not be trusted as an envelope.
var (
	// ErrFormat indicates the input is not a well-formed ENC[...] envelope.
	ErrFormat = errors.New("malformed envelope")

	// ErrIntegrity indicates the envelope signature does not match its fields.
	ErrIntegrity = errors.New("envelope has been tampered with")

	// ErrUnsupportedVersion indicates the envelope schema version is unknown.
	ErrUnsupportedVersion = errors.New("unsupported envelope version")
)

// Condition errors indicate the unlock condition could not be satisfied or checked.
var (
	// ErrConditionNotMet indicates the oracles agree the unlock condition is false.
	ErrConditionNotMet = errors.New("unlock condition not met")

	// ErrOracleUnavailable indicates too few oracle sources answered to decide.
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrInvalidCondition indicates the unlock condition is incomplete or malformed.
	ErrInvalidCondition = errors.New("invalid unlock condition")

	// ErrUnknownAsset indicates the asset symbol is not in the catalog.
	ErrUnknownAsset = errors.New("unknown asset")
)

// Cryptographic errors indicate failures during encryption or decryption operations.
var (
	// ErrEncryptFailed indicates the note could not be sealed.
	ErrEncryptFailed = errors.New("failed to encrypt note")

	// ErrDecryptFailed indicates the note could not be opened. It never says which layer failed.
	ErrDecryptFailed = errors.New("failed to decrypt note")

	// ErrEmptyNote indicates there was nothing to encrypt.
	ErrEmptyNote = errors.New("note is empty")
)

// Configuration errors.
var (
	// ErrConfigInvalid indicates the configuration file holds unusable values.
	ErrConfigInvalid = errors.New("configuration is invalid")
)

// Category returns a short human-readable category for err.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFormat), errors.Is(err, ErrUnsupportedVersion):
		return "format error"
	case errors.Is(err, ErrIntegrity):
		return "integrity error"
	case errors.Is(err, ErrConditionNotMet):
		return "condition not met"
	case errors.Is(err, ErrOracleUnavailable):
		return "oracle unavailable"
	case errors.Is(err, ErrDecryptFailed):
		return "decryption error"
	case errors.Is(err, ErrInvalidCondition), errors.Is(err, ErrUnknownAsset), errors.Is(err, ErrEmptyNote):
		return "invalid input"
	case errors.Is(err, ErrEncryptFailed):
		return "encryption error"
	case errors.Is(err, ErrConfigInvalid):
		return "configuration error"
	default:
		return "internal error"
	}
}

// IsRetryable reports whether retrying the same attempt later may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOracleUnavailable) || errors.Is(err, ErrConditionNotMet)
}

// Is is errors.Is, re-exported so callers importing this package under its
// default name still have the standard helper.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
