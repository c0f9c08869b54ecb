// Package errors provides typed error values for condlock.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Format errors: the input is not an ENC[...] envelope (ErrFormat)
//   - Integrity errors: the signature does not match (ErrIntegrity)
//   - Condition errors: the oracles say "not yet" (ErrConditionNotMet) or
//     could not answer (ErrOracleUnavailable, retryable)
//   - Crypto errors: decryption failed despite the condition being met
//     (ErrDecryptFailed); the message never names the failing layer
//
// # Usage
//
// Wrap sentinels with additional context:
//
//	return nil, fmt.Errorf("%w: iv1 must be 16 bytes", kerrors.ErrFormat)
//
// Handle them in the CLI or API layer:
//
//	if errors.Is(err, kerrors.ErrOracleUnavailable) {
//	    // tell the user to try again
//	}
//
// Category() maps any error to the human-readable label shown to users.
package errors
