// Package workflows provides high-level orchestration for condlock commands.
//
// Workflows coordinate the conditions, envelope, oracle and audit packages to
// implement complete user-facing features. Each workflow handles a single
// command's business logic, independent of CLI concerns like flag parsing,
// spinners, and output formatting. The HTTP API calls the same functions.
//
// # Available Workflows
//
//   - Encrypt: locks a note behind a time and/or price condition
//   - Decrypt: verifies an envelope, asks the oracles, and opens the note if
//     the condition holds
//   - Inspect: verifies an envelope and optionally reports the condition
//     status without decrypting
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package. A note that
// stays locked is reported as a *LockedError, which wraps either
// ErrConditionNotMet or ErrOracleUnavailable and carries the oracle report:
//
//	_, err := workflows.Decrypt(ctx, opts)
//	var locked *workflows.LockedError
//	if errors.As(err, &locked) {
//	    for _, msg := range locked.Messages {
//	        fmt.Println(msg)
//	    }
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// It bounds the oracle round.
package workflows
