package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/oracle"
	"github.com/PolarWolf314/condlock/internal/workflows"
)

// ProblemDetail implements RFC 7807 (Problem Details for HTTP APIs).
// All API error responses use this format.
type ProblemDetail struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`
	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`
	// Status is the HTTP status code.
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`
	// Instance is the request path.
	Instance string `json:"instance,omitempty"`
	// RequestID echoes the X-Request-ID of the request.
	RequestID string `json:"request_id,omitempty"`

	// Category is the condlock error category, e.g. "condition not met".
	Category string `json:"category,omitempty"`
	// Report and Messages are set when a note stays locked.
	Report   *oracle.Report `json:"report,omitempty"`
	Messages []string       `json:"messages,omitempty"`
}

// Error implements the error interface.
func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// unavailableRetryAfter is suggested to clients when the oracles could not decide.
const unavailableRetryAfter = "30"

func writeProblem(w http.ResponseWriter, r *http.Request, p *ProblemDetail) {
	p.Type = fmt.Sprintf("https://github.com/PolarWolf314/condlock/blob/main/docs/errors.md#%d", p.Status)
	p.Instance = r.URL.Path
	p.RequestID = w.Header().Get(requestIDHeader)

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// writeError maps err onto a problem response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := &ProblemDetail{Category: kerrors.Category(err), Detail: err.Error()}

	var locked *workflows.LockedError
	if errors.As(err, &locked) {
		p.Report, p.Messages = locked.Report, locked.Messages
	}

	switch {
	case errors.Is(err, kerrors.ErrFormat), errors.Is(err, kerrors.ErrUnsupportedVersion):
		p.Status, p.Title = http.StatusBadRequest, "Malformed Envelope"
	case errors.Is(err, kerrors.ErrInvalidCondition), errors.Is(err, kerrors.ErrEmptyNote), errors.Is(err, kerrors.ErrUnknownAsset):
		p.Status, p.Title = http.StatusBadRequest, "Invalid Request"
	case errors.Is(err, kerrors.ErrIntegrity):
		p.Status, p.Title = http.StatusConflict, "Envelope Tampered"
	case errors.Is(err, kerrors.ErrConditionNotMet):
		p.Status, p.Title = http.StatusLocked, "Condition Not Met"
	case errors.Is(err, kerrors.ErrOracleUnavailable):
		p.Status, p.Title = http.StatusServiceUnavailable, "Oracle Unavailable"
		w.Header().Set("Retry-After", unavailableRetryAfter)
	case errors.Is(err, kerrors.ErrDecryptFailed):
		p.Status, p.Title = http.StatusUnprocessableEntity, "Decryption Failed"
	default:
		// Never expose internal errors to the client.
		p.Status, p.Title = http.StatusInternalServerError, "Internal Server Error"
		p.Detail = "An unexpected error occurred. Please try again later."
	}
	writeProblem(w, r, p)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, &ProblemDetail{Status: http.StatusBadRequest, Title: "Bad Request", Detail: detail, Category: "invalid input"})
}

func writeTooManyRequests(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	writeProblem(w, r, &ProblemDetail{
		Status: http.StatusTooManyRequests,
		Title:  "Too Many Requests",
		Detail: "Rate limit exceeded. Retry after the specified interval.",
	})
}
