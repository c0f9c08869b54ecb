package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/PolarWolf314/condlock/internal/catalog"
	"github.com/PolarWolf314/condlock/internal/conditions"
	"github.com/PolarWolf314/condlock/internal/oracle"
	"github.com/PolarWolf314/condlock/internal/workflows"
)

// EncryptRequest is the body of POST /v1/encrypt. Prices may be sent as JSON
// numbers or strings.
type EncryptRequest struct {
	Note        string      `json:"note"`
	Asset       string      `json:"asset,omitempty"`
	TargetPrice json.Number `json:"targetPrice,omitempty"`
	MinPrice    json.Number `json:"minPrice,omitempty"`
	UnlockTime  *time.Time  `json:"unlockTime,omitempty"`
}

// EncryptResponse is returned by POST /v1/encrypt.
type EncryptResponse struct {
	Envelope  string               `json:"envelope"`
	Digest    string               `json:"digest"`
	Condition conditions.Condition `json:"condition"`
}

// EnvelopeRequest is the body of POST /v1/decrypt and POST /v1/inspect.
type EnvelopeRequest struct {
	Envelope string `json:"envelope"`
}

// DecryptResponse is returned by POST /v1/decrypt.
type DecryptResponse struct {
	Note      string               `json:"note"`
	Digest    string               `json:"digest"`
	Condition conditions.Condition `json:"condition"`
	Report    *oracle.Report       `json:"report,omitempty"`
	Messages  []string             `json:"messages,omitempty"`
}

// AssetsResponse is returned by GET /v1/assets.
type AssetsResponse struct {
	Assets []catalog.Asset `json:"assets"`
}

const (
	defaultAssetLimit = 20
	maxAssetLimit     = 200
)

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := workflows.Encrypt(r.Context(), workflows.EncryptOptions{
		Note:        []byte(req.Note),
		Asset:       req.Asset,
		TargetPrice: req.TargetPrice.String(),
		MinPrice:    req.MinPrice.String(),
		UnlockAt:    req.UnlockTime,
		Catalog:     s.opts.Catalog,
		History:     s.opts.History,
	})
	if err != nil {
		s.fail(w, r, "encrypt", err)
		return
	}

	writeJSON(w, http.StatusCreated, EncryptResponse{
		Envelope:  res.Envelope,
		Digest:    res.Digest,
		Condition: res.Condition,
	})
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	var req EnvelopeRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, cancel := s.roundContext(r)
	defer cancel()

	res, err := workflows.Decrypt(ctx, workflows.DecryptOptions{
		Envelope: req.Envelope,
		Checker:  s.opts.Checker,
		History:  s.opts.History,
	})
	if err != nil {
		s.fail(w, r, "decrypt", err)
		return
	}

	writeJSON(w, http.StatusOK, DecryptResponse{
		Note:      string(res.Note),
		Digest:    res.Digest,
		Condition: res.Condition,
		Report:    res.Report,
		Messages:  res.Messages,
	})
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	var req EnvelopeRequest
	if !s.decode(w, r, &req) {
		return
	}

	opts := workflows.InspectOptions{Envelope: req.Envelope, History: s.opts.History}
	if r.URL.Query().Get("check") != "false" {
		opts.Checker = s.opts.Checker
	}

	ctx, cancel := s.roundContext(r)
	defer cancel()

	res, err := workflows.Inspect(ctx, opts)
	if err != nil {
		s.fail(w, r, "inspect", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	limit := defaultAssetLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAssetLimit)
	}

	assets := s.opts.Catalog.Search(r.URL.Query().Get("q"), limit)
	if assets == nil {
		assets = []catalog.Asset{}
	}
	writeJSON(w, http.StatusOK, AssetsResponse{Assets: assets})
}

// decode reads a JSON body strictly. It writes the problem response itself
// and reports false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeProblem(w, r, &ProblemDetail{
				Status:   http.StatusRequestEntityTooLarge,
				Title:    "Request Entity Too Large",
				Detail:   fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Category: "invalid input",
			})
		case errors.Is(err, io.EOF):
			writeBadRequest(w, r, "request body is empty")
		default:
			writeBadRequest(w, r, "invalid JSON body: "+err.Error())
		}
		return false
	}
	if dec.More() {
		writeBadRequest(w, r, "request body must contain a single JSON object")
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.opts.Logger.Infof("%s failed (request %s): %v", op, w.Header().Get(requestIDHeader), err)
	writeError(w, r, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
