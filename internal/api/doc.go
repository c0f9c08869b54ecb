// Package api serves the encrypt, decrypt and inspect workflows as a local
// JSON API.
//
// Routes:
//
//	POST /v1/encrypt   lock a note behind a condition
//	POST /v1/decrypt   open a note whose condition holds
//	POST /v1/inspect   describe an envelope, optionally checking its condition
//	GET  /v1/assets    search the asset catalog (?q=BTC&limit=20)
//	GET  /healthz      liveness
//	GET  /metrics      Prometheus metrics
//
// Errors are RFC 7807 problem documents. A note that stays locked is reported
// as 423 Locked with the oracle report attached, and an undecidable round as
// 503 with Retry-After.
package api
