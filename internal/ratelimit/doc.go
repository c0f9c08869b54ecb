// Package ratelimit provides a token-bucket limiter keyed by string, used per
// client address by the HTTP API and per upstream host by the oracle sources.
package ratelimit
