// Package configs manages the user configuration for condlock.
//
// Configuration is a single TOML file, by default
// $XDG_CONFIG_HOME/condlock/config.toml, with three tables:
//
//   - [oracle]: quorum, degraded mode, timeouts, retries, enabled sources and
//     per-class price tolerances
//   - [catalog]: whether to fetch the asset list online and from where
//   - [server]: listen address, request rate limits and body size for `condlock serve`
//
// A missing file is not an error; Load returns Default(). Values present in
// the file override the defaults key by key, and unknown keys are rejected so
// that typos do not silently fall back to defaults.
//
// Durations are written as strings understood by time.ParseDuration:
//
//	[oracle]
//	source_timeout = "8s"
//	time_tolerance = "30m0s"
//
// # Settings
//
// ResolveUserSettings derives the config and state directories from the XDG
// base directory variables. The state directory holds the activity history.
package configs
