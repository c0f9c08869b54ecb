// Package utils provides shared utility functions for condlock.
//
// # HTTP Utilities
//
//   - GetJSON: GET a URL and decode the JSON body, with a User-Agent and a
//     body size limit; non-2xx responses become *HTTPStatusError
//
// # String Utilities
//
//   - FormatList, FormatPaths: indented bullet lists for CLI output
//   - Ellipsize: shortens long envelopes for display
//
// # I/O Utilities
//
//   - ReadStdin: reads piped data from standard input
//   - ReadEnvelopeInput: reads and trims an ENC[...] string
//
// # Terminal Utilities
//
//   - ReadHidden: prompts for a note without echoing it
//   - IsTerminal, IsStdoutTerminal: terminal detection
//   - WriteToTTY: writes a decrypted note straight to the terminal
package utils
