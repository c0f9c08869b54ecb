// Package envelope defines the locked-note envelope and its wire format.
//
// An envelope carries both ciphertexts, their IVs, the public salt, the unlock
// condition and a signature. The signature is SHA-256 over a fixed-order tuple
// of every other field, so any change to any field is detected before
// decryption is attempted.
//
// The wire format is ENC[ + base64(JSON) + ]:
//
//	ENC[eyJ2IjoxLCJjaXBoZXIxIjoi...]
//
// Decode rejects anything that is not exactly wrapped before decoding.
package envelope
