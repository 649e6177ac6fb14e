// Package common defines shared constants and sentinel errors used across
// the wardrive sync engine. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Channel-level errors.
	ErrConnection = errors.New("connection failed")
	ErrRemoteExec = errors.New("remote command failed")
	ErrTransport  = errors.New("transfer failed")

	// Verification errors (hash mismatch after transfer; the remote copy
	// must be preserved).
	ErrHashMismatch = errors.New("hash mismatch")

	// Ingestion API errors. ErrAuth is terminal and must never be retried;
	// ErrTransient may be retried within the configured bound.
	ErrAuth      = errors.New("authentication rejected")
	ErrTransient = errors.New("transient api error")
)

// Retryable reports whether err represents a failure worth retrying:
// transport-level transfer failures and transient API errors. Auth
// rejections, verification mismatches and remote exec failures are not.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrTransient)
}
