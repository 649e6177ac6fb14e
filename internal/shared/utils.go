// Package shared provides small helpers for secure memory handling.
package shared

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Use it on password and token buffers as soon as their contents have
// been consumed, so secrets do not linger in memory longer than needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
