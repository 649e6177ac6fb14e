package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray(t *testing.T) {
	b := []byte("s3cret-token")
	WipeByteArray(b)
	assert.Equal(t, make([]byte, len(b)), b)
}

func TestWipeByteArrayEmpty(t *testing.T) {
	assert.NotPanics(t, func() { WipeByteArray(nil) })
}
