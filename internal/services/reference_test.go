package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTransactionReference_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		ref := GenerateTransactionReference()
		assert.Regexp(t, `^FLW-[0-9A-F]{12}$`, ref)
	}
}

func TestGenerateTransactionReference_Uniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		ref := GenerateTransactionReference()
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s after %d generations", ref, i)
		seen[ref] = struct{}{}
	}
}
