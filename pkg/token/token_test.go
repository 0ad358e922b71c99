package token_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/grantgate/pkg/token"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("produces URL-safe output of expected length", func(t *testing.T) {
		t.Parallel()

		tok, err := token.New(token.CodeLength)
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, token.CodeLength)
	})

	t.Run("rejects lengths below 128 bits", func(t *testing.T) {
		t.Parallel()

		_, err := token.New(15)
		assert.Error(t, err)
	})

	t.Run("does not repeat", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]struct{}, 1000)
		for i := 0; i < 1000; i++ {
			tok, err := token.New(16)
			require.NoError(t, err)
			_, dup := seen[tok]
			require.False(t, dup, "token collision")
			seen[tok] = struct{}{}
		}
	})
}

func TestNewCode(t *testing.T) {
	t.Parallel()

	code, err := token.NewCode()
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.NotContains(t, code, "=")
	assert.NotContains(t, code, "/")
	assert.NotContains(t, code, "+")
}

func TestNewState(t *testing.T) {
	t.Parallel()

	a, err := token.NewState()
	require.NoError(t, err)
	b, err := token.NewState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
