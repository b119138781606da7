package yandex

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_TokenIsCachedUntilExpiry(t *testing.T) {
	calls := 0
	c := &Client{
		refresh: func() (string, error) {
			calls++
			return "tok", nil
		},
	}

	for i := 0; i < 3; i++ {
		tok, err := c.token()
		require.NoError(t, err)
		assert.Equal(t, "tok", tok)
	}
	assert.Equal(t, 1, calls)

	c.issuedAt = time.Now().Add(-tokenTTL - time.Minute)
	_, err := c.token()
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestClient_TokenRefreshError(t *testing.T) {
	c := &Client{
		refresh: func() (string, error) {
			return "", errors.New("oauth revoked")
		},
	}

	_, err := c.token()
	assert.ErrorContains(t, err, "oauth revoked")
	assert.Empty(t, c.iamToken)
}
