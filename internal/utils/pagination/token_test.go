package pagination_test

import (
	"testing"
	"time"

	"github.com/storekit/storefront_backend/internal/utils/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 10, 30, 0, 123456789, time.UTC)

	token := pagination.EncodeToken(createdAt)
	decoded, err := pagination.DecodeToken(token)

	require.NoError(t, err)
	assert.True(t, createdAt.Equal(decoded))
}

func TestDecodeToken_Invalid(t *testing.T) {
	_, err := pagination.DecodeToken("not-base64!!")
	assert.Error(t, err)

	_, err = pagination.DecodeToken("aGVsbG8=") // base64 of "hello"
	assert.Error(t, err)
}
