package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("u-1", "alice@example.com", secret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := GetIdentityFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "alice@example.com", id.Email)
}

func TestGetIdentityFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("u-1", "alice@example.com", []byte("secret-a"), time.Minute)
	require.NoError(t, err)

	_, err = GetIdentityFromToken(token, []byte("secret-b"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestGetIdentityFromToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("u-1", "alice@example.com", secret, -time.Minute)
	require.NoError(t, err)

	_, err = GetIdentityFromToken(token, secret)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestGetIdentityFromToken_Garbage(t *testing.T) {
	_, err := GetIdentityFromToken("not.a.token", []byte("test-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
