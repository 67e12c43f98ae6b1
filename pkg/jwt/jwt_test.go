package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, err := m.GenerateToken(7, "admin", "admin", "v1")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "v1", claims.TokenVersion)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := NewManager("one", time.Hour).GenerateToken(1, "u", "cashier", "v")
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Hour)
	m.ttl = -time.Minute
	token, err := m.GenerateToken(1, "u", "cashier", "v")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateMissing(t *testing.T) {
	_, err := NewManager("secret", 0).ValidateToken("")
	require.ErrorIs(t, err, ErrMissingToken)
}
