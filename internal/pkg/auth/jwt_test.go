package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "roomdesk", time.Minute)

	token, err := m.GenerateAccessToken("alice", RoleAdmin)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", "roomdesk", time.Minute)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other", "roomdesk", time.Minute)
		token, err := other.GenerateAccessToken("alice", RoleMember)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager("secret", "roomdesk", -time.Minute)
		token, err := expired.GenerateAccessToken("alice", RoleMember)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTManager("secret", "elsewhere", time.Minute)
		token, err := other.GenerateAccessToken("alice", RoleMember)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
