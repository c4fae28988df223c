package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RoundTrip(t *testing.T) {
	s := NewAuthService("s3cret", time.Hour)

	token, err := s.IssueToken("ops")
	require.NoError(t, err)

	claims, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestAuthService_Rejects(t *testing.T) {
	s := NewAuthService("s3cret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewAuthService("other", time.Hour).IssueToken("ops")
		require.NoError(t, err)
		_, err = s.ParseToken(other)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewAuthService("s3cret", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := old.IssueToken("ops")
		require.NoError(t, err)
		_, err = s.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.ParseToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty subject", func(t *testing.T) {
		_, err := s.IssueToken("")
		assert.Error(t, err)
	})
}

func TestAuthService_Disabled(t *testing.T) {
	s := NewAuthService("", time.Hour)
	assert.False(t, s.Enabled())

	_, err := s.IssueToken("ops")
	assert.ErrorIs(t, err, ErrAuthDisabled)
	_, err = s.ParseToken("x")
	assert.ErrorIs(t, err, ErrAuthDisabled)
}
