package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignParseRoundTrip(t *testing.T) {
	s, err := NewSigner("secret")
	require.NoError(t, err)

	tok, err := s.Sign("editor", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := s.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "editor", claims.Subject)
	require.Equal(t, "admin", claims.Role)
}

func TestParseRejects(t *testing.T) {
	s, err := NewSigner("secret")
	require.NoError(t, err)
	other, err := NewSigner("other")
	require.NoError(t, err)

	tok, err := other.Sign("editor", "admin", time.Hour)
	require.NoError(t, err)
	_, err = s.Parse(tok)
	require.Error(t, err)

	expired, err := s.Sign("editor", "admin", time.Hour)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Parse(expired)
	require.Error(t, err)

	_, err = NewSigner("")
	require.ErrorIs(t, err, ErrEmptySecret)
}
