package tokenizer

import (
	"testing"
	"time"

	"github.com/layer-3/recipebook/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(now time.Time) *core.Session {
	return &core.Session{
		ID:            "sid-1",
		Username:      "alice",
		IssuedAt:      now,
		AccessExpiry:  now.Add(5 * time.Minute),
		RefreshExpiry: now.Add(time.Hour),
		RefreshID:     "rid-1",
	}
}

func TestJWTTokenizer_AccessToken(t *testing.T) {
	tok := NewJWTTokenizer([]byte("0123456789abcdef0123456789abcdef"))
	session := testSession(time.Now().Truncate(time.Second))

	raw, err := tok.SessionToAccessToken(session)
	require.NoError(t, err)

	got, err := tok.AccessTokenToSession(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "sid-1", got.ID)
	assert.Equal(t, "rid-1", got.RefreshID)
	assert.True(t, got.AccessExpiry.Equal(session.AccessExpiry))
}

func TestJWTTokenizer_RefreshToken(t *testing.T) {
	tok := NewJWTTokenizer([]byte("0123456789abcdef0123456789abcdef"))
	session := testSession(time.Now().Truncate(time.Second))

	raw, err := tok.SessionToRefreshToken(session)
	require.NoError(t, err)

	got, err := tok.RefreshTokenToSession(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "rid-1", got.RefreshID)
	assert.True(t, got.AccessExpiry.IsZero())
}

func TestJWTTokenizer_Rejects(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	tok := NewJWTTokenizer(key)
	now := time.Now()

	access, err := tok.SessionToAccessToken(testSession(now))
	require.NoError(t, err)
	refresh, err := tok.SessionToRefreshToken(testSession(now))
	require.NoError(t, err)

	t.Run("audience mismatch", func(t *testing.T) {
		_, err := tok.AccessTokenToSession(refresh)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		_, err = tok.RefreshTokenToSession(access)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewJWTTokenizer([]byte("another-key-another-key-another-k"))
		_, err := other.AccessTokenToSession(access)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		session := testSession(now.Add(-time.Hour))
		session.AccessExpiry = now.Add(-time.Minute)
		expired, err := tok.SessionToAccessToken(session)
		require.NoError(t, err)

		_, err = tok.AccessTokenToSession(expired)
		assert.ErrorIs(t, err, core.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tok.AccessTokenToSession("T1")
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})
}
