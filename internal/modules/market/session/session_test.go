package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/session"
)

func TestIssueAndVerify(t *testing.T) {
	mgr := session.NewManager("test-secret", time.Hour)

	token, err := mgr.Issue("player-1", "AAAAAA")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "player-1", claims.PlayerID)
	assert.Equal(t, "AAAAAA", claims.RoomID)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := session.NewManager("secret-a", time.Hour).Issue("player-1", "AAAAAA")
	require.NoError(t, err)

	_, err = session.NewManager("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
}

func TestVerifyExpiredToken(t *testing.T) {
	mgr := session.NewManager("test-secret", -time.Minute)

	token, err := mgr.Issue("player-1", "AAAAAA")
	require.NoError(t, err)

	_, err = mgr.Verify(token)
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	mgr := session.NewManager("test-secret", time.Hour)

	_, err := mgr.Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
}
