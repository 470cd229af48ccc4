package service_token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *Issuer {
	return New(Config{
		AccessSecret:     []byte("access-secret"),
		RefreshSecret:    []byte("refresh-secret"),
		ActivationSecret: []byte("activation-secret"),
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer()
	userID := uuid.New()

	token, err := issuer.IssueAccess(userID)
	require.NoError(t, err)

	got, err := issuer.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer()
	userID := uuid.New()

	token, err := issuer.IssueRefresh(userID)
	require.NoError(t, err)

	got, err := issuer.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestExpiredAccessToken(t *testing.T) {
	issuer := New(Config{
		AccessSecret: []byte("access-secret"),
		AccessTTL:    -time.Minute,
	})

	token, err := issuer.IssueAccess(uuid.New())
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTamperedToken(t *testing.T) {
	issuer := newTestIssuer()

	token, err := issuer.IssueAccess(uuid.New())
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(token + "x")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMalformedToken(t *testing.T) {
	issuer := newTestIssuer()

	_, err := issuer.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessAndRefreshKeysAreDistinct(t *testing.T) {
	issuer := newTestIssuer()

	access, err := issuer.IssueAccess(uuid.New())
	require.NoError(t, err)

	// An access token must never pass refresh verification.
	_, err = issuer.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestActivationToken(t *testing.T) {
	issuer := newTestIssuer()
	payload := RegistrationPayload{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	}

	token, code, err := issuer.IssueActivation(payload)
	require.NoError(t, err)
	require.Len(t, code, 4)

	got, err := issuer.VerifyActivation(token, code)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestActivationCodeMismatch(t *testing.T) {
	issuer := newTestIssuer()

	token, code, err := issuer.IssueActivation(RegistrationPayload{Email: "a@b.c"})
	require.NoError(t, err)

	wrong := "0000"
	if code == wrong {
		wrong = "0001"
	}

	_, err = issuer.VerifyActivation(token, wrong)
	assert.ErrorIs(t, err, ErrActivationCodeMismatch)
}

func TestExpiredActivationToken(t *testing.T) {
	issuer := New(Config{
		ActivationSecret: []byte("activation-secret"),
		ActivationTTL:    -time.Minute,
	})

	token, code, err := issuer.IssueActivation(RegistrationPayload{Email: "a@b.c"})
	require.NoError(t, err)

	_, err = issuer.VerifyActivation(token, code)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
