package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", 15*time.Minute, "")
	user := uuid.New()

	token, err := m.GenerateAccessToken(user, "dr@example.org", "doctor")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user, claims.UserID)
	assert.Equal(t, "dr@example.org", claims.Email)
	assert.Equal(t, "medical-scribe", claims.Issuer)
	assert.Equal(t, user.String(), claims.Subject)
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	token, err := NewManager("one", time.Minute, "").GenerateAccessToken(uuid.New(), "", "")
	require.NoError(t, err)

	_, err = NewManager("two", time.Minute, "").ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Minute, "")
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := m.GenerateAccessToken(uuid.New(), "", "")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestManager_RejectsOtherIssuer(t *testing.T) {
	token, err := NewManager("secret", time.Minute, "someone-else").GenerateAccessToken(uuid.New(), "", "")
	require.NoError(t, err)

	_, err = NewManager("secret", time.Minute, "medical-scribe").ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsGarbage(t *testing.T) {
	_, err := NewManager("secret", time.Minute, "").ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
