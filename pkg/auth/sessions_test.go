package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func Test_Sessions_IssueAndVerify(t *testing.T) {
	// given
	sessions, err := NewSessions(testSecret, "catalogdesk", time.Hour)
	require.NoError(t, err)

	// when
	token, expiresAt, err := sessions.Issue("user@example.com")
	require.NoError(t, err)
	subject, err := sessions.Verify(context.Background(), token)

	// then
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)
}

func Test_Sessions_Verify(t *testing.T) {
	issuer, err := NewSessions(testSecret, "catalogdesk", time.Hour)
	require.NoError(t, err)
	token, _, err := issuer.Issue("user@example.com")
	require.NoError(t, err)

	otherKey, err := NewSessions(strings.Repeat("x", 32), "catalogdesk", time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewSessions(testSecret, "someone-else", time.Hour)
	require.NoError(t, err)
	later, err := NewSessions(testSecret, "catalogdesk", time.Hour)
	require.NoError(t, err)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	testCases := []struct {
		name     string
		verifier *Sessions
		token    string
	}{
		{name: "Error - wrong key", verifier: otherKey, token: token},
		{name: "Error - wrong issuer", verifier: otherIssuer, token: token},
		{name: "Error - expired", verifier: later, token: token},
		{name: "Error - garbage", verifier: issuer, token: "not-a-token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			subject, err := tc.verifier.Verify(context.Background(), tc.token)
			// then
			assert.Error(t, err)
			assert.Empty(t, subject)
		})
	}
}

func Test_NewSessions_ShortSecret(t *testing.T) {
	_, err := NewSessions("short", "catalogdesk", time.Hour)
	assert.Error(t, err)
}
