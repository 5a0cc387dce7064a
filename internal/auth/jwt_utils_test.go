package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, expires, err := issuer.Issue("session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	sid, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", sid)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	good, _, err := issuer.Issue("session-1")
	require.NoError(t, err)

	expired := NewTokenIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("session-1")
	require.NoError(t, err)

	other, _, err := NewTokenIssuer("other-secret", time.Hour).Issue("session-1")
	require.NoError(t, err)

	second, _, err := issuer.Issue("session-2")
	require.NoError(t, err)
	g, sec := strings.Split(good, "."), strings.Split(second, ".")
	tampered := strings.Join([]string{g[0], sec[1], g[2]}, ".")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &SessionClaims{SessionID: "session-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"expired", old},
		{"wrong key", other},
		{"alg none", unsigned},
		{"tampered", tampered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenIssuer_RequiresSessionID(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, _, err := issuer.Issue("")
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
