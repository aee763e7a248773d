package jwt

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func testIssuer(now time.Time) *Issuer {
	iss := NewIssuer(secret, "tenantadmin", "tenantadmin-api")
	iss.now = func() time.Time { return now }
	return iss
}

func TestSignParse_RoundTrip(t *testing.T) {
	tok, exp, err := testIssuer(time.Now()).Sign(Claims{
		Email:            "root@acme.test",
		TenantID:         "t-1",
		Roles:            []string{"TenantAdmin"},
		RegisteredClaims: jwtv5.RegisteredClaims{Subject: "u-1"},
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, time.Minute)

	c, err := Verifier{Secret: secret, Issuer: "tenantadmin", Audience: "tenantadmin-api"}.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.Subject)
	assert.Equal(t, "t-1", c.TenantID)
	assert.True(t, c.HasRole("tenantadmin"))
	assert.False(t, c.HasRole("User"))
}

func TestParse_Rejects(t *testing.T) {
	good, _, err := testIssuer(time.Now()).Sign(Claims{})
	require.NoError(t, err)
	expired, _, err := testIssuer(time.Now().Add(-time.Hour)).Sign(Claims{})
	require.NoError(t, err)

	noExp, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{"sub": "x"}).SignedString(secret)
	require.NoError(t, err)
	hs512, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS512, jwtv5.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name string
		tok  string
		v    Verifier
		want error
	}{
		{"wrong secret", good, Verifier{Secret: []byte("another-secret-another-secret-xx")}, ErrInvalidToken},
		{"expired", expired, Verifier{Secret: secret}, ErrInvalidToken},
		{"no exp", noExp, Verifier{Secret: secret}, ErrInvalidToken},
		{"other alg", hs512, Verifier{Secret: secret}, ErrInvalidToken},
		{"garbage", "a.b.c", Verifier{Secret: secret}, ErrInvalidToken},
		{"issuer", good, Verifier{Secret: secret, Issuer: "other"}, ErrInvalidIssuer},
		{"audience", good, Verifier{Secret: secret, Audience: "other"}, ErrInvalidAudience},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.v.Parse(tt.tok)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_EmptySecret(t *testing.T) {
	_, err := Verifier{}.Parse("x")
	require.Error(t, err)
}
