package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Leeway tolera desfasajes de reloj en exp/nbf.
const Leeway = 30 * time.Second

// Verifier valida tokens firmados con un secreto compartido.
type Verifier struct {
	Secret   []byte
	Issuer   string // vacío = no se chequea
	Audience string // vacío = no se chequea
}

// Parse valida firma, método, exp/nbf, iss y aud. Devuelve los claims tipados.
func (v Verifier) Parse(token string) (*Claims, error) {
	if len(v.Secret) == 0 {
		return nil, errors.New("jwt: empty secret")
	}
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithLeeway(Leeway),
		jwtv5.WithExpirationRequired(),
	}
	if v.Issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwtv5.WithAudience(v.Audience))
	}

	claims := &Claims{}
	tok, err := jwtv5.ParseWithClaims(token, claims, func(*jwtv5.Token) (any, error) {
		return v.Secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwtv5.ErrTokenInvalidIssuer):
		return nil, ErrInvalidIssuer
	case errors.Is(err, jwtv5.ErrTokenInvalidAudience):
		return nil, ErrInvalidAudience
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case !tok.Valid:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Issuer firma access tokens con el mismo secreto que valida Verifier.
type Issuer struct {
	Secret    []byte
	Iss       string
	Audience  string
	AccessTTL time.Duration
	now       func() time.Time
}

func NewIssuer(secret []byte, iss, aud string) *Issuer {
	return &Issuer{Secret: secret, Iss: iss, Audience: aud, AccessTTL: 15 * time.Minute, now: time.Now}
}

// Sign completa iss/aud/iat/exp y firma. Devuelve el token y su expiración.
func (i *Issuer) Sign(c Claims) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.AccessTTL)
	c.Issuer = i.Iss
	if i.Audience != "" {
		c.Audience = jwtv5.ClaimStrings{i.Audience}
	}
	c.IssuedAt = jwtv5.NewNumericDate(now)
	c.NotBefore = jwtv5.NewNumericDate(now)
	c.ExpiresAt = jwtv5.NewNumericDate(exp)

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, c)
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, exp, nil
}
