package httpkit

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTOptions configures HS256 session token verification
type JWTOptions struct {
	Secret   []byte
	Issuer   string
	Audience string
	Leeway   time.Duration
}

var errNoSubject = errors.New("token has no subject")

// HS256Tokens verifies HS256 session tokens and returns their subject as the
// user id. A nil result means auth is disabled.
func HS256Tokens(o JWTOptions) TokenFunc {
	if len(o.Secret) == 0 {
		return nil
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(o.Leeway),
	}
	if o.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(o.Issuer))
	}
	if o.Audience != "" {
		opts = append(opts, jwt.WithAudience(o.Audience))
	}
	parser := jwt.NewParser(opts...)
	key := func(*jwt.Token) (any, error) { return o.Secret, nil }

	return func(raw string) (string, error) {
		var claims jwt.RegisteredClaims
		if _, err := parser.ParseWithClaims(raw, &claims, key); err != nil {
			return "", err
		}
		if claims.Subject == "" {
			return "", errNoSubject
		}
		return claims.Subject, nil
	}
}
