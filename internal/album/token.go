package album

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// authTokenExpired reports whether a cached authorization token has already
// expired. The claims are parsed without signature verification — the
// server is the authority on validity, this is only a pre-check that saves
// a guaranteed-to-fail listing pull. Tokens that don't parse are treated as
// expired; tokens without an exp claim as still valid.
func authTokenExpired(token string) bool {
	claims := jwt.MapClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(time.Now())
}
