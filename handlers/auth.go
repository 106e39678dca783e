package handlers

import (
	"crypto/subtle"
	"fmt"

	"discoveryserver/helpers"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"
)

const authRealm = "discovery-server"

// HashPassword hashes the configured password once at start-up; requests are checked against the hash.
func HashPassword(password string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(helpers.StrPanic(password, "handlers.auth.go: password is required")), cost)
	if err != nil {
		return nil, fmt.Errorf("can't hash password: %w", err)
	}
	return hash, nil
}

// NewBasicAuth returns a middleware requiring HTTP Basic credentials on every path except publicPaths.
func NewBasicAuth(username string, passwordHash []byte, publicPaths ...string) echo.MiddlewareFunc {
	username = helpers.StrPanic(username, "handlers.auth.go: username is required")
	passwordHash = helpers.NilPanic(passwordHash, "handlers.auth.go: password hash is required")
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}

	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: authRealm,
		Skipper: func(c echo.Context) bool {
			_, ok := public[c.Request().URL.Path]
			return ok
		},
		Validator: func(user, password string, _ echo.Context) (bool, error) {
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passOK := bcrypt.CompareHashAndPassword(passwordHash, []byte(password)) == nil
			return userOK && passOK, nil
		},
	})
}
