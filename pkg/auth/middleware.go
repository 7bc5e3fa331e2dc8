// Package auth provides the HTTP bearer-token middleware. Tokens carry
// the caller identity that the steward's authorization policy judges;
// the middleware only establishes WHO is calling, never WHAT they may do.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Cairn-Labs/listing-steward/pkg/api"
	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// StewardClaims are the JWT claims expected by the steward API. The
// subject claim is the caller's on-network identity.
type StewardClaims struct {
	jwt.RegisteredClaims
	Network string `json:"network,omitempty"`
}

// Verifier validates bearer tokens.
type Verifier struct {
	keyfunc jwt.Keyfunc
	methods []string
}

// NewHMACVerifier creates a verifier for HS256 tokens signed with the
// shared secret.
func NewHMACVerifier(secret []byte) *Verifier {
	if len(secret) == 0 {
		return nil
	}
	return &Verifier{
		keyfunc: func(*jwt.Token) (any, error) { return secret, nil },
		methods: []string{jwt.SigningMethodHS256.Alg()},
	}
}

// Validate parses and validates a token string.
func (v *Verifier) Validate(tokenStr string) (*StewardClaims, error) {
	if v == nil || v.keyfunc == nil {
		return nil, fmt.Errorf("verifier uninitialized")
	}

	claims := &StewardClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, v.keyfunc, jwt.WithValidMethods(v.methods))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// publicPaths are endpoints that do not require authentication.
var publicPaths = []string{
	"/health",
	"/readiness",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// NewMiddleware creates bearer auth middleware. If verifier is nil, all
// non-public requests are rejected (fail closed).
func NewMiddleware(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.WriteUnauthorized(w, "Missing Authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				api.WriteUnauthorized(w, "Invalid Authorization header format (expected 'Bearer <token>')")
				return
			}

			if verifier == nil {
				api.WriteUnauthorized(w, "Authentication not configured")
				return
			}

			claims, err := verifier.Validate(parts[1])
			if err != nil {
				api.WriteUnauthorized(w, "Invalid or expired token")
				return
			}
			if claims.Subject == "" {
				api.WriteUnauthorized(w, "Token subject is required")
				return
			}

			ctx := api.WithCaller(r.Context(), contracts.Identity(claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
