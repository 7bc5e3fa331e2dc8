package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cairn-Labs/listing-steward/pkg/api"
	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func mintToken(t *testing.T, secret []byte, subject string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, StewardClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Network: "mainnet",
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func echoCallerHandler(t *testing.T, want contracts.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := api.CallerFrom(r.Context())
		require.NoError(t, err)
		assert.Equal(t, want, caller)
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewarePublicPathBypassesAuth(t *testing.T) {
	handler := NewMiddleware(NewHMACVerifier(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareMissingHeader(t *testing.T) {
	handler := NewMiddleware(NewHMACVerifier(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/proposals", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestMiddlewareMalformedHeader(t *testing.T) {
	handler := NewMiddleware(NewHMACVerifier(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/proposals", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareNilVerifierFailsClosed(t *testing.T) {
	handler := NewMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/proposals", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "0xabc", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsWrongKey(t *testing.T) {
	handler := NewMiddleware(NewHMACVerifier(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/proposals", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, []byte("another-secret-another-secret!!!"), "0xabc", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	handler := NewMiddleware(NewHMACVerifier(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/proposals", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "0xabc", time.Now().Add(-time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareInjectsCaller(t *testing.T) {
	handler := NewMiddleware(NewHMACVerifier(testSecret))(echoCallerHandler(t, "0xa11ce"))

	req := httptest.NewRequest(http.MethodPost, "/v1/proposals", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "0xa11ce", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareRejectsEmptySubject(t *testing.T) {
	handler := NewMiddleware(NewHMACVerifier(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/proposals", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
