package middleware_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smitebuilds/backend/internal/api/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "6b6579"

func digestFor(keyHex, body string) string {
	key, _ := hex.DecodeString(keyHex)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func verified(t *testing.T, next http.Handler) http.Handler {
	t.Helper()
	mw, err := middleware.VerifyIntegrity(testKeyHex)
	require.NoError(t, err)
	return mw(next)
}

func TestVerifyIntegrity_ValidDigestPasses(t *testing.T) {
	body := `{"builds":[]}`
	var seenBody string
	handler := verified(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seenBody = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/builds", strings.NewReader(body))
	req.Header.Set(middleware.DigestHeader, digestFor(testKeyHex, body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	// The middleware consumed the body; the handler must still see it.
	assert.Equal(t, body, seenBody)
}

func TestVerifyIntegrity_MissingDigestRejected(t *testing.T) {
	handler := verified(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/builds", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyIntegrity_WrongDigestRejected(t *testing.T) {
	handler := verified(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/builds", strings.NewReader(`{"builds":[]}`))
	req.Header.Set(middleware.DigestHeader, digestFor(testKeyHex, "a different body"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "wrong HMAC digest")
}

func TestVerifyIntegrity_BadKeyHex(t *testing.T) {
	_, err := middleware.VerifyIntegrity("not hex")
	assert.Error(t, err)
}
