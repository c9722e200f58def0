package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
)

// DigestHeader carries the hex HMAC-SHA256 digest of the request body,
// computed by the updater with the shared key.
const DigestHeader = "X-HMAC-Digest-Hex"

// VerifyIntegrity authenticates build submissions: the body must carry a
// valid HMAC digest under DigestHeader. The body is re-buffered so the next
// handler can read it normally.
func VerifyIntegrity(keyHex string) (func(http.Handler) http.Handler, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("HMAC key is not valid hex: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			digestHeader := r.Header.Get(DigestHeader)
			if digestHeader == "" {
				http.Error(w, fmt.Sprintf("HMAC digest was not included in the %s header", DigestHeader), http.StatusBadRequest)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			mac := hmac.New(sha256.New, key)
			mac.Write(body)
			expected := hex.EncodeToString(mac.Sum(nil))

			if !hmac.Equal([]byte(digestHeader), []byte(expected)) {
				http.Error(w, "wrong HMAC digest", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
