package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/breakhq/break-pos/internal/domain/auth"
)

// APIKeyAuth returns a middleware that authenticates requests via the
// api_key header, matching its HMAC-SHA256 (keyed by pepper) against the
// stored key hashes.
func APIKeyAuth(apikeys auth.Repository, pepper []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("api_key")
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing api key")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			k, err := apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			// Constant-time comparison guards against timing side-channels
			// even though the lookup already succeeded.
			stored, err := hex.DecodeString(k.Hash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
