package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// requireToken wraps next with bearer token authentication. Failures get a
// JSON-RPC 2.0 error body with status 401. An empty secret rejects every
// request, so the bridge must be opted into explicitly.
//
// With allowQuery set the token may also come from the "token" query
// parameter, for WebSocket clients that cannot set headers.
func requireToken(secret string, allowQuery bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok && allowQuery {
			token, ok = r.URL.Query().Get("token"), true
		}
		if !ok || !validToken(secret, token) {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"error": map[string]any{
			"code":    -32600,
			"message": "Unauthorized",
		},
		"id": nil,
	})
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}

// validToken compares in constant time. An empty secret never matches.
func validToken(secret, token string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
