package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer ", "", true},
		{"bearer abc", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		if token != tt.token || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, token, ok, tt.token, tt.ok)
		}
	}
}

func TestValidToken(t *testing.T) {
	if !validToken("s3cret", "s3cret") {
		t.Fatal("matching token rejected")
	}
	if validToken("s3cret", "s3cre") {
		t.Fatal("prefix accepted")
	}
	if validToken("", "") {
		t.Fatal("empty secret accepted")
	}
}

func TestRequireToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	tests := []struct {
		name       string
		secret     string
		allowQuery bool
		target     string
		header     string
		want       int
	}{
		{"valid header", "tok", false, "/x", "Bearer tok", http.StatusTeapot},
		{"wrong header", "tok", false, "/x", "Bearer nope", http.StatusUnauthorized},
		{"missing", "tok", false, "/x", "", http.StatusUnauthorized},
		{"query refused", "tok", false, "/x?token=tok", "", http.StatusUnauthorized},
		{"query allowed", "tok", true, "/x?token=tok", "", http.StatusTeapot},
		{"wrong query", "tok", true, "/x?token=bad", "", http.StatusUnauthorized},
		{"header wins over query", "tok", true, "/x?token=tok", "Bearer bad", http.StatusUnauthorized},
		{"empty secret", "", true, "/x?token=", "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			requireToken(tt.secret, tt.allowQuery, next).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestUnauthorizedBody(t *testing.T) {
	rr := httptest.NewRecorder()
	writeUnauthorized(rr)
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var body struct {
		JSONRPC string `json:"jsonrpc"`
		Error   struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		ID any `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.JSONRPC != "2.0" || body.Error.Code != -32600 || body.Error.Message != "Unauthorized" || body.ID != nil {
		t.Fatalf("body: %+v", body)
	}
}
