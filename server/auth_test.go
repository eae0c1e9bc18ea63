package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wardle/hiservice/hiservice"
)

func TestServiceLogin(t *testing.T) {
	auth, err := NewAuthenticationServerWithTemporaryKey()
	if err != nil {
		t.Fatal(err)
	}
	secret, hash, err := GenerateCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if len(secret) != 64 {
		t.Fatalf("generated secret of unexpected length: %d", len(secret))
	}
	auth.RegisterServiceAccount("clinical-portal", hash)
	token, err := auth.Login("clinical-portal", secret)
	if err != nil {
		t.Fatal(err)
	}
	subject, err := auth.parseToken("Bearer " + token)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "clinical-portal" {
		t.Fatalf("did not get correct subject from token. got: %s", subject)
	}
	if _, err := auth.Login("clinical-portal", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials. got: %v", err)
	}
	if _, err := auth.Login("unknown", secret); err != ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials. got: %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	auth, err := NewAuthenticationServerWithTemporaryKey()
	if err != nil {
		t.Fatal(err)
	}
	token, err := auth.generateToken("user", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.parseToken(token); err != ErrInvalidToken {
		t.Fatalf("expected invalid token. got: %v", err)
	}
	other, err := NewAuthenticationServerWithTemporaryKey()
	if err != nil {
		t.Fatal(err)
	}
	token, err = other.generateToken("user", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.parseToken(token); err != ErrInvalidToken {
		t.Fatalf("expected token signed by another key to be rejected. got: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	auth, err := NewAuthenticationServerWithTemporaryKey()
	if err != nil {
		t.Fatal(err)
	}
	var gotUser string
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = hiservice.UserIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/reference/sex", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized. got: %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected health check without authentication. got: %d", w.Code)
	}

	token, err := auth.generateToken("dr-smith", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/reference/sex", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || gotUser != "dr-smith" {
		t.Fatalf("expected authenticated call as dr-smith. got: %d '%s'", w.Code, gotUser)
	}
}
