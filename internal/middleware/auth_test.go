package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenRoundtrip(t *testing.T) {
	j := NewJWTAuth("test-secret")

	token, err := j.GenerateAccessToken("user-42", "a@b.com", "user", "free")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	userID, err := j.ParseUserID(token)
	if err != nil {
		t.Fatalf("ParseUserID failed: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("Expected user-42, got %q", userID)
	}
}

func TestParseUserID_WrongSecret(t *testing.T) {
	token, err := NewJWTAuth("secret-a").GenerateAccessToken("u1", "a@b.com", "user", "free")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := NewJWTAuth("secret-b").ParseUserID(token); err == nil {
		t.Error("Expected verification to fail with a different secret")
	}
}

func TestMiddleware(t *testing.T) {
	j := NewJWTAuth("test-secret")
	token, err := j.GenerateAccessToken("user-42", "a@b.com", "user", "free")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	var gotUserID string
	handler := j.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotUserID = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected %d, got %d", tc.wantStatus, rr.Code)
			}
			if tc.wantStatus == http.StatusOK && gotUserID != "user-42" {
				t.Errorf("Expected user-42 in context, got %q", gotUserID)
			}
		})
	}
}
