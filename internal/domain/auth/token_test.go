package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAuthToken_RoundTrip(t *testing.T) {
	tokens := NewAuthToken("test-secret")

	signed, err := tokens.GenerateToken("client-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	ok, clientID, err := tokens.VerifyToken(signed)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !ok || clientID != "client-1" {
		t.Errorf("expected valid token for client-1, got ok=%v client=%s", ok, clientID)
	}
}

func TestAuthToken_RejectsWrongSecret(t *testing.T) {
	signed, err := NewAuthToken("secret-a").GenerateToken("client-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if ok, _, err := NewAuthToken("secret-b").VerifyToken(signed); err == nil && ok {
		t.Error("expected verification failure with wrong secret")
	}
}

func TestAuthToken_RejectsExpired(t *testing.T) {
	tokens := NewAuthToken("test-secret").WithTTL(-time.Minute)

	signed, err := tokens.GenerateToken("client-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if ok, _, err := tokens.VerifyToken(signed); err == nil && ok {
		t.Error("expected verification failure for expired token")
	}
}

func TestAuthToken_EmptySecret(t *testing.T) {
	tokens := NewAuthToken("")
	if _, err := tokens.GenerateToken("client-1"); err == nil {
		t.Error("expected error with empty secret")
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := NewAuthToken("test-secret")

	router := gin.New()
	router.Use(Middleware(tokens))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"client": c.GetString(ClientIDKey)})
	})

	signed, err := tokens.GenerateToken("client-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + signed, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
