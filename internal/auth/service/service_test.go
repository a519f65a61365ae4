package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"
)

func testService(t *testing.T, password string) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cfg := &config.Config{
		JWTAccessSecret:   "test-secret",
		AccessTokenTTL:    time.Hour,
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: string(hash),
	}
	return New(cfg, logger.New("development"))
}

func TestLoginSuccess(t *testing.T) {
	svc := testService(t, "correct-horse-battery")

	token, err := svc.Login(context.Background(), "Admin@Example.com ", "correct-horse-battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.AccessToken == "" {
		t.Fatalf("expected a signed token")
	}
	if token.ExpiresIn != 3600 {
		t.Fatalf("expected 3600s expiry, got %d", token.ExpiresIn)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token.AccessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("token failed validation: %v", err)
	}
	if sub, _ := claims["sub"].(string); sub != "admin@example.com" {
		t.Fatalf("expected sub claim with normalized email, got %q", sub)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := testService(t, "correct-horse-battery")

	_, err := svc.Login(context.Background(), "admin@example.com", "wrong")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := testService(t, "correct-horse-battery")

	_, err := svc.Login(context.Background(), "intruder@example.com", "correct-horse-battery")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
