// Package service implements single-operator authentication. The dashboard
// has exactly one account, configured by environment; there is no user table.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"
)

const msgInvalidCredentials = "invalid email or password"

// Token is an issued access token with its lifetime.
type Token struct {
	AccessToken string
	ExpiresIn   int64
}

// Service verifies the operator's credentials and issues JWTs.
type Service struct {
	cfg config.AuthServiceConfig
	log *logger.Logger
	now func() time.Time
}

// New creates the auth service.
func New(cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{cfg: cfg, log: log, now: time.Now}
}

// Login checks the credentials against the configured operator account and
// returns a signed access token. Both failure modes (wrong email, wrong
// password) report the same message.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if !strings.EqualFold(email, s.cfg.GetAdminEmail()) {
		s.log.AuthEvent("login", email, false, "unknown email")
		// Burn a bcrypt compare anyway so both paths cost the same.
		_ = bcrypt.CompareHashAndPassword([]byte(s.cfg.GetAdminPasswordHash()), []byte(password))
		return Token{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.GetAdminPasswordHash()), []byte(password)); err != nil {
		s.log.AuthEvent("login", email, false, "password mismatch")
		return Token{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	token, err := s.issueToken(email)
	if err != nil {
		return Token{}, apperr.Wrap(apperr.KindInternal, "could not issue token", err)
	}

	s.log.AuthEvent("login", email, true, "")
	return token, nil
}

func (s *Service) issueToken(email string) (Token, error) {
	ttl := s.cfg.GetAccessTokenTTL()
	now := s.now()

	claims := jwt.MapClaims{
		"sub": email,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return Token{}, err
	}

	return Token{AccessToken: signed, ExpiresIn: int64(ttl.Seconds())}, nil
}
