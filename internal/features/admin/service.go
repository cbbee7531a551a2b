// Package admin — service.go holds authentication: argon2id password
// verification with a 3-strikes-per-hour lockout, and 24h DB-backed
// sessions. Being in ADMIN_IDS is necessary but not sufficient; the
// password guards against a hijacked Telegram account.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"gebeyahub.et/referral-bot/internal/common"
	"gebeyahub.et/referral-bot/internal/config"
)

const (
	maxLoginFailures = 3
	lockoutWindow    = 1 * time.Hour
	sessionLifetime  = 24 * time.Hour
)

// Service manages admin authentication and reports.
type Service struct {
	repo *Repository
	cfg  *config.Config
}

func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Login verifies the password and opens a session. Three failed attempts
// within an hour lock the account out for the rest of that hour.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	failures, err := s.repo.CountRecentFailures(ctx, userID, lockoutWindow)
	if err != nil {
		return err
	}
	if failures >= maxLoginFailures {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)
	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).Warn("failed to log login attempt")
	}
	if !match {
		return common.ErrWrongPassword
	}

	session := &Session{
		UserID:       userID,
		SessionToken: generateSessionToken(),
		ExpiresAt:    time.Now().Add(sessionLifetime),
	}
	return s.repo.CreateSession(ctx, session)
}

// IsAuthenticated reports whether the admin holds a live session, and
// refreshes its activity timestamp when they do.
func (s *Service) IsAuthenticated(ctx context.Context, userID int64) bool {
	if !s.cfg.IsAdmin(userID) {
		return false
	}
	ok, err := s.repo.HasActiveSession(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("session check failed")
		return false
	}
	if ok {
		if err := s.repo.TouchSession(ctx, userID); err != nil {
			log.WithError(err).Debug("failed to touch session")
		}
	}
	return ok
}

// GetStats returns the /stats aggregates.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	return s.repo.GetStats(ctx)
}

// GetPackageCounts returns the /sales per-package counts.
func (s *Service) GetPackageCounts(ctx context.Context) ([]PackageCount, error) {
	return s.repo.GetPackageCounts(ctx)
}

// --- crypto helpers ---

// verifyArgon2id checks a password against an encoded argon2id hash of the
// form $argon2id$v=19$m=65536,t=3,p=2$<salt_b64>$<hash_b64>.
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("malformed argon2id hash in ADMIN_PASSWORD_HASH")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("failed to parse argon2id parameters")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("failed to decode argon2id salt")
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("failed to decode argon2id hash")
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))

	// constant-time compare, timing attacks stay theoretical
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

func generateSessionToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
