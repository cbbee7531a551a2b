// Package users — service.go holds the registration business logic.
// Registration is idempotent: a second /start for the same Telegram ID
// returns the existing record with its original referral code.
package users

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"gebeyahub.et/referral-bot/internal/common"
)

// codeRetries bounds how many fresh codes are tried on collision.
const codeRetries = 5

type repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByUserID(ctx context.Context, userID int64) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	ListReferrals(ctx context.Context, code string) ([]*User, error)
	AllUserIDs(ctx context.Context) ([]int64, error)
}

// Service manages user registration and referral lookups.
type Service struct {
	repo repository
}

func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// Register creates a user on first contact, or returns the existing record
// unchanged. referralCode is the code carried by the /start payload; a code
// that resolves to nobody is silently dropped. The resolved referrer (nil
// when none) is returned so the handler can notify them, and created tells
// whether a new row was actually inserted.
func (s *Service) Register(ctx context.Context, userID int64, username, firstName, lastName, referralCode string) (user, referrer *User, created bool, err error) {
	existing, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return existing, nil, false, nil
	}
	if !errors.Is(err, common.ErrUserNotFound) {
		return nil, nil, false, err
	}

	var referredBy *string
	if referralCode != "" {
		ref, refErr := s.repo.GetByReferralCode(ctx, referralCode)
		switch {
		case refErr == nil:
			referrer = ref
			referredBy = &ref.ReferralCode
		case errors.Is(refErr, common.ErrUserNotFound):
			// unknown code: drop it, registration proceeds without a referrer
			log.WithFields(log.Fields{
				"user_id": userID,
				"code":    referralCode,
			}).Debug("referral code did not resolve")
		default:
			return nil, nil, false, refErr
		}
	}

	for i := 0; i < codeRetries; i++ {
		u := &User{
			UserID:       userID,
			Username:     username,
			FirstName:    firstName,
			LastName:     lastName,
			ReferralCode: newReferralCode(),
			ReferredBy:   referredBy,
		}
		out, err := s.repo.Create(ctx, u)
		if IsCodeCollision(err) {
			continue
		}
		if err != nil {
			return nil, nil, false, err
		}

		log.WithFields(log.Fields{
			"user_id":       userID,
			"referral_code": out.ReferralCode,
			"referred_by":   referralCode,
		}).Info("user registered")
		return out, referrer, true, nil
	}
	return nil, nil, false, fmt.Errorf("failed to generate a unique referral code after %d attempts", codeRetries)
}

// GetByUserID returns a user by Telegram ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByReferralCode resolves a referral code to its owner.
func (s *Service) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	return s.repo.GetByReferralCode(ctx, code)
}

// GetBalance returns the user's current balance.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// ListReferrals returns the users referred by the given user.
func (s *Service) ListReferrals(ctx context.Context, u *User) ([]*User, error) {
	return s.repo.ListReferrals(ctx, u.ReferralCode)
}

// AllUserIDs returns every registered Telegram ID (for /broadcast).
func (s *Service) AllUserIDs(ctx context.Context) ([]int64, error) {
	return s.repo.AllUserIDs(ctx)
}

// newReferralCode returns an 8-character code from the base32 alphabet,
// e.g. "J5JQJZ3K". 40 random bits keep collisions rare; the unique index
// on users.referral_code catches the rest.
func newReferralCode() string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in serious trouble
		log.WithError(err).Error("crypto/rand failed while generating referral code")
	}
	return base32.StdEncoding.EncodeToString(b)
}
