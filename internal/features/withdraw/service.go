// Package withdraw — service.go enforces the amount rules; the balance
// rules live in the repository transactions.
package withdraw

import (
	"context"

	log "github.com/sirupsen/logrus"

	"gebeyahub.et/referral-bot/internal/common"
)

type repository interface {
	Create(ctx context.Context, userID, amount int64, method string) (*Request, error)
	CreateFullBalance(ctx context.Context, userID int64) (*Request, error)
	Approve(ctx context.Context, id int64, note string) (*Request, error)
	Reject(ctx context.Context, id int64, reason string) (*Request, error)
	ListPending(ctx context.Context) ([]*Request, error)
}

// Service owns withdrawal creation and resolution.
type Service struct {
	repo repository
	min  int64 // minimum balance to start a withdrawal
	step int64 // every amount must be a positive multiple of this
}

func NewService(repo repository, minAmount, step int64) *Service {
	return &Service{repo: repo, min: minAmount, step: step}
}

// MinAmount returns the configured minimum withdrawal amount.
func (s *Service) MinAmount() int64 { return s.min }

// CheckAmount applies the amount rules against a known balance without
// touching anything. The withdraw dialog uses it to validate the amount
// step before the method is even asked for.
func (s *Service) CheckAmount(amount, balance int64) error {
	if amount <= 0 || amount%s.step != 0 {
		return common.ErrInvalidAmount
	}
	if amount > balance {
		return common.ErrInsufficientBalance
	}
	return nil
}

// Create reserves amount from the user's balance and files a pending
// request. Amount rules are rechecked here; the balance check happens
// inside the repository transaction under the row lock.
func (s *Service) Create(ctx context.Context, userID, amount int64, method string) (*Request, error) {
	if amount <= 0 || amount%s.step != 0 {
		return nil, common.ErrInvalidAmount
	}

	req, err := s.repo.Create(ctx, userID, amount, method)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"request_id": req.ID,
		"user_id":    userID,
		"amount":     amount,
		"method":     method,
	}).Info("withdrawal requested")
	return req, nil
}

// CreateFullBalance files a request for the user's entire balance
// (legacy /withdraw_all flow, no payment method).
func (s *Service) CreateFullBalance(ctx context.Context, userID int64) (*Request, error) {
	req, err := s.repo.CreateFullBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"request_id": req.ID,
		"user_id":    userID,
		"amount":     req.Amount,
	}).Info("full-balance withdrawal requested")
	return req, nil
}

// Approve resolves a pending request as paid out.
func (s *Service) Approve(ctx context.Context, id int64, note string) (*Request, error) {
	req, err := s.repo.Approve(ctx, id, note)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"request_id": id, "user_id": req.UserID}).Info("withdrawal approved")
	return req, nil
}

// Reject resolves a pending request as refused; the reserved amount goes
// back to the user.
func (s *Service) Reject(ctx context.Context, id int64, reason string) (*Request, error) {
	req, err := s.repo.Reject(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"request_id": id, "user_id": req.UserID}).Info("withdrawal rejected")
	return req, nil
}

// ListPending returns all unresolved requests.
func (s *Service) ListPending(ctx context.Context) ([]*Request, error) {
	return s.repo.ListPending(ctx)
}
