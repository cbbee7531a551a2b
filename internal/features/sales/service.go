// Package sales — service.go validates package names and delegates the
// transactional work to the repository.
package sales

import (
	"context"

	log "github.com/sirupsen/logrus"

	"gebeyahub.et/referral-bot/internal/common"
)

type repository interface {
	AddPending(ctx context.Context, userID int64, pkg, note string) (*PendingPurchase, error)
	ConfirmPurchase(ctx context.Context, userID int64, pkg string, commission int64) (*ConfirmResult, error)
	ListPending(ctx context.Context) ([]*PendingPurchase, error)
}

// Service owns the purchase flow.
type Service struct {
	repo repository
}

func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// AddPending records a payment the admin has seen but not confirmed yet.
func (s *Service) AddPending(ctx context.Context, userID int64, pkgName, note string) (*PendingPurchase, error) {
	pkg, ok := PackageByName(pkgName)
	if !ok {
		return nil, common.ErrInvalidPackage
	}
	return s.repo.AddPending(ctx, userID, pkg.Name, note)
}

// ConfirmPurchase confirms a purchase, crediting the referrer's commission
// when the confirmation changes the buyer's package. Supports initial
// confirmation as well as upgrades and downgrades.
func (s *Service) ConfirmPurchase(ctx context.Context, userID int64, pkgName string) (*ConfirmResult, error) {
	pkg, ok := PackageByName(pkgName)
	if !ok {
		return nil, common.ErrInvalidPackage
	}

	result, err := s.repo.ConfirmPurchase(ctx, userID, pkg.Name, pkg.Commission)
	if err != nil {
		return nil, err
	}

	fields := log.Fields{
		"user_id": userID,
		"package": pkg.Name,
	}
	if result.ReferrerID != nil {
		fields["referrer_id"] = *result.ReferrerID
		fields["commission"] = result.Commission
	}
	log.WithFields(fields).Info("purchase confirmed")

	return result, nil
}

// ListPending returns all pending purchases for the admin list.
func (s *Service) ListPending(ctx context.Context) ([]*PendingPurchase, error) {
	return s.repo.ListPending(ctx)
}
