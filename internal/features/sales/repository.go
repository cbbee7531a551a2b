// Package sales — repository.go runs the purchase queries. Confirmation
// touches two user rows and the pending table, so it runs in a single DB
// transaction with row locks.
package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gebeyahub.et/referral-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// AddPending records a seen-but-unconfirmed payment.
// The user must already be registered.
func (r *Repository) AddPending(ctx context.Context, userID int64, pkg, note string) (*PendingPurchase, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check user %d: %w", userID, err)
	}
	if !exists {
		return nil, common.ErrUserNotFound
	}

	query := `
		INSERT INTO pending_purchases (user_id, package, note)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, package, note, created_at
	`
	var p PendingPurchase
	err = r.db.QueryRow(ctx, query, userID, pkg, note).
		Scan(&p.ID, &p.UserID, &p.Package, &p.Note, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record pending purchase: %w", err)
	}
	return &p, nil
}

// ConfirmPurchase sets the buyer's package, credits the referrer iff the
// package actually changed and the referral code resolves, and removes the
// pending rows for this exact (user, package) pair. All in one transaction:
// either everything commits or nothing does.
func (r *Repository) ConfirmPurchase(ctx context.Context, userID int64, pkg string, commission int64) (*ConfirmResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the buyer row; its previous package decides whether the
	// referrer earns a commission this time.
	var referredBy, oldPackage *string
	err = tx.QueryRow(ctx, `
		SELECT referred_by, package FROM users WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&referredBy, &oldPackage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET package = $2, package_confirmed_at = NOW(), updated_at = NOW()
		WHERE user_id = $1
	`, userID, pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to set package: %w", err)
	}

	result := &ConfirmResult{UserID: userID, Package: pkg}

	// Commission follows a package change: re-confirming the same package
	// pays nothing, an upgrade or downgrade pays the new package's rate.
	changed := oldPackage == nil || *oldPackage != pkg
	if changed && referredBy != nil {
		var referrerID, referrerBalance int64
		err = tx.QueryRow(ctx, `
			UPDATE users
			SET balance = balance + $2, updated_at = NOW()
			WHERE referral_code = $1
			RETURNING user_id, balance
		`, *referredBy, commission).Scan(&referrerID, &referrerBalance)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to credit referrer: %w", err)
		}
		if err == nil {
			result.ReferrerID = &referrerID
			result.ReferrerBalance = referrerBalance
			result.Commission = commission
		}
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM pending_purchases WHERE user_id = $1 AND package = $2
	`, userID, pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to clean pending purchases: %w", err)
	}
	result.RemovedPending = tag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", err)
	}
	return result, nil
}

// ListPending returns every pending purchase, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]*PendingPurchase, error) {
	query := `
		SELECT id, user_id, package, note, created_at
		FROM pending_purchases
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending purchases: %w", err)
	}
	defer rows.Close()

	var out []*PendingPurchase
	for rows.Next() {
		var p PendingPurchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.Package, &p.Note, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending purchase: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending purchase rows: %w", err)
	}
	return out, nil
}
