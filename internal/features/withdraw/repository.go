// Package withdraw — repository.go moves the money. Creation reserves the
// amount (balance goes down with the insert, in one transaction); the
// terminal transitions lock the request row so a request resolves at most
// once no matter how the admin races themselves.
package withdraw

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gebeyahub.et/referral-bot/internal/common"
)

const requestColumns = `id, user_id, amount, payment_method, status, note, created_at, updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create reserves amount from the user's balance and inserts a pending
// request, atomically. The user row is locked first, so the balance check
// and the deduction cannot race another operation on the same user.
func (r *Repository) Create(ctx context.Context, userID, amount int64, method string) (*Request, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM users WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	if amount > balance {
		return nil, common.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET balance = balance - $2, updated_at = NOW() WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve amount: %w", err)
	}

	var req Request
	err = tx.QueryRow(ctx, `
		INSERT INTO withdrawals (user_id, amount, payment_method, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING `+requestColumns, userID, amount, method,
	).Scan(scanTargets(&req)...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal: %w", err)
	}
	return &req, nil
}

// CreateFullBalance is the legacy entry point: it withdraws the entire
// current balance with no payment method and resets the balance to zero.
func (r *Repository) CreateFullBalance(ctx context.Context, userID int64) (*Request, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM users WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	if balance <= 0 {
		return nil, common.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET balance = 0, updated_at = NOW() WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve balance: %w", err)
	}

	var req Request
	err = tx.QueryRow(ctx, `
		INSERT INTO withdrawals (user_id, amount, payment_method, status)
		VALUES ($1, $2, NULL, 'pending')
		RETURNING `+requestColumns, userID, balance,
	).Scan(scanTargets(&req)...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal: %w", err)
	}
	return &req, nil
}

// Approve moves a pending request to approved. The reserved money stays
// gone, so the balance is untouched.
func (r *Repository) Approve(ctx context.Context, id int64, note string) (*Request, error) {
	return r.resolve(ctx, id, StatusApproved, note, false)
}

// Reject moves a pending request to rejected and returns the reserved
// amount to the user's balance, in the same transaction.
func (r *Repository) Reject(ctx context.Context, id int64, reason string) (*Request, error) {
	return r.resolve(ctx, id, StatusRejected, reason, true)
}

func (r *Repository) resolve(ctx context.Context, id int64, status, note string, refund bool) (*Request, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var req Request
	err = tx.QueryRow(ctx, `
		SELECT `+requestColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE
	`, id).Scan(scanTargets(&req)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock withdrawal %d: %w", id, err)
	}
	if req.Status != StatusPending {
		return nil, common.ErrRequestNotPending
	}

	err = tx.QueryRow(ctx, `
		UPDATE withdrawals SET status = $2, note = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+requestColumns, id, status, note,
	).Scan(scanTargets(&req)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update withdrawal %d: %w", id, err)
	}

	if refund {
		_, err = tx.Exec(ctx, `
			UPDATE users SET balance = balance + $2, updated_at = NOW() WHERE user_id = $1
		`, req.UserID, req.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to refund withdrawal %d: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal %d: %w", id, err)
	}
	return &req, nil
}

// ListPending returns all pending requests, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM withdrawals WHERE status = 'pending' ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(scanTargets(&req)...); err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		out = append(out, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read withdrawal rows: %w", err)
	}
	return out, nil
}

func scanTargets(r *Request) []any {
	return []any{
		&r.ID, &r.UserID, &r.Amount, &r.PaymentMethod,
		&r.Status, &r.Note, &r.CreatedAt, &r.UpdatedAt,
	}
}
