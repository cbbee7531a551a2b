// Package users — repository.go runs all queries against the users table.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gebeyahub.et/referral-bot/internal/common"
)

const userColumns = `id, user_id, username, first_name, last_name, referral_code,
	       referred_by, balance, package, package_confirmed_at, created_at, updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. Returns common.ErrUserNotFound never; a unique
// violation on referral_code is reported so the caller can retry with a
// fresh code, a conflict on user_id means a concurrent registration won and
// the existing row is returned instead.
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	query := `
		INSERT INTO users (user_id, username, first_name, last_name, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING ` + userColumns
	var out User
	err := r.db.QueryRow(ctx, query,
		u.UserID, u.Username, u.FirstName, u.LastName, u.ReferralCode, u.ReferredBy,
	).Scan(scanTargets(&out)...)
	if errors.Is(err, pgx.ErrNoRows) {
		// user_id conflict: someone registered this user first
		return r.GetByUserID(ctx, u.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &out, nil
}

// IsCodeCollision reports whether err is a unique violation on the
// referral_code index (the caller should regenerate the code).
func IsCodeCollision(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "23505" && pgErr.ConstraintName == "users_referral_code_key"
}

// GetByUserID returns the user by Telegram ID, common.ErrUserNotFound if absent.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	var u User
	err := r.db.QueryRow(ctx, query, userID).Scan(scanTargets(&u)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user %d: %w", userID, err)
	}
	return &u, nil
}

// GetByReferralCode resolves a referral code to its owner,
// common.ErrUserNotFound when the code does not exist.
func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`
	var u User
	err := r.db.QueryRow(ctx, query, code).Scan(scanTargets(&u)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve referral code %s: %w", code, err)
	}
	return &u, nil
}

// GetBalance returns the current balance of a user.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT balance FROM users WHERE user_id = $1`
	var balance int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, common.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance of %d: %w", userID, err)
	}
	return balance, nil
}

// ListReferrals returns all users whose referred_by equals code,
// newest first.
func (r *Repository) ListReferrals(ctx context.Context, code string) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referred_by = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(scanTargets(&u)...); err != nil {
			return nil, fmt.Errorf("failed to scan referral row: %w", err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read referral rows: %w", err)
	}
	return out, nil
}

// AllUserIDs returns the Telegram IDs of every registered user.
// Used by /broadcast.
func (r *Repository) AllUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user id rows: %w", err)
	}
	return ids, nil
}

func scanTargets(u *User) []any {
	return []any{
		&u.ID, &u.UserID, &u.Username, &u.FirstName, &u.LastName,
		&u.ReferralCode, &u.ReferredBy, &u.Balance,
		&u.Package, &u.PackageConfirmedAt, &u.CreatedAt, &u.UpdatedAt,
	}
}
