// Package admin — repository.go works with the admin_sessions and
// admin_login_attempts tables, plus the read-only aggregate queries
// behind /stats and /sales.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSession stores a fresh admin session.
func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO admin_sessions (user_id, session_token, expires_at, is_active)
		VALUES ($1, $2, $3, TRUE)
	`
	if _, err := r.db.Exec(ctx, query, s.UserID, s.SessionToken, s.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// HasActiveSession reports whether the user holds an unexpired session.
func (r *Repository) HasActiveSession(ctx context.Context, userID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM admin_sessions
			WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
		)
	`
	var ok bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return ok, nil
}

// TouchSession updates the last-activity timestamp.
func (r *Repository) TouchSession(ctx context.Context, userID int64) error {
	query := `UPDATE admin_sessions SET last_activity = NOW() WHERE user_id = $1 AND is_active = TRUE`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

// LogAttempt records one login attempt.
func (r *Repository) LogAttempt(ctx context.Context, userID int64, success bool) error {
	query := `INSERT INTO admin_login_attempts (user_id, success) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, userID, success)
	return err
}

// CountRecentFailures returns the failed attempts within the period.
func (r *Repository) CountRecentFailures(ctx context.Context, userID int64, period time.Duration) (int, error) {
	since := time.Now().Add(-period)
	query := `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempt_time >= $2
	`
	var count int
	err := r.db.QueryRow(ctx, query, userID, since).Scan(&count)
	return count, err
}

// GetStats gathers the /stats aggregates in one round trip.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM pending_purchases),
			(SELECT COUNT(*) FROM withdrawals WHERE status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0) FROM withdrawals WHERE status = 'approved')
	`
	var s Stats
	err := r.db.QueryRow(ctx, query).Scan(
		&s.TotalUsers, &s.PendingPurchases, &s.PendingWithdrawals, &s.ApprovedPayoutTotal,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	return &s, nil
}

// GetPackageCounts returns how many users currently hold each package.
func (r *Repository) GetPackageCounts(ctx context.Context) ([]PackageCount, error) {
	query := `
		SELECT package, COUNT(*)
		FROM users
		WHERE package IS NOT NULL
		GROUP BY package
		ORDER BY package
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read package counts: %w", err)
	}
	defer rows.Close()

	var out []PackageCount
	for rows.Next() {
		var pc PackageCount
		if err := rows.Scan(&pc.Package, &pc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan package count: %w", err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read package count rows: %w", err)
	}
	return out, nil
}
