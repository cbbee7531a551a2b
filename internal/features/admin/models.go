// Package admin implements the administrator panel: password login with
// session tracking, purchase confirmation, withdrawal resolution,
// broadcast and the aggregate reports. models.go describes sessions,
// login attempts and report rows.
package admin

import "time"

// Session — an authenticated admin session (24 hours).
type Session struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt — one login attempt, kept for brute-force lockout.
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// Stats is the /stats report.
type Stats struct {
	TotalUsers          int64
	PendingPurchases    int64
	PendingWithdrawals  int64
	ApprovedPayoutTotal int64 // sum of approved withdrawal amounts, birr
}

// PackageCount is one /sales report row: how many users currently hold
// each package.
type PackageCount struct {
	Package string
	Count   int64
}
