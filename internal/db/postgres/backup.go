// Package postgres — backup.go dumps the three ledger collections to a
// JSON file. A cron job triggers it nightly; the file is a plain snapshot
// the operator can archive or restore from by hand.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type backupUser struct {
	UserID             int64      `json:"user_id"`
	Username           string     `json:"username,omitempty"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name,omitempty"`
	ReferralCode       string     `json:"referral_code"`
	ReferredBy         *string    `json:"referred_by,omitempty"`
	Balance            int64      `json:"balance"`
	Package            *string    `json:"package,omitempty"`
	PackageConfirmedAt *time.Time `json:"package_confirmed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type backupPendingPurchase struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Package   string    `json:"package"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type backupWithdrawal struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Amount        int64     `json:"amount"`
	PaymentMethod *string   `json:"payment_method,omitempty"`
	Status        string    `json:"status"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type snapshot struct {
	TakenAt          time.Time               `json:"taken_at"`
	Users            []backupUser            `json:"users"`
	PendingPurchases []backupPendingPurchase `json:"pending_purchases"`
	Withdrawals      []backupWithdrawal      `json:"withdrawals"`
}

// ExportSnapshot writes backup-YYYYMMDD-HHMMSS.json into dir and returns
// the file path.
func ExportSnapshot(ctx context.Context, pool *pgxpool.Pool, dir string) (string, error) {
	snap := snapshot{TakenAt: time.Now().UTC()}

	rows, err := pool.Query(ctx, `
		SELECT user_id, username, first_name, last_name, referral_code,
		       referred_by, balance, package, package_confirmed_at, created_at
		FROM users ORDER BY id
	`)
	if err != nil {
		return "", fmt.Errorf("failed to read users: %w", err)
	}
	for rows.Next() {
		var u backupUser
		if err := rows.Scan(&u.UserID, &u.Username, &u.FirstName, &u.LastName,
			&u.ReferralCode, &u.ReferredBy, &u.Balance, &u.Package,
			&u.PackageConfirmedAt, &u.CreatedAt); err != nil {
			rows.Close()
			return "", fmt.Errorf("failed to scan user: %w", err)
		}
		snap.Users = append(snap.Users, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read user rows: %w", err)
	}

	rows, err = pool.Query(ctx, `
		SELECT id, user_id, package, note, created_at FROM pending_purchases ORDER BY id
	`)
	if err != nil {
		return "", fmt.Errorf("failed to read pending purchases: %w", err)
	}
	for rows.Next() {
		var p backupPendingPurchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.Package, &p.Note, &p.CreatedAt); err != nil {
			rows.Close()
			return "", fmt.Errorf("failed to scan pending purchase: %w", err)
		}
		snap.PendingPurchases = append(snap.PendingPurchases, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read pending purchase rows: %w", err)
	}

	rows, err = pool.Query(ctx, `
		SELECT id, user_id, amount, payment_method, status, note, created_at, updated_at
		FROM withdrawals ORDER BY id
	`)
	if err != nil {
		return "", fmt.Errorf("failed to read withdrawals: %w", err)
	}
	for rows.Next() {
		var w backupWithdrawal
		if err := rows.Scan(&w.ID, &w.UserID, &w.Amount, &w.PaymentMethod,
			&w.Status, &w.Note, &w.CreatedAt, &w.UpdatedAt); err != nil {
			rows.Close()
			return "", fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		snap.Withdrawals = append(snap.Withdrawals, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read withdrawal rows: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	path := filepath.Join(dir, "backup-"+snap.TakenAt.Format("20060102-150405")+".json")
	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.WithFields(log.Fields{
		"path":        path,
		"users":       len(snap.Users),
		"purchases":   len(snap.PendingPurchases),
		"withdrawals": len(snap.Withdrawals),
	}).Info("snapshot exported")
	return path, nil
}
