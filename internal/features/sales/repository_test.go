package sales

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gebeyahub.et/referral-bot/internal/common"
)

// testPool connects to the database named by DATABASE_URL, or skips.
// The database must already carry the bot's schema.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping database test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx))
	return pool
}

var seedSeq atomic.Int64

// seedUser inserts a user and removes it (and its pending purchases) when
// the test ends. referredBy is the referrer's code, or nil.
func seedUser(t *testing.T, pool *pgxpool.Pool, referredBy *string) (int64, string) {
	t.Helper()

	ctx := context.Background()
	userID := time.Now().UnixNano() + seedSeq.Add(1)
	code := fmt.Sprintf("%X", userID)

	_, err := pool.Exec(ctx, `
		INSERT INTO users (user_id, username, first_name, referral_code, referred_by)
		VALUES ($1, 'test', 'Test', $2, $3)
	`, userID, code, referredBy)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM pending_purchases WHERE user_id = $1`, userID)
		pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	})
	return userID, code
}

func getBalance(t *testing.T, pool *pgxpool.Pool, userID int64) int64 {
	t.Helper()
	var balance int64
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT balance FROM users WHERE user_id = $1`, userID).Scan(&balance))
	return balance
}

func pendingCount(t *testing.T, pool *pgxpool.Pool, userID int64, pkg string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM pending_purchases WHERE user_id = $1 AND package = $2`,
		userID, pkg).Scan(&count))
	return count
}

func TestRepository_ConfirmPurchase_CommissionFollowsPackageChange(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	referrerID, code := seedUser(t, pool, nil)
	buyerID, _ := seedUser(t, pool, &code)

	// first confirmation pays the package's commission
	result, err := repo.ConfirmPurchase(ctx, buyerID, PackageBasic, 200)
	require.NoError(t, err)
	require.NotNil(t, result.ReferrerID)
	assert.Equal(t, referrerID, *result.ReferrerID)
	assert.Equal(t, int64(200), result.Commission)
	assert.Equal(t, int64(200), result.ReferrerBalance)
	assert.Equal(t, int64(200), getBalance(t, pool, referrerID))

	// re-confirming the same package pays nothing
	result, err = repo.ConfirmPurchase(ctx, buyerID, PackageBasic, 200)
	require.NoError(t, err)
	assert.Nil(t, result.ReferrerID)
	assert.Equal(t, int64(200), getBalance(t, pool, referrerID))

	// an upgrade pays the new package's rate
	result, err = repo.ConfirmPurchase(ctx, buyerID, PackagePremium, 400)
	require.NoError(t, err)
	require.NotNil(t, result.ReferrerID)
	assert.Equal(t, int64(400), result.Commission)
	assert.Equal(t, int64(600), getBalance(t, pool, referrerID))
}

func TestRepository_ConfirmPurchase_NoReferrer(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	buyerID, _ := seedUser(t, pool, nil)

	result, err := repo.ConfirmPurchase(ctx, buyerID, PackageVIP, 500)
	require.NoError(t, err)
	assert.Nil(t, result.ReferrerID)
	assert.Equal(t, PackageVIP, result.Package)
}

func TestRepository_ConfirmPurchase_RemovesOnlyMatchingPending(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	buyerID, _ := seedUser(t, pool, nil)
	otherID, _ := seedUser(t, pool, nil)

	_, err := repo.AddPending(ctx, buyerID, PackageBasic, "")
	require.NoError(t, err)
	_, err = repo.AddPending(ctx, buyerID, PackagePremium, "")
	require.NoError(t, err)
	_, err = repo.AddPending(ctx, otherID, PackageBasic, "")
	require.NoError(t, err)

	result, err := repo.ConfirmPurchase(ctx, buyerID, PackageBasic, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RemovedPending)

	assert.Equal(t, int64(0), pendingCount(t, pool, buyerID, PackageBasic))
	assert.Equal(t, int64(1), pendingCount(t, pool, buyerID, PackagePremium),
		"a different package's pending row survives")
	assert.Equal(t, int64(1), pendingCount(t, pool, otherID, PackageBasic),
		"another user's pending row survives")
}

func TestRepository_ConfirmPurchase_UserNotFound(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)

	_, err := repo.ConfirmPurchase(context.Background(), -1, PackageBasic, 200)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestRepository_AddPending_UserNotFound(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)

	_, err := repo.AddPending(context.Background(), -1, PackageBasic, "")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}
