// Package sales handles the service packages: the fixed price table,
// pending-purchase bookkeeping and purchase confirmation with the
// referrer commission. models.go describes packages and pending rows.
package sales

import (
	"strings"
	"time"
)

// Package names
const (
	PackageBasic   = "Basic"
	PackagePremium = "Premium"
	PackageVIP     = "VIP"
)

// Package is one sellable service package with its fixed price and the
// commission paid to the referrer on a confirmed purchase.
type Package struct {
	Name       string
	Price      int64 // birr
	Commission int64 // birr, credited to the referrer
}

// Packages is the fixed price table, in display order.
var Packages = []Package{
	{Name: PackageBasic, Price: 1500, Commission: 200},
	{Name: PackagePremium, Price: 3000, Commission: 400},
	{Name: PackageVIP, Price: 3500, Commission: 500},
}

// PackageByName resolves a package name case-insensitively.
func PackageByName(name string) (Package, bool) {
	for _, p := range Packages {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Package{}, false
}

// PendingPurchase records that an admin has seen a payment for a package
// that is not confirmed yet. The row is removed automatically when the
// matching (user, package) purchase is confirmed.
type PendingPurchase struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Package   string    `db:"package"`
	Note      string    `db:"note"`
	CreatedAt time.Time `db:"created_at"`
}

// ConfirmResult is what a purchase confirmation produced, so the handler
// can notify everyone involved.
type ConfirmResult struct {
	UserID  int64  // the buyer
	Package string // the confirmed package

	// Commission side. ReferrerID is nil when the buyer has no resolvable
	// referrer or the confirmation did not change the package.
	ReferrerID      *int64
	ReferrerBalance int64 // referrer balance after the credit
	Commission      int64 // amount credited

	RemovedPending int64 // pending_purchases rows cleaned up
}
