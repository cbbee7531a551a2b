// Package common holds utilities shared across the project:
// money formatting, Addis Ababa time helpers and referral links.
package common

import (
	"fmt"
	"time"
)

// FormatBirr formats an amount in birr for display.
// Example: FormatBirr(1500) → "1500 birr"
func FormatBirr(amount int64) string {
	return fmt.Sprintf("%d birr", amount)
}

// ReferralLink builds the t.me deep link that carries a referral code.
// Example: ReferralLink("mybot", "AB12CD34") → "https://t.me/mybot?start=AB12CD34"
func ReferralLink(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, code)
}

// AddisTime returns the current time in Africa/Addis_Ababa.
// Used for daily reports and backup file names.
func AddisTime() time.Time {
	loc, err := time.LoadLocation("Africa/Addis_Ababa")
	if err != nil {
		// Fall back to a fixed UTC+3 zone
		loc = time.FixedZone("EAT", 3*60*60)
	}
	return time.Now().In(loc)
}

// FormatDateTime formats a timestamp as "02.01.2006 15:04" in Addis time.
// Used when listing requests and purchases to admins.
func FormatDateTime(t time.Time) string {
	loc, err := time.LoadLocation("Africa/Addis_Ababa")
	if err != nil {
		loc = time.FixedZone("EAT", 3*60*60)
	}
	return t.In(loc).Format("02.01.2006 15:04")
}
