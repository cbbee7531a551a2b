// Package users manages registered users: sign-up, referral codes,
// balances. models.go describes the users table rows.
package users

import "time"

// User is one registered user of the bot.
// A row is created on the first /start and never deleted.
type User struct {
	ID                 int64      `db:"id"`                   // auto-increment row ID
	UserID             int64      `db:"user_id"`              // Telegram user ID (unique)
	Username           string     `db:"username"`             // @username, may be empty
	FirstName          string     `db:"first_name"`           // first name
	LastName           string     `db:"last_name"`            // last name, may be empty
	ReferralCode       string     `db:"referral_code"`        // unique short code, immutable
	ReferredBy         *string    `db:"referred_by"`          // referrer's code, set at creation only
	Balance            int64      `db:"balance"`              // commission balance in birr, never negative
	Package            *string    `db:"package"`              // confirmed package, nil until confirmed
	PackageConfirmedAt *time.Time `db:"package_confirmed_at"` // when the package was confirmed
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// DisplayName returns the name shown in messages:
// @username when present, otherwise first + last name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
