// Package common — errors.go defines the sentinel errors shared by all
// features. Handlers match on these to pick the message shown to the user.
package common

import "errors"

// Ledger errors
var (
	// ErrUserNotFound — no registered user with that ID
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPackage — package name is not Basic, Premium or VIP
	ErrInvalidPackage = errors.New("unknown package")
	// ErrInvalidAmount — amount is not a positive multiple of the step
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance — requested amount exceeds the balance
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Withdrawal request errors
var (
	// ErrRequestNotFound — no withdrawal request with that ID
	ErrRequestNotFound = errors.New("withdrawal request not found")
	// ErrRequestNotPending — the request was already approved or rejected
	ErrRequestNotPending = errors.New("withdrawal request already resolved")
)

// Admin panel errors
var (
	// ErrNotAdmin — user is not in the admin list
	ErrNotAdmin = errors.New("not an administrator")
	// ErrWrongPassword — admin password did not match
	ErrWrongPassword = errors.New("wrong password")
	// ErrTooManyAttempts — too many failed logins, wait an hour
	ErrTooManyAttempts = errors.New("too many login attempts, wait 1 hour")
)
