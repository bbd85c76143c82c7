package domain

import "time"

// Settings holds the library's operating parameters.
type Settings struct {
	// LoanDays is the loan period; due date = borrow date + LoanDays days.
	LoanDays int `json:"loanDays" validate:"min=1"`
	// GuestBorrow allows guest sessions to borrow.
	GuestBorrow bool `json:"guestBorrow"`
	// DefaultCopies is the copy count used when a manual import row omits one.
	DefaultCopies int `json:"defaultCopies" validate:"min=1"`
	// DefaultYear is assigned to books created from catalog rows, which carry no year.
	DefaultYear int `json:"defaultYear" validate:"min=1900"`
	// RefreshIntervalMs is the period between automatic catalog re-ingestions,
	// in milliseconds. Zero disables the periodic refresh.
	RefreshIntervalMs int `json:"refreshIntervalMs" validate:"min=0"`
}

// RefreshInterval returns the refresh period as a duration.
func (s Settings) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalMs) * time.Millisecond
}

// LoanPeriod returns the loan period as a duration.
func (s Settings) LoanPeriod() time.Duration {
	return time.Duration(s.LoanDays) * 24 * time.Hour
}

// DefaultSettings returns the settings used until staff change them.
func DefaultSettings() Settings {
	return Settings{
		LoanDays:          14,
		GuestBorrow:       false,
		DefaultCopies:     1,
		DefaultYear:       2024,
		RefreshIntervalMs: 300_000, // 5 minutes
	}
}
