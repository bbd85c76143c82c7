package domain

import "time"

// Role represents the user's permission level in the system.
// Identity is trusted as claimed; there is no credential check.
type Role string

const (
	// RoleGuest can browse, and borrow only when settings allow it.
	RoleGuest Role = "guest"
	// RoleStudent can borrow and sees only their own loans.
	RoleStudent Role = "student"
	// RoleStaff can borrow and sees every open loan.
	RoleStaff Role = "staff"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleGuest, RoleStudent, RoleStaff:
		return true
	}
	return false
}

// Display returns the role label shown to readers.
func (r Role) Display() string {
	switch r {
	case RoleGuest:
		return "訪客"
	case RoleStudent:
		return "學生"
	case RoleStaff:
		return "老師/館員"
	default:
		return "未知"
	}
}

// Session is the currently active user session. Only one is tracked at a
// time; there is no user registry.
type Session struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
	LoginAt  time.Time `json:"loginAt"`
}

// CanBorrow reports whether this session's role may borrow under the given settings.
func (s *Session) CanBorrow(settings Settings) bool {
	return s.Role != RoleGuest || settings.GuestBorrow
}

// SeesAllLoans reports whether this session may view every open loan.
func (s *Session) SeesAllLoans() bool {
	return s.Role == RoleStaff
}
