package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoanRecordOpenAndOverdue(t *testing.T) {
	due := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	loan := &LoanRecord{DueDate: due}

	assert.True(t, loan.Open())
	assert.False(t, loan.Overdue(due.Add(-time.Hour)))
	assert.True(t, loan.Overdue(due.Add(time.Hour)))

	returned := due.Add(2 * time.Hour)
	loan.ReturnedAt = &returned
	assert.False(t, loan.Open())
	// Closed loans are never overdue, even past the due date.
	assert.False(t, loan.Overdue(due.Add(48*time.Hour)))
}

func TestSessionCanBorrow(t *testing.T) {
	settings := DefaultSettings()

	guest := &Session{Role: RoleGuest}
	student := &Session{Role: RoleStudent}
	staff := &Session{Role: RoleStaff}

	assert.False(t, guest.CanBorrow(settings))
	assert.True(t, student.CanBorrow(settings))
	assert.True(t, staff.CanBorrow(settings))

	settings.GuestBorrow = true
	assert.True(t, guest.CanBorrow(settings))
}

func TestSessionSeesAllLoans(t *testing.T) {
	assert.True(t, (&Session{Role: RoleStaff}).SeesAllLoans())
	assert.False(t, (&Session{Role: RoleStudent}).SeesAllLoans())
	assert.False(t, (&Session{Role: RoleGuest}).SeesAllLoans())
}

func TestSettingsDurations(t *testing.T) {
	s := Settings{LoanDays: 7, RefreshIntervalMs: 1500}
	assert.Equal(t, 7*24*time.Hour, s.LoanPeriod())
	assert.Equal(t, 1500*time.Millisecond, s.RefreshInterval())
}
