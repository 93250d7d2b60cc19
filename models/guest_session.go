package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dineboard/table-order-app/utils"
)

// GuestSession is one guest visit. A nil TableID means a counter/takeaway
// session. The SessionKey is handed to the guest device and used for
// ownership checks on cart edits.
type GuestSession struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	TableID     *uint         `gorm:"index" json:"table_id,omitempty"`
	Status      SessionStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	SessionKey  string        `gorm:"type:varchar(64);not null" json:"session_key"`
	CustomerID  *uint         `json:"customer_id,omitempty"`
	OpenedAt    time.Time     `gorm:"not null" json:"opened_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
	LockVersion uint          `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null" json:"updated_at"`
}

// NewGuestSession opens a session against a physical table.
func NewGuestSession(tableID uint) *GuestSession {
	s := newSession()
	s.TableID = &tableID
	return s
}

// NewCounterSession opens a takeaway session with no table.
func NewCounterSession() *GuestSession {
	return newSession()
}

func newSession() *GuestSession {
	return &GuestSession{
		Status:     SessionActive,
		SessionKey: uuid.NewString(),
		OpenedAt:   time.Now(),
	}
}

func (s *GuestSession) IsActive() bool {
	return s.Status == SessionActive
}

// Close ends the visit. Closing twice is a conflict.
func (s *GuestSession) Close() error {
	if s.Status == SessionClosed {
		return utils.Conflictf("session %d is already closed", s.ID)
	}
	now := time.Now()
	s.Status = SessionClosed
	s.ClosedAt = &now
	return nil
}

// MergeWithCustomer links a registered customer to a running visit. It does
// not change the session status.
func (s *GuestSession) MergeWithCustomer(customerID uint) error {
	if s.Status != SessionActive {
		return utils.Conflictf("cannot link a customer to a %s session", s.Status)
	}
	s.CustomerID = &customerID
	return nil
}
