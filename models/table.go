package models

import (
	"time"

	"github.com/dineboard/table-order-app/utils"
)

// Table is a physical table. Occupancy (Status + ActiveSessionID) and the
// administrative IsActive flag move independently.
type Table struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Number          int         `gorm:"not null" json:"number"`
	Code            string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	IsActive        bool        `gorm:"not null;default:true" json:"is_active"`
	Status          TableStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	ActiveSessionID *uint       `json:"active_session_id,omitempty"`
	LockVersion     uint        `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null" json:"updated_at"`
}

func NewTable(number int, code string) *Table {
	return &Table{
		Number:   number,
		Code:     code,
		IsActive: true,
		Status:   TableAvailable,
	}
}

// OpenSession claims the table for a session. Legal from Available and
// Cleaning; an already-Occupied table refuses a second claim.
func (t *Table) OpenSession(sessionID uint) error {
	if t.Status == TableOccupied {
		return utils.Conflictf("table %s is already occupied", t.Code)
	}
	t.Status = TableOccupied
	t.ActiveSessionID = &sessionID
	return nil
}

// CloseSession releases the table into Cleaning. Deliberately unguarded so
// cleanup can run from any state.
func (t *Table) CloseSession() {
	t.Status = TableCleaning
	t.ActiveSessionID = nil
}

// MarkAvailable returns a cleaned table to service.
func (t *Table) MarkAvailable() error {
	if t.Status == TableOccupied {
		return utils.Conflictf("table %s is occupied, close its session first", t.Code)
	}
	t.Status = TableAvailable
	t.ActiveSessionID = nil
	return nil
}

func (t *Table) Activate() {
	t.IsActive = true
}

func (t *Table) Deactivate() error {
	if t.Status == TableOccupied {
		return utils.Conflictf("cannot deactivate occupied table %s", t.Code)
	}
	t.IsActive = false
	return nil
}

// OccupancyConsistent reports the invariant: Occupied iff a session is linked.
func (t *Table) OccupancyConsistent() bool {
	return (t.Status == TableOccupied) == (t.ActiveSessionID != nil)
}
