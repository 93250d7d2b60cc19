package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dineboard/table-order-app/events"
	"github.com/dineboard/table-order-app/models"
	"github.com/dineboard/table-order-app/utils"
)

// SessionService coordinates Table and GuestSession. The two aggregates are
// saved independently, so every read-then-write goes through a versioned
// save and stale writes come back as retryable conflicts.
type SessionService struct {
	db     *gorm.DB
	events *events.Dispatcher
}

func NewSessionService(db *gorm.DB, dispatcher *events.Dispatcher) *SessionService {
	return &SessionService{db: db, events: dispatcher}
}

// GetOrCreateSession returns the active session for a table, creating one
// and occupying the table if none exists. Safe to poll: an already-linked
// table returns its session unchanged. Two racing creators are serialised by
// the table's occupancy guard and version column; the loser gets a Conflict
// and should retry.
func (s *SessionService) GetOrCreateSession(ctx context.Context, tableID uint) (*models.GuestSession, bool, error) {
	db := s.db.WithContext(ctx)

	var table models.Table
	if err := db.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, utils.NotFoundf("table %d not found", tableID)
		}
		return nil, false, err
	}
	if !table.IsActive {
		return nil, false, fmt.Errorf("table %s is not active", table.Code)
	}

	var existing models.GuestSession
	err := db.Where("table_id = ? AND status = ?", tableID, models.SessionActive).
		First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	// Self-healing: an Occupied table with no live session is leftover from
	// an earlier inconsistent write. Reset it instead of failing the guest.
	if table.Status == models.TableOccupied {
		utils.InfoLogger.Printf("table %s occupied without an active session, resetting", table.Code)
		table.Status = models.TableAvailable
		table.ActiveSessionID = nil
		prev := table.LockVersion
		table.LockVersion++
		if err := SaveVersioned(db, &table, table.ID, prev); err != nil {
			return nil, false, err
		}
	}

	session := models.NewGuestSession(tableID)
	if err := db.Create(session).Error; err != nil {
		return nil, false, err
	}

	if err := table.OpenSession(session.ID); err != nil {
		db.Delete(session)
		return nil, false, err
	}
	prev := table.LockVersion
	table.LockVersion++
	if err := SaveVersioned(db, &table, table.ID, prev); err != nil {
		// Lost the race for the table. Retire our session so the winner's
		// stays the only active one, then let the caller retry.
		session.Close()
		db.Save(session)
		return nil, false, err
	}

	var rec events.Recorder
	rec.Record(events.EventSessionOpened, session.ID)
	rec.Flush(s.events)

	return session, true, nil
}

// OpenCounterSession starts a takeaway session with no table.
func (s *SessionService) OpenCounterSession(ctx context.Context) (*models.GuestSession, error) {
	session := models.NewCounterSession()
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}

	var rec events.Recorder
	rec.Record(events.EventSessionOpened, session.ID)
	rec.Flush(s.events)

	return session, nil
}

// CloseSession ends the visit and releases the table into Cleaning. A
// missing table (deleted while the session ran) is tolerated; the session
// closure stands.
func (s *SessionService) CloseSession(ctx context.Context, sessionID uint) (*models.GuestSession, error) {
	db := s.db.WithContext(ctx)

	var session models.GuestSession
	if err := db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("session %d not found", sessionID)
		}
		return nil, err
	}

	if err := session.Close(); err != nil {
		return nil, err
	}
	prev := session.LockVersion
	session.LockVersion++
	if err := SaveVersioned(db, &session, session.ID, prev); err != nil {
		return nil, err
	}

	var rec events.Recorder
	rec.Record(events.EventSessionClosed, session.ID)

	if session.TableID != nil {
		var table models.Table
		err := db.First(&table, *session.TableID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.InfoLogger.Printf("session %d closed but table %d no longer exists", session.ID, *session.TableID)
		case err != nil:
			return nil, err
		default:
			table.CloseSession()
			prev := table.LockVersion
			table.LockVersion++
			if err := SaveVersioned(db, &table, table.ID, prev); err != nil {
				return nil, err
			}
			rec.Record(events.EventTableReleased, table.ID)
		}
	}

	rec.Flush(s.events)
	return &session, nil
}

// MergeWithCustomer links a registered customer to a running session.
func (s *SessionService) MergeWithCustomer(ctx context.Context, sessionID, customerID uint) (*models.GuestSession, error) {
	db := s.db.WithContext(ctx)

	var session models.GuestSession
	if err := db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("session %d not found", sessionID)
		}
		return nil, err
	}

	var customer models.Customer
	if err := db.First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("customer %d not found", customerID)
		}
		return nil, err
	}

	if err := session.MergeWithCustomer(customer.ID); err != nil {
		return nil, err
	}
	prev := session.LockVersion
	session.LockVersion++
	if err := SaveVersioned(db, &session, session.ID, prev); err != nil {
		return nil, err
	}
	return &session, nil
}
