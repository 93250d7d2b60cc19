package services

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/dineboard/table-order-app/events"
	"github.com/dineboard/table-order-app/models"
	"github.com/dineboard/table-order-app/utils"
)

// MenuCache is a read-through cache over the catalog, invalidated by
// menu_changed events. Invalidation is idempotent: removing an absent entry
// is a no-op, which keeps at-least-once delivery safe.
type MenuCache struct {
	db   *gorm.DB
	mu   sync.RWMutex
	byID map[uint]models.Menu
}

func NewMenuCache(db *gorm.DB) *MenuCache {
	return &MenuCache{
		db:   db,
		byID: make(map[uint]models.Menu),
	}
}

// Get returns the menu row for a product, loading it on a miss.
func (mc *MenuCache) Get(ctx context.Context, menuID uint) (*models.Menu, error) {
	mc.mu.RLock()
	cached, ok := mc.byID[menuID]
	mc.mu.RUnlock()
	if ok {
		return &cached, nil
	}

	var menu models.Menu
	if err := mc.db.WithContext(ctx).First(&menu, menuID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("menu %d not found", menuID)
		}
		return nil, err
	}

	mc.mu.Lock()
	mc.byID[menuID] = menu
	mc.mu.Unlock()
	return &menu, nil
}

func (mc *MenuCache) Invalidate(menuID uint) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.byID, menuID)
}

func (mc *MenuCache) InvalidateAll() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.byID = make(map[uint]models.Menu)
}

// HandleMenuChanged is the event subscriber. An unrecognised payload drops
// the whole cache rather than risking a stale entry.
func (mc *MenuCache) HandleMenuChanged(evt events.Event) {
	if id, ok := evt.Payload.(uint); ok {
		mc.Invalidate(id)
		return
	}
	mc.InvalidateAll()
}
