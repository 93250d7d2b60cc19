package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dineboard/table-order-app/events"
	"github.com/dineboard/table-order-app/models"
	"github.com/dineboard/table-order-app/utils"
)

// OrderService implements the order composition protocols: place, merge,
// split, item edits, status and payment updates. Every handler validates all
// preconditions before mutating anything, then performs an explicit ordered
// sequence of saves.
type OrderService struct {
	db     *gorm.DB
	menus  *MenuCache
	events *events.Dispatcher
}

func NewOrderService(db *gorm.DB, menus *MenuCache, dispatcher *events.Dispatcher) *OrderService {
	return &OrderService{db: db, menus: menus, events: dispatcher}
}

// PlaceItem is one requested line of a new order.
type PlaceItem struct {
	ProductID   uint   `json:"product_id"`
	Quantity    int    `json:"quantity"`
	Temperature string `json:"temperature"`
	IceLevel    string `json:"ice_level"`
	SugarLevel  string `json:"sugar_level"`
	Takeaway    bool   `json:"takeaway"`
	Notes       string `json:"notes"`
}

// SplitItem names a quantity to move out of a source order.
type SplitItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func (s *OrderService) loadOrder(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("order %d not found", orderID)
		}
		return nil, err
	}
	return &order, nil
}

// snapshot resolves a requested line against the catalog, capturing name and
// price at add-time.
func (s *OrderService) snapshot(ctx context.Context, it PlaceItem) (models.ItemSnapshot, error) {
	menu, err := s.menus.Get(ctx, it.ProductID)
	if err != nil {
		return models.ItemSnapshot{}, err
	}
	if !menu.IsAvailable {
		return models.ItemSnapshot{}, utils.Invalidf("product_id", "menu %s is not available", menu.Name)
	}
	if menu.Price.IsNegative() {
		return models.ItemSnapshot{}, utils.Invalidf("price", "menu %s has a negative price", menu.Name)
	}
	if menu.Discount.IsNegative() || menu.Discount.GreaterThan(menu.Price) {
		return models.ItemSnapshot{}, utils.Invalidf("discount", "menu %s has a discount outside 0..price", menu.Name)
	}
	return models.ItemSnapshot{
		ProductID:   menu.ID,
		ProductName: menu.Name,
		UnitPrice:   menu.Price,
		Discount:    menu.Discount,
		Temperature: it.Temperature,
		IceLevel:    it.IceLevel,
		SugarLevel:  it.SugarLevel,
		Takeaway:    it.Takeaway,
		Notes:       it.Notes,
	}, nil
}

// replaceItems rewrites an order's persisted lines from its in-memory state.
func replaceItems(tx *gorm.DB, o *models.Order) error {
	if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return nil
	}
	for i := range o.Items {
		o.Items[i].ID = 0
		o.Items[i].OrderID = o.ID
	}
	return tx.Create(&o.Items).Error
}

func (s *OrderService) saveOrder(db *gorm.DB, o *models.Order) error {
	prev := o.LockVersion
	o.LockVersion++
	return SaveVersioned(db, o, o.ID, prev)
}

// PlaceOrder creates an order in an active session. The order row is
// persisted first to obtain its identifier, then the lines; the two steps
// are not atomic.
func (s *OrderService) PlaceOrder(ctx context.Context, sessionID uint, deviceToken *string, items []PlaceItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, utils.Invalidf("items", "order must contain at least one item")
	}

	db := s.db.WithContext(ctx)

	var session models.GuestSession
	if err := db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("session %d not found", sessionID)
		}
		return nil, err
	}
	if !session.IsActive() {
		return nil, utils.Conflictf("session %d is closed", session.ID)
	}

	snapshots := make([]models.ItemSnapshot, len(items))
	for i, it := range items {
		if it.Quantity < 1 {
			return nil, utils.Invalidf("quantity", "must be at least 1")
		}
		snap, err := s.snapshot(ctx, it)
		if err != nil {
			return nil, err
		}
		snapshots[i] = snap
	}

	order := models.NewOrder(session.ID, session.CustomerID, deviceToken)
	if err := db.Create(order).Error; err != nil {
		return nil, err
	}

	for i, snap := range snapshots {
		if err := order.AddItem(snap, items[i].Quantity); err != nil {
			return nil, err
		}
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if err := db.Create(&order.Items).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("order %s placed in session %d (%d lines)", order.OrderNumber, session.ID, len(order.Items))

	var rec events.Recorder
	rec.Record(events.EventOrderPlaced, order.ID)
	rec.Flush(s.events)

	return order, nil
}

// MergeOrders folds every line of the secondaries into the primary and
// force-cancels them. All orders involved must be unpaid.
func (s *OrderService) MergeOrders(ctx context.Context, primaryID uint, secondaryIDs []uint) (*models.Order, error) {
	if len(secondaryIDs) == 0 {
		return nil, utils.Invalidf("secondary_ids", "at least one secondary order is required")
	}
	for _, id := range secondaryIDs {
		if id == primaryID {
			return nil, utils.Conflictf("an order cannot be merged into itself")
		}
	}

	db := s.db.WithContext(ctx)

	primary, err := s.loadOrder(db, primaryID)
	if err != nil {
		return nil, err
	}

	var secondaries []models.Order
	if err := db.Preload("Items").Where("id IN ?", secondaryIDs).Find(&secondaries).Error; err != nil {
		return nil, err
	}
	if len(secondaries) != len(secondaryIDs) {
		return nil, utils.NotFoundf("one or more secondary orders not found")
	}

	if !primary.IsUnpaid() {
		return nil, utils.Conflictf("primary order %s is %s, only unpaid orders can merge", primary.OrderNumber, primary.PaymentStatus)
	}
	for i := range secondaries {
		if !secondaries[i].IsUnpaid() {
			return nil, utils.Conflictf("order %s is %s, only unpaid orders can merge", secondaries[i].OrderNumber, secondaries[i].PaymentStatus)
		}
	}

	for i := range secondaries {
		sec := &secondaries[i]
		for _, item := range sec.Items {
			snap := models.ItemSnapshot{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				UnitPrice:   item.UnitPrice,
				Discount:    item.Discount,
				Temperature: item.Temperature,
				IceLevel:    item.IceLevel,
				SugarLevel:  item.SugarLevel,
				Takeaway:    item.Takeaway,
				Notes:       item.Notes,
			}
			if err := primary.AddItemForMerge(snap, item.Quantity); err != nil {
				return nil, err
			}
		}
		sec.CancelAsMerged()
	}

	if err := s.saveOrder(db, primary); err != nil {
		return nil, err
	}
	if err := replaceItems(db, primary); err != nil {
		return nil, err
	}
	for i := range secondaries {
		if err := s.saveOrder(db, &secondaries[i]); err != nil {
			return nil, err
		}
	}

	utils.InfoLogger.Printf("merged %d orders into %s", len(secondaries), primary.OrderNumber)

	var rec events.Recorder
	rec.Record(events.EventOrdersMerged, primary.ID)
	rec.Flush(s.events)

	return primary, nil
}

// SplitOrder moves the requested quantities out of an unpaid source order
// into a new order in the same session. A split that would empty the source
// is refused.
func (s *OrderService) SplitOrder(ctx context.Context, orderID uint, items []SplitItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, utils.Invalidf("items", "at least one item is required")
	}

	db := s.db.WithContext(ctx)

	source, err := s.loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	if !source.IsUnpaid() {
		return nil, utils.Conflictf("order %s is %s, only unpaid orders can be split", source.OrderNumber, source.PaymentStatus)
	}

	// Fold duplicate product requests together, then check the whole split
	// against the source before touching anything.
	requested := make(map[uint]int)
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, utils.Invalidf("quantity", "must be at least 1")
		}
		requested[it.ProductID] += it.Quantity
	}
	for pid, qty := range requested {
		have := source.ItemQuantity(pid)
		if have < qty {
			return nil, utils.Invalidf("quantity", "order holds %d of product %d, cannot split off %d", have, pid, qty)
		}
	}
	remaining := 0
	for _, item := range source.Items {
		remaining += item.Quantity - requested[item.ProductID]
	}
	if remaining == 0 {
		return nil, utils.Invalidf("items", "split would leave the source order empty")
	}

	split := models.NewOrder(source.SessionID, source.CustomerID, source.DeviceToken)
	if err := db.Create(split).Error; err != nil {
		return nil, err
	}

	for pid, qty := range requested {
		var line *models.OrderItem
		for i := range source.Items {
			if source.Items[i].ProductID == pid {
				line = &source.Items[i]
				break
			}
		}
		snap := models.ItemSnapshot{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Discount:    line.Discount,
			Temperature: line.Temperature,
			IceLevel:    line.IceLevel,
			SugarLevel:  line.SugarLevel,
			Takeaway:    line.Takeaway,
			Notes:       line.Notes,
		}
		if err := split.AddItem(snap, qty); err != nil {
			return nil, err
		}
		if err := source.RemoveQuantity(pid, qty); err != nil {
			return nil, err
		}
	}

	for i := range split.Items {
		split.Items[i].OrderID = split.ID
	}
	if err := db.Create(&split.Items).Error; err != nil {
		return nil, err
	}
	if err := s.saveOrder(db, source); err != nil {
		return nil, err
	}
	if err := replaceItems(db, source); err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("order %s split into %s", source.OrderNumber, split.OrderNumber)

	var rec events.Recorder
	rec.Record(events.EventOrderSplit, split.ID)
	rec.Flush(s.events)

	return split, nil
}

// UpdateOrderItem sets a line's quantity: zero removes it, a positive value
// creates or updates it. When the caller supplies a session id it must own
// the order, which is the guard that keeps an anonymous table-side client
// inside its own cart.
func (s *OrderService) UpdateOrderItem(ctx context.Context, orderID, productID uint, quantity int, sessionID *uint) (*models.Order, error) {
	if quantity < 0 {
		return nil, utils.Invalidf("quantity", "must not be negative")
	}

	db := s.db.WithContext(ctx)

	order, err := s.loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	if sessionID != nil && *sessionID != order.SessionID {
		return nil, utils.Forbiddenf("order %s does not belong to this session", order.OrderNumber)
	}
	if err := order.CanEditItems(); err != nil {
		return nil, err
	}

	found := order.SetItemQuantity(productID, quantity)
	if !found {
		if quantity == 0 {
			// Removing an absent line is an idempotent no-op.
			return order, nil
		}
		snap, err := s.snapshot(ctx, PlaceItem{ProductID: productID, Quantity: quantity})
		if err != nil {
			return nil, err
		}
		if err := order.AddItem(snap, quantity); err != nil {
			return nil, err
		}
	}

	if err := s.saveOrder(db, order); err != nil {
		return nil, err
	}
	if err := replaceItems(db, order); err != nil {
		return nil, err
	}

	var rec events.Recorder
	rec.Record(events.EventOrderUpdated, order.ID)
	rec.Flush(s.events)

	return order, nil
}

// UpdateOrderStatus translates an external status string into a guarded
// state-machine transition.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, rawStatus string) (*models.Order, error) {
	target, err := models.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, utils.Invalidf("status", "%v", err)
	}

	db := s.db.WithContext(ctx)
	order, err := s.loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}

	if target == models.OrderCancelled {
		err = order.Cancel()
	} else {
		err = order.ChangeStatus(target)
	}
	if err != nil {
		return nil, err
	}

	if err := s.saveOrder(db, order); err != nil {
		return nil, err
	}

	var rec events.Recorder
	rec.Record(events.EventOrderUpdated, order.ID)
	rec.Flush(s.events)

	return order, nil
}

// UpdatePayment records the settlement sub-state of an order.
func (s *OrderService) UpdatePayment(ctx context.Context, orderID uint, rawStatus, rawMethod string, amountReceived *decimal.Decimal, tip decimal.Decimal) (*models.Order, error) {
	status, err := models.ParsePaymentStatus(rawStatus)
	if err != nil {
		return nil, utils.Invalidf("payment_status", "%v", err)
	}
	method, err := models.ParsePaymentMethod(rawMethod)
	if err != nil {
		return nil, utils.Invalidf("payment_method", "%v", err)
	}

	db := s.db.WithContext(ctx)
	order, err := s.loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.UpdatePayment(status, method, amountReceived, tip); err != nil {
		return nil, err
	}
	if err := s.saveOrder(db, order); err != nil {
		return nil, err
	}

	var rec events.Recorder
	rec.Record(events.EventOrderUpdated, order.ID)
	rec.Flush(s.events)

	return order, nil
}

// GetOrder loads one order with its lines.
func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.loadOrder(s.db.WithContext(ctx), orderID)
}

// ListSessionOrders returns every order of a session, oldest first.
func (s *OrderService) ListSessionOrders(ctx context.Context, sessionID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("session_id = ?", sessionID).
		Order("created_at asc").
		Find(&orders).Error
	return orders, err
}
