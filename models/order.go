package models

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dineboard/table-order-app/utils"
)

// Order is a purchasable cart within a guest session. Kitchen status and
// payment status move independently of each other.
type Order struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	OrderNumber    string           `gorm:"type:varchar(40);not null" json:"order_number"`
	SessionID      uint             `gorm:"not null;index" json:"session_id"`
	Session        GuestSession     `gorm:"foreignKey:SessionID" json:"-"`
	CustomerID     *uint            `json:"customer_id,omitempty"`
	DeviceToken    *string          `gorm:"type:varchar(64)" json:"device_token,omitempty"`
	Status         OrderStatus      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentStatus  PaymentStatus    `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	PaymentMethod  PaymentMethod    `gorm:"type:varchar(20);not null;default:'unknown'" json:"payment_method"`
	AmountReceived *decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount_received,omitempty"`
	TipAmount      decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"tip_amount"`
	OrderDate      time.Time        `gorm:"not null" json:"order_date"`
	LockVersion    uint             `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"not null" json:"updated_at"`
	Items          []OrderItem      `gorm:"foreignKey:OrderID" json:"items"`
}

// ItemSnapshot carries the catalog data captured for a new line.
type ItemSnapshot struct {
	ProductID   uint
	ProductName string
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Temperature string
	IceLevel    string
	SugarLevel  string
	Takeaway    bool
	Notes       string
}

func NewOrder(sessionID uint, customerID *uint, deviceToken *string) *Order {
	now := time.Now()
	return &Order{
		OrderNumber:   generateOrderNumber(now),
		SessionID:     sessionID,
		CustomerID:    customerID,
		DeviceToken:   deviceToken,
		Status:        OrderPending,
		PaymentStatus: PaymentUnpaid,
		PaymentMethod: MethodUnknown,
		TipAmount:     decimal.Zero,
		OrderDate:     now,
	}
}

func generateOrderNumber(at time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", at.Format("20060102-150405"), rand.Intn(10000))
}

// TotalAmount is the derived sum over lines: (unit price - discount) * qty.
func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].LineTotal())
	}
	return total
}

func (o *Order) CanAddItems() bool {
	return o.Status == OrderPending
}

func (o *Order) IsUnpaid() bool {
	return o.PaymentStatus == PaymentUnpaid
}

// CanEditItems guards guest-facing quantity edits: Pending and Unpaid only.
func (o *Order) CanEditItems() error {
	if o.Status != OrderPending {
		return utils.Conflictf("cannot edit items of order in %s status", o.Status)
	}
	if !o.IsUnpaid() {
		return utils.Conflictf("cannot edit items of a %s order", o.PaymentStatus)
	}
	return nil
}

func (o *Order) findItem(productID uint) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}

// ItemQuantity returns the current quantity for a product, zero if absent.
func (o *Order) ItemQuantity(productID uint) int {
	if it := o.findItem(productID); it != nil {
		return it.Quantity
	}
	return 0
}

// AddItem folds a quantity into the cart, accumulating onto an existing line
// for the same product. Refused outside Pending.
func (o *Order) AddItem(snap ItemSnapshot, quantity int) error {
	if !o.CanAddItems() {
		return utils.Conflictf("cannot add items to order in %s status", o.Status)
	}
	return o.addItem(snap, quantity)
}

// AddItemForMerge is the merge-protocol entry point: same accumulation as
// AddItem but without the Pending guard, because a merge primary may already
// be Processing.
func (o *Order) AddItemForMerge(snap ItemSnapshot, quantity int) error {
	return o.addItem(snap, quantity)
}

func (o *Order) addItem(snap ItemSnapshot, quantity int) error {
	if quantity < 1 {
		return utils.Invalidf("quantity", "must be at least 1")
	}
	if snap.Discount.IsNegative() || snap.Discount.GreaterThan(snap.UnitPrice) {
		return utils.Invalidf("discount", "must be between 0 and the unit price")
	}
	if existing := o.findItem(snap.ProductID); existing != nil {
		existing.Quantity += quantity
		return nil
	}
	o.Items = append(o.Items, OrderItem{
		OrderID:     o.ID,
		ProductID:   snap.ProductID,
		ProductName: snap.ProductName,
		UnitPrice:   snap.UnitPrice,
		Discount:    snap.Discount,
		Quantity:    quantity,
		Temperature: snap.Temperature,
		IceLevel:    snap.IceLevel,
		SugarLevel:  snap.SugarLevel,
		Takeaway:    snap.Takeaway,
		Notes:       snap.Notes,
	})
	return nil
}

// SetItemQuantity overwrites a line's quantity. Zero removes the line and is
// idempotent; a missing line with a positive quantity reports found=false so
// the caller can snapshot the product and add it instead.
func (o *Order) SetItemQuantity(productID uint, quantity int) (found bool) {
	it := o.findItem(productID)
	if it == nil {
		return false
	}
	if quantity == 0 {
		o.removeItem(productID)
		return true
	}
	it.Quantity = quantity
	return true
}

// RemoveQuantity subtracts a quantity from a line, dropping the line when it
// reaches zero. Used by the split protocol on the source order.
func (o *Order) RemoveQuantity(productID uint, quantity int) error {
	it := o.findItem(productID)
	if it == nil {
		return utils.Invalidf("product_id", "order has no line for product %d", productID)
	}
	if quantity > it.Quantity {
		return utils.Invalidf("quantity", "order holds %d of product %d, cannot remove %d",
			it.Quantity, productID, quantity)
	}
	it.Quantity -= quantity
	if it.Quantity == 0 {
		o.removeItem(productID)
	}
	return nil
}

func (o *Order) removeItem(productID uint) {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			return
		}
	}
}

// ChangeStatus performs a guarded transition per the status table.
func (o *Order) ChangeStatus(target OrderStatus) error {
	if !o.Status.CanTransition(target) {
		return utils.Conflictf("cannot move order %s from %s to %s", o.OrderNumber, o.Status, target)
	}
	o.Status = target
	return nil
}

// Cancel is the guarded cancellation path.
func (o *Order) Cancel() error {
	if !o.Status.CanTransition(OrderCancelled) {
		return utils.Conflictf("Cannot cancel order in %s status", o.Status)
	}
	o.Status = OrderCancelled
	return nil
}

// CancelAsMerged force-cancels a merge secondary, skipping the transition
// table: merging must be able to retire a non-Pending order.
func (o *Order) CancelAsMerged() {
	o.Status = OrderCancelled
}

// UpdatePayment records settlement evidence. A Paid status without a known
// method is refused regardless of the other fields.
func (o *Order) UpdatePayment(status PaymentStatus, method PaymentMethod, amountReceived *decimal.Decimal, tip decimal.Decimal) error {
	if status == PaymentPaid && method == MethodUnknown {
		return utils.Invalidf("payment_method", "a paid order requires a payment method")
	}
	if tip.IsNegative() {
		return utils.Invalidf("tip_amount", "must not be negative")
	}
	if amountReceived != nil && amountReceived.IsNegative() {
		return utils.Invalidf("amount_received", "must not be negative")
	}
	o.PaymentStatus = status
	o.PaymentMethod = method
	o.AmountReceived = amountReceived
	o.TipAmount = tip
	return nil
}
