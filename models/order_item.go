package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one line of an order. ProductName and UnitPrice are snapshots
// taken when the line was added; later menu edits never touch them.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Discount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	Temperature string          `gorm:"type:varchar(20)" json:"temperature,omitempty"`
	IceLevel    string          `gorm:"type:varchar(20)" json:"ice_level,omitempty"`
	SugarLevel  string          `gorm:"type:varchar(20)" json:"sugar_level,omitempty"`
	Takeaway    bool            `gorm:"not null;default:false" json:"takeaway"`
	Notes       string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

// LineTotal is (unit price - discount) * quantity.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Sub(i.Discount).Mul(decimal.NewFromInt(int64(i.Quantity)))
}
