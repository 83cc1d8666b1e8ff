package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending         OrderStatus = "pending"
	OrderConfirmed       OrderStatus = "confirmed"
	OrderShipping        OrderStatus = "shipping"
	OrderCompleted       OrderStatus = "completed"
	OrderCancelled       OrderStatus = "cancelled"
	OrderRefundRequested OrderStatus = "refund_requested"
	OrderRefunding       OrderStatus = "refunding"
	OrderRefunded        OrderStatus = "refunded"
)

var orderStatuses = map[OrderStatus]bool{
	OrderPending:         true,
	OrderConfirmed:       true,
	OrderShipping:        true,
	OrderCompleted:       true,
	OrderCancelled:       true,
	OrderRefundRequested: true,
	OrderRefunding:       true,
	OrderRefunded:        true,
}

// Valid reports whether s is a recognized order status
func (s OrderStatus) Valid() bool {
	return orderStatuses[s]
}

// Counted reports whether an order in this status holds a stock reservation
// and contributes to its batch's total profit
func (s OrderStatus) Counted() bool {
	return s == OrderConfirmed || s == OrderShipping || s == OrderCompleted
}

// CountedStatuses is used in queries filtering for profit-contributing orders
var CountedStatuses = []OrderStatus{OrderConfirmed, OrderShipping, OrderCompleted}

type Order struct {
	BaseModel
	BatchID    uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id" validate:"uuid_required"`
	Batch      *Batch    `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"batch,omitempty" validate:"-"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id" validate:"uuid_required"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty" validate:"-"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id" validate:"uuid_required"`
	Product    *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty" validate:"-"`

	Quantity  int             `gorm:"not null" json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	// CostPrice is snapshotted from the product at creation time so that later
	// cost price edits never rewrite historical profit
	CostPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cost_price"`
	OtherCosts decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"other_costs"`

	// Derived fields, recomputed on every save via RecomputeFinancials
	SalesAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sales_amount"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_cost"`
	GrossProfit decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"gross_profit"`

	Status    OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Remark    string      `gorm:"type:text" json:"remark"`
	OrderDate time.Time   `gorm:"type:date;not null" json:"order_date"`

	// User tracking
	CreatedByUserID *string `gorm:"type:varchar(255)" json:"created_by_user_id,omitempty"`
	CreatedByUser   *User   `gorm:"foreignKey:CreatedByUserID;references:ID" json:"created_by_user,omitempty"`
}

// RecomputeFinancials keeps the derived money fields consistent with
// quantity, unit price, other costs, and the snapshotted cost price:
//
//	sales_amount = quantity * unit_price
//	total_cost   = cost_price * quantity + other_costs
//	gross_profit = sales_amount - total_cost
func (o *Order) RecomputeFinancials() {
	qty := decimal.NewFromInt(int64(o.Quantity))
	o.SalesAmount = o.UnitPrice.Mul(qty)
	o.TotalCost = o.CostPrice.Mul(qty).Add(o.OtherCosts)
	o.GrossProfit = o.SalesAmount.Sub(o.TotalCost)
}
