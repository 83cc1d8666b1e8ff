package model

import (
	"time"

	"github.com/google/uuid"
)

type StockOperation string

const (
	StockIn     StockOperation = "in"
	StockOut    StockOperation = "out"
	StockAdjust StockOperation = "adjust"
)

// StockRecord is an append-only audit entry of a stock movement. Records are
// never updated or deleted after creation; the API only exposes create and read.
type StockRecord struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id" validate:"uuid_required"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty" validate:"-"`

	OperationType StockOperation `gorm:"type:varchar(10);not null" json:"operation_type" validate:"required,oneof=in out adjust"`
	// Quantity is the applied delta. For adjust operations the requested
	// absolute target lives in the service request; the delta is stored here.
	Quantity    int    `gorm:"not null" json:"quantity"`
	BeforeStock int    `gorm:"not null" json:"before_stock"`
	AfterStock  int    `gorm:"not null" json:"after_stock"`
	Remark      string `gorm:"type:text" json:"remark"`

	OperatedAt time.Time `gorm:"not null;index" json:"operated_at"`

	// User tracking
	OperatedByUserID *string `gorm:"type:varchar(255)" json:"operated_by_user_id,omitempty"`
	OperatedByUser   *User   `gorm:"foreignKey:OperatedByUserID;references:ID" json:"operated_by_user,omitempty"`
}
