package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Batch struct {
	BaseModel
	BatchNumber string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"batch_number" validate:"required"`
	Date        time.Time       `gorm:"type:date;not null" json:"date"`
	TotalProfit decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_profit"`

	// User tracking
	CreatedByUserID *string `gorm:"type:varchar(255)" json:"created_by_user_id,omitempty"`
	CreatedByUser   *User   `gorm:"foreignKey:CreatedByUserID;references:ID" json:"created_by_user,omitempty"`

	// Orders are owned by the batch: deleting the batch deletes them
	Orders []Order `gorm:"constraint:OnDelete:CASCADE" json:"orders,omitempty"`
}

func (Batch) TableName() string {
	return "batches"
}
