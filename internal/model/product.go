package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Name          string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_name_spec" json:"name" validate:"required"`
	Specification string          `gorm:"type:varchar(200);not null;uniqueIndex:idx_product_name_spec" json:"specification" validate:"required"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"cost_price"`
	CurrentStock  int             `gorm:"default:0" json:"current_stock"`
	SoldQuantity  int             `gorm:"default:0" json:"sold_quantity"`

	// User tracking
	CreatedByUserID *string `gorm:"type:varchar(255)" json:"created_by_user_id,omitempty"`
	UpdatedByUserID *string `gorm:"type:varchar(255)" json:"updated_by_user_id,omitempty"`
	CreatedByUser   *User   `gorm:"foreignKey:CreatedByUserID;references:ID" json:"created_by_user,omitempty"`
	UpdatedByUser   *User   `gorm:"foreignKey:UpdatedByUserID;references:ID" json:"updated_by_user,omitempty"`

	// Relasi
	Orders       []Order       `json:"orders,omitempty"`
	StockRecords []StockRecord `json:"stock_records,omitempty"`
}
