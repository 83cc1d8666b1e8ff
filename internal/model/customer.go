package model

type Customer struct {
	BaseModel
	Name    string `gorm:"type:varchar(100);not null" json:"name" validate:"required"`
	Contact string `gorm:"type:varchar(50)" json:"contact"`
	Address string `gorm:"type:text" json:"address"`

	// Relasi
	Orders []Order `json:"orders,omitempty"`
}
