package repository

import (
	"go-sales-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryStats is the product-side slice of the dashboard payload
type InventoryStats struct {
	TotalProducts   int64           `json:"total_products"`
	LowStockCount   int64           `json:"low_stock_count"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByNameAndSpec(name, specification string) (*model.Product, error)
	FindLowStock(threshold int) ([]model.Product, error)
	Update(product *model.Product) error
	Delete(id uuid.UUID) error
	CountOrders(id uuid.UUID) (int64, error)
	UpdateStockCounters(tx *gorm.DB, id uuid.UUID, currentStock, soldQuantity int, updatedBy string) error
	GetInventoryStats(lowStockThreshold int) (*InventoryStats, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Preload("CreatedByUser").Preload("UpdatedByUser").Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.Preload("CreatedByUser").Preload("UpdatedByUser").First(&product, "id = ?", id).Error
	return &product, err
}

func (r *productRepo) FindByNameAndSpec(name, specification string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "name = ? AND specification = ?", name, specification).Error
	return &product, err
}

func (r *productRepo) FindLowStock(threshold int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("current_stock <= ?", threshold).Order("current_stock ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Product{}, "id = ?", id).Error
}

// CountOrders is used to enforce restrict-delete while orders reference the product
func (r *productRepo) CountOrders(id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Order{}).Where("product_id = ?", id).Count(&count).Error
	return count, err
}

func (r *productRepo) GetInventoryStats(lowStockThreshold int) (*InventoryStats, error) {
	var stats InventoryStats

	if err := r.db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	r.db.Model(&model.Product{}).Where("current_stock <= ?", lowStockThreshold).Count(&stats.LowStockCount)
	r.db.Model(&model.Product{}).Where("current_stock = 0").Count(&stats.OutOfStockCount)

	// Total valuation (SUM of current_stock * cost_price)
	err := r.db.Model(&model.Product{}).
		Select("COALESCE(SUM(current_stock * cost_price), 0)").
		Scan(&stats.TotalStockValue).Error

	return &stats, err
}

// UpdateStockCounters menerima *gorm.DB (tx) agar bisa berjalan dalam transaksi
func (r *productRepo) UpdateStockCounters(tx *gorm.DB, id uuid.UUID, currentStock, soldQuantity int, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_stock": currentStock,
			"sold_quantity": soldQuantity,
			"updated_by":    updatedBy,
		}).Error
}
