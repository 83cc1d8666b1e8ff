package repository

import (
	"time"

	"go-sales-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepository interface {
	FindAll() ([]model.Order, error)
	FindByID(id uuid.UUID) (*model.Order, error)
	FindByBatch(batchID uuid.UUID) ([]model.Order, error)
	FindByCustomer(customerID uuid.UUID) ([]model.Order, error)
	ProductSalesStats(startDate, endDate *time.Time) ([]ProductSalesStat, error)
	CustomerSalesStats(startDate, endDate *time.Time) ([]CustomerSalesStat, error)
	DailySalesStats(startDate, endDate time.Time) ([]DailySalesStat, error)
	CountedTotals(startDate, endDate time.Time) (*SalesTotals, error)
}

// ProductSalesStat aggregates counted orders per product
type ProductSalesStat struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Specification string          `json:"specification"`
	TotalQuantity int             `json:"total_quantity"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
}

// CustomerSalesStat aggregates counted orders per customer
type CustomerSalesStat struct {
	CustomerID  uuid.UUID       `json:"customer_id"`
	Name        string          `json:"name"`
	OrderCount  int             `json:"order_count"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

// DailySalesStat aggregates counted orders per order date
type DailySalesStat struct {
	Date        string          `json:"date"`
	OrderCount  int             `json:"order_count"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

// SalesTotals is a single aggregate row over counted orders
type SalesTotals struct {
	OrderCount  int64           `json:"order_count"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) FindAll() ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Preload("Batch").Preload("Customer").Preload("Product").Preload("CreatedByUser").
		Order("order_date DESC, created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByID(id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Batch").Preload("Customer").Preload("Product").Preload("CreatedByUser").
		First(&order, "id = ?", id).Error
	return &order, err
}

func (r *orderRepo) FindByBatch(batchID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Preload("Customer").Preload("Product").
		Where("batch_id = ?", batchID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByCustomer(customerID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Preload("Batch").Preload("Product").
		Where("customer_id = ?", customerID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// countedInRange scopes a query to counted orders, optionally bounded by order date
func (r *orderRepo) countedInRange(startDate, endDate *time.Time) *gorm.DB {
	q := r.db.Model(&model.Order{}).Where("status IN ?", model.CountedStatuses)
	if startDate != nil {
		q = q.Where("order_date >= ?", *startDate)
	}
	if endDate != nil {
		q = q.Where("order_date <= ?", *endDate)
	}
	return q
}

func (r *orderRepo) ProductSalesStats(startDate, endDate *time.Time) ([]ProductSalesStat, error) {
	var stats []ProductSalesStat
	err := r.countedInRange(startDate, endDate).
		Select(`
			orders.product_id,
			products.name,
			products.specification,
			COALESCE(SUM(orders.quantity), 0) as total_quantity,
			COALESCE(SUM(orders.sales_amount), 0) as total_sales,
			COALESCE(SUM(orders.gross_profit), 0) as total_profit
		`).
		Joins("JOIN products ON products.id = orders.product_id").
		Group("orders.product_id, products.name, products.specification").
		Order("total_sales DESC").
		Scan(&stats).Error
	return stats, err
}

func (r *orderRepo) CustomerSalesStats(startDate, endDate *time.Time) ([]CustomerSalesStat, error) {
	var stats []CustomerSalesStat
	err := r.countedInRange(startDate, endDate).
		Select(`
			orders.customer_id,
			customers.name,
			COUNT(orders.id) as order_count,
			COALESCE(SUM(orders.sales_amount), 0) as total_sales,
			COALESCE(SUM(orders.gross_profit), 0) as total_profit
		`).
		Joins("JOIN customers ON customers.id = orders.customer_id").
		Group("orders.customer_id, customers.name").
		Order("total_sales DESC").
		Scan(&stats).Error
	return stats, err
}

func (r *orderRepo) DailySalesStats(startDate, endDate time.Time) ([]DailySalesStat, error) {
	var stats []DailySalesStat
	err := r.countedInRange(&startDate, &endDate).
		Select(`
			DATE(order_date) as date,
			COUNT(id) as order_count,
			COALESCE(SUM(sales_amount), 0) as total_sales,
			COALESCE(SUM(gross_profit), 0) as total_profit
		`).
		Group("DATE(order_date)").
		Order("date ASC").
		Scan(&stats).Error
	return stats, err
}

func (r *orderRepo) CountedTotals(startDate, endDate time.Time) (*SalesTotals, error) {
	var totals SalesTotals
	err := r.countedInRange(&startDate, &endDate).
		Select(`
			COUNT(id) as order_count,
			COALESCE(SUM(sales_amount), 0) as total_sales,
			COALESCE(SUM(gross_profit), 0) as total_profit
		`).
		Scan(&totals).Error
	return &totals, err
}
