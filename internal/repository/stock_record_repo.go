package repository

import (
	"time"

	"go-sales-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockRecordRepository interface {
	FindAll() ([]model.StockRecord, error)
	FindByID(id uuid.UUID) (*model.StockRecord, error)
	FindByProduct(productID uuid.UUID) ([]model.StockRecord, error)
	GetMovementSummary(startDate, endDate time.Time) ([]MovementSummary, error)
}

// MovementSummary aggregates stock records per day for dashboard charts
type MovementSummary struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
	Adjusted int    `json:"adjusted"`
}

type stockRecordRepo struct {
	db *gorm.DB
}

func NewStockRecordRepo(db *gorm.DB) StockRecordRepository {
	return &stockRecordRepo{db}
}

func (r *stockRecordRepo) FindAll() ([]model.StockRecord, error) {
	var records []model.StockRecord
	err := r.db.Preload("Product").Preload("OperatedByUser").Order("operated_at DESC").Find(&records).Error
	return records, err
}

func (r *stockRecordRepo) FindByID(id uuid.UUID) (*model.StockRecord, error) {
	var record model.StockRecord
	err := r.db.Preload("Product").Preload("OperatedByUser").First(&record, "id = ?", id).Error
	return &record, err
}

func (r *stockRecordRepo) FindByProduct(productID uuid.UUID) ([]model.StockRecord, error) {
	var records []model.StockRecord
	err := r.db.Preload("OperatedByUser").
		Where("product_id = ?", productID).Order("operated_at DESC").Find(&records).Error
	return records, err
}

func (r *stockRecordRepo) GetMovementSummary(startDate, endDate time.Time) ([]MovementSummary, error) {
	var results []MovementSummary

	rows, err := r.db.Model(&model.StockRecord{}).
		Select(`
			DATE(operated_at) as date,
			COALESCE(SUM(CASE WHEN operation_type = 'in' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN operation_type = 'out' THEN -quantity ELSE 0 END), 0) as outbound,
			COALESCE(SUM(CASE WHEN operation_type = 'adjust' THEN quantity ELSE 0 END), 0) as adjusted
		`).
		Where("operated_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(operated_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data MovementSummary
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound, &data.Adjusted); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}
