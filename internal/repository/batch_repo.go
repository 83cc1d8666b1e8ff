package repository

import (
	"go-sales-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BatchRepository interface {
	Create(batch *model.Batch) error
	FindAll() ([]model.Batch, error)
	FindByID(id uuid.UUID) (*model.Batch, error)
	FindByNumber(batchNumber string) (*model.Batch, error)
	Update(batch *model.Batch) error
	Delete(tx *gorm.DB, id uuid.UUID) error
	SumCountedGrossProfit(tx *gorm.DB, id uuid.UUID) (decimal.Decimal, error)
	UpdateTotalProfit(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error
}

type batchRepo struct {
	db *gorm.DB
}

func NewBatchRepo(db *gorm.DB) BatchRepository {
	return &batchRepo{db}
}

func (r *batchRepo) Create(batch *model.Batch) error {
	return r.db.Create(batch).Error
}

func (r *batchRepo) FindAll() ([]model.Batch, error) {
	var batches []model.Batch
	err := r.db.Preload("CreatedByUser").Order("date DESC, created_at DESC").Find(&batches).Error
	return batches, err
}

func (r *batchRepo) FindByID(id uuid.UUID) (*model.Batch, error) {
	var batch model.Batch
	err := r.db.Preload("CreatedByUser").First(&batch, "id = ?", id).Error
	return &batch, err
}

func (r *batchRepo) FindByNumber(batchNumber string) (*model.Batch, error) {
	var batch model.Batch
	err := r.db.First(&batch, "batch_number = ?", batchNumber).Error
	return &batch, err
}

func (r *batchRepo) Update(batch *model.Batch) error {
	return r.db.Save(batch).Error
}

// Delete removes the batch and its orders (cascade). Runs in the caller's tx.
func (r *batchRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Delete(&model.Order{}, "batch_id = ?", id).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Batch{}, "id = ?", id).Error
}

// SumCountedGrossProfit sums gross profit over the batch's orders in a
// counted status. An empty result yields zero.
func (r *batchRepo) SumCountedGrossProfit(tx *gorm.DB, id uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&model.Order{}).
		Where("batch_id = ? AND status IN ?", id, model.CountedStatuses).
		Select("COALESCE(SUM(gross_profit), 0)").
		Scan(&total).Error
	return total, err
}

func (r *batchRepo) UpdateTotalProfit(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	return tx.Model(&model.Batch{}).Where("id = ?", id).Update("total_profit", total).Error
}
