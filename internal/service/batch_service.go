package service

import (
	"errors"
	"fmt"
	"time"

	"go-sales-inventory/internal/model"
	"go-sales-inventory/internal/repository"
	"go-sales-inventory/pkg/logger"
	"go-sales-inventory/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrBatchNotFound     = errors.New("batch not found")
	ErrBatchNumberTaken  = errors.New("batch number already exists")
	ErrInvalidDateFormat = errors.New("invalid date format, use YYYY-MM-DD")
)

type BatchService interface {
	CreateBatch(req *CreateBatchRequest, userID string) (*model.Batch, error)
	UpdateBatch(id uuid.UUID, req *UpdateBatchRequest, userID string) (*model.Batch, error)
	DeleteBatch(id uuid.UUID, userID string) error
	GetBatches() ([]model.Batch, error)
	GetBatchByID(id uuid.UUID) (*model.Batch, error)
	GetBatchOrders(id uuid.UUID) ([]model.Order, error)
	GetBatchSummary(id uuid.UUID) (*BatchSummary, error)

	// RecalculateTotalProfit re-derives the cached batch total from its
	// counted orders and returns the new value.
	RecalculateTotalProfit(batchID uuid.UUID) (decimal.Decimal, error)
	// RecalculateOrZero is the trigger-path variant used after order
	// mutations: it never fails past its caller. On error it logs and
	// zeroes the cached total instead of leaving a stale value.
	RecalculateOrZero(batchID uuid.UUID)
}

type CreateBatchRequest struct {
	BatchNumber string `json:"batch_number" validate:"required"`
	Date        string `json:"date"` // YYYY-MM-DD, defaults to today
}

type UpdateBatchRequest struct {
	BatchNumber *string `json:"batch_number"`
	Date        *string `json:"date"`
}

// BatchSummary mirrors the admin summary view: order counts by bucket plus
// counted-order money totals and the resulting margin
type BatchSummary struct {
	Batch           *model.Batch    `json:"batch"`
	TotalOrders     int64           `json:"total_orders"`
	CountedOrders   int64           `json:"counted_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	CancelledOrders int64           `json:"cancelled_orders"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	ProfitMargin    decimal.Decimal `json:"profit_margin"` // percent
}

type batchService struct {
	batchRepo   repository.BatchRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	db          *gorm.DB
}

func NewBatchService(batchRepo repository.BatchRepository, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, db *gorm.DB) BatchService {
	return &batchService{
		batchRepo:   batchRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		db:          db,
	}
}

func (s *batchService) CreateBatch(req *CreateBatchRequest, userID string) (*model.Batch, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	existing, _ := s.batchRepo.FindByNumber(req.BatchNumber)
	if existing != nil && existing.ID != uuid.Nil {
		return nil, ErrBatchNumberTaken
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		date = parsed
	}

	batch := &model.Batch{
		BatchNumber: req.BatchNumber,
		Date:        date,
		TotalProfit: decimal.Zero,
	}
	batch.CreatedBy = userID
	batch.UpdatedBy = userID
	batch.CreatedByUserID = &userID

	if err := s.batchRepo.Create(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *batchService) UpdateBatch(id uuid.UUID, req *UpdateBatchRequest, userID string) (*model.Batch, error) {
	batch, err := s.batchRepo.FindByID(id)
	if err != nil {
		return nil, ErrBatchNotFound
	}

	if req.BatchNumber != nil && *req.BatchNumber != batch.BatchNumber {
		existing, _ := s.batchRepo.FindByNumber(*req.BatchNumber)
		if existing != nil && existing.ID != uuid.Nil {
			return nil, ErrBatchNumberTaken
		}
		batch.BatchNumber = *req.BatchNumber
	}
	if req.Date != nil {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		batch.Date = parsed
	}
	batch.UpdatedBy = userID

	if err := s.batchRepo.Update(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// DeleteBatch releases the stock reservations of the batch's counted orders,
// then deletes the batch together with its orders in one transaction.
func (s *batchService) DeleteBatch(id uuid.UUID, userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var batch model.Batch
		if err := tx.First(&batch, "id = ?", id).Error; err != nil {
			return ErrBatchNotFound
		}

		var orders []model.Order
		if err := tx.Where("batch_id = ? AND status IN ?", id, model.CountedStatuses).Find(&orders).Error; err != nil {
			return err
		}
		for _, order := range orders {
			var product model.Product
			if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&product, "id = ?", order.ProductID).Error; err != nil {
				return err
			}
			newStock := product.CurrentStock + order.Quantity
			newSold := product.SoldQuantity - order.Quantity
			if err := s.productRepo.UpdateStockCounters(tx, product.ID, newStock, newSold, userID); err != nil {
				return err
			}
		}

		return s.batchRepo.Delete(tx, id)
	})
}

func (s *batchService) GetBatches() ([]model.Batch, error) {
	return s.batchRepo.FindAll()
}

func (s *batchService) GetBatchByID(id uuid.UUID) (*model.Batch, error) {
	batch, err := s.batchRepo.FindByID(id)
	if err != nil {
		return nil, ErrBatchNotFound
	}
	return batch, nil
}

func (s *batchService) GetBatchOrders(id uuid.UUID) ([]model.Order, error) {
	if _, err := s.batchRepo.FindByID(id); err != nil {
		return nil, ErrBatchNotFound
	}
	return s.orderRepo.FindByBatch(id)
}

func (s *batchService) RecalculateTotalProfit(batchID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Lock the batch row so concurrent recomputes for the same batch
		// serialize instead of racing on the cached total
		var batch model.Batch
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&batch, "id = ?", batchID).Error; err != nil {
			return ErrBatchNotFound
		}

		sum, err := s.batchRepo.SumCountedGrossProfit(tx, batchID)
		if err != nil {
			return err
		}
		total = sum

		// Skip the write when the stored value is already correct
		if batch.TotalProfit.Equal(sum) {
			return nil
		}
		return s.batchRepo.UpdateTotalProfit(tx, batchID, sum)
	})

	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *batchService) RecalculateOrZero(batchID uuid.UUID) {
	if _, err := s.RecalculateTotalProfit(batchID); err != nil {
		logger.LogError("batch", "RecalculateOrZero", "recalculate total profit", batchID.String(), err)
		if zeroErr := s.batchRepo.UpdateTotalProfit(s.db, batchID, decimal.Zero); zeroErr != nil {
			logger.LogError("batch", "RecalculateOrZero", "zero cached total", batchID.String(), zeroErr)
		}
	}
}

func (s *batchService) GetBatchSummary(id uuid.UUID) (*BatchSummary, error) {
	batch, err := s.batchRepo.FindByID(id)
	if err != nil {
		return nil, ErrBatchNotFound
	}

	summary := &BatchSummary{Batch: batch}

	orderQ := s.db.Model(&model.Order{}).Where("batch_id = ?", id)
	if err := orderQ.Count(&summary.TotalOrders).Error; err != nil {
		return nil, err
	}
	s.db.Model(&model.Order{}).Where("batch_id = ? AND status IN ?", id, model.CountedStatuses).Count(&summary.CountedOrders)
	s.db.Model(&model.Order{}).Where("batch_id = ? AND status = ?", id, model.OrderPending).Count(&summary.PendingOrders)
	s.db.Model(&model.Order{}).Where("batch_id = ? AND status = ?", id, model.OrderCancelled).Count(&summary.CancelledOrders)

	s.db.Model(&model.Order{}).
		Where("batch_id = ? AND status IN ?", id, model.CountedStatuses).
		Select("COALESCE(SUM(sales_amount), 0)").Scan(&summary.TotalSales)
	s.db.Model(&model.Order{}).
		Where("batch_id = ? AND status IN ?", id, model.CountedStatuses).
		Select("COALESCE(SUM(total_cost), 0)").Scan(&summary.TotalCost)

	if summary.TotalSales.IsPositive() {
		summary.ProfitMargin = batch.TotalProfit.Div(summary.TotalSales).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return summary, nil
}
