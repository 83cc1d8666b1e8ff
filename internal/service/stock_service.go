package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-sales-inventory/internal/model"
	"go-sales-inventory/internal/repository"
	"go-sales-inventory/internal/ws"
	"go-sales-inventory/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductExists       = errors.New("product with this name and specification already exists")
	ErrProductHasOrders    = errors.New("product is referenced by orders and cannot be deleted")
	ErrNegativeCostPrice   = errors.New("cost price cannot be negative")
	ErrInvalidOperation    = errors.New("unrecognized stock operation type")
	ErrMissingAdjustTarget = errors.New("adjust operations require a target stock value")
	ErrNegativeAdjustTarget = errors.New("adjust target stock cannot be negative")
)

type StockService interface {
	CreateProduct(req *CreateProductRequest, userID, userName string) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *UpdateProductRequest, userID string) (*model.Product, error)
	DeleteProduct(id uuid.UUID) error
	GetProducts() ([]model.Product, error)
	GetProductByID(id uuid.UUID) (*model.Product, error)
	GetLowStockProducts(threshold int) ([]model.Product, error)

	RecordMovement(req *RecordMovementRequest, userID, userName string) (*model.StockRecord, error)
	GetStockRecords() ([]model.StockRecord, error)
	GetStockRecordByID(id uuid.UUID) (*model.StockRecord, error)
	GetProductStockRecords(productID uuid.UUID) ([]model.StockRecord, error)
}

type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required"`
	Specification string          `json:"specification" validate:"required"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	CurrentStock  int             `json:"current_stock" validate:"gte=0"`
}

type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	Specification *string          `json:"specification"`
	CostPrice     *decimal.Decimal `json:"cost_price"`
}

type RecordMovementRequest struct {
	ProductID     string `json:"product_id" validate:"required"`
	OperationType string `json:"operation_type" validate:"required,oneof=in out adjust"`
	// Quantity is the movement size for in/out operations
	Quantity int `json:"quantity"`
	// TargetStock is the absolute stock level an adjust operation sets.
	// It is deliberately a separate field instead of overloading Quantity.
	TargetStock *int   `json:"target_stock,omitempty"`
	Remark      string `json:"remark"`
}

type stockService struct {
	productRepo repository.ProductRepository
	recordRepo  repository.StockRecordRepository
	db          *gorm.DB
	wsHub       *ws.Hub
}

func NewStockService(productRepo repository.ProductRepository, recordRepo repository.StockRecordRepository, db *gorm.DB, hub *ws.Hub) StockService {
	return &stockService{
		productRepo: productRepo,
		recordRepo:  recordRepo,
		db:          db,
		wsHub:       hub,
	}
}

func (s *stockService) CreateProduct(req *CreateProductRequest, userID, userName string) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if req.CostPrice.IsNegative() {
		return nil, ErrNegativeCostPrice
	}

	// (name, specification) is the product identity
	existing, _ := s.productRepo.FindByNameAndSpec(req.Name, req.Specification)
	if existing != nil && existing.ID != uuid.Nil {
		return nil, ErrProductExists
	}

	product := &model.Product{
		Name:          req.Name,
		Specification: req.Specification,
		CostPrice:     req.CostPrice,
		CurrentStock:  req.CurrentStock,
	}
	product.CreatedBy = userID
	product.UpdatedBy = userID
	product.CreatedByUserID = &userID
	product.UpdatedByUserID = &userID

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	s.broadcast("product_created", userName, map[string]interface{}{
		"id":            product.ID,
		"name":          product.Name,
		"specification": product.Specification,
		"current_stock": product.CurrentStock,
	})

	return product, nil
}

// UpdateProduct changes master data only. Stock counters are owned by the
// movement recorder and the order lifecycle and are never edited directly.
func (s *stockService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest, userID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Specification != nil {
		product.Specification = *req.Specification
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return nil, ErrNegativeCostPrice
		}
		product.CostPrice = *req.CostPrice
	}
	product.UpdatedBy = userID
	product.UpdatedByUserID = &userID

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *stockService) DeleteProduct(id uuid.UUID) error {
	if _, err := s.productRepo.FindByID(id); err != nil {
		return ErrProductNotFound
	}
	count, err := s.productRepo.CountOrders(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrProductHasOrders
	}
	return s.productRepo.Delete(id)
}

func (s *stockService) GetProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *stockService) GetProductByID(id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *stockService) GetLowStockProducts(threshold int) ([]model.Product, error) {
	return s.productRepo.FindLowStock(threshold)
}

// RecordMovement applies a stock movement to the product and appends the
// immutable audit record, both inside one transaction:
//
//	in:     after = before + quantity
//	out:    after = max(0, before - quantity), over-withdrawal is clamped
//	adjust: after = target stock
func (s *stockService) RecordMovement(req *RecordMovementRequest, userID, userName string) (*model.StockRecord, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	opType := model.StockOperation(req.OperationType)
	switch opType {
	case model.StockIn, model.StockOut:
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for %s operations", opType)
		}
	case model.StockAdjust:
		if req.TargetStock == nil {
			return nil, ErrMissingAdjustTarget
		}
		if *req.TargetStock < 0 {
			return nil, ErrNegativeAdjustTarget
		}
	default:
		return nil, ErrInvalidOperation
	}

	var record *model.StockRecord

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var product model.Product
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&product, "id = ?", productID).Error; err != nil {
			return ErrProductNotFound
		}

		before := product.CurrentStock
		after := before
		switch opType {
		case model.StockIn:
			after = before + req.Quantity
		case model.StockOut:
			after = before - req.Quantity
			if after < 0 {
				after = 0
			}
		case model.StockAdjust:
			after = *req.TargetStock
		}

		if err := s.productRepo.UpdateStockCounters(tx, product.ID, after, product.SoldQuantity, userID); err != nil {
			return err
		}

		record = &model.StockRecord{
			ProductID:     product.ID,
			OperationType: opType,
			Quantity:      after - before,
			BeforeStock:   before,
			AfterStock:    after,
			Remark:        req.Remark,
			OperatedAt:    time.Now(),
		}
		record.CreatedBy = userID
		record.UpdatedBy = userID
		record.OperatedByUserID = &userID

		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("stock_movement", userName, map[string]interface{}{
		"record_id":      record.ID,
		"product_id":     record.ProductID,
		"operation_type": record.OperationType,
		"before_stock":   record.BeforeStock,
		"after_stock":    record.AfterStock,
	})

	return record, nil
}

func (s *stockService) GetStockRecords() ([]model.StockRecord, error) {
	return s.recordRepo.FindAll()
}

func (s *stockService) GetStockRecordByID(id uuid.UUID) (*model.StockRecord, error) {
	return s.recordRepo.FindByID(id)
}

func (s *stockService) GetProductStockRecords(productID uuid.UUID) ([]model.StockRecord, error) {
	if _, err := s.productRepo.FindByID(productID); err != nil {
		return nil, ErrProductNotFound
	}
	return s.recordRepo.FindByProduct(productID)
}

func (s *stockService) broadcast(action, userName string, data map[string]interface{}) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":   "stock_update",
			"action": action,
			"data":   data,
			"user":   userName,
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
