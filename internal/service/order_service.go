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
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("unrecognized order status")
	ErrInsufficientStock = errors.New("insufficient stock for reservation")
	ErrNegativePrice     = errors.New("unit price and other costs cannot be negative")
)

type OrderService interface {
	CreateOrder(req *CreateOrderRequest, userID, userName string) (*model.Order, error)
	UpdateOrderStatus(id uuid.UUID, newStatus string, userID, userName string) (*model.Order, error)
	BulkUpdateStatus(ids []uuid.UUID, newStatus string, userID, userName string) *BulkStatusResult
	UpdateOrder(id uuid.UUID, req *UpdateOrderRequest, userID string) (*model.Order, error)
	DeleteOrder(id uuid.UUID, userID string) error
	GetOrders() ([]model.Order, error)
	GetOrderByID(id uuid.UUID) (*model.Order, error)
}

type CreateOrderRequest struct {
	BatchID    string          `json:"batch_id" validate:"required"`
	CustomerID string          `json:"customer_id" validate:"required"`
	ProductID  string          `json:"product_id" validate:"required"`
	Quantity   int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	OtherCosts decimal.Decimal `json:"other_costs"`
	Status     string          `json:"status"` // defaults to pending
	Remark     string          `json:"remark"`
	OrderDate  string          `json:"order_date"` // YYYY-MM-DD, defaults to today
}

type UpdateOrderRequest struct {
	Quantity   *int             `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	OtherCosts *decimal.Decimal `json:"other_costs"`
	Remark     *string          `json:"remark"`
	OrderDate  *string          `json:"order_date"`
}

type BulkStatusResult struct {
	UpdatedCount int      `json:"updated_count"`
	Errors       []string `json:"errors,omitempty"`
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	batchSvc    BatchService
	db          *gorm.DB
	wsHub       *ws.Hub
}

func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, batchSvc BatchService, db *gorm.DB, hub *ws.Hub) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		batchSvc:    batchSvc,
		db:          db,
		wsHub:       hub,
	}
}

// CreateOrder persists a new order with its derived money fields computed from
// the product's cost price at creation time. When the initial status is a
// counted one, stock is reserved in the same transaction; if the product does
// not have enough stock the order is still created but forced to pending
// instead of being rejected.
func (s *orderService) CreateOrder(req *CreateOrderRequest, userID, userName string) (*model.Order, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if req.UnitPrice.IsNegative() || req.OtherCosts.IsNegative() {
		return nil, ErrNegativePrice
	}

	batchID, err := uuid.Parse(req.BatchID)
	if err != nil {
		return nil, ErrBatchNotFound
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	status := model.OrderPending
	if req.Status != "" {
		status = model.OrderStatus(req.Status)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
	}

	orderDate := time.Now()
	if req.OrderDate != "" {
		parsed, err := time.Parse("2006-01-02", req.OrderDate)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		orderDate = parsed
	}

	var order *model.Order

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var batch model.Batch
		if err := tx.First(&batch, "id = ?", batchID).Error; err != nil {
			return ErrBatchNotFound
		}
		var customer model.Customer
		if err := tx.First(&customer, "id = ?", customerID).Error; err != nil {
			return ErrCustomerNotFound
		}
		var product model.Product
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&product, "id = ?", productID).Error; err != nil {
			return ErrProductNotFound
		}

		order = &model.Order{
			BatchID:    batchID,
			CustomerID: customerID,
			ProductID:  productID,
			Quantity:   req.Quantity,
			UnitPrice:  req.UnitPrice,
			CostPrice:  product.CostPrice, // snapshot
			OtherCosts: req.OtherCosts,
			Remark:     req.Remark,
			OrderDate:  orderDate,
		}
		order.RecomputeFinancials()
		order.CreatedBy = userID
		order.UpdatedBy = userID
		order.CreatedByUserID = &userID

		if status.Counted() {
			if product.CurrentStock < req.Quantity {
				// Not enough stock to reserve: keep the order but force it
				// back to pending rather than rejecting the creation
				status = model.OrderPending
			} else {
				newStock := product.CurrentStock - req.Quantity
				newSold := product.SoldQuantity + req.Quantity
				if err := s.productRepo.UpdateStockCounters(tx, product.ID, newStock, newSold, userID); err != nil {
					return err
				}
			}
		}
		order.Status = status

		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}

	s.batchSvc.RecalculateOrZero(batchID)
	s.broadcastOrder("order_created", userName, order)

	return order, nil
}

// UpdateOrderStatus applies the status state machine and its stock side
// effects as one atomic unit:
//
//	uncounted -> counted:              reserve, insufficient stock rejects
//	counted   -> cancelled | refunded: release the reservation
//	anything else:                     no stock side effect
func (s *orderService) UpdateOrderStatus(id uuid.UUID, newStatus string, userID, userName string) (*model.Order, error) {
	status := model.OrderStatus(newStatus)
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var order model.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// lock the order too, so concurrent transitions of the same order
		// serialize instead of both acting on the stale status
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&order, "id = ?", id).Error; err != nil {
			return ErrOrderNotFound
		}
		var product model.Product
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&product, "id = ?", order.ProductID).Error; err != nil {
			return ErrProductNotFound
		}

		oldStatus := order.Status

		if !oldStatus.Counted() && status.Counted() {
			if product.CurrentStock < order.Quantity {
				return ErrInsufficientStock
			}
			newStock := product.CurrentStock - order.Quantity
			newSold := product.SoldQuantity + order.Quantity
			if err := s.productRepo.UpdateStockCounters(tx, product.ID, newStock, newSold, userID); err != nil {
				return err
			}
		} else if oldStatus.Counted() && (status == model.OrderCancelled || status == model.OrderRefunded) {
			newStock := product.CurrentStock + order.Quantity
			newSold := product.SoldQuantity - order.Quantity
			if err := s.productRepo.UpdateStockCounters(tx, product.ID, newStock, newSold, userID); err != nil {
				return err
			}
		}

		order.Status = status
		return tx.Model(&order).Updates(map[string]interface{}{
			"status":     status,
			"updated_by": userID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.batchSvc.RecalculateOrZero(order.BatchID)
	s.broadcastOrder("order_status_updated", userName, &order)

	return &order, nil
}

// BulkUpdateStatus transitions each order independently; failing orders are
// skipped and reported, the rest go through.
func (s *orderService) BulkUpdateStatus(ids []uuid.UUID, newStatus string, userID, userName string) *BulkStatusResult {
	result := &BulkStatusResult{}
	for _, id := range ids {
		if _, err := s.UpdateOrderStatus(id, newStatus, userID, userName); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("order %s: %v", id, err))
			continue
		}
		result.UpdatedCount++
	}
	return result
}

// UpdateOrder changes quantity, prices, or costs and recomputes the derived
// fields from the snapshotted cost price. When the order is counted and the
// quantity changes, only the delta is applied to stock; a positive delta not
// covered by current stock rejects the update.
func (s *orderService) UpdateOrder(id uuid.UUID, req *UpdateOrderRequest, userID string) (*model.Order, error) {
	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, fmt.Errorf("validation failed: field 'Quantity' failed on tag 'gt'")
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, ErrNegativePrice
	}
	if req.OtherCosts != nil && req.OtherCosts.IsNegative() {
		return nil, ErrNegativePrice
	}

	var order model.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&order, "id = ?", id).Error; err != nil {
			return ErrOrderNotFound
		}
		var product model.Product
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&product, "id = ?", order.ProductID).Error; err != nil {
			return ErrProductNotFound
		}

		oldQuantity := order.Quantity

		if req.Quantity != nil {
			order.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			order.UnitPrice = *req.UnitPrice
		}
		if req.OtherCosts != nil {
			order.OtherCosts = *req.OtherCosts
		}
		if req.Remark != nil {
			order.Remark = *req.Remark
		}
		if req.OrderDate != nil {
			parsed, err := time.Parse("2006-01-02", *req.OrderDate)
			if err != nil {
				return ErrInvalidDateFormat
			}
			order.OrderDate = parsed
		}
		order.RecomputeFinancials()
		order.UpdatedBy = userID

		if delta := order.Quantity - oldQuantity; delta != 0 && order.Status.Counted() {
			if delta > 0 && product.CurrentStock < delta {
				return ErrInsufficientStock
			}
			newStock := product.CurrentStock - delta
			newSold := product.SoldQuantity + delta
			if err := s.productRepo.UpdateStockCounters(tx, product.ID, newStock, newSold, userID); err != nil {
				return err
			}
		}

		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}

	s.batchSvc.RecalculateOrZero(order.BatchID)

	return &order, nil
}

// DeleteOrder removes the order, releasing its stock reservation first when
// it was in a counted status, then recomputes the owning batch.
func (s *orderService) DeleteOrder(id uuid.UUID, userID string) error {
	var order model.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&order, "id = ?", id).Error; err != nil {
			return ErrOrderNotFound
		}

		if order.Status.Counted() {
			var product model.Product
			if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&product, "id = ?", order.ProductID).Error; err != nil {
				return ErrProductNotFound
			}
			newStock := product.CurrentStock + order.Quantity
			newSold := product.SoldQuantity - order.Quantity
			if err := s.productRepo.UpdateStockCounters(tx, product.ID, newStock, newSold, userID); err != nil {
				return err
			}
		}

		return tx.Delete(&order).Error
	})
	if err != nil {
		return err
	}

	s.batchSvc.RecalculateOrZero(order.BatchID)

	return nil
}

func (s *orderService) GetOrders() ([]model.Order, error) {
	return s.orderRepo.FindAll()
}

func (s *orderService) GetOrderByID(id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) broadcastOrder(action, userName string, order *model.Order) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":   "order_update",
			"action": action,
			"order": map[string]interface{}{
				"id":           order.ID,
				"batch_id":     order.BatchID,
				"status":       order.Status,
				"quantity":     order.Quantity,
				"gross_profit": order.GrossProfit,
			},
			"user": userName,
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
