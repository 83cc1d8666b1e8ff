package service

import (
	"testing"

	"go-sales-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductRejectsDuplicateIdentity(t *testing.T) {
	env := newTestEnv(t)

	req := &CreateProductRequest{
		Name:          "Gadget",
		Specification: "500ml",
		CostPrice:     dec("4.20"),
		CurrentStock:  10,
	}
	_, err := env.stock.CreateProduct(req, "tester", "Tester")
	require.NoError(t, err)

	_, err = env.stock.CreateProduct(req, "tester", "Tester")
	require.ErrorIs(t, err, ErrProductExists)

	// same name, different specification is a different product
	req2 := &CreateProductRequest{Name: "Gadget", Specification: "1L", CostPrice: dec("7.00")}
	_, err = env.stock.CreateProduct(req2, "tester", "Tester")
	require.NoError(t, err)
}

func TestDeleteProductRestrictedByOrders(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 10)
	batch := env.createBatch(t, "B-2025-020")
	customer := env.createCustomer(t, "Acme")

	_, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   1,
		UnitPrice:  dec("9.00"),
	}, "tester", "Tester")
	require.NoError(t, err)

	require.ErrorIs(t, env.stock.DeleteProduct(product.ID), ErrProductHasOrders)

	orphan := env.createProduct(t, "1.00", 0)
	require.NoError(t, env.stock.DeleteProduct(orphan.ID))
}

func TestStockInMovement(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 7)

	record, err := env.stock.RecordMovement(&RecordMovementRequest{
		ProductID:     product.ID.String(),
		OperationType: "in",
		Quantity:      13,
		Remark:        "restock",
	}, "tester", "Tester")
	require.NoError(t, err)

	assert.Equal(t, model.StockIn, record.OperationType)
	assert.Equal(t, 7, record.BeforeStock)
	assert.Equal(t, 20, record.AfterStock)
	assert.Equal(t, 13, record.Quantity)
	assert.Equal(t, 20, env.reloadProduct(t, product).CurrentStock)
}

func TestStockOutClampsAtZero(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 5)

	record, err := env.stock.RecordMovement(&RecordMovementRequest{
		ProductID:     product.ID.String(),
		OperationType: "out",
		Quantity:      20,
	}, "tester", "Tester")
	require.NoError(t, err)

	// over-withdrawal is clamped, the record keeps the applied delta
	assert.Equal(t, 5, record.BeforeStock)
	assert.Equal(t, 0, record.AfterStock)
	assert.Equal(t, -5, record.Quantity)
	assert.Equal(t, 0, env.reloadProduct(t, product).CurrentStock)
}

func TestStockAdjustSetsAbsoluteTarget(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 12)

	target := 42
	record, err := env.stock.RecordMovement(&RecordMovementRequest{
		ProductID:     product.ID.String(),
		OperationType: "adjust",
		TargetStock:   &target,
		Remark:        "annual count",
	}, "tester", "Tester")
	require.NoError(t, err)

	assert.Equal(t, 12, record.BeforeStock)
	assert.Equal(t, 42, record.AfterStock)
	assert.Equal(t, 30, record.Quantity)
	assert.Equal(t, 42, env.reloadProduct(t, product).CurrentStock)

	// adjust downwards
	lower := 10
	record, err = env.stock.RecordMovement(&RecordMovementRequest{
		ProductID:     product.ID.String(),
		OperationType: "adjust",
		TargetStock:   &lower,
	}, "tester", "Tester")
	require.NoError(t, err)
	assert.Equal(t, -32, record.Quantity)
	assert.Equal(t, 10, env.reloadProduct(t, product).CurrentStock)
}

func TestRecordMovementValidation(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 5)

	_, err := env.stock.RecordMovement(&RecordMovementRequest{
		ProductID:     product.ID.String(),
		OperationType: "transfer",
		Quantity:      1,
	}, "tester", "Tester")
	require.Error(t, err) // oneof tag rejects unknown operations

	_, err = env.stock.RecordMovement(&RecordMovementRequest{
		ProductID:     product.ID.String(),
		OperationType: "adjust",
	}, "tester", "Tester")
	require.ErrorIs(t, err, ErrMissingAdjustTarget)

	negative := -3
	_, err = env.stock.RecordMovement(&RecordMovementRequest{
		ProductID:     product.ID.String(),
		OperationType: "adjust",
		TargetStock:   &negative,
	}, "tester", "Tester")
	require.ErrorIs(t, err, ErrNegativeAdjustTarget)

	_, err = env.stock.RecordMovement(&RecordMovementRequest{
		ProductID:     product.ID.String(),
		OperationType: "in",
		Quantity:      0,
	}, "tester", "Tester")
	require.Error(t, err)

	_, err = env.stock.RecordMovement(&RecordMovementRequest{
		ProductID:     uuid.NewString(),
		OperationType: "in",
		Quantity:      1,
	}, "tester", "Tester")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestMovementHistoryPerProduct(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 0)
	other := env.createProduct(t, "2.00", 0)

	for _, qty := range []int{5, 3} {
		_, err := env.stock.RecordMovement(&RecordMovementRequest{
			ProductID:     product.ID.String(),
			OperationType: "in",
			Quantity:      qty,
		}, "tester", "Tester")
		require.NoError(t, err)
	}
	_, err := env.stock.RecordMovement(&RecordMovementRequest{
		ProductID:     other.ID.String(),
		OperationType: "in",
		Quantity:      9,
	}, "tester", "Tester")
	require.NoError(t, err)

	records, err := env.stock.GetProductStockRecords(product.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, product.ID, r.ProductID)
	}
	assert.Equal(t, 8, env.reloadProduct(t, product).CurrentStock)
}
