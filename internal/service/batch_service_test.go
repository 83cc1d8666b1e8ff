package service

import (
	"testing"
	"time"

	"go-sales-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBatchUniqueNumber(t *testing.T) {
	env := newTestEnv(t)

	batch, err := env.batches.CreateBatch(&CreateBatchRequest{
		BatchNumber: "B-2025-100",
		Date:        "2025-03-15",
	}, "tester")
	require.NoError(t, err)
	requireDecimal(t, "0", batch.TotalProfit)
	assert.Equal(t, "2025-03-15", batch.Date.Format("2006-01-02"))

	_, err = env.batches.CreateBatch(&CreateBatchRequest{BatchNumber: "B-2025-100"}, "tester")
	require.ErrorIs(t, err, ErrBatchNumberTaken)

	_, err = env.batches.CreateBatch(&CreateBatchRequest{
		BatchNumber: "B-2025-101",
		Date:        "15-03-2025",
	}, "tester")
	require.ErrorIs(t, err, ErrInvalidDateFormat)
}

func TestRecalculateTotalProfitSumsCountedOnly(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 100)
	batch := env.createBatch(t, "B-2025-110")
	customer := env.createCustomer(t, "Acme")

	mkOrder := func(qty int, status model.OrderStatus) {
		_, err := env.orders.CreateOrder(&CreateOrderRequest{
			BatchID:    batch.ID.String(),
			CustomerID: customer.ID.String(),
			ProductID:  product.ID.String(),
			Quantity:   qty,
			UnitPrice:  dec("9.00"),
			Status:     string(status),
		}, "tester", "Tester")
		require.NoError(t, err)
	}

	mkOrder(2, model.OrderConfirmed) // profit 8
	mkOrder(3, model.OrderShipping)  // profit 12
	mkOrder(1, model.OrderCompleted) // profit 4
	mkOrder(10, model.OrderPending)  // not counted
	mkOrder(4, model.OrderCancelled) // not counted

	total, err := env.batches.RecalculateTotalProfit(batch.ID)
	require.NoError(t, err)
	requireDecimal(t, "24.00", total)
	requireDecimal(t, "24.00", env.reloadBatch(t, batch).TotalProfit)
}

func TestRecalculateSkipsRedundantWrite(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 100)
	batch := env.createBatch(t, "B-2025-111")
	customer := env.createCustomer(t, "Acme")

	_, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   2,
		UnitPrice:  dec("9.00"),
		Status:     string(model.OrderConfirmed),
	}, "tester", "Tester")
	require.NoError(t, err)

	before := env.reloadBatch(t, batch)
	time.Sleep(10 * time.Millisecond)

	total, err := env.batches.RecalculateTotalProfit(batch.ID)
	require.NoError(t, err)
	require.True(t, total.Equal(before.TotalProfit))

	// the stored value was already correct, so nothing was written
	after := env.reloadBatch(t, batch)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestRecalculateOrZeroZeroesTotalOnFailure(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 100)
	batch := env.createBatch(t, "B-2025-112")
	customer := env.createCustomer(t, "Acme")

	_, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   2,
		UnitPrice:  dec("9.00"),
		Status:     string(model.OrderConfirmed),
	}, "tester", "Tester")
	require.NoError(t, err)
	requireDecimal(t, "8.00", env.reloadBatch(t, batch).TotalProfit)

	// break the profit aggregation so the recompute fails mid-way
	require.NoError(t, env.db.Migrator().DropTable(&model.Order{}))

	// must not panic or surface the error; the stale cached total is
	// zeroed so a failed recompute never leaves a wrong number behind
	env.batches.RecalculateOrZero(batch.ID)

	requireDecimal(t, "0", env.reloadBatch(t, batch).TotalProfit)
}

func TestRecalculateUnknownBatch(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.batches.RecalculateTotalProfit(uuid.New())
	require.ErrorIs(t, err, ErrBatchNotFound)
}

func TestDeleteBatchReleasesCountedOrders(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 20)
	batch := env.createBatch(t, "B-2025-120")
	customer := env.createCustomer(t, "Acme")

	for _, status := range []model.OrderStatus{model.OrderConfirmed, model.OrderPending} {
		_, err := env.orders.CreateOrder(&CreateOrderRequest{
			BatchID:    batch.ID.String(),
			CustomerID: customer.ID.String(),
			ProductID:  product.ID.String(),
			Quantity:   5,
			UnitPrice:  dec("9.00"),
			Status:     string(status),
		}, "tester", "Tester")
		require.NoError(t, err)
	}
	assert.Equal(t, 15, env.reloadProduct(t, product).CurrentStock)

	require.NoError(t, env.batches.DeleteBatch(batch.ID, "tester"))

	// only the confirmed order held a reservation
	fresh := env.reloadProduct(t, product)
	assert.Equal(t, 20, fresh.CurrentStock)
	assert.Equal(t, 0, fresh.SoldQuantity)

	_, err := env.batches.GetBatchByID(batch.ID)
	require.ErrorIs(t, err, ErrBatchNotFound)

	var orphans int64
	env.db.Model(&model.Order{}).Where("batch_id = ?", batch.ID).Count(&orphans)
	assert.Zero(t, orphans)
}

func TestBatchSummary(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 100)
	batch := env.createBatch(t, "B-2025-130")
	customer := env.createCustomer(t, "Acme")

	mkOrder := func(qty int, status model.OrderStatus) {
		_, err := env.orders.CreateOrder(&CreateOrderRequest{
			BatchID:    batch.ID.String(),
			CustomerID: customer.ID.String(),
			ProductID:  product.ID.String(),
			Quantity:   qty,
			UnitPrice:  dec("10.00"),
			Status:     string(status),
		}, "tester", "Tester")
		require.NoError(t, err)
	}

	mkOrder(2, model.OrderConfirmed) // sales 20, cost 10
	mkOrder(3, model.OrderCompleted) // sales 30, cost 15
	mkOrder(1, model.OrderPending)
	mkOrder(1, model.OrderCancelled)

	summary, err := env.batches.GetBatchSummary(batch.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.TotalOrders)
	assert.Equal(t, int64(2), summary.CountedOrders)
	assert.Equal(t, int64(1), summary.PendingOrders)
	assert.Equal(t, int64(1), summary.CancelledOrders)
	requireDecimal(t, "50.00", summary.TotalSales)
	requireDecimal(t, "25.00", summary.TotalCost)
	requireDecimal(t, "50", summary.ProfitMargin)
}
