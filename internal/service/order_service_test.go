package service

import (
	"encoding/json"
	"testing"
	"time"

	"go-sales-inventory/internal/model"
	"go-sales-inventory/internal/repository"
	"go-sales-inventory/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}

func TestCreateOrderComputesDerivedFields(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "8.50", 100)
	batch := env.createBatch(t, "B-2025-001")
	customer := env.createCustomer(t, "Acme")

	order, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   4,
		UnitPrice:  dec("12.00"),
		OtherCosts: dec("3.00"),
	}, "tester", "Tester")
	require.NoError(t, err)

	assert.Equal(t, model.OrderPending, order.Status)
	requireDecimal(t, "48.00", order.SalesAmount) // 12.00 * 4
	requireDecimal(t, "37.00", order.TotalCost)   // 8.50 * 4 + 3.00
	requireDecimal(t, "11.00", order.GrossProfit)
	requireDecimal(t, "8.50", order.CostPrice)

	// pending orders never touch stock
	fresh := env.reloadProduct(t, product)
	assert.Equal(t, 100, fresh.CurrentStock)
	assert.Equal(t, 0, fresh.SoldQuantity)
}

func TestCreateCountedOrderReservesStock(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 10)
	batch := env.createBatch(t, "B-2025-002")
	customer := env.createCustomer(t, "Acme")

	order, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   6,
		UnitPrice:  dec("9.00"),
		Status:     string(model.OrderConfirmed),
	}, "tester", "Tester")
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, order.Status)

	fresh := env.reloadProduct(t, product)
	assert.Equal(t, 4, fresh.CurrentStock)
	assert.Equal(t, 6, fresh.SoldQuantity)

	// the counted order feeds straight into the batch total
	freshBatch := env.reloadBatch(t, batch)
	requireDecimal(t, "24.00", freshBatch.TotalProfit) // (9-5)*6
}

func TestCreateCountedOrderFallsBackToPending(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 3)
	batch := env.createBatch(t, "B-2025-003")
	customer := env.createCustomer(t, "Acme")

	order, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   5,
		UnitPrice:  dec("9.00"),
		Status:     string(model.OrderConfirmed),
	}, "tester", "Tester")
	require.NoError(t, err)

	// not enough stock: order still created, demoted to pending, stock untouched
	assert.Equal(t, model.OrderPending, order.Status)
	fresh := env.reloadProduct(t, product)
	assert.Equal(t, 3, fresh.CurrentStock)
	assert.Equal(t, 0, fresh.SoldQuantity)

	freshBatch := env.reloadBatch(t, batch)
	requireDecimal(t, "0", freshBatch.TotalProfit)
}

func TestUpdateStatusRejectsInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 2)
	batch := env.createBatch(t, "B-2025-004")
	customer := env.createCustomer(t, "Acme")

	order, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   5,
		UnitPrice:  dec("9.00"),
	}, "tester", "Tester")
	require.NoError(t, err)

	// unlike creation, an explicit transition into a counted status is rejected
	_, err = env.orders.UpdateOrderStatus(order.ID, string(model.OrderConfirmed), "tester", "Tester")
	require.ErrorIs(t, err, ErrInsufficientStock)

	fresh := env.reloadOrder(t, order)
	assert.Equal(t, model.OrderPending, fresh.Status)
	assert.Equal(t, 2, env.reloadProduct(t, product).CurrentStock)
}

func TestStatusTransitionsMoveStock(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 10)
	batch := env.createBatch(t, "B-2025-005")
	customer := env.createCustomer(t, "Acme")

	order, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   4,
		UnitPrice:  dec("8.00"),
	}, "tester", "Tester")
	require.NoError(t, err)

	// pending -> confirmed reserves
	_, err = env.orders.UpdateOrderStatus(order.ID, string(model.OrderConfirmed), "tester", "Tester")
	require.NoError(t, err)
	assert.Equal(t, 6, env.reloadProduct(t, product).CurrentStock)
	assert.Equal(t, 4, env.reloadProduct(t, product).SoldQuantity)
	requireDecimal(t, "12.00", env.reloadBatch(t, batch).TotalProfit)

	// confirmed -> shipping is counted -> counted: no stock effect
	_, err = env.orders.UpdateOrderStatus(order.ID, string(model.OrderShipping), "tester", "Tester")
	require.NoError(t, err)
	assert.Equal(t, 6, env.reloadProduct(t, product).CurrentStock)

	// shipping -> cancelled releases
	_, err = env.orders.UpdateOrderStatus(order.ID, string(model.OrderCancelled), "tester", "Tester")
	require.NoError(t, err)
	fresh := env.reloadProduct(t, product)
	assert.Equal(t, 10, fresh.CurrentStock)
	assert.Equal(t, 0, fresh.SoldQuantity)
	requireDecimal(t, "0", env.reloadBatch(t, batch).TotalProfit)
}

func TestUpdateOrderAppliesQuantityDelta(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 10)
	batch := env.createBatch(t, "B-2025-006")
	customer := env.createCustomer(t, "Acme")

	order, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   5,
		UnitPrice:  dec("9.00"),
		Status:     string(model.OrderConfirmed),
	}, "tester", "Tester")
	require.NoError(t, err)
	assert.Equal(t, 5, env.reloadProduct(t, product).CurrentStock)

	// 5 -> 8: only the delta of 3 is taken
	newQty := 8
	updated, err := env.orders.UpdateOrder(order.ID, &UpdateOrderRequest{Quantity: &newQty}, "tester")
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Quantity)
	requireDecimal(t, "72.00", updated.SalesAmount)
	fresh := env.reloadProduct(t, product)
	assert.Equal(t, 2, fresh.CurrentStock)
	assert.Equal(t, 8, fresh.SoldQuantity)

	// 8 -> 20 would need 12 more with only 2 left
	tooMany := 20
	_, err = env.orders.UpdateOrder(order.ID, &UpdateOrderRequest{Quantity: &tooMany}, "tester")
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 8, env.reloadOrder(t, order).Quantity)
	assert.Equal(t, 2, env.reloadProduct(t, product).CurrentStock)

	// 8 -> 3 gives 5 back
	fewer := 3
	_, err = env.orders.UpdateOrder(order.ID, &UpdateOrderRequest{Quantity: &fewer}, "tester")
	require.NoError(t, err)
	fresh = env.reloadProduct(t, product)
	assert.Equal(t, 7, fresh.CurrentStock)
	assert.Equal(t, 3, fresh.SoldQuantity)
}

func TestCostPriceIsSnapshottedAtCreation(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "8.50", 100)
	batch := env.createBatch(t, "B-2025-007")
	customer := env.createCustomer(t, "Acme")

	order, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   2,
		UnitPrice:  dec("12.00"),
	}, "tester", "Tester")
	require.NoError(t, err)

	// raise the product's cost price after the order exists
	newCost := dec("99.00")
	_, err = env.stock.UpdateProduct(product.ID, &UpdateProductRequest{CostPrice: &newCost}, "tester")
	require.NoError(t, err)

	// recomputation still uses the snapshot
	newPrice := dec("15.00")
	updated, err := env.orders.UpdateOrder(order.ID, &UpdateOrderRequest{UnitPrice: &newPrice}, "tester")
	require.NoError(t, err)
	requireDecimal(t, "8.50", updated.CostPrice)
	requireDecimal(t, "17.00", updated.TotalCost) // 8.50 * 2
	requireDecimal(t, "13.00", updated.GrossProfit)
}

func TestDeleteCountedOrderReleasesStock(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 10)
	batch := env.createBatch(t, "B-2025-008")
	customer := env.createCustomer(t, "Acme")

	order, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   4,
		UnitPrice:  dec("9.00"),
		Status:     string(model.OrderCompleted),
	}, "tester", "Tester")
	require.NoError(t, err)
	requireDecimal(t, "16.00", env.reloadBatch(t, batch).TotalProfit)

	require.NoError(t, env.orders.DeleteOrder(order.ID, "tester"))

	fresh := env.reloadProduct(t, product)
	assert.Equal(t, 10, fresh.CurrentStock)
	assert.Equal(t, 0, fresh.SoldQuantity)
	requireDecimal(t, "0", env.reloadBatch(t, batch).TotalProfit)

	_, err = env.orders.GetOrderByID(order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 10)
	batch := env.createBatch(t, "B-2025-009")
	customer := env.createCustomer(t, "Acme")

	base := func() *CreateOrderRequest {
		return &CreateOrderRequest{
			BatchID:    batch.ID.String(),
			CustomerID: customer.ID.String(),
			ProductID:  product.ID.String(),
			Quantity:   1,
			UnitPrice:  dec("9.00"),
		}
	}

	req := base()
	req.Status = "delivered"
	_, err := env.orders.CreateOrder(req, "tester", "Tester")
	require.ErrorIs(t, err, ErrInvalidStatus)

	req = base()
	req.UnitPrice = dec("-1")
	_, err = env.orders.CreateOrder(req, "tester", "Tester")
	require.ErrorIs(t, err, ErrNegativePrice)

	req = base()
	req.BatchID = uuid.NewString()
	_, err = env.orders.CreateOrder(req, "tester", "Tester")
	require.ErrorIs(t, err, ErrBatchNotFound)

	req = base()
	req.OrderDate = "31/12/2025"
	_, err = env.orders.CreateOrder(req, "tester", "Tester")
	require.ErrorIs(t, err, ErrInvalidDateFormat)
}

func TestBulkUpdateStatusSkipsFailures(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 6)
	batch := env.createBatch(t, "B-2025-010")
	customer := env.createCustomer(t, "Acme")

	mkOrder := func(qty int) *model.Order {
		order, err := env.orders.CreateOrder(&CreateOrderRequest{
			BatchID:    batch.ID.String(),
			CustomerID: customer.ID.String(),
			ProductID:  product.ID.String(),
			Quantity:   qty,
			UnitPrice:  dec("9.00"),
		}, "tester", "Tester")
		require.NoError(t, err)
		return order
	}

	small := mkOrder(2)
	big := mkOrder(50) // can never be reserved
	other := mkOrder(3)

	result := env.orders.BulkUpdateStatus(
		[]uuid.UUID{small.ID, big.ID, other.ID},
		string(model.OrderConfirmed), "tester", "Tester")

	assert.Equal(t, 2, result.UpdatedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], big.ID.String())

	assert.Equal(t, model.OrderConfirmed, env.reloadOrder(t, small).Status)
	assert.Equal(t, model.OrderPending, env.reloadOrder(t, big).Status)
	assert.Equal(t, 1, env.reloadProduct(t, product).CurrentStock)
}

func nextBroadcast(t *testing.T, hub *ws.Hub) map[string]interface{} {
	t.Helper()
	select {
	case msg := <-hub.Broadcast:
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &payload))
		return payload
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
		return nil
	}
}

func TestStatusUpdateBroadcastCarriesUserName(t *testing.T) {
	env := newTestEnv(t)
	hub := ws.NewHub() // not running; messages queue on the channel
	orders := NewOrderService(
		repository.NewOrderRepo(env.db), env.productRepo, env.batches, env.db, hub)

	product := env.createProduct(t, "5.00", 10)
	batch := env.createBatch(t, "B-2025-011")
	customer := env.createCustomer(t, "Acme")

	order, err := orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   2,
		UnitPrice:  dec("9.00"),
	}, "tester", "Alice")
	require.NoError(t, err)

	created := nextBroadcast(t, hub)
	assert.Equal(t, "order_created", created["action"])
	assert.Equal(t, "Alice", created["user"])

	_, err = orders.UpdateOrderStatus(order.ID, string(model.OrderConfirmed), "tester", "Alice")
	require.NoError(t, err)

	updated := nextBroadcast(t, hub)
	assert.Equal(t, "order_status_updated", updated["action"])
	assert.Equal(t, "Alice", updated["user"])
}
