package service

import (
	"testing"
	"time"

	"go-sales-inventory/internal/model"
	"go-sales-inventory/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	orders    OrderService
	batches   BatchService
	stock     StockService
	customers CustomerService

	productRepo repository.ProductRepository
	batchRepo   repository.BatchRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Privilege{}, &model.Role{},
		&model.Customer{}, &model.Product{}, &model.Batch{},
		&model.Order{}, &model.StockRecord{},
	))

	productRepo := repository.NewProductRepo(db)
	recordRepo := repository.NewStockRecordRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	batchRepo := repository.NewBatchRepo(db)
	orderRepo := repository.NewOrderRepo(db)

	batchSvc := NewBatchService(batchRepo, orderRepo, productRepo, db)

	return &testEnv{
		db:          db,
		orders:      NewOrderService(orderRepo, productRepo, batchSvc, db, nil),
		batches:     batchSvc,
		stock:       NewStockService(productRepo, recordRepo, db, nil),
		customers:   NewCustomerService(customerRepo, orderRepo),
		productRepo: productRepo,
		batchRepo:   batchRepo,
	}
}

func (e *testEnv) createProduct(t *testing.T, costPrice string, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:          "Widget",
		Specification: time.Now().Format("150405.000000000"), // unique per call
		CostPrice:     decimal.RequireFromString(costPrice),
		CurrentStock:  stock,
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *testEnv) createBatch(t *testing.T, number string) *model.Batch {
	t.Helper()
	batch := &model.Batch{
		BatchNumber: number,
		Date:        time.Now(),
		TotalProfit: decimal.Zero,
	}
	require.NoError(t, e.db.Create(batch).Error)
	return batch
}

func (e *testEnv) createCustomer(t *testing.T, name string) *model.Customer {
	t.Helper()
	customer := &model.Customer{Name: name, Contact: "555-0100", Address: "1 Main St"}
	require.NoError(t, e.db.Create(customer).Error)
	return customer
}

func (e *testEnv) reloadProduct(t *testing.T, p *model.Product) *model.Product {
	t.Helper()
	var fresh model.Product
	require.NoError(t, e.db.First(&fresh, "id = ?", p.ID).Error)
	return &fresh
}

func (e *testEnv) reloadBatch(t *testing.T, b *model.Batch) *model.Batch {
	t.Helper()
	var fresh model.Batch
	require.NoError(t, e.db.First(&fresh, "id = ?", b.ID).Error)
	return &fresh
}

func (e *testEnv) reloadOrder(t *testing.T, o *model.Order) *model.Order {
	t.Helper()
	var fresh model.Order
	require.NoError(t, e.db.First(&fresh, "id = ?", o.ID).Error)
	return &fresh
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
