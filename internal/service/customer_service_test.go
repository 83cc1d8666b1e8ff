package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerCRUD(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.customers.CreateCustomer(&CustomerRequest{
		Name:    "Acme Corp",
		Contact: "555-0100",
		Address: "1 Main St",
	}, "tester")
	require.NoError(t, err)

	_, err = env.customers.CreateCustomer(&CustomerRequest{}, "tester")
	require.Error(t, err) // name is required

	updated, err := env.customers.UpdateCustomer(created.ID, &CustomerRequest{
		Name:    "Acme Corp",
		Contact: "555-0199",
	}, "tester")
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.Contact)
	assert.Empty(t, updated.Address)

	_, err = env.customers.GetCustomerByID(uuid.New())
	require.ErrorIs(t, err, ErrCustomerNotFound)

	require.NoError(t, env.customers.DeleteCustomer(created.ID))
	_, err = env.customers.GetCustomerByID(created.ID)
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestDeleteCustomerRestrictedByOrders(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 10)
	batch := env.createBatch(t, "B-2025-200")
	customer := env.createCustomer(t, "Acme")

	_, err := env.orders.CreateOrder(&CreateOrderRequest{
		BatchID:    batch.ID.String(),
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   1,
		UnitPrice:  dec("9.00"),
	}, "tester", "Tester")
	require.NoError(t, err)

	require.ErrorIs(t, env.customers.DeleteCustomer(customer.ID), ErrCustomerHasOrders)

	orders, err := env.customers.GetCustomerOrders(customer.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}
