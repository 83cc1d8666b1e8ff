package service

import (
	"errors"
	"fmt"

	"go-sales-inventory/internal/model"
	"go-sales-inventory/internal/repository"
	"go-sales-inventory/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrCustomerHasOrders = errors.New("customer is referenced by orders and cannot be deleted")
)

type CustomerService interface {
	CreateCustomer(req *CustomerRequest, userID string) (*model.Customer, error)
	UpdateCustomer(id uuid.UUID, req *CustomerRequest, userID string) (*model.Customer, error)
	DeleteCustomer(id uuid.UUID) error
	GetCustomers() ([]model.Customer, error)
	GetCustomerByID(id uuid.UUID) (*model.Customer, error)
	GetCustomerOrders(id uuid.UUID) ([]model.Order, error)
}

type CustomerRequest struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

type customerService struct {
	customerRepo repository.CustomerRepository
	orderRepo    repository.OrderRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository, orderRepo repository.OrderRepository) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
	}
}

func (s *customerService) CreateCustomer(req *CustomerRequest, userID string) (*model.Customer, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	customer := &model.Customer{
		Name:    req.Name,
		Contact: req.Contact,
		Address: req.Address,
	}
	customer.CreatedBy = userID
	customer.UpdatedBy = userID

	if err := s.customerRepo.Create(customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) UpdateCustomer(id uuid.UUID, req *CustomerRequest, userID string) (*model.Customer, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	customer, err := s.customerRepo.FindByID(id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}

	customer.Name = req.Name
	customer.Contact = req.Contact
	customer.Address = req.Address
	customer.UpdatedBy = userID

	if err := s.customerRepo.Update(customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer refuses to delete a customer that still has orders
func (s *customerService) DeleteCustomer(id uuid.UUID) error {
	if _, err := s.customerRepo.FindByID(id); err != nil {
		return ErrCustomerNotFound
	}
	count, err := s.customerRepo.CountOrders(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCustomerHasOrders
	}
	return s.customerRepo.Delete(id)
}

func (s *customerService) GetCustomers() ([]model.Customer, error) {
	return s.customerRepo.FindAll()
}

func (s *customerService) GetCustomerByID(id uuid.UUID) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

func (s *customerService) GetCustomerOrders(id uuid.UUID) ([]model.Order, error) {
	if _, err := s.customerRepo.FindByID(id); err != nil {
		return nil, ErrCustomerNotFound
	}
	return s.orderRepo.FindByCustomer(id)
}
