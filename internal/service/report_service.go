package service

import (
	"time"

	"go-sales-inventory/internal/repository"
)

const lowStockThreshold = 10

type ReportService interface {
	GetDashboardStats() (*DashboardStats, error)
	GetProductSalesStats(startDate, endDate *time.Time) ([]repository.ProductSalesStat, error)
	GetCustomerSalesStats(startDate, endDate *time.Time) ([]repository.CustomerSalesStat, error)
	GetDailySalesStats(startDate, endDate time.Time) ([]repository.DailySalesStat, error)
	GetStockMovementSummary(days int) ([]repository.MovementSummary, error)
}

type DashboardStats struct {
	Today     *repository.SalesTotals    `json:"today"`
	ThisMonth *repository.SalesTotals    `json:"this_month"`
	Stock     *repository.InventoryStats `json:"stock"`
}

type reportService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	recordRepo  repository.StockRecordRepository
}

func NewReportService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, recordRepo repository.StockRecordRepository) ReportService {
	return &reportService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		recordRepo:  recordRepo,
	}
}

func (s *reportService) GetDashboardStats() (*DashboardStats, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	today, err := s.orderRepo.CountedTotals(startOfDay, now)
	if err != nil {
		return nil, err
	}
	month, err := s.orderRepo.CountedTotals(startOfMonth, now)
	if err != nil {
		return nil, err
	}
	stock, err := s.productRepo.GetInventoryStats(lowStockThreshold)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Today:     today,
		ThisMonth: month,
		Stock:     stock,
	}, nil
}

func (s *reportService) GetProductSalesStats(startDate, endDate *time.Time) ([]repository.ProductSalesStat, error) {
	return s.orderRepo.ProductSalesStats(startDate, endDate)
}

func (s *reportService) GetCustomerSalesStats(startDate, endDate *time.Time) ([]repository.CustomerSalesStat, error) {
	return s.orderRepo.CustomerSalesStats(startDate, endDate)
}

func (s *reportService) GetDailySalesStats(startDate, endDate time.Time) ([]repository.DailySalesStat, error) {
	return s.orderRepo.DailySalesStats(startDate, endDate)
}

func (s *reportService) GetStockMovementSummary(days int) ([]repository.MovementSummary, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)
	return s.recordRepo.GetMovementSummary(startDate, endDate)
}
