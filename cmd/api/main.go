package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-sales-inventory/internal/handler"
	"go-sales-inventory/internal/middleware"
	"go-sales-inventory/internal/model"
	"go-sales-inventory/internal/repository"
	"go-sales-inventory/internal/service"
	"go-sales-inventory/internal/ws"
	"go-sales-inventory/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	// Auto Migrate (use a dedicated migration tool in production)
	db.AutoMigrate(
		&model.User{}, &model.Privilege{}, &model.Role{},
		&model.Customer{}, &model.Product{}, &model.Batch{},
		&model.Order{}, &model.StockRecord{},
	)

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	productRepo := repository.NewProductRepo(db)
	batchRepo := repository.NewBatchRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	recordRepo := repository.NewStockRecordRepo(db)

	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)
	customerService := service.NewCustomerService(customerRepo, orderRepo)
	stockService := service.NewStockService(productRepo, recordRepo, db, wsHub)
	batchService := service.NewBatchService(batchRepo, orderRepo, productRepo, db)
	orderService := service.NewOrderService(orderRepo, productRepo, batchService, db, wsHub)
	reportService := service.NewReportService(orderRepo, productRepo, recordRepo)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)
	customerHandler := handler.NewCustomerHandler(customerService)
	stockHandler := handler.NewStockHandler(stockService)
	batchHandler := handler.NewBatchHandler(batchService, orderService)
	orderHandler := handler.NewOrderHandler(orderService)
	reportHandler := handler.NewReportHandler(reportService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Sales Inventory API v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Customer Routes
	protected.Get("/customers", customerHandler.GetCustomers)
	protected.Get("/customers/:id", customerHandler.GetCustomer)
	protected.Get("/customers/:id/orders", customerHandler.GetCustomerOrders)
	protected.Post("/customers", middleware.RequirePrivilege("customer:create"), customerHandler.CreateCustomer)
	protected.Put("/customers/:id", middleware.RequirePrivilege("customer:update"), customerHandler.UpdateCustomer)
	protected.Delete("/customers/:id", middleware.RequirePrivilege("customer:delete"), customerHandler.DeleteCustomer)

	// Product Routes
	protected.Get("/products", stockHandler.GetProducts)
	protected.Get("/products/low-stock", stockHandler.GetLowStockProducts)
	protected.Get("/products/:id", stockHandler.GetProduct)
	protected.Get("/products/:id/stock-records", stockHandler.GetProductStockRecords)
	protected.Post("/products", middleware.RequirePrivilege("product:create"), stockHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege("product:update"), stockHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege("product:delete"), stockHandler.DeleteProduct)

	// Batch Routes
	protected.Get("/batches", batchHandler.GetBatches)
	protected.Get("/batches/:id", batchHandler.GetBatch)
	protected.Get("/batches/:id/orders", batchHandler.GetBatchOrders)
	protected.Get("/batches/:id/summary", batchHandler.GetBatchSummary)
	protected.Post("/batches", middleware.RequirePrivilege("batch:create"), batchHandler.CreateBatch)
	protected.Post("/batches/:id/orders", middleware.RequirePrivilege("order:create"), batchHandler.AddOrders)
	protected.Post("/batches/:id/recalculate-profit", middleware.RequirePrivilege("batch:update"), batchHandler.RecalculateProfit)
	protected.Put("/batches/:id", middleware.RequirePrivilege("batch:update"), batchHandler.UpdateBatch)
	protected.Delete("/batches/:id", middleware.RequirePrivilege("batch:delete"), batchHandler.DeleteBatch)

	// Order Routes
	protected.Get("/orders", orderHandler.GetOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Post("/orders", middleware.RequirePrivilege("order:create"), orderHandler.CreateOrder)
	protected.Post("/orders/bulk-status", middleware.RequirePrivilege("order:update"), orderHandler.BulkUpdateStatus)
	protected.Post("/orders/:id/status", middleware.RequirePrivilege("order:update"), orderHandler.UpdateStatus)
	protected.Put("/orders/:id", middleware.RequirePrivilege("order:update"), orderHandler.UpdateOrder)
	protected.Delete("/orders/:id", middleware.RequirePrivilege("order:delete"), orderHandler.DeleteOrder)

	// Stock Record Routes (append-only: create and read, never update/delete)
	protected.Get("/stock-records", middleware.RequirePrivilege("stock:view"), stockHandler.GetStockRecords)
	protected.Get("/stock-records/:id", middleware.RequirePrivilege("stock:view"), stockHandler.GetStockRecord)
	protected.Post("/stock-records", middleware.RequirePrivilege("stock:create"), stockHandler.CreateStockRecord)

	// Report Routes
	protected.Get("/dashboard/stats", reportHandler.GetDashboardStats)
	protected.Get("/reports/product-sales", middleware.RequirePrivilege("report:view"), reportHandler.GetProductSalesStats)
	protected.Get("/reports/customer-sales", middleware.RequirePrivilege("report:view"), reportHandler.GetCustomerSalesStats)
	protected.Get("/reports/daily-sales", middleware.RequirePrivilege("report:view"), reportHandler.GetDailySalesStats)
	protected.Get("/reports/stock-movement", middleware.RequirePrivilege("report:view"), reportHandler.GetStockMovementSummary)

	// User Management Routes
	protected.Get("/users", userHandler.GetUsers)
	protected.Get("/users/:id", userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege("user:update"), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege("user:update_privilege"), userHandler.UpdateUserPrivileges)

	// Role and privilege catalogs
	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and admin user if they don't exist
func seedPrivilegesRolesAndAdmin(db *gorm.DB) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	// 3. Assign privileges to roles
	allPrivileges, _ := privilegeRepo.FindAll()

	// MASTER_ADMIN gets ALL privileges
	masterRole, err := roleRepo.FindByCode(model.RoleMasterAdmin)
	if err == nil && len(masterRole.Privileges) == 0 {
		db.Model(&masterRole).Association("Privileges").Replace(allPrivileges)
		log.Println("MASTER_ADMIN role assigned all privileges")
	}

	// ADMIN gets everything except user management
	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err == nil && len(adminRole.Privileges) == 0 {
		adminPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if p.Code != "user:create" && p.Code != "user:update" && p.Code != "user:delete" && p.Code != "user:update_privilege" {
				adminPrivileges = append(adminPrivileges, p)
			}
		}
		db.Model(&adminRole).Association("Privileges").Replace(adminPrivileges)
		log.Println("ADMIN role assigned limited privileges")
	}

	// OPERATOR covers order entry and stock movements only
	operatorCodes := map[string]bool{
		"customer:view": true, "customer:create": true,
		"product:view": true,
		"batch:view":   true,
		"order:view":   true, "order:create": true, "order:update": true,
		"stock:view": true, "stock:create": true,
	}
	operatorRole, err := roleRepo.FindByCode(model.RoleOperator)
	if err == nil && len(operatorRole.Privileges) == 0 {
		operatorPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if operatorCodes[p.Code] {
				operatorPrivileges = append(operatorPrivileges, p)
			}
		}
		db.Model(&operatorRole).Association("Privileges").Replace(operatorPrivileges)
		log.Println("OPERATOR role assigned order entry privileges")
	}

	// 4. Create default admin user with MASTER_ADMIN role
	_, err = userRepo.FindByEmail("admin@example.com")
	if err != nil {
		masterRole, _ := roleRepo.FindByCode(model.RoleMasterAdmin)

		admin := &model.User{
			Email:       "admin@example.com",
			FullName:    "Master Administrator",
			PhoneNumber: "",
			RoleID:      &masterRole.ID,
			IsActive:    true,
			Privileges:  masterRole.Privileges,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return
		}

		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created: admin@example.com / admin123 (MASTER_ADMIN)")
		}
	}
}
