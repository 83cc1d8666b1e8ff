package handler

import (
	"errors"

	"go-sales-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type BatchHandler struct {
	batchService service.BatchService
	orderService service.OrderService
}

func NewBatchHandler(batchService service.BatchService, orderService service.OrderService) *BatchHandler {
	return &BatchHandler{batchService: batchService, orderService: orderService}
}

func (h *BatchHandler) CreateBatch(c *fiber.Ctx) error {
	var req service.CreateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	batch, err := h.batchService.CreateBatch(&req, getUserID(c))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Batch created", "data": batch})
}

func (h *BatchHandler) UpdateBatch(c *fiber.Ctx) error {
	batchID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	var req service.UpdateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	batch, err := h.batchService.UpdateBatch(batchID, &req, getUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Batch updated", "data": batch})
}

func (h *BatchHandler) DeleteBatch(c *fiber.Ctx) error {
	batchID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	if err := h.batchService.DeleteBatch(batchID, getUserID(c)); err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Batch deleted"})
}

func (h *BatchHandler) GetBatches(c *fiber.Ctx) error {
	batches, err := h.batchService.GetBatches()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(batches)
}

func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	batchID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	batch, err := h.batchService.GetBatchByID(batchID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(batch)
}

func (h *BatchHandler) GetBatchOrders(c *fiber.Ctx) error {
	batchID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	orders, err := h.batchService.GetBatchOrders(batchID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(orders)
}

func (h *BatchHandler) GetBatchSummary(c *fiber.Ctx) error {
	batchID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	summary, err := h.batchService.GetBatchSummary(batchID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(summary)
}

// RecalculateProfit forces a recompute of the cached batch total
// POST /api/v1/batches/:id/recalculate-profit
func (h *BatchHandler) RecalculateProfit(c *fiber.Ctx) error {
	batchID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	total, err := h.batchService.RecalculateTotalProfit(batchID)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message":      "Profit recalculated",
		"total_profit": total,
	})
}

// AddOrders creates multiple orders inside the batch in one call
// POST /api/v1/batches/:id/orders
func (h *BatchHandler) AddOrders(c *fiber.Ctx) error {
	batchID := c.Params("id")
	if _, err := parseUUID(batchID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	var req struct {
		Orders []service.CreateOrderRequest `json:"orders"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if len(req.Orders) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "No orders provided"})
	}

	userID := getUserID(c)
	userName := getUserName(c)

	createdIDs := make([]string, 0, len(req.Orders))
	for i := range req.Orders {
		req.Orders[i].BatchID = batchID
		order, err := h.orderService.CreateOrder(&req.Orders[i], userID, userName)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{
				"error":       err.Error(),
				"created_ids": createdIDs,
			})
		}
		createdIDs = append(createdIDs, order.ID.String())
	}

	return c.Status(201).JSON(fiber.Map{
		"message":   "Orders created",
		"order_ids": createdIDs,
	})
}
