package handlers

import (
	"errors"
	"log"
	"strconv"

	"querydash/internal/models"
	"querydash/internal/services"

	"github.com/gofiber/fiber/v2"
)

// QueryHandler exposes CRUD operations over search-query records.
type QueryHandler struct {
	queryService *services.QueryService
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(queryService *services.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// List returns a page of records
// GET /api/queries?limit=&offset=
func (h *QueryHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)

	page, err := h.queryService.List(c.UserContext(), limit, offset)
	if err != nil {
		return storageFailure(c, err)
	}
	return c.JSON(page)
}

// Get returns a single record
// GET /api/queries/:id
func (h *QueryHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid record id",
		})
	}

	record, err := h.queryService.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Record not found",
			})
		}
		return storageFailure(c, err)
	}
	return c.JSON(record)
}

// Create inserts a new record
// POST /api/queries
func (h *QueryHandler) Create(c *fiber.Ctx) error {
	var input models.SearchQueryInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	record, err := h.queryService.Create(c.UserContext(), input)
	if err != nil {
		return storageFailure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// Update replaces a record's fields
// PUT /api/queries/:id
func (h *QueryHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid record id",
		})
	}

	var input models.SearchQueryInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	record, err := h.queryService.Update(c.UserContext(), id, input)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Record not found",
			})
		}
		return storageFailure(c, err)
	}
	return c.JSON(record)
}

// Delete removes a record
// DELETE /api/queries/:id
func (h *QueryHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid record id",
		})
	}

	if err := h.queryService.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Record not found",
			})
		}
		return storageFailure(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Record deleted",
	})
}

func parseID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func storageFailure(c *fiber.Ctx, err error) error {
	log.Printf("❌ Record store failure: %v", err)
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "Record store unavailable",
	})
}
