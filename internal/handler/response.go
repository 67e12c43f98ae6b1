package handler

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go-pos-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

// respondError maps service errors onto HTTP statuses. Anything unknown is
// logged and reported as a 500 without internals.
func respondError(c *fiber.Ctx, log *slog.Logger, err error) error {
	var stock *service.InsufficientStockError
	switch {
	case errors.As(err, &stock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     err.Error(),
			"item_id":   stock.ItemID,
			"available": stock.Available,
			"unit":      stock.Unit,
		})
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrWrongPassword):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrBalanceNotZero),
		errors.Is(err, service.ErrItemInUse),
		errors.Is(err, service.ErrConcurrentModification):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, service.ErrSessionExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return uint(id), nil
}

// parseDate accepts YYYY-MM-DD. Empty input yields nil.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, &service.ValidationError{Field: field, Reason: "invalid date format, use YYYY-MM-DD"}
	}
	return &t, nil
}
