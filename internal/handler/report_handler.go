package handler

import (
	"log/slog"

	"go-pos-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reports service.ReportService
	log     *slog.Logger
}

func NewReportHandler(reports service.ReportService, log *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, log: log}
}

// GET /api/v1/dashboard
func (h *ReportHandler) GetDashboard(c *fiber.Ctx) error {
	data, err := h.reports.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(data)
}

// GET /api/v1/reports/sales?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *ReportHandler) GetSalesReport(c *fiber.Ctx) error {
	start, err := parseDate("start_date", c.Query("start_date"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	end, err := parseDate("end_date", c.Query("end_date"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	report, err := h.reports.SalesReport(c.UserContext(), start, end)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(report)
}
