package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/report"
)

// ReportHandler reportes de solo lectura.
type ReportHandler struct {
	svc *report.Service
}

// NewReportHandler construye el handler.
func NewReportHandler(svc *report.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Stock godoc
// @Summary      Stock por producto con su clasificación
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        category_id       query  string  false  "Categoría"
// @Param        status            query  string  false  "in_stock | low | out"
// @Param        include_archived  query  bool    false  "Incluir archivados"
// @Success      200  {array}  dto.ProductStock
// @Router       /api/reports/stock [get]
func (h *ReportHandler) Stock(c *fiber.Ctx) error {
	var in dto.StockFilterRequest
	if ok, err := parseQuery(c, &in); !ok {
		return err
	}
	out, err := h.svc.StockLevels(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SupplierStatistics godoc
// @Summary      Entregas mensuales y entregas atrasadas de un proveedor
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del proveedor"
// @Param        year  query  int     false  "Año (0 = actual)"
// @Success      200  {object}  dto.SupplierStatistics
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/suppliers/{id}/statistics [get]
func (h *ReportHandler) SupplierStatistics(c *fiber.Ctx) error {
	var in dto.SupplierStatisticsRequest
	if ok, err := parseQuery(c, &in); !ok {
		return err
	}
	out, err := h.svc.SupplierStatistics(c.UserContext(), c.Params("id"), in.Year)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Overview godoc
// @Summary      Resumen general del inventario
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.OverviewResponse
// @Router       /api/reports/overview [get]
func (h *ReportHandler) Overview(c *fiber.Ctx) error {
	out, err := h.svc.Overview(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
