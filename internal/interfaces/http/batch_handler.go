package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/report"
)

// BatchHandler consultas de lotes y correcciones directas.
type BatchHandler struct {
	ledger *ledger.Service
	report *report.Service
}

// NewBatchHandler construye el handler.
func NewBatchHandler(ledgerSvc *ledger.Service, reportSvc *report.Service) *BatchHandler {
	return &BatchHandler{ledger: ledgerSvc, report: reportSvc}
}

// GetByID godoc
// @Summary      Obtener lote
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	b, err := h.ledger.GetBatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toBatchResponse(b, h.ledger.Today()))
}

// Expired godoc
// @Summary      Lotes vencidos con stock
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BatchView
// @Router       /api/batches/expired [get]
func (h *BatchHandler) Expired(c *fiber.Ctx) error {
	out, err := h.report.ExpiredBatches(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Expiring godoc
// @Summary      Lotes por vencer
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana en días (0 = configurada)"
// @Success      200   {array}  dto.BatchView
// @Router       /api/batches/expiring [get]
func (h *BatchHandler) Expiring(c *fiber.Ctx) error {
	var in dto.ExpiringBatchesRequest
	if ok, err := parseQuery(c, &in); !ok {
		return err
	}
	out, err := h.report.ExpiringBatches(c.UserContext(), in.Days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CorrectQuantity godoc
// @Summary      Corregir la cantidad de un lote (conteo físico)
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del lote"
// @Param        body  body  dto.BatchQuantityRequest  true  "Nueva cantidad y motivo"
// @Success      200   {object}  dto.CorrectionLogResponse
// @Router       /api/batches/{id}/quantity [put]
func (h *BatchHandler) CorrectQuantity(c *fiber.Ctx) error {
	var in dto.BatchQuantityRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	entry, err := h.ledger.CorrectBatch(c.UserContext(), GetActor(c), c.Params("id"), in.NewQuantity, in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toCorrectionLogResponse(entry))
}

// Corrections godoc
// @Summary      Bitácora de correcciones del lote
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {array}  dto.CorrectionLogResponse
// @Router       /api/batches/{id}/corrections [get]
func (h *BatchHandler) Corrections(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.ledger.GetBatch(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	logs, err := h.ledger.CorrectionHistory(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.CorrectionLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toCorrectionLogResponse(l))
	}
	return c.JSON(out)
}
