package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/document"
	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// DocumentHandler documentos de inventario: alta, borradores, ciclo de vida y consultas.
type DocumentHandler struct {
	engine *document.Engine
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(engine *document.Engine) *DocumentHandler {
	return &DocumentHandler{engine: engine}
}

type createFunc func(c *fiber.Ctx, in document.DocumentInput, lines []document.LineInput) (string, error)

func (h *DocumentHandler) create(c *fiber.Ctx, fn createFunc) error {
	var req dto.DocumentRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	in, lines, err := toDocumentInput(req)
	if err != nil {
		return respondError(c, err)
	}
	id, err := fn(c, in, lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DocumentCreatedResponse{ID: id})
}

// CreateIncoming godoc
// @Summary      Registrar entrada de proveedor
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DocumentRequest  true  "Cabecera y líneas"
// @Success      201   {object}  dto.DocumentCreatedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/documents/incoming [post]
func (h *DocumentHandler) CreateIncoming(c *fiber.Ctx) error {
	return h.create(c, func(c *fiber.Ctx, in document.DocumentInput, lines []document.LineInput) (string, error) {
		return h.engine.CreateIncoming(c.UserContext(), GetActor(c), in, lines)
	})
}

// CreateOutgoing godoc
// @Summary      Registrar salida (consumo FEFO)
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DocumentRequest  true  "Cabecera y líneas"
// @Success      201   {object}  dto.DocumentCreatedResponse
// @Failure      409   {object}  InsufficientStockResponse
// @Router       /api/documents/outgoing [post]
func (h *DocumentHandler) CreateOutgoing(c *fiber.Ctx) error {
	return h.create(c, func(c *fiber.Ctx, in document.DocumentInput, lines []document.LineInput) (string, error) {
		return h.engine.CreateOutgoing(c.UserContext(), GetActor(c), in, lines)
	})
}

// CreateWriteOff godoc
// @Summary      Registrar baja
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DocumentRequest  true  "Cabecera y líneas"
// @Success      201   {object}  dto.DocumentCreatedResponse
// @Failure      409   {object}  InsufficientStockResponse
// @Router       /api/documents/write-off [post]
func (h *DocumentHandler) CreateWriteOff(c *fiber.Ctx) error {
	return h.create(c, func(c *fiber.Ctx, in document.DocumentInput, lines []document.LineInput) (string, error) {
		return h.engine.CreateWriteOff(c.UserContext(), GetActor(c), in, lines)
	})
}

// CreateCorrection godoc
// @Summary      Corregir cantidades de un documento procesado
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CorrectionRequest  true  "Documento original y nuevas cantidades"
// @Success      201   {object}  dto.DocumentCreatedResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/corrections [post]
func (h *DocumentHandler) CreateCorrection(c *fiber.Ctx) error {
	var req dto.CorrectionRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	corrections := make([]document.CorrectionInput, 0, len(req.Corrections))
	for _, cr := range req.Corrections {
		corrections = append(corrections, document.CorrectionInput{LineID: cr.LineID, NewQuantity: cr.NewQuantity, Notes: cr.Notes})
	}
	id, err := h.engine.CreateQuantityCorrection(c.UserContext(), GetActor(c), req.OriginalDocumentID, req.Reason, corrections)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DocumentCreatedResponse{ID: id})
}

// GetByID godoc
// @Summary      Documento con sus líneas (corrections=true agrega las correcciones)
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id           path   string  true   "ID del documento"
// @Param        corrections  query  bool    false  "Incluir correcciones"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	var (
		doc *entity.Document
		err error
	)
	if c.QueryBool("corrections", false) {
		doc, err = h.engine.GetDocumentWithCorrections(c.UserContext(), c.Params("id"))
	} else {
		doc, err = h.engine.GetDocumentWithDetails(c.UserContext(), c.Params("id"))
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// Corrections godoc
// @Summary      Correcciones que referencian al documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {array}  dto.DocumentResponse
// @Router       /api/documents/{id}/corrections [get]
func (h *DocumentHandler) Corrections(c *fiber.Ctx) error {
	doc, err := h.engine.GetDocumentWithCorrections(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.DocumentResponse, 0, len(doc.Corrections))
	for _, corr := range doc.Corrections {
		out = append(out, toDocumentResponse(corr))
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        type         query  string  false  "INCOMING | OUTGOING | WRITE_OFF | CORRECTION"
// @Param        status       query  string  false  "DRAFT | PROCESSED | BLOCKED"
// @Param        supplier_id  query  string  false  "Proveedor"
// @Param        from         query  string  false  "Desde (yyyy-mm-dd)"
// @Param        to           query  string  false  "Hasta (yyyy-mm-dd, inclusive)"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var req dto.DocumentFilterRequest
	if ok, err := parseQuery(c, &req); !ok {
		return err
	}
	filter := repository.DocumentFilter{
		Type:       entity.DocumentType(req.Type),
		Status:     entity.DocumentStatus(req.Status),
		SupplierID: req.SupplierID,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}
	if req.From != "" {
		from, err := parseDate("from", req.From)
		if err != nil {
			return respondError(c, err)
		}
		filter.From = from
	}
	if req.To != "" {
		to, err := parseDate("to", req.To)
		if err != nil {
			return respondError(c, err)
		}
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.To = &end
	}
	docs, total, err := h.engine.ListDocumentsPage(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.DocumentListResponse{
		Items: make([]dto.DocumentResponse, 0, len(docs)),
		Page:  dto.NewPageResponse(req.PageRequest, total),
	}
	for _, d := range docs {
		out.Items = append(out.Items, toDocumentResponse(d))
	}
	return c.JSON(out)
}

// UpdateDraft godoc
// @Summary      Guardar un borrador (status=PROCESSED lo procesa)
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del documento"
// @Param        body  body  dto.DocumentRequest  true  "Cabecera y líneas completas"
// @Success      200   {object}  dto.DocumentUpdatedResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [put]
func (h *DocumentHandler) UpdateDraft(c *fiber.Ctx) error {
	var req dto.DocumentRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	in, lines, err := toDocumentInput(req)
	if err != nil {
		return respondError(c, err)
	}
	id := c.Params("id")
	updated, err := h.engine.UpdateDraftDocument(c.UserContext(), GetActor(c), id, in, lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DocumentUpdatedResponse{ID: id, Updated: updated})
}

// Delete godoc
// @Summary      Eliminar un borrador
// @Tags         documents
// @Security     Bearer
// @Param        id  path  string  true  "ID del documento"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	if err := h.engine.DeleteDraft(c.UserContext(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Process godoc
// @Summary      Procesar un borrador
// @Tags         documents
// @Security     Bearer
// @Param        id  path  string  true  "ID del documento"
// @Success      204
// @Failure      409  {object}  InsufficientStockResponse
// @Router       /api/documents/{id}/process [post]
func (h *DocumentHandler) Process(c *fiber.Ctx) error {
	if err := h.engine.ProcessDocument(c.UserContext(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Block godoc
// @Summary      Bloquear un documento
// @Tags         documents
// @Security     Bearer
// @Param        id  path  string  true  "ID del documento"
// @Success      204
// @Router       /api/documents/{id}/block [post]
func (h *DocumentHandler) Block(c *fiber.Ctx) error {
	if err := h.engine.BlockDocument(c.UserContext(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Sign godoc
// @Summary      Firmar un documento
// @Tags         documents
// @Security     Bearer
// @Param        id  path  string  true  "ID del documento"
// @Success      204
// @Router       /api/documents/{id}/sign [post]
func (h *DocumentHandler) Sign(c *fiber.Ctx) error {
	if err := h.engine.SignDocument(c.UserContext(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toDocumentInput(req dto.DocumentRequest) (document.DocumentInput, []document.LineInput, error) {
	in := document.DocumentInput{
		Status:         entity.DocumentStatus(req.Status),
		Notes:          req.Notes,
		SupplierID:     req.SupplierID,
		InvoiceNumber:  req.InvoiceNumber,
		CustomerName:   req.CustomerName,
		CustomerInfo:   req.CustomerInfo,
		WriteOffReason: req.WriteOffReason,
		Commission:     req.Commission,
		Amount:         req.Amount,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}
	if req.InvoiceDate != "" {
		d, err := parseDate("invoice_date", req.InvoiceDate)
		if err != nil {
			return in, nil, err
		}
		in.InvoiceDate = d
	}
	lines := make([]document.LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		line := document.LineInput{
			ProductID:    l.ProductID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			SellingPrice: l.SellingPrice,
			Series:       l.Series,
		}
		if l.ExpirationDate != "" {
			d, err := parseDate("expiration_date", l.ExpirationDate)
			if err != nil {
				return in, nil, err
			}
			line.ExpirationDate = d
		}
		lines = append(lines, line)
	}
	return in, lines, nil
}

func parseDate(field, s string) (*time.Time, error) {
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return nil, domain.NewValidationError(field, "formato esperado yyyy-mm-dd")
	}
	return &t, nil
}
