package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/catalog"
	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
)

// ProductHandler maneja las peticiones HTTP para Product (protegido).
type ProductHandler struct {
	svc    *catalog.Service
	ledger *ledger.Service
}

// NewProductHandler construye el handler.
func NewProductHandler(svc *catalog.Service, ledgerSvc *ledger.Service) *ProductHandler {
	return &ProductHandler{svc: svc, ledger: ledgerSvc}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.svc.CreateProduct(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.svc.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit             query  int     false  "Límite"   default(20)
// @Param        offset            query  int     false  "Offset"   default(0)
// @Param        category_id       query  string  false  "Categoría"
// @Param        search            query  string  false  "Nombre o fabricante"
// @Param        include_archived  query  bool    false  "Incluir archivados"
// @Success      200     {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var in dto.ProductFilterRequest
	if ok, err := parseQuery(c, &in); !ok {
		return err
	}
	out, err := h.svc.ListProducts(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.svc.UpdateProduct(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto sin lotes ni líneas
// @Tags         products
// @Security     Bearer
// @Param        id  path  string  true  "ID del producto"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Archive godoc
// @Summary      Archivar producto (con baja opcional del stock restante)
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.ArchiveProductRequest  true  "Motivo y opciones"
// @Success      200   {object}  dto.ArchiveProductResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/archive [post]
func (h *ProductHandler) Archive(c *fiber.Ctx) error {
	var in dto.ArchiveProductRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.svc.ArchiveProduct(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Activate godoc
// @Summary      Reactivar producto archivado
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Router       /api/products/{id}/activate [post]
func (h *ProductHandler) Activate(c *fiber.Ctx) error {
	out, err := h.svc.ActivateProduct(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Batches godoc
// @Summary      Lotes del producto (FEFO; history=true incluye los agotados)
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id       path   string  true   "ID del producto"
// @Param        history  query  bool    false  "Incluir agotados"
// @Success      200  {array}  dto.BatchResponse
// @Router       /api/products/{id}/batches [get]
func (h *ProductHandler) Batches(c *fiber.Ctx) error {
	id := c.Params("id")
	if c.QueryBool("history", false) {
		if _, err := h.svc.GetProduct(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		batches, err := h.ledger.BatchHistory(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(toBatchResponses(batches, h.ledger.Today()))
	}
	batches, err := h.ledger.ActiveBatches(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toBatchResponses(batches, h.ledger.Today()))
}
