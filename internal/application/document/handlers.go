package document

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// handler reglas de un tipo de documento.
type handler interface {
	// validate reglas de forma, sin acceso a persistencia.
	validate(in DocumentInput, lines []LineInput) error
	// check referencias y stock, antes de mutar ningún lote.
	check(ctx context.Context, r repository.Repos, doc *entity.Document, in DocumentInput, lines []LineInput) error
	// build genera las líneas a persistir; con doc.Status == PROCESSED aplica el libro.
	build(ctx context.Context, r repository.Repos, doc *entity.Document, lines []LineInput) ([]*entity.DocumentLine, error)
	amount(in DocumentInput, doc *entity.Document) decimal.Decimal
}

// handlerFor un handler por variante de DocumentType. Agregar un tipo obliga a agregarlo aquí.
func (e *Engine) handlerFor(t entity.DocumentType) (handler, error) {
	switch t {
	case entity.DocumentIncoming:
		return incomingHandler{e: e}, nil
	case entity.DocumentOutgoing:
		return consumeHandler{e: e, sale: true}, nil
	case entity.DocumentWriteOff:
		return consumeHandler{e: e, sale: false}, nil
	case entity.DocumentCorrection:
		return correctionHandler{}, nil
	}
	return nil, domain.NewValidationError("type", "tipo de documento desconocido: "+string(t))
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return domain.NewValidationError("lines", "el documento debe tener al menos una línea")
	}
	for _, l := range lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return domain.NewValidationError("productId", "requerido")
		}
		if l.Quantity <= 0 {
			return domain.NewValidationError("quantity", "debe ser mayor que 0")
		}
		if l.UnitPrice.IsNegative() {
			return domain.NewValidationError("unitPrice", "no puede ser negativo")
		}
		if l.SellingPrice != nil && l.SellingPrice.IsNegative() {
			return domain.NewValidationError("sellingPrice", "no puede ser negativo")
		}
	}
	return nil
}

func loadProduct(ctx context.Context, r repository.Repos, id string) (*entity.Product, error) {
	p, err := r.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NewNotFoundError("product", id)
	}
	return p, nil
}

// incomingHandler entrada de proveedor: cada línea procesada crea exactamente un lote.
type incomingHandler struct{ e *Engine }

func (h incomingHandler) validate(in DocumentInput, lines []LineInput) error {
	if strings.TrimSpace(in.SupplierID) == "" {
		return domain.NewValidationError("supplierId", "requerido en una entrada")
	}
	if err := validateLines(lines); err != nil {
		return err
	}
	if in.Status == entity.StatusProcessed {
		for _, l := range lines {
			if l.ExpirationDate == nil || l.ExpirationDate.IsZero() {
				return domain.NewValidationError("expirationDate", "requerida para procesar la entrada")
			}
		}
	}
	return nil
}

func (h incomingHandler) check(ctx context.Context, r repository.Repos, _ *entity.Document, in DocumentInput, lines []LineInput) error {
	supplier, err := r.Suppliers.GetByID(ctx, in.SupplierID)
	if err != nil {
		return err
	}
	if supplier == nil {
		return domain.NewNotFoundError("supplier", in.SupplierID)
	}
	for _, l := range lines {
		if _, err := loadProduct(ctx, r, l.ProductID); err != nil {
			return err
		}
	}
	return nil
}

func (h incomingHandler) build(ctx context.Context, r repository.Repos, doc *entity.Document, lines []LineInput) ([]*entity.DocumentLine, error) {
	out := make([]*entity.DocumentLine, 0, len(lines))
	for _, in := range lines {
		series := strings.TrimSpace(in.Series)
		if series == "" {
			series = h.e.noSeries
		}
		line := &entity.DocumentLine{
			ProductID:      in.ProductID,
			Quantity:       in.Quantity,
			UnitPrice:      in.UnitPrice,
			SellingPrice:   in.SellingPrice,
			Series:         series,
			ExpirationDate: in.ExpirationDate,
		}
		if doc.Status == entity.StatusProcessed {
			batch, err := h.e.ledger.Produce(ctx, r, ledger.BatchSpec{
				ProductID:          in.ProductID,
				SupplierID:         doc.SupplierID,
				Series:             series,
				ExpirationDate:     *in.ExpirationDate,
				PurchasePrice:      in.UnitPrice,
				SellingPrice:       in.SellingPrice,
				Quantity:           in.Quantity,
				ArrivalDate:        entity.DateOnly(doc.Date),
				IncomingDocumentID: doc.ID,
			})
			if err != nil {
				return nil, err
			}
			selling := batch.SellingPrice
			line.SellingPrice = &selling
			line.CreatedBatchID = batch.ID
		}
		out = append(out, line)
	}
	return out, nil
}

// amount en entradas siempre es calculado.
func (h incomingHandler) amount(_ DocumentInput, doc *entity.Document) decimal.Decimal {
	return doc.LinesAmount()
}

// consumeHandler salidas y bajas: consumo FEFO con una línea persistida por lote tomado.
type consumeHandler struct {
	e    *Engine
	sale bool
}

func (h consumeHandler) validate(_ DocumentInput, lines []LineInput) error {
	return validateLines(lines)
}

// check la suficiencia se evalúa sobre el total pedido por producto en todas las líneas.
func (h consumeHandler) check(ctx context.Context, r repository.Repos, _ *entity.Document, in DocumentInput, lines []LineInput) error {
	totals := make(map[string]int)
	order := make([]string, 0)
	for _, l := range lines {
		if _, seen := totals[l.ProductID]; !seen {
			order = append(order, l.ProductID)
		}
		totals[l.ProductID] += l.Quantity
	}
	for _, id := range order {
		product, err := loadProduct(ctx, r, id)
		if err != nil {
			return err
		}
		if h.sale && product.IsSalesBlocked {
			return domain.NewValidationError("productId", "ventas bloqueadas para "+product.Name)
		}
		if in.Status != entity.StatusProcessed {
			continue
		}
		available, err := h.e.ledger.Availability(ctx, r, id)
		if err != nil {
			return err
		}
		if available < totals[id] {
			return &domain.InsufficientStockError{
				ProductID:   id,
				ProductName: product.Name,
				Requested:   totals[id],
				Available:   available,
			}
		}
	}
	return nil
}

func (h consumeHandler) build(ctx context.Context, r repository.Repos, doc *entity.Document, lines []LineInput) ([]*entity.DocumentLine, error) {
	out := make([]*entity.DocumentLine, 0, len(lines))
	for _, in := range lines {
		if doc.Status != entity.StatusProcessed {
			line, err := h.draftLine(ctx, r, in)
			if err != nil {
				return nil, err
			}
			out = append(out, line)
			continue
		}
		plan, err := h.e.ledger.Consume(ctx, r, in.ProductID, in.Quantity)
		if err != nil {
			return nil, err
		}
		for _, a := range plan {
			b := a.Batch
			selling := b.SellingPrice
			expires := b.ExpirationDate
			out = append(out, &entity.DocumentLine{
				ProductID:      in.ProductID,
				Quantity:       a.Quantity,
				UnitPrice:      h.unitPrice(in, b),
				SellingPrice:   &selling,
				Series:         b.Series,
				ExpirationDate: &expires,
				SourceBatchID:  b.ID,
			})
		}
	}
	return out, nil
}

// draftLine una sola línea sin vínculo a lotes. Serie: la explícita, si no la del lote que
// vence primero, si no el texto de relleno. El precio queda tal como lo informó el caller.
func (h consumeHandler) draftLine(ctx context.Context, r repository.Repos, in LineInput) (*entity.DocumentLine, error) {
	batches, err := h.e.ledger.ListActiveBatches(ctx, r, in.ProductID)
	if err != nil {
		return nil, err
	}
	line := &entity.DocumentLine{
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		SellingPrice:   in.SellingPrice,
		Series:         strings.TrimSpace(in.Series),
		ExpirationDate: in.ExpirationDate,
	}
	if line.Series == "" && len(batches) > 0 {
		line.Series = batches[0].Series
	}
	if line.Series == "" {
		line.Series = h.e.noSeries
	}
	return line, nil
}

// unitPrice el precio informado o, en cero, el del lote: venta en salidas, compra en bajas.
func (h consumeHandler) unitPrice(in LineInput, b *entity.Batch) decimal.Decimal {
	if in.UnitPrice.GreaterThan(decimal.Zero) {
		return in.UnitPrice
	}
	if h.sale {
		return b.SellingPrice
	}
	return b.PurchasePrice
}

// amount el informado o el de las líneas. En un borrador solo cuentan los precios informados:
// el precio de cada lote se conoce al consumir.
func (h consumeHandler) amount(in DocumentInput, doc *entity.Document) decimal.Decimal {
	if in.Amount.GreaterThan(decimal.Zero) {
		return in.Amount
	}
	return doc.LinesAmount()
}

// correctionHandler las correcciones nacen procesadas por CreateQuantityCorrection;
// no pasan por el flujo de borrador.
type correctionHandler struct{}

func (correctionHandler) validate(DocumentInput, []LineInput) error {
	return domain.NewValidationError("type", "las correcciones no admiten borrador ni edición de líneas")
}

func (correctionHandler) check(context.Context, repository.Repos, *entity.Document, DocumentInput, []LineInput) error {
	return domain.NewValidationError("type", "las correcciones no admiten borrador ni edición de líneas")
}

func (correctionHandler) build(context.Context, repository.Repos, *entity.Document, []LineInput) ([]*entity.DocumentLine, error) {
	return nil, domain.NewValidationError("type", "las correcciones no admiten borrador ni edición de líneas")
}

func (correctionHandler) amount(_ DocumentInput, doc *entity.Document) decimal.Decimal {
	return doc.LinesAmount()
}
