// Package ledger expone el libro de lotes: consumo FEFO, alta de lotes y correcciones de cantidad.
// Ledger opera sobre repositorios ya atados a una transacción; Service abre sus propias
// transacciones para las lecturas y correcciones directas.
package ledger

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	rules "github.com/jhoicas/Farmacia-api/internal/domain/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// Config parámetros del libro.
type Config struct {
	Markup       decimal.Decimal // recargo sobre compra para el precio de venta por defecto
	ExpiringDays int             // ventana "por vencer"
}

// Ledger reglas del libro de lotes aplicadas dentro de la transacción del caller.
type Ledger struct {
	markup decimal.Decimal
	window int
	now    func() time.Time
}

// New construye el libro. Valores no positivos caen a los por defecto.
func New(cfg Config) *Ledger {
	l := &Ledger{markup: cfg.Markup, window: cfg.ExpiringDays, now: time.Now}
	if !l.markup.GreaterThan(decimal.Zero) {
		l.markup = rules.DefaultMarkup
	}
	if l.window <= 0 {
		l.window = rules.DefaultExpiringWindow
	}
	return l
}

// WithClock reemplaza el reloj (pruebas).
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Now hora actual según el reloj del libro.
func (l *Ledger) Now() time.Time { return l.now() }

// Today fecha actual (medianoche UTC).
func (l *Ledger) Today() time.Time { return entity.DateOnly(l.now()) }

// ExpiringWindow ventana configurada en días.
func (l *Ledger) ExpiringWindow() int { return l.window }

// Markup recargo configurado.
func (l *Ledger) Markup() decimal.Decimal { return l.markup }

// ListActiveBatches lotes activos con cantidad > 0 del producto, en orden FEFO. No muta nada.
func (l *Ledger) ListActiveBatches(ctx context.Context, r repository.Repos, productID string) ([]*entity.Batch, error) {
	batches, err := r.Batches.ListActiveByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	batches = rules.FilterAvailable(batches)
	rules.SortFEFO(batches)
	return batches, nil
}

// Consume descuenta quantity del producto recorriendo sus lotes en orden FEFO.
// Si el total no alcanza devuelve InsufficientStockError sin tocar ningún lote.
// Los lotes que llegan a 0 quedan inactivos.
func (l *Ledger) Consume(ctx context.Context, r repository.Repos, productID string, quantity int) ([]rules.Allocation, error) {
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que 0")
	}
	product, err := r.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewNotFoundError("product", productID)
	}
	batches, err := r.Batches.ListActiveByProductForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	plan, available, ok := rules.PlanConsumption(batches, quantity)
	if !ok {
		return nil, &domain.InsufficientStockError{
			ProductID:   productID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   available,
		}
	}
	now := l.now()
	for _, a := range plan {
		a.Apply()
		a.Batch.UpdatedAt = now
		if err := r.Batches.UpdateQuantity(ctx, a.Batch); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// Availability stock disponible del producto (suma de lotes activos).
func (l *Ledger) Availability(ctx context.Context, r repository.Repos, productID string) (int, error) {
	batches, err := r.Batches.ListActiveByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return rules.Available(batches), nil
}

// BatchSpec datos para dar de alta un lote.
type BatchSpec struct {
	ProductID          string
	SupplierID         string
	Series             string
	ExpirationDate     time.Time
	PurchasePrice      decimal.Decimal
	SellingPrice       *decimal.Decimal // nil -> compra × recargo
	Quantity           int
	ArrivalDate        time.Time // cero -> hoy
	IncomingDocumentID string
}

// Validate reglas de entrada de un lote, sin acceso a persistencia.
func (s BatchSpec) Validate() error {
	switch {
	case strings.TrimSpace(s.ProductID) == "":
		return domain.NewValidationError("productId", "requerido")
	case s.Quantity <= 0:
		return domain.NewValidationError("quantity", "debe ser mayor que 0")
	case s.PurchasePrice.IsNegative():
		return domain.NewValidationError("purchasePrice", "no puede ser negativo")
	case s.SellingPrice != nil && s.SellingPrice.IsNegative():
		return domain.NewValidationError("sellingPrice", "no puede ser negativo")
	case s.ExpirationDate.IsZero():
		return domain.NewValidationError("expirationDate", "requerida")
	}
	return nil
}

// Produce crea un lote nuevo activo. El precio de venta, si no viene, es compra × recargo.
func (l *Ledger) Produce(ctx context.Context, r repository.Repos, spec BatchSpec) (*entity.Batch, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	product, err := r.Products.GetByID(ctx, spec.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewNotFoundError("product", spec.ProductID)
	}
	if spec.SupplierID != "" {
		supplier, err := r.Suppliers.GetByID(ctx, spec.SupplierID)
		if err != nil {
			return nil, err
		}
		if supplier == nil {
			return nil, domain.NewNotFoundError("supplier", spec.SupplierID)
		}
	}

	now := l.now()
	selling := rules.SellingPrice(spec.PurchasePrice, l.markup)
	if spec.SellingPrice != nil {
		selling = *spec.SellingPrice
	}
	arrival := spec.ArrivalDate
	if arrival.IsZero() {
		arrival = entity.DateOnly(now)
	}
	batch := &entity.Batch{
		ID:                 uuid.New().String(),
		ProductID:          spec.ProductID,
		SupplierID:         spec.SupplierID,
		Series:             strings.TrimSpace(spec.Series),
		ExpirationDate:     entity.DateOnly(spec.ExpirationDate),
		PurchasePrice:      spec.PurchasePrice,
		SellingPrice:       selling,
		Quantity:           spec.Quantity,
		ArrivalDate:        arrival,
		IsActive:           true,
		IncomingDocumentID: spec.IncomingDocumentID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := r.Batches.Create(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// CorrectionSpec corrección absoluta de la cantidad de un lote.
type CorrectionSpec struct {
	BatchID     string
	NewQuantity int
	Reason      string
	DocumentID  string // documento de corrección; vacío en correcciones directas (inventario físico)
}

// CorrectQuantity fija la cantidad del lote y registra exactamente una entrada en la bitácora.
// Un lote que queda en 0 se desactiva; uno inactivo no se reactiva aunque suba su cantidad.
func (l *Ledger) CorrectQuantity(ctx context.Context, r repository.Repos, actor entity.Actor, spec CorrectionSpec) (*entity.BatchCorrectionLog, error) {
	if spec.NewQuantity < 0 {
		return nil, domain.NewValidationError("newQuantity", "no puede ser negativa")
	}
	batch, err := r.Batches.GetForUpdate(ctx, spec.BatchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.NewNotFoundError("batch", spec.BatchID)
	}

	now := l.now()
	old := batch.Quantity
	batch.Quantity = spec.NewQuantity
	if batch.Quantity == 0 {
		batch.IsActive = false
	}
	batch.UpdatedAt = now
	if err := r.Batches.UpdateQuantity(ctx, batch); err != nil {
		return nil, err
	}

	entry := &entity.BatchCorrectionLog{
		ID:                   uuid.New().String(),
		BatchID:              batch.ID,
		CorrectionDocumentID: spec.DocumentID,
		Timestamp:            now,
		FieldName:            entity.CorrectionFieldQuantity,
		OldValue:             strconv.Itoa(old),
		NewValue:             strconv.Itoa(spec.NewQuantity),
		ChangedBy:            actor.Label(),
		Reason:               spec.Reason,
	}
	if err := r.CorrectionLogs.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListExpired lotes disponibles ya vencidos, primero los más antiguos.
func (l *Ledger) ListExpired(ctx context.Context, r repository.Repos) ([]*entity.Batch, error) {
	return l.classify(ctx, r, func(b *entity.Batch, today time.Time) bool {
		return rules.IsExpiredBatch(b, today)
	})
}

// ListExpiringSoon lotes disponibles que vencen dentro de days (0 = ventana configurada).
func (l *Ledger) ListExpiringSoon(ctx context.Context, r repository.Repos, days int) ([]*entity.Batch, error) {
	if days < 0 {
		return nil, domain.NewValidationError("days", "no puede ser negativo")
	}
	if days == 0 {
		days = l.window
	}
	return l.classify(ctx, r, func(b *entity.Batch, today time.Time) bool {
		return rules.IsExpiringBatch(b, today, days)
	})
}

func (l *Ledger) classify(ctx context.Context, r repository.Repos, keep func(*entity.Batch, time.Time) bool) ([]*entity.Batch, error) {
	batches, err := r.Batches.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	today := l.Today()
	out := make([]*entity.Batch, 0)
	for _, b := range batches {
		if keep(b, today) {
			out = append(out, b)
		}
	}
	rules.SortFEFO(out)
	return out, nil
}
