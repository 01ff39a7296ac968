// Package document implementa el motor de documentos del inventario: entradas, salidas,
// bajas y correcciones. Cada operación pública corre en una sola transacción; si algo
// falla no queda ningún cambio parcial (ni consumo de lotes ni documentos huérfanos).
package document

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	rules "github.com/jhoicas/Farmacia-api/internal/domain/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// DefaultNoSeries serie que se guarda en borradores cuando no hay forma de adivinarla.
const DefaultNoSeries = "SIN SERIE"

// DocumentInput cabecera enviada por el caller. Solo se usan los campos del tipo de documento.
type DocumentInput struct {
	Date   time.Time             // cero -> ahora
	Status entity.DocumentStatus // DRAFT (por defecto) o PROCESSED
	Notes  string

	SupplierID    string
	InvoiceNumber string
	InvoiceDate   *time.Time

	CustomerName string
	CustomerInfo string

	WriteOffReason string
	Commission     string

	// Amount monto informado para salidas y bajas; en cero se usa Σ(precio × cantidad) de las líneas.
	Amount decimal.Decimal
}

// LineInput línea solicitada. En salidas y bajas es una cantidad de producto que el motor
// reparte entre lotes; en entradas describe el lote a crear.
type LineInput struct {
	ProductID      string
	Quantity       int
	UnitPrice      decimal.Decimal
	SellingPrice   *decimal.Decimal
	Series         string
	ExpirationDate *time.Time
}

// CorrectionInput nueva cantidad absoluta para el lote de una línea del documento original.
type CorrectionInput struct {
	LineID      string
	NewQuantity int
	Notes       string
}

// Options parámetros del motor.
type Options struct {
	NoSeriesLabel string
}

// Engine motor de documentos. Depende del puerto transaccional, no de una implementación concreta.
type Engine struct {
	tx       repository.TxRunner
	ledger   *ledger.Ledger
	cache    ports.ReportCache
	log      *logger.Logger
	noSeries string
}

// NewEngine construye el motor. cache y log pueden ser nil.
func NewEngine(tx repository.TxRunner, l *ledger.Ledger, cache ports.ReportCache, log *logger.Logger, opts Options) *Engine {
	if cache == nil {
		cache = ports.NopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	noSeries := strings.TrimSpace(opts.NoSeriesLabel)
	if noSeries == "" {
		noSeries = DefaultNoSeries
	}
	return &Engine{tx: tx, ledger: l, cache: cache, log: log.Component("document"), noSeries: noSeries}
}

// CreateIncoming registra una entrada de proveedor. Procesada, crea un lote por línea.
func (e *Engine) CreateIncoming(ctx context.Context, actor entity.Actor, in DocumentInput, lines []LineInput) (string, error) {
	return e.create(ctx, actor, entity.DocumentIncoming, in, lines)
}

// CreateOutgoing registra una salida (venta). Procesada, consume lotes en orden FEFO.
func (e *Engine) CreateOutgoing(ctx context.Context, actor entity.Actor, in DocumentInput, lines []LineInput) (string, error) {
	return e.create(ctx, actor, entity.DocumentOutgoing, in, lines)
}

// CreateWriteOff registra una baja (vencidos, daños). Procesada, consume lotes en orden FEFO.
func (e *Engine) CreateWriteOff(ctx context.Context, actor entity.Actor, in DocumentInput, lines []LineInput) (string, error) {
	return e.create(ctx, actor, entity.DocumentWriteOff, in, lines)
}

func (e *Engine) create(ctx context.Context, actor entity.Actor, t entity.DocumentType, in DocumentInput, lines []LineInput) (string, error) {
	var doc *entity.Document
	err := e.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		doc, err = e.createInTx(ctx, r, actor, t, in, lines)
		return err
	})
	if err != nil {
		e.rolledBack(actor, "create", string(t), err)
		return "", err
	}
	e.committed(ctx, actor, "create", doc)
	return doc.ID, nil
}

// WriteOffInTx crea y procesa una baja usando los repositorios de una transacción ya abierta
// por el caller (archivo de productos). No confirma ni invalida caché: eso queda al caller.
func (e *Engine) WriteOffInTx(ctx context.Context, r repository.Repos, actor entity.Actor, in DocumentInput, lines []LineInput) (*entity.Document, error) {
	in.Status = entity.StatusProcessed
	return e.createInTx(ctx, r, actor, entity.DocumentWriteOff, in, lines)
}

func (e *Engine) createInTx(ctx context.Context, r repository.Repos, actor entity.Actor, t entity.DocumentType, in DocumentInput, lines []LineInput) (*entity.Document, error) {
	h, err := e.handlerFor(t)
	if err != nil {
		return nil, err
	}
	in.Status = normalizeStatus(in.Status)
	if err := validateHeader(in); err != nil {
		return nil, err
	}
	if err := h.validate(in, lines); err != nil {
		return nil, err
	}

	now := e.ledger.Now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	number, err := e.nextNumber(ctx, r, t, date)
	if err != nil {
		return nil, err
	}
	doc := &entity.Document{
		ID:        uuid.New().String(),
		Number:    number,
		Type:      t,
		Date:      date,
		Status:    entity.StatusDraft,
		CreatedBy: actor.Label(),
		CreatedAt: now,
		UpdatedAt: now,
		Amount:    decimal.Zero,
	}
	applyHeader(doc, in)
	if err := r.Documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := e.save(ctx, r, h, doc, in, lines); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDraftDocument reemplaza cabecera y líneas de un borrador. Si in.Status es PROCESSED,
// el documento se procesa en la misma transacción.
func (e *Engine) UpdateDraftDocument(ctx context.Context, actor entity.Actor, documentID string, in DocumentInput, lines []LineInput) (bool, error) {
	var doc *entity.Document
	err := e.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		doc, err = e.loadEditable(ctx, r, documentID)
		if err != nil {
			return err
		}
		h, err := e.handlerFor(doc.Type)
		if err != nil {
			return err
		}
		in.Status = normalizeStatus(in.Status)
		if err := validateHeader(in); err != nil {
			return err
		}
		if err := h.validate(in, lines); err != nil {
			return err
		}
		if !in.Date.IsZero() {
			doc.Date = in.Date
		}
		applyHeader(doc, in)
		if err := r.Documents.DeleteLines(ctx, doc.ID); err != nil {
			return err
		}
		return e.save(ctx, r, h, doc, in, lines)
	})
	if err != nil {
		e.rolledBack(actor, "update", documentID, err)
		return false, err
	}
	e.committed(ctx, actor, "update", doc)
	return true, nil
}

// ProcessDocument procesa un borrador guardado tal como está.
func (e *Engine) ProcessDocument(ctx context.Context, actor entity.Actor, documentID string) error {
	var doc *entity.Document
	err := e.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		doc, err = e.loadEditable(ctx, r, documentID)
		if err != nil {
			return err
		}
		h, err := e.handlerFor(doc.Type)
		if err != nil {
			return err
		}
		stored, err := r.Documents.ListLines(ctx, doc.ID)
		if err != nil {
			return err
		}
		in := inputFromDocument(doc)
		in.Status = entity.StatusProcessed
		if in.Amount.Equal((&entity.Document{Lines: stored}).LinesAmount()) {
			// monto calculado en el borrador: se recalcula con los lotes reales
			in.Amount = decimal.Zero
		}
		lines := linesFromDocument(stored, e.noSeries)
		if err := h.validate(in, lines); err != nil {
			return err
		}
		if err := r.Documents.DeleteLines(ctx, doc.ID); err != nil {
			return err
		}
		return e.save(ctx, r, h, doc, in, lines)
	})
	if err != nil {
		e.rolledBack(actor, "process", documentID, err)
		return err
	}
	e.committed(ctx, actor, "process", doc)
	return nil
}

// save genera las líneas con el handler del tipo (aplicando el libro si el estado es PROCESSED),
// las persiste y actualiza estado y monto de la cabecera.
func (e *Engine) save(ctx context.Context, r repository.Repos, h handler, doc *entity.Document, in DocumentInput, lines []LineInput) error {
	if err := h.check(ctx, r, doc, in, lines); err != nil {
		return err
	}
	doc.Status = in.Status
	persisted, err := h.build(ctx, r, doc, lines)
	if err != nil {
		return err
	}
	for i, l := range persisted {
		l.ID = uuid.New().String()
		l.DocumentID = doc.ID
		l.Position = i + 1
	}
	if err := r.Documents.CreateLines(ctx, persisted); err != nil {
		return err
	}
	doc.Lines = persisted
	doc.Amount = h.amount(in, doc)
	doc.UpdatedAt = e.ledger.Now()
	return r.Documents.Update(ctx, doc)
}

// BlockDocument bloquea un borrador o un documento procesado. No revierte movimientos de stock.
func (e *Engine) BlockDocument(ctx context.Context, actor entity.Actor, documentID string) error {
	var doc *entity.Document
	err := e.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		doc, err = e.loadForUpdate(ctx, r, documentID)
		if err != nil {
			return err
		}
		if !doc.Status.CanTransitionTo(entity.StatusBlocked) {
			return domain.NewConflictError("document", doc.ID, "el documento ya está bloqueado")
		}
		doc.Status = entity.StatusBlocked
		doc.UpdatedAt = e.ledger.Now()
		return r.Documents.Update(ctx, doc)
	})
	if err != nil {
		e.rolledBack(actor, "block", documentID, err)
		return err
	}
	e.committed(ctx, actor, "block", doc)
	return nil
}

// SignDocument registra la firma de un documento procesado. Se firma una sola vez.
func (e *Engine) SignDocument(ctx context.Context, actor entity.Actor, documentID string) error {
	if actor.IsZero() {
		return domain.NewValidationError("actor", "requerido para firmar")
	}
	var doc *entity.Document
	err := e.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		doc, err = e.loadForUpdate(ctx, r, documentID)
		if err != nil {
			return err
		}
		if doc.Status != entity.StatusProcessed {
			return domain.NewConflictError("document", doc.ID, "solo se firman documentos procesados")
		}
		if doc.SignedAt != nil {
			return domain.NewConflictError("document", doc.ID, "el documento ya está firmado")
		}
		now := e.ledger.Now()
		doc.SignedBy = actor.Label()
		doc.SignedAt = &now
		doc.UpdatedAt = now
		return r.Documents.Update(ctx, doc)
	})
	if err != nil {
		e.rolledBack(actor, "sign", documentID, err)
		return err
	}
	e.committed(ctx, actor, "sign", doc)
	return nil
}

// DeleteDraft elimina un borrador y sus líneas. Los documentos procesados o bloqueados no se borran.
func (e *Engine) DeleteDraft(ctx context.Context, actor entity.Actor, documentID string) error {
	var doc *entity.Document
	err := e.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		doc, err = e.loadEditable(ctx, r, documentID)
		if err != nil {
			return err
		}
		return r.Documents.Delete(ctx, doc.ID)
	})
	if err != nil {
		e.rolledBack(actor, "delete", documentID, err)
		return err
	}
	e.committed(ctx, actor, "delete", doc)
	return nil
}

func (e *Engine) loadForUpdate(ctx context.Context, r repository.Repos, id string) (*entity.Document, error) {
	doc, err := r.Documents.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.NewNotFoundError("document", id)
	}
	return doc, nil
}

func (e *Engine) loadEditable(ctx context.Context, r repository.Repos, id string) (*entity.Document, error) {
	doc, err := e.loadForUpdate(ctx, r, id)
	if err != nil {
		return nil, err
	}
	if !doc.IsEditable() {
		return nil, domain.NewConflictError("document", doc.ID, "solo los borradores se pueden modificar (estado "+string(doc.Status)+")")
	}
	return doc, nil
}

// nextNumber número {prefijo}-{yyyyMM}-{nnn} tomado del contador del período dentro de la tx.
func (e *Engine) nextNumber(ctx context.Context, r repository.Repos, t entity.DocumentType, date time.Time) (string, error) {
	seq, err := r.Sequences.Next(ctx, t, rules.Period(date))
	if err != nil {
		return "", err
	}
	return rules.FormatNumber(t, date, seq), nil
}

func (e *Engine) committed(ctx context.Context, actor entity.Actor, op string, doc *entity.Document) {
	e.log.Info().
		Str("op", op).
		Str("document_id", doc.ID).
		Str("number", doc.Number).
		Str("type", string(doc.Type)).
		Str("status", string(doc.Status)).
		Str("actor", actor.Label()).
		Msg("documento confirmado")
	if err := e.cache.Invalidate(ctx); err != nil {
		e.log.Warn().Err(err).Msg("no se pudo invalidar la caché de reportes")
	}
}

func (e *Engine) rolledBack(actor entity.Actor, op, ref string, err error) {
	e.log.Warn().
		Err(err).
		Str("op", op).
		Str("ref", ref).
		Str("actor", actor.Label()).
		Msg("operación de documento revertida")
}

func normalizeStatus(s entity.DocumentStatus) entity.DocumentStatus {
	if s == "" {
		return entity.StatusDraft
	}
	return s
}

func validateHeader(in DocumentInput) error {
	if in.Status != entity.StatusDraft && in.Status != entity.StatusProcessed {
		return domain.NewValidationError("status", "debe ser DRAFT o PROCESSED")
	}
	if in.Amount.IsNegative() {
		return domain.NewValidationError("amount", "no puede ser negativo")
	}
	return nil
}

// applyHeader copia los campos editables de la cabecera.
func applyHeader(doc *entity.Document, in DocumentInput) {
	doc.Notes = strings.TrimSpace(in.Notes)
	switch doc.Type {
	case entity.DocumentIncoming:
		doc.SupplierID = in.SupplierID
		doc.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
		doc.InvoiceDate = in.InvoiceDate
	case entity.DocumentOutgoing:
		doc.CustomerName = strings.TrimSpace(in.CustomerName)
		doc.CustomerInfo = strings.TrimSpace(in.CustomerInfo)
	case entity.DocumentWriteOff:
		doc.WriteOffReason = strings.TrimSpace(in.WriteOffReason)
		doc.Commission = strings.TrimSpace(in.Commission)
	}
}

func inputFromDocument(doc *entity.Document) DocumentInput {
	return DocumentInput{
		Date:           doc.Date,
		Status:         doc.Status,
		Notes:          doc.Notes,
		SupplierID:     doc.SupplierID,
		InvoiceNumber:  doc.InvoiceNumber,
		InvoiceDate:    doc.InvoiceDate,
		CustomerName:   doc.CustomerName,
		CustomerInfo:   doc.CustomerInfo,
		WriteOffReason: doc.WriteOffReason,
		Commission:     doc.Commission,
		Amount:         doc.Amount,
	}
}

// linesFromDocument reconstruye la entrada a partir de las líneas de un borrador.
// La serie de relleno no se propaga como serie explícita.
func linesFromDocument(stored []*entity.DocumentLine, noSeries string) []LineInput {
	out := make([]LineInput, 0, len(stored))
	for _, l := range stored {
		series := l.Series
		if series == noSeries {
			series = ""
		}
		out = append(out, LineInput{
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			SellingPrice:   l.SellingPrice,
			Series:         series,
			ExpirationDate: l.ExpirationDate,
		})
	}
	return out
}
