package document

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// CreateQuantityCorrection corrige cantidades de lotes asociados a líneas de un documento procesado.
// Crea un documento de corrección ya procesado con una línea y una entrada de bitácora por par.
func (e *Engine) CreateQuantityCorrection(ctx context.Context, actor entity.Actor, originalID, reason string, corrections []CorrectionInput) (string, error) {
	if err := validateCorrections(originalID, reason, corrections); err != nil {
		return "", err
	}
	var doc *entity.Document
	err := e.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		doc, err = e.correctInTx(ctx, r, actor, originalID, strings.TrimSpace(reason), corrections)
		return err
	})
	if err != nil {
		e.rolledBack(actor, "correct", originalID, err)
		return "", err
	}
	e.committed(ctx, actor, "correct", doc)
	return doc.ID, nil
}

func validateCorrections(originalID, reason string, corrections []CorrectionInput) error {
	if strings.TrimSpace(originalID) == "" {
		return domain.NewValidationError("originalDocumentId", "requerido")
	}
	if strings.TrimSpace(reason) == "" {
		return domain.NewValidationError("reason", "requerido")
	}
	if len(corrections) == 0 {
		return domain.NewValidationError("corrections", "al menos una corrección")
	}
	seen := make(map[string]bool, len(corrections))
	for _, c := range corrections {
		if strings.TrimSpace(c.LineID) == "" {
			return domain.NewValidationError("lineId", "requerido")
		}
		if c.NewQuantity < 0 {
			return domain.NewValidationError("newQuantity", "no puede ser negativa")
		}
		if seen[c.LineID] {
			return domain.NewValidationError("lineId", "línea repetida: "+c.LineID)
		}
		seen[c.LineID] = true
	}
	return nil
}

func (e *Engine) correctInTx(ctx context.Context, r repository.Repos, actor entity.Actor, originalID, reason string, corrections []CorrectionInput) (*entity.Document, error) {
	original, err := r.Documents.GetForUpdate(ctx, originalID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, domain.NewNotFoundError("document", originalID)
	}
	if original.Type == entity.DocumentCorrection {
		return nil, domain.NewValidationError("originalDocumentId", "no se corrige una corrección")
	}
	if original.Status != entity.StatusProcessed {
		return nil, domain.NewConflictError("document", original.ID, "solo se corrigen documentos procesados")
	}

	now := e.ledger.Now()
	number, err := e.nextNumber(ctx, r, entity.DocumentCorrection, now)
	if err != nil {
		return nil, err
	}
	doc := &entity.Document{
		ID:                 uuid.New().String(),
		Number:             number,
		Type:               entity.DocumentCorrection,
		Date:               now,
		Status:             entity.StatusProcessed,
		CreatedBy:          actor.Label(),
		CreatedAt:          now,
		UpdatedAt:          now,
		CorrectionType:     entity.CorrectionQuantity,
		CorrectionReason:   reason,
		OriginalDocumentID: original.ID,
		Amount:             decimal.Zero,
	}
	if err := r.Documents.Create(ctx, doc); err != nil {
		return nil, err
	}

	lines := make([]*entity.DocumentLine, 0, len(corrections))
	for i, c := range corrections {
		line, err := e.correctLine(ctx, r, actor, doc, original.ID, reason, c)
		if err != nil {
			return nil, err
		}
		line.ID = uuid.New().String()
		line.DocumentID = doc.ID
		line.Position = i + 1
		lines = append(lines, line)
	}
	if err := r.Documents.CreateLines(ctx, lines); err != nil {
		return nil, err
	}
	doc.Lines = lines
	doc.Amount = doc.LinesAmount()
	if err := r.Documents.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// correctLine aplica una corrección y arma su línea: cantidad |Δ|, valores antes/después,
// CreatedBatchID siempre y SourceBatchID además cuando la cantidad bajó.
func (e *Engine) correctLine(ctx context.Context, r repository.Repos, actor entity.Actor, doc *entity.Document, originalID, reason string, c CorrectionInput) (*entity.DocumentLine, error) {
	target, err := r.Documents.GetLine(ctx, c.LineID)
	if err != nil {
		return nil, err
	}
	if target == nil || target.DocumentID != originalID {
		return nil, domain.NewNotFoundError("document_line", c.LineID)
	}
	batchID := target.BatchID()
	if batchID == "" {
		return nil, domain.NewValidationError("lineId", "la línea "+c.LineID+" no tiene lote asociado")
	}
	batch, err := r.Batches.GetForUpdate(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.NewNotFoundError("batch", batchID)
	}

	entry, err := e.ledger.CorrectQuantity(ctx, r, actor, ledger.CorrectionSpec{
		BatchID:     batchID,
		NewQuantity: c.NewQuantity,
		Reason:      reason,
		DocumentID:  doc.ID,
	})
	if err != nil {
		return nil, err
	}

	old, _ := strconv.Atoi(entry.OldValue)
	delta := c.NewQuantity - old
	qty := delta
	if qty < 0 {
		qty = -qty
	}
	expires := batch.ExpirationDate
	selling := batch.SellingPrice
	line := &entity.DocumentLine{
		ProductID:       target.ProductID,
		Quantity:        qty,
		UnitPrice:       target.UnitPrice,
		SellingPrice:    &selling,
		Series:          batch.Series,
		ExpirationDate:  &expires,
		CreatedBatchID:  batchID,
		OldValue:        entry.OldValue,
		NewValue:        entry.NewValue,
		CorrectionNotes: strings.TrimSpace(c.Notes),
	}
	if delta < 0 {
		line.SourceBatchID = batchID
	}
	return line, nil
}
