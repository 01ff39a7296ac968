package document

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// GetDocumentWithDetails cabecera con sus líneas ordenadas por posición.
func (e *Engine) GetDocumentWithDetails(ctx context.Context, id string) (*entity.Document, error) {
	var doc *entity.Document
	err := e.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		doc, err = loadWithLines(ctx, r, id)
		return err
	})
	return doc, err
}

// GetDocumentWithCorrections igual que GetDocumentWithDetails más las correcciones que lo referencian.
func (e *Engine) GetDocumentWithCorrections(ctx context.Context, id string) (*entity.Document, error) {
	var doc *entity.Document
	err := e.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		doc, err = loadWithLines(ctx, r, id)
		if err != nil {
			return err
		}
		corrections, err := r.Documents.ListCorrections(ctx, id)
		if err != nil {
			return err
		}
		for _, c := range corrections {
			if c.Lines, err = r.Documents.ListLines(ctx, c.ID); err != nil {
				return err
			}
		}
		doc.Corrections = corrections
		return nil
	})
	return doc, err
}

// ListDocuments cabeceras (sin líneas) según el filtro, más recientes primero.
func (e *Engine) ListDocuments(ctx context.Context, filter repository.DocumentFilter) ([]*entity.Document, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	var docs []*entity.Document
	err := e.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		docs, err = r.Documents.List(ctx, filter)
		return err
	})
	return docs, err
}

// ListDocumentsPage como ListDocuments, más el total sin paginar, leídos en la misma instantánea.
func (e *Engine) ListDocumentsPage(ctx context.Context, filter repository.DocumentFilter) ([]*entity.Document, int, error) {
	if err := validateFilter(filter); err != nil {
		return nil, 0, err
	}
	var (
		docs  []*entity.Document
		total int
	)
	err := e.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		if docs, err = r.Documents.List(ctx, filter); err != nil {
			return err
		}
		total, err = r.Documents.Count(ctx, filter)
		return err
	})
	return docs, total, err
}

func validateFilter(filter repository.DocumentFilter) error {
	if filter.Type != "" && !filter.Type.IsValid() {
		return domain.NewValidationError("type", "tipo de documento desconocido: "+string(filter.Type))
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return domain.NewValidationError("status", "estado desconocido: "+string(filter.Status))
	}
	return nil
}

func loadWithLines(ctx context.Context, r repository.Repos, id string) (*entity.Document, error) {
	doc, err := r.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.NewNotFoundError("document", id)
	}
	if doc.Lines, err = r.Documents.ListLines(ctx, id); err != nil {
		return nil, err
	}
	return doc, nil
}
