package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// DocumentFilter filtros del listado de documentos.
type DocumentFilter struct {
	Type       entity.DocumentType
	Status     entity.DocumentStatus
	SupplierID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// DocumentRepository define el puerto de persistencia para documentos y sus líneas.
type DocumentRepository interface {
	// Create inserta la cabecera (sin líneas).
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	// GetForUpdate obtiene la cabecera y bloquea la fila.
	GetForUpdate(ctx context.Context, id string) (*entity.Document, error)
	// Update actualiza la cabecera (estado, firma, monto, campos por tipo).
	Update(ctx context.Context, doc *entity.Document) error
	// Delete elimina la cabecera; las líneas caen en cascada.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter DocumentFilter) ([]*entity.Document, error)
	// Count total que cumple el filtro, sin Limit ni Offset.
	Count(ctx context.Context, filter DocumentFilter) (int, error)
	ListCorrections(ctx context.Context, originalID string) ([]*entity.Document, error)

	CreateLines(ctx context.Context, lines []*entity.DocumentLine) error
	DeleteLines(ctx context.Context, documentID string) error
	ListLines(ctx context.Context, documentID string) ([]*entity.DocumentLine, error)
	GetLine(ctx context.Context, lineID string) (*entity.DocumentLine, error)

	CountBySupplier(ctx context.Context, supplierID string) (int, error)
	CountLinesByProduct(ctx context.Context, productID string) (int, error)
}

// SequenceRepository contador atómico de numeración por (tipo, período yyyyMM).
// Next incrementa y devuelve el siguiente valor dentro de la transacción actual; el primer
// uso de un período arranca en (documentos existentes de ese tipo y período) + 1.
type SequenceRepository interface {
	Next(ctx context.Context, docType entity.DocumentType, period string) (int, error)
}
