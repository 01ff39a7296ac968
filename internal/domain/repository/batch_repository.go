package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para lotes.
// Los lotes nunca se eliminan: los agotados quedan como historial.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Batch, error)
	// ListActiveByProduct lotes activos con cantidad > 0, ordenados por vencimiento ascendente.
	ListActiveByProduct(ctx context.Context, productID string) ([]*entity.Batch, error)
	// ListActiveByProductForUpdate igual que ListActiveByProduct pero bloqueando las filas en orden FEFO.
	ListActiveByProductForUpdate(ctx context.Context, productID string) ([]*entity.Batch, error)
	// ListAvailable todos los lotes activos con cantidad > 0 (reportes).
	ListAvailable(ctx context.Context) ([]*entity.Batch, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Batch, error)
	// UpdateQuantity persiste cantidad e IsActive.
	UpdateQuantity(ctx context.Context, batch *entity.Batch) error
	CountBySupplier(ctx context.Context, supplierID string) (int, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
}
