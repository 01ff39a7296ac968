package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// ProductFilter filtros del listado de productos.
type ProductFilter struct {
	CategoryID      string
	Search          string // coincidencia parcial sin distinguir mayúsculas en nombre o fabricante
	IncludeArchived bool
	Limit           int
	Offset          int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// El stock no se actualiza aquí: vive en los lotes.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	// Count total que cumple el filtro, sin Limit ni Offset.
	Count(ctx context.Context, filter ProductFilter) (int, error)
	CountByCategory(ctx context.Context, categoryID string) (int, error)
	Delete(ctx context.Context, id string) error
}
