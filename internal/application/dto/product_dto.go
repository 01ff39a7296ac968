package dto

import (
	"time"
)

// CreateProductRequest entrada para crear un producto. El stock nace en 0: solo cambia vía documentos.
type CreateProductRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=200"`
	CategoryID    string `json:"category_id" validate:"omitempty,uuid"`
	ReleaseForm   string `json:"release_form" validate:"max=100"`
	Manufacturer  string `json:"manufacturer" validate:"max=200"`
	UnitOfMeasure string `json:"unit_of_measure" validate:"required,max=50"`
	MinRemainder  int    `json:"min_remainder" validate:"min=0"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock ni estado de archivo).
type UpdateProductRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	CategoryID    *string `json:"category_id" validate:"omitempty,uuid"`
	ReleaseForm   *string `json:"release_form" validate:"omitempty,max=100"`
	Manufacturer  *string `json:"manufacturer" validate:"omitempty,max=200"`
	UnitOfMeasure *string `json:"unit_of_measure" validate:"omitempty,min=1,max=50"`
	MinRemainder  *int    `json:"min_remainder" validate:"omitempty,min=0"`
}

// ArchiveProductRequest archivo de un producto. Con RequiresWriteOff el stock restante se da de baja.
type ArchiveProductRequest struct {
	Reason           string `json:"reason" validate:"required,max=500"`
	BlockSales       bool   `json:"block_sales"`
	Comment          string `json:"comment" validate:"max=1000"`
	RequiresWriteOff bool   `json:"requires_write_off"`
}

// ProductFilterRequest filtros del listado de productos.
type ProductFilterRequest struct {
	PageRequest
	CategoryID      string `query:"category_id"`
	Search          string `query:"search"`
	IncludeArchived bool   `query:"include_archived"`
}

// ProductResponse salida de un producto con su stock derivado de los lotes.
type ProductResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	CategoryID        string     `json:"category_id,omitempty"`
	ReleaseForm       string     `json:"release_form"`
	Manufacturer      string     `json:"manufacturer"`
	UnitOfMeasure     string     `json:"unit_of_measure"`
	MinRemainder      int        `json:"min_remainder"`
	IsActive          bool       `json:"is_active"`
	IsSalesBlocked    bool       `json:"is_sales_blocked"`
	ArchivedAt        *time.Time `json:"archived_at,omitempty"`
	ArchiveReason     string     `json:"archive_reason,omitempty"`
	ArchiveComment    string     `json:"archive_comment,omitempty"`
	CurrentStock      int        `json:"current_stock"`
	StockStatus       string     `json:"stock_status"`
	NearestExpiration *time.Time `json:"nearest_expiration,omitempty"`
	HasExpired        bool       `json:"has_expired"`
	HasExpiringSoon   bool       `json:"has_expiring_soon"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ArchiveProductResponse producto archivado y, si hubo baja, el documento generado.
type ArchiveProductResponse struct {
	Product            ProductResponse `json:"product"`
	WriteOffDocumentID string          `json:"write_off_document_id,omitempty"`
	WrittenOffQuantity int             `json:"written_off_quantity"`
}
