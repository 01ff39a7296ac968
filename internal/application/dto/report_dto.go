package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Lotes ─────────────────────────────────────────────────────────────────────

// BatchView lote con nombres de producto y proveedor resueltos, para reportes de vencimiento.
type BatchView struct {
	BatchID        string          `json:"batch_id"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	SupplierID     string          `json:"supplier_id,omitempty"`
	SupplierName   string          `json:"supplier_name,omitempty"`
	Series         string          `json:"series"`
	ExpirationDate time.Time       `json:"expiration_date"`
	DaysToExpiry   int             `json:"days_to_expiry"` // negativo si ya venció
	Quantity       int             `json:"quantity"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	PurchaseValue  decimal.Decimal `json:"purchase_value"` // cantidad × precio de compra
	SellingValue   decimal.Decimal `json:"selling_value"`
}

// ExpiringBatchesRequest parámetros de GET /api/batches/expiring.
type ExpiringBatchesRequest struct {
	Days int `query:"days" validate:"min=0,max=3650"` // 0 = ventana configurada
}

// ── Stock ─────────────────────────────────────────────────────────────────────

// StockFilterRequest filtros de GET /api/reports/stock.
type StockFilterRequest struct {
	CategoryID      string `query:"category_id"`
	Status          string `query:"status" validate:"omitempty,oneof=in_stock low out"`
	IncludeArchived bool   `query:"include_archived"`
}

// ProductStock stock derivado de un producto.
type ProductStock struct {
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	CategoryID        string          `json:"category_id,omitempty"`
	UnitOfMeasure     string          `json:"unit_of_measure"`
	MinRemainder      int             `json:"min_remainder"`
	CurrentStock      int             `json:"current_stock"`
	Status            string          `json:"status"` // in_stock | low | out
	ActiveBatches     int             `json:"active_batches"`
	NearestExpiration *time.Time      `json:"nearest_expiration,omitempty"`
	HasExpired        bool            `json:"has_expired"`
	HasExpiringSoon   bool            `json:"has_expiring_soon"`
	AverageCost       decimal.Decimal `json:"average_cost"` // costo de compra ponderado por cantidad
	IsActive          bool            `json:"is_active"`
}

// ── Proveedores ───────────────────────────────────────────────────────────────

// SupplierStatisticsRequest parámetros de GET /api/reports/suppliers/:id/statistics.
type SupplierStatisticsRequest struct {
	Year int `query:"year" validate:"omitempty,min=2000,max=2100"` // 0 = año en curso
}

// MonthlyDeliveries entregas procesadas de un proveedor en un mes.
type MonthlyDeliveries struct {
	Month         int             `json:"month"` // 1..12
	Deliveries    int             `json:"deliveries"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AverageAmount decimal.Decimal `json:"average_amount"`
}

// LateDelivery entrada con fecha de factura pasada que aún no se procesó.
type LateDelivery struct {
	DocumentID    string     `json:"document_id"`
	Number        string     `json:"number"`
	Status        string     `json:"status"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	InvoiceDate   time.Time  `json:"invoice_date"`
	DaysLate      int        `json:"days_late"`
	DocumentDate  time.Time  `json:"document_date"`
	SignedAt      *time.Time `json:"signed_at,omitempty"`
}

// SupplierStatistics resumen anual de entregas de un proveedor.
type SupplierStatistics struct {
	SupplierID      string              `json:"supplier_id"`
	SupplierName    string              `json:"supplier_name"`
	Year            int                 `json:"year"`
	Months          []MonthlyDeliveries `json:"months"` // siempre 12 meses
	TotalDeliveries int                 `json:"total_deliveries"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	AverageAmount   decimal.Decimal     `json:"average_amount"`
	LateDeliveries  []LateDelivery      `json:"late_deliveries"`
}

// ── Resumen ───────────────────────────────────────────────────────────────────

// OverviewResponse respuesta de GET /api/reports/overview.
type OverviewResponse struct {
	// Productos y proveedores activos
	Products         int `json:"products"`
	ArchivedProducts int `json:"archived_products"`
	Suppliers        int `json:"suppliers"`
	LowStock         int `json:"low_stock"`
	OutOfStock       int `json:"out_of_stock"`
	ExpiredBatches   int `json:"expired_batches"`
	ExpiringBatches  int `json:"expiring_batches"`
	DraftDocuments   int `json:"draft_documents"`

	// Valor del inventario disponible
	StockPurchaseValue decimal.Decimal `json:"stock_purchase_value"`
	StockSellingValue  decimal.Decimal `json:"stock_selling_value"`

	GeneratedAt time.Time `json:"generated_at"`
}
