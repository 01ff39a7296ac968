package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout formato de fechas sin hora en el cuerpo de las peticiones.
const DateLayout = "2006-01-02"

// DocumentLineRequest línea pedida. En salidas y bajas es una cantidad de producto; en entradas, el lote a crear.
type DocumentLineRequest struct {
	ProductID      string           `json:"product_id" validate:"required"`
	Quantity       int              `json:"quantity" validate:"required,min=1"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	SellingPrice   *decimal.Decimal `json:"selling_price,omitempty"`
	Series         string           `json:"series" validate:"max=100"`
	ExpirationDate string           `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
}

// DocumentRequest cabecera común de entradas, salidas y bajas.
// Status vacío crea un borrador.
type DocumentRequest struct {
	Date           *time.Time            `json:"date,omitempty"`
	Status         string                `json:"status" validate:"omitempty,oneof=DRAFT PROCESSED"`
	Notes          string                `json:"notes" validate:"max=2000"`
	SupplierID     string                `json:"supplier_id"`
	InvoiceNumber  string                `json:"invoice_number" validate:"max=100"`
	InvoiceDate    string                `json:"invoice_date" validate:"omitempty,datetime=2006-01-02"`
	CustomerName   string                `json:"customer_name" validate:"max=200"`
	CustomerInfo   string                `json:"customer_info" validate:"max=1000"`
	WriteOffReason string                `json:"write_off_reason" validate:"max=1000"`
	Commission     string                `json:"commission" validate:"max=1000"`
	Amount         decimal.Decimal       `json:"amount"`
	Lines          []DocumentLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// CorrectionLineRequest nueva cantidad absoluta para el lote de una línea del documento original.
type CorrectionLineRequest struct {
	LineID      string `json:"line_id" validate:"required"`
	NewQuantity int    `json:"new_quantity" validate:"min=0"`
	Notes       string `json:"notes" validate:"max=1000"`
}

// CorrectionRequest corrección de cantidades de un documento procesado.
type CorrectionRequest struct {
	OriginalDocumentID string                  `json:"original_document_id" validate:"required"`
	Reason             string                  `json:"reason" validate:"required,max=1000"`
	Corrections        []CorrectionLineRequest `json:"corrections" validate:"required,min=1,dive"`
}

// DocumentFilterRequest filtros del listado de documentos. From/To en formato yyyy-mm-dd.
type DocumentFilterRequest struct {
	PageRequest
	Type       string `query:"type" validate:"omitempty,oneof=INCOMING OUTGOING WRITE_OFF CORRECTION"`
	Status     string `query:"status" validate:"omitempty,oneof=DRAFT PROCESSED BLOCKED"`
	SupplierID string `query:"supplier_id"`
	From       string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// DocumentLineResponse línea persistida.
type DocumentLineResponse struct {
	ID              string           `json:"id"`
	Position        int              `json:"position"`
	ProductID       string           `json:"product_id"`
	Quantity        int              `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	SellingPrice    *decimal.Decimal `json:"selling_price,omitempty"`
	Total           decimal.Decimal  `json:"total"`
	Series          string           `json:"series"`
	ExpirationDate  *time.Time       `json:"expiration_date,omitempty"`
	CreatedBatchID  string           `json:"created_batch_id,omitempty"`
	SourceBatchID   string           `json:"source_batch_id,omitempty"`
	OldValue        string           `json:"old_value,omitempty"`
	NewValue        string           `json:"new_value,omitempty"`
	CorrectionNotes string           `json:"correction_notes,omitempty"`
}

// DocumentResponse documento con sus líneas y, si se pidieron, sus correcciones.
type DocumentResponse struct {
	ID                 string                 `json:"id"`
	Number             string                 `json:"number"`
	Type               string                 `json:"type"`
	Date               time.Time              `json:"date"`
	Status             string                 `json:"status"`
	CreatedBy          string                 `json:"created_by"`
	SignedBy           string                 `json:"signed_by,omitempty"`
	SignedAt           *time.Time             `json:"signed_at,omitempty"`
	SupplierID         string                 `json:"supplier_id,omitempty"`
	InvoiceNumber      string                 `json:"invoice_number,omitempty"`
	InvoiceDate        *time.Time             `json:"invoice_date,omitempty"`
	CustomerName       string                 `json:"customer_name,omitempty"`
	CustomerInfo       string                 `json:"customer_info,omitempty"`
	WriteOffReason     string                 `json:"write_off_reason,omitempty"`
	Commission         string                 `json:"commission,omitempty"`
	CorrectionType     string                 `json:"correction_type,omitempty"`
	CorrectionReason   string                 `json:"correction_reason,omitempty"`
	OriginalDocumentID string                 `json:"original_document_id,omitempty"`
	Notes              string                 `json:"notes,omitempty"`
	Amount             decimal.Decimal        `json:"amount"`
	TotalQuantity      int                    `json:"total_quantity"`
	Lines              []DocumentLineResponse `json:"lines"`
	Corrections        []DocumentResponse     `json:"corrections,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// DocumentListResponse lista paginada de cabeceras.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// DocumentCreatedResponse id del documento creado.
type DocumentCreatedResponse struct {
	ID string `json:"id"`
}

// DocumentUpdatedResponse resultado de guardar un borrador.
type DocumentUpdatedResponse struct {
	ID      string `json:"id"`
	Updated bool   `json:"updated"`
}

// BatchResponse lote con sus valores derivados.
type BatchResponse struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"product_id"`
	SupplierID         string          `json:"supplier_id,omitempty"`
	Series             string          `json:"series"`
	ExpirationDate     time.Time       `json:"expiration_date"`
	ArrivalDate        time.Time       `json:"arrival_date"`
	DaysToExpiry       int             `json:"days_to_expiry"`
	Quantity           int             `json:"quantity"`
	IsActive           bool            `json:"is_active"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"`
	SellingPrice       decimal.Decimal `json:"selling_price"`
	Margin             decimal.Decimal `json:"margin"`
	MarginPct          decimal.Decimal `json:"margin_pct"`
	IncomingDocumentID string          `json:"incoming_document_id,omitempty"`
}

// BatchQuantityRequest corrección directa de la cantidad de un lote (conteo físico).
type BatchQuantityRequest struct {
	NewQuantity int    `json:"new_quantity" validate:"min=0"`
	Reason      string `json:"reason" validate:"required,max=1000"`
}

// CorrectionLogResponse entrada de la bitácora de correcciones.
type CorrectionLogResponse struct {
	ID                   string    `json:"id"`
	BatchID              string    `json:"batch_id"`
	CorrectionDocumentID string    `json:"correction_document_id,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
	FieldName            string    `json:"field_name"`
	OldValue             string    `json:"old_value"`
	NewValue             string    `json:"new_value"`
	ChangedBy            string    `json:"changed_by"`
	Reason               string    `json:"reason"`
}
