package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType tipo de documento del libro de inventario. Variante cerrada.
type DocumentType string

// Tipos de documento.
const (
	DocumentIncoming   DocumentType = "INCOMING"   // entrada de proveedor
	DocumentOutgoing   DocumentType = "OUTGOING"   // venta / salida
	DocumentWriteOff   DocumentType = "WRITE_OFF"  // baja (vencidos, daños)
	DocumentCorrection DocumentType = "CORRECTION" // corrección de un documento procesado
)

// DocumentTypes todos los tipos válidos, en orden estable.
func DocumentTypes() []DocumentType {
	return []DocumentType{DocumentIncoming, DocumentOutgoing, DocumentWriteOff, DocumentCorrection}
}

// IsValid verifica que el tipo pertenezca a la variante.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentIncoming, DocumentOutgoing, DocumentWriteOff, DocumentCorrection:
		return true
	}
	return false
}

// NumberPrefix prefijo de numeración por tipo.
func (t DocumentType) NumberPrefix() string {
	switch t {
	case DocumentIncoming:
		return "PR"
	case DocumentOutgoing:
		return "RS"
	case DocumentWriteOff:
		return "SP"
	case DocumentCorrection:
		return "KR"
	}
	return "DOC"
}

// DocumentStatus estado del ciclo de vida del documento.
type DocumentStatus string

// Estados de documento.
const (
	StatusDraft     DocumentStatus = "DRAFT"
	StatusProcessed DocumentStatus = "PROCESSED"
	StatusBlocked   DocumentStatus = "BLOCKED"
)

// IsValid verifica el estado.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusProcessed, StatusBlocked:
		return true
	}
	return false
}

// CanTransitionTo transiciones permitidas:
// Draft -> Draft | Processed | Blocked; Processed -> Blocked. Blocked es terminal.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	switch s {
	case StatusDraft:
		return next == StatusDraft || next == StatusProcessed || next == StatusBlocked
	case StatusProcessed:
		return next == StatusBlocked
	}
	return false
}

// CorrectionType tipo de corrección.
type CorrectionType string

// Tipos de corrección soportados.
const (
	CorrectionQuantity CorrectionType = "QUANTITY"
)

// Document cabecera de un documento de inventario.
type Document struct {
	ID        string
	Number    string
	Type      DocumentType
	Date      time.Time
	Status    DocumentStatus
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
	SignedBy  string
	SignedAt  *time.Time

	// Entrada
	SupplierID    string
	InvoiceNumber string
	InvoiceDate   *time.Time

	// Salida
	CustomerName string
	CustomerInfo string

	// Baja
	WriteOffReason string
	Commission     string // integrantes de la comisión que firma el acta

	// Corrección
	CorrectionType     CorrectionType
	CorrectionReason   string
	OriginalDocumentID string

	Notes  string
	Amount decimal.Decimal // total cacheado

	Lines       []*DocumentLine
	Corrections []*Document
}

// IsEditable solo los borradores admiten cambios de líneas o eliminación.
func (d *Document) IsEditable() bool {
	return d.Status == StatusDraft
}

// TotalQuantity suma de cantidades de las líneas cargadas.
func (d *Document) TotalQuantity() int {
	total := 0
	for _, l := range d.Lines {
		total += l.Quantity
	}
	return total
}

// LinesAmount Σ(precio unitario × cantidad) de las líneas cargadas.
func (d *Document) LinesAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// DocumentLine línea de un documento.
// Procesada, una línea de entrada produce exactamente un lote (CreatedBatchID) y una
// línea de salida/baja consume exactamente un lote (SourceBatchID).
type DocumentLine struct {
	ID              string
	DocumentID      string
	Position        int
	ProductID       string
	Quantity        int
	UnitPrice       decimal.Decimal
	SellingPrice    *decimal.Decimal
	Series          string
	ExpirationDate  *time.Time
	CreatedBatchID  string
	SourceBatchID   string
	OldValue        string
	NewValue        string
	CorrectionNotes string
}

// Total precio unitario × cantidad.
func (l *DocumentLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// BatchID lote asociado a la línea (creado o consumido).
func (l *DocumentLine) BatchID() string {
	if l.CreatedBatchID != "" {
		return l.CreatedBatchID
	}
	return l.SourceBatchID
}
