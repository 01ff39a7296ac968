package entity

import "time"

// Campos de lote que se pueden corregir.
const (
	CorrectionFieldQuantity = "Quantity"
)

// BatchCorrectionLog registro de auditoría de una corrección de lote. Solo se inserta.
type BatchCorrectionLog struct {
	ID                   string
	BatchID              string
	CorrectionDocumentID string // vacío en correcciones directas (conteo físico)
	Timestamp            time.Time
	FieldName            string
	OldValue             string
	NewValue             string
	ChangedBy            string
	Reason               string
}
