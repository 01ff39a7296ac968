package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch es un lote: cantidad de un producto recibida junta, con la misma serie,
// vencimiento y precio. Es la unidad de verdad del inventario.
// Invariante: Quantity >= 0; cuando llega a 0 IsActive pasa a false y no vuelve a activarse.
type Batch struct {
	ID                 string
	ProductID          string
	SupplierID         string
	Series             string
	ExpirationDate     time.Time
	PurchasePrice      decimal.Decimal
	SellingPrice       decimal.Decimal
	Quantity           int
	ArrivalDate        time.Time
	IsActive           bool
	IncomingDocumentID string // documento de entrada que lo creó (vacío si no aplica)
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsAvailable lote activo con cantidad positiva.
func (b *Batch) IsAvailable() bool {
	return b.IsActive && b.Quantity > 0
}

// DaysToExpiry días de calendario entre today y el vencimiento (negativo si ya venció).
func (b *Batch) DaysToExpiry(today time.Time) int {
	return DaysBetween(today, b.ExpirationDate)
}

// IsExpired vencido: fecha de vencimiento <= hoy.
func (b *Batch) IsExpired(today time.Time) bool {
	return b.DaysToExpiry(today) <= 0
}

// IsExpiringSoon vence dentro de la ventana: 0 < días <= window.
func (b *Batch) IsExpiringSoon(today time.Time, window int) bool {
	d := b.DaysToExpiry(today)
	return d > 0 && d <= window
}

// PurchaseValue valor del lote al costo.
func (b *Batch) PurchaseValue() decimal.Decimal {
	return b.PurchasePrice.Mul(decimal.NewFromInt(int64(b.Quantity)))
}

// SellingValue valor del lote a precio de venta.
func (b *Batch) SellingValue() decimal.Decimal {
	return b.SellingPrice.Mul(decimal.NewFromInt(int64(b.Quantity)))
}

// Margin margen unitario (venta - compra).
func (b *Batch) Margin() decimal.Decimal {
	return b.SellingPrice.Sub(b.PurchasePrice)
}

// MarginPct margen sobre el precio de compra, en porcentaje con 2 decimales.
func (b *Batch) MarginPct() decimal.Decimal {
	if !b.PurchasePrice.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}
	return b.Margin().Div(b.PurchasePrice).Mul(decimal.NewFromInt(100)).Round(2)
}

// DateOnly trunca t a la medianoche UTC de su fecha de calendario.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween días de calendario de from a to.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}
