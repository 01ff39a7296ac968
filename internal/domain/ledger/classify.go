package ledger

import (
	"time"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// DefaultExpiringWindow días para considerar un lote "por vencer".
const DefaultExpiringWindow = 30

// StockStatus clasificación del stock de un producto.
type StockStatus string

// Estados de stock.
const (
	StockOut     StockStatus = "out"
	StockLow     StockStatus = "low"
	StockInStock StockStatus = "in_stock"
)

// ClassifyStock agotado si 0, bajo si no supera el mínimo, normal en otro caso.
func ClassifyStock(current, minRemainder int) StockStatus {
	switch {
	case current <= 0:
		return StockOut
	case current <= minRemainder:
		return StockLow
	default:
		return StockInStock
	}
}

// IsExpiredBatch lote disponible ya vencido.
func IsExpiredBatch(b *entity.Batch, today time.Time) bool {
	return b.IsAvailable() && b.IsExpired(today)
}

// IsExpiringBatch lote disponible que vence dentro de la ventana.
func IsExpiringBatch(b *entity.Batch, today time.Time, window int) bool {
	return b.IsAvailable() && b.IsExpiringSoon(today, window)
}

// ProductSnapshot valores derivados de un producto a partir de sus lotes.
type ProductSnapshot struct {
	CurrentStock      int
	Status            StockStatus
	NearestExpiration *time.Time
	HasExpired        bool
	HasExpiringSoon   bool
	ActiveBatchCount  int
}

// Snapshot calcula el stock actual y las banderas de vencimiento de un producto.
func Snapshot(p *entity.Product, batches []*entity.Batch, today time.Time, window int) ProductSnapshot {
	var s ProductSnapshot
	for _, b := range batches {
		if b.ProductID != p.ID || !b.IsAvailable() {
			continue
		}
		s.ActiveBatchCount++
		s.CurrentStock += b.Quantity
		if b.IsExpired(today) {
			s.HasExpired = true
		} else if b.IsExpiringSoon(today, window) {
			s.HasExpiringSoon = true
		}
		if s.NearestExpiration == nil || b.ExpirationDate.Before(*s.NearestExpiration) {
			exp := b.ExpirationDate
			s.NearestExpiration = &exp
		}
	}
	s.Status = ClassifyStock(s.CurrentStock, p.MinRemainder)
	return s
}
