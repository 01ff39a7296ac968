// Package ledger contiene las reglas puras del libro de lotes: orden FEFO,
// plan de consumo, clasificación por vencimiento/stock, precios y numeración.
// No conoce la persistencia; los casos de uso le pasan los lotes ya leídos.
package ledger

import (
	"sort"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// Allocation cantidad tomada de un lote concreto.
type Allocation struct {
	Batch    *entity.Batch
	Quantity int
}

// SortFEFO ordena in situ por vencimiento ascendente (primero en vencer, primero en salir).
// Empates: fecha de llegada y luego ID, para que el orden sea determinista.
func SortFEFO(batches []*entity.Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.ExpirationDate.Equal(b.ExpirationDate) {
			return a.ExpirationDate.Before(b.ExpirationDate)
		}
		if !a.ArrivalDate.Equal(b.ArrivalDate) {
			return a.ArrivalDate.Before(b.ArrivalDate)
		}
		return a.ID < b.ID
	})
}

// FilterAvailable descarta lotes inactivos o sin cantidad. Devuelve un slice nuevo.
func FilterAvailable(batches []*entity.Batch) []*entity.Batch {
	out := make([]*entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b.IsAvailable() {
			out = append(out, b)
		}
	}
	return out
}

// Available total disponible en los lotes disponibles.
func Available(batches []*entity.Batch) int {
	total := 0
	for _, b := range batches {
		if b.IsAvailable() {
			total += b.Quantity
		}
	}
	return total
}

// PlanConsumption recorre los lotes en orden FEFO y toma min(lote, restante) de cada uno
// hasta cubrir quantity. No modifica los lotes. ok=false si el total disponible no alcanza;
// en ese caso el plan devuelto es nil.
func PlanConsumption(batches []*entity.Batch, quantity int) (plan []Allocation, available int, ok bool) {
	candidates := FilterAvailable(batches)
	SortFEFO(candidates)
	available = Available(candidates)
	if quantity <= 0 || available < quantity {
		return nil, available, false
	}
	remaining := quantity
	for _, b := range candidates {
		if remaining == 0 {
			break
		}
		take := b.Quantity
		if remaining < take {
			take = remaining
		}
		plan = append(plan, Allocation{Batch: b, Quantity: take})
		remaining -= take
	}
	return plan, available, true
}

// Apply descuenta del lote la cantidad asignada y lo desactiva al llegar a 0.
// Un lote desactivado nunca se reactiva por consumo.
func (a Allocation) Apply() {
	a.Batch.Quantity -= a.Quantity
	if a.Batch.Quantity <= 0 {
		a.Batch.Quantity = 0
		a.Batch.IsActive = false
	}
}
