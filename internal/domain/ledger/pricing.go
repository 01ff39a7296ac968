package ledger

import (
	"github.com/shopspring/decimal"
)

// DefaultMarkup recargo por defecto sobre el precio de compra (30%).
var DefaultMarkup = decimal.RequireFromString("1.30")

// SellingPrice precio de venta sugerido: compra × recargo, redondeado a 2 decimales.
// El recargo se aplica una sola vez; si el caller ya trae precio de venta no se usa.
func SellingPrice(purchase, markup decimal.Decimal) decimal.Decimal {
	if markup.LessThanOrEqual(decimal.Zero) {
		markup = DefaultMarkup
	}
	return purchase.Mul(markup).Round(2)
}

// WeightedAverageCost costo promedio ponderado de un conjunto de lotes:
// Σ(cantidad × costo) / Σ cantidad. Cero si no hay cantidad.
func WeightedAverageCost(quantities []int, costs []decimal.Decimal) decimal.Decimal {
	num := decimal.Zero
	den := int64(0)
	for i := range quantities {
		if i >= len(costs) {
			break
		}
		q := int64(quantities[i])
		num = num.Add(costs[i].Mul(decimal.NewFromInt(q)))
		den += q
	}
	if den <= 0 {
		return decimal.Zero
	}
	return num.Div(decimal.NewFromInt(den)).Round(2)
}
