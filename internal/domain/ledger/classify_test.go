package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/ledger"
)

func TestClassifyStock(t *testing.T) {
	assert.Equal(t, ledger.StockOut, ledger.ClassifyStock(0, 10))
	assert.Equal(t, ledger.StockLow, ledger.ClassifyStock(10, 10))
	assert.Equal(t, ledger.StockLow, ledger.ClassifyStock(1, 10))
	assert.Equal(t, ledger.StockInStock, ledger.ClassifyStock(11, 10))
}

func TestExpirationClassification(t *testing.T) {
	today := day(2026, 10, 16)

	expiredToday := batch("t", today, 1)
	assert.True(t, ledger.IsExpiredBatch(expiredToday, today), "vence hoy cuenta como vencido")
	assert.False(t, ledger.IsExpiringBatch(expiredToday, today, 30))

	in30 := batch("s", today.AddDate(0, 0, 30), 1)
	assert.False(t, ledger.IsExpiredBatch(in30, today))
	assert.True(t, ledger.IsExpiringBatch(in30, today, 30))

	in31 := batch("f", today.AddDate(0, 0, 31), 1)
	assert.False(t, ledger.IsExpiringBatch(in31, today, 30))

	exhausted := batch("e", today.AddDate(0, 0, -3), 0)
	assert.False(t, ledger.IsExpiredBatch(exhausted, today), "los lotes agotados no se listan")
}

func TestSnapshot(t *testing.T) {
	today := day(2026, 10, 16)
	p := &entity.Product{ID: "p1", MinRemainder: 10}
	batches := []*entity.Batch{
		batch("a", today.AddDate(0, 0, -1), 2),
		batch("b", today.AddDate(0, 0, 10), 3),
		batch("c", today.AddDate(1, 0, 0), 4),
		{ID: "other", ProductID: "p2", Quantity: 100, IsActive: true, ExpirationDate: today},
	}
	s := ledger.Snapshot(p, batches, today, ledger.DefaultExpiringWindow)
	assert.Equal(t, 9, s.CurrentStock)
	assert.Equal(t, ledger.StockLow, s.Status)
	assert.True(t, s.HasExpired)
	assert.True(t, s.HasExpiringSoon)
	require.NotNil(t, s.NearestExpiration)
	assert.True(t, s.NearestExpiration.Equal(today.AddDate(0, 0, -1)))
	assert.Equal(t, 3, s.ActiveBatchCount)
}

func TestSellingPrice_AppliesMarkupOnce(t *testing.T) {
	price := ledger.SellingPrice(decimal.RequireFromString("10.00"), decimal.RequireFromString("1.3"))
	assert.True(t, price.Equal(decimal.RequireFromString("13.00")), price.String())

	fallback := ledger.SellingPrice(decimal.NewFromInt(10), decimal.Zero)
	assert.True(t, fallback.Equal(decimal.NewFromInt(13)), fallback.String())
}

func TestWeightedAverageCost(t *testing.T) {
	cost := ledger.WeightedAverageCost(
		[]int{10, 30},
		[]decimal.Decimal{decimal.NewFromInt(10), decimal.NewFromInt(20)},
	)
	assert.True(t, cost.Equal(decimal.RequireFromString("17.5")), cost.String())
	assert.True(t, ledger.WeightedAverageCost(nil, nil).IsZero())
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "PR-202610-001", ledger.FormatNumber(entity.DocumentIncoming, day(2026, 10, 3), 1))
	assert.Equal(t, "SP-202601-012", ledger.FormatNumber(entity.DocumentWriteOff, day(2026, 1, 31), 12))
	assert.Equal(t, "KR-202612-1000", ledger.FormatNumber(entity.DocumentCorrection, day(2026, 12, 1), 1000))
}
