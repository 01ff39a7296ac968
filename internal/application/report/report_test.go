package report_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/application/catalog"
	"github.com/jhoicas/Farmacia-api/internal/application/document"
	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/report"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
)

var (
	clock = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	today = entity.DateOnly(clock)
	actor = entity.Actor{UserID: "u1", Name: "Ana Pérez", Role: entity.RoleStorekeeper}
)

// mapCache caché en memoria que serializa a JSON, igual que el adaptador Redis.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	return nil
}

type fixture struct {
	store  *memory.Store
	engine *document.Engine
	report *report.Service
	cache  *mapCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	l := ledger.New(ledger.Config{Markup: decimal.RequireFromString("1.30")}).WithClock(func() time.Time { return clock })
	cache := newMapCache()
	f := &fixture{
		store:  store,
		engine: document.NewEngine(store, l, cache, nil, document.Options{}),
		report: report.NewService(store, l, cache, time.Minute, nil),
		cache:  cache,
	}
	err := store.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		for _, s := range []*entity.Supplier{
			{ID: "s1", Name: "Droguería Central", IsActive: true},
			{ID: "s2", Name: "Laboratorios Andinos", IsActive: true},
			{ID: "s3", Name: "Proveedor inactivo"},
		} {
			if err := r.Suppliers.Create(ctx, s); err != nil {
				return err
			}
		}
		for _, p := range []*entity.Product{
			{ID: "ibu", Name: "Ibuprofeno 400 mg", MinRemainder: 10, IsActive: true},
			{ID: "para", Name: "Paracetamol 500 mg", MinRemainder: 10, IsActive: true},
			{ID: "lora", Name: "Loratadina 10 mg", MinRemainder: 5, IsActive: true},
			{ID: "old", Name: "Jarabe retirado", MinRemainder: 5, IsSalesBlocked: true},
		} {
			if err := r.Products.Create(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func datePtr(t time.Time) *time.Time { return &t }

func (f *fixture) receive(t *testing.T, in document.DocumentInput, product string, qty int, price string, expires time.Time) string {
	t.Helper()
	if in.SupplierID == "" {
		in.SupplierID = "s1"
	}
	id, err := f.engine.CreateIncoming(context.Background(), actor, in,
		[]document.LineInput{{ProductID: product, Quantity: qty, UnitPrice: dec(price), Series: "L-" + expires.Format("0601"), ExpirationDate: datePtr(expires)}},
	)
	require.NoError(t, err)
	return id
}

func processed() document.DocumentInput {
	return document.DocumentInput{Status: entity.StatusProcessed}
}

func TestExpiredAndExpiringBatches(t *testing.T) {
	f := newFixture(t)
	f.receive(t, processed(), "ibu", 8, "2.00", today.AddDate(0, 0, -3))
	f.receive(t, processed(), "ibu", 20, "2.00", today.AddDate(0, 0, 12))
	f.receive(t, processed(), "para", 30, "1.00", today.AddDate(0, 0, 45))
	f.receive(t, document.DocumentInput{Status: entity.StatusProcessed, SupplierID: "s2"}, "lora", 6, "3.00", today)

	expired, err := f.report.ExpiredBatches(context.Background())
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "ibu", expired[0].ProductID)
	assert.Equal(t, "Ibuprofeno 400 mg", expired[0].ProductName)
	assert.Equal(t, "Droguería Central", expired[0].SupplierName)
	assert.Equal(t, -3, expired[0].DaysToExpiry)
	assert.True(t, dec("16.00").Equal(expired[0].PurchaseValue))
	assert.Equal(t, "lora", expired[1].ProductID, "vence hoy: cuenta como vencido")
	assert.Equal(t, "Laboratorios Andinos", expired[1].SupplierName)

	expiring, err := f.report.ExpiringBatches(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, 12, expiring[0].DaysToExpiry)

	wide, err := f.report.ExpiringBatches(context.Background(), 60)
	require.NoError(t, err)
	assert.Len(t, wide, 2)

	_, err = f.report.ExpiringBatches(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStockLevels_ClassifiesAndFilters(t *testing.T) {
	f := newFixture(t)
	f.receive(t, processed(), "ibu", 5, "2.00", today.AddDate(0, 0, 20))
	f.receive(t, processed(), "ibu", 3, "4.00", today.AddDate(0, 0, 60))
	f.receive(t, processed(), "para", 50, "1.00", today.AddDate(1, 0, 0))

	all, err := f.report.StockLevels(context.Background(), dto.StockFilterRequest{})
	require.NoError(t, err)
	byID := make(map[string]dto.ProductStock)
	for _, p := range all {
		byID[p.ProductID] = p
	}
	require.Len(t, byID, 3, "los archivados se excluyen por defecto")
	assert.Equal(t, "low", byID["ibu"].Status)
	assert.True(t, byID["ibu"].HasExpiringSoon)
	require.NotNil(t, byID["ibu"].NearestExpiration)
	assert.True(t, today.AddDate(0, 0, 20).Equal(*byID["ibu"].NearestExpiration))
	assert.Equal(t, "in_stock", byID["para"].Status)
	assert.Equal(t, 50, byID["para"].CurrentStock)
	assert.Equal(t, "out", byID["lora"].Status)
	assert.Equal(t, 0, byID["lora"].ActiveBatches)
	assert.True(t, dec("2.75").Equal(byID["ibu"].AverageCost), byID["ibu"].AverageCost.String())
	assert.True(t, dec("1").Equal(byID["para"].AverageCost))
	assert.True(t, byID["lora"].AverageCost.IsZero())

	low, err := f.report.StockLevels(context.Background(), dto.StockFilterRequest{Status: "low"})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "ibu", low[0].ProductID)

	withArchived, err := f.report.StockLevels(context.Background(), dto.StockFilterRequest{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, withArchived, 4)

	_, err = f.report.StockLevels(context.Background(), dto.StockFilterRequest{Status: "agotado"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSupplierStatistics_MonthlyAndLate(t *testing.T) {
	f := newFixture(t)
	march := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	f.receive(t, document.DocumentInput{Status: entity.StatusProcessed, Date: march}, "ibu", 10, "10.00", today.AddDate(1, 0, 0))
	f.receive(t, document.DocumentInput{Status: entity.StatusProcessed, Date: march.AddDate(0, 0, 2)}, "para", 10, "20.00", today.AddDate(1, 0, 0))
	f.receive(t, processed(), "ibu", 5, "10.00", today.AddDate(1, 0, 0))
	f.receive(t, document.DocumentInput{Status: entity.StatusProcessed, Date: march.AddDate(-1, 0, 0)}, "ibu", 1, "10.00", today.AddDate(1, 0, 0))
	late := f.receive(t, document.DocumentInput{InvoiceNumber: "F-77", InvoiceDate: datePtr(today.AddDate(0, 0, -5))}, "lora", 4, "3.00", today.AddDate(1, 0, 0))
	f.receive(t, document.DocumentInput{InvoiceDate: datePtr(today.AddDate(0, 0, 3))}, "lora", 4, "3.00", today.AddDate(1, 0, 0))
	f.receive(t, document.DocumentInput{Status: entity.StatusProcessed, InvoiceDate: datePtr(today.AddDate(0, 0, -9))}, "lora", 2, "3.00", today.AddDate(1, 0, 0))

	stats, err := f.report.SupplierStatistics(context.Background(), "s1", 2026)
	require.NoError(t, err)
	assert.Equal(t, "Droguería Central", stats.SupplierName)
	require.Len(t, stats.Months, 12)
	assert.Equal(t, 2, stats.Months[2].Deliveries)
	assert.True(t, dec("300").Equal(stats.Months[2].TotalAmount), stats.Months[2].TotalAmount.String())
	assert.True(t, dec("150").Equal(stats.Months[2].AverageAmount))
	assert.Equal(t, 2, stats.Months[4].Deliveries)
	assert.Equal(t, 4, stats.TotalDeliveries, "el año anterior no cuenta")
	assert.True(t, dec("356").Equal(stats.TotalAmount), stats.TotalAmount.String())
	assert.True(t, dec("89").Equal(stats.AverageAmount), stats.AverageAmount.String())

	require.Len(t, stats.LateDeliveries, 1)
	assert.Equal(t, late, stats.LateDeliveries[0].DocumentID)
	assert.Equal(t, 5, stats.LateDeliveries[0].DaysLate)
	assert.Equal(t, "F-77", stats.LateDeliveries[0].InvoiceNumber)
	assert.Equal(t, string(entity.StatusDraft), stats.LateDeliveries[0].Status)

	prev, err := f.report.SupplierStatistics(context.Background(), "s1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, prev.TotalDeliveries)
}

func TestSupplierStatistics_Errors(t *testing.T) {
	f := newFixture(t)
	_, err := f.report.SupplierStatistics(context.Background(), "nope", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.report.SupplierStatistics(context.Background(), "", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	empty, err := f.report.SupplierStatistics(context.Background(), "s2", 0)
	require.NoError(t, err)
	assert.Equal(t, 2026, empty.Year)
	assert.Zero(t, empty.TotalDeliveries)
	assert.True(t, empty.AverageAmount.IsZero())
	assert.Empty(t, empty.LateDeliveries)
}

func TestSupplierStatistics_CachedUntilLedgerChanges(t *testing.T) {
	f := newFixture(t)
	f.receive(t, processed(), "ibu", 10, "10.00", today.AddDate(1, 0, 0))

	first, err := f.report.SupplierStatistics(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalDeliveries)

	second, err := f.report.SupplierStatistics(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)
	assert.Equal(t, first.TotalDeliveries, second.TotalDeliveries)
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))

	f.receive(t, processed(), "ibu", 10, "10.00", today.AddDate(1, 0, 0))

	third, err := f.report.SupplierStatistics(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits, "el documento confirmado invalidó la caché")
	assert.Equal(t, 2, third.TotalDeliveries)
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	f.receive(t, processed(), "ibu", 5, "2.00", today.AddDate(0, 0, 10))
	f.receive(t, processed(), "para", 40, "1.00", today.AddDate(0, 0, -1))
	f.receive(t, processed(), "para", 10, "1.00", today.AddDate(1, 0, 0))
	f.receive(t, document.DocumentInput{}, "lora", 3, "1.00", today.AddDate(1, 0, 0))

	o, err := f.report.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, o.Products)
	assert.Equal(t, 1, o.ArchivedProducts)
	assert.Equal(t, 2, o.Suppliers)
	assert.Equal(t, 1, o.LowStock)
	assert.Equal(t, 1, o.OutOfStock)
	assert.Equal(t, 1, o.ExpiredBatches)
	assert.Equal(t, 1, o.ExpiringBatches)
	assert.Equal(t, 1, o.DraftDocuments)
	assert.True(t, dec("60.00").Equal(o.StockPurchaseValue), o.StockPurchaseValue.String())
	assert.True(t, dec("78.00").Equal(o.StockSellingValue), o.StockSellingValue.String())
	assert.Equal(t, clock, o.GeneratedAt)

	again, err := f.report.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)
	assert.Equal(t, o.DraftDocuments, again.DraftDocuments)
}

func TestOverview_RefreshedAfterCatalogWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := ledger.New(ledger.Config{}).WithClock(func() time.Time { return clock })
	cat := catalog.NewService(f.store, l, f.engine, f.cache, nil)

	o, err := f.report.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, o.Products)
	assert.Equal(t, 2, o.Suppliers)

	p, err := cat.CreateProduct(ctx, dto.CreateProductRequest{Name: "Cetirizina 10 mg", UnitOfMeasure: "caja"})
	require.NoError(t, err)
	o, err = f.report.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, o.Products)

	_, err = cat.CreateSupplier(ctx, dto.CreateSupplierRequest{Name: "Distribuidora Norte"})
	require.NoError(t, err)
	o, err = f.report.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, o.Suppliers)

	require.NoError(t, cat.DeleteProduct(ctx, p.ID))
	o, err = f.report.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, o.Products)
	assert.Zero(t, f.cache.hits, "cada escritura del catálogo invalida el resumen")
}

func TestOverview_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.report.Overview(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
