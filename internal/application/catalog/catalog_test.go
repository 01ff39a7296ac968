package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/application/catalog"
	"github.com/jhoicas/Farmacia-api/internal/application/document"
	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
)

var (
	clock = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	actor = entity.Actor{UserID: "u1", Name: "Ana Pérez", Role: entity.RoleAdmin}
)

type fixture struct {
	store   *memory.Store
	engine  *document.Engine
	catalog *catalog.Service
}

func newFixture() *fixture {
	store := memory.New()
	l := ledger.New(ledger.Config{}).WithClock(func() time.Time { return clock })
	engine := document.NewEngine(store, l, nil, nil, document.Options{})
	return &fixture{store: store, engine: engine, catalog: catalog.NewService(store, l, engine, nil, nil)}
}

func (f *fixture) supplierAndProduct(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()
	sup, err := f.catalog.CreateSupplier(ctx, dto.CreateSupplierRequest{Name: "Laboratorios Andinos", TaxID: "900123456-7"})
	require.NoError(t, err)
	p, err := f.catalog.CreateProduct(ctx, dto.CreateProductRequest{Name: "Loratadina 10 mg", ReleaseForm: "tabletas", UnitOfMeasure: "caja", MinRemainder: 5})
	require.NoError(t, err)
	return sup.ID, p.ID
}

func (f *fixture) receive(t *testing.T, supplierID, productID string, qty int, expires time.Time) string {
	t.Helper()
	id, err := f.engine.CreateIncoming(context.Background(), actor,
		document.DocumentInput{Status: entity.StatusProcessed, SupplierID: supplierID},
		[]document.LineInput{{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromInt(4), ExpirationDate: &expires}})
	require.NoError(t, err)
	return id
}

func TestDeleteSupplier_BlockedByDependents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	supplierID, productID := f.supplierAndProduct(t)
	incoming := f.receive(t, supplierID, productID, 10, clock.AddDate(1, 0, 0))

	err := f.catalog.DeleteSupplier(ctx, supplierID)
	require.ErrorIs(t, err, domain.ErrConflict)
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "supplier", ce.Entity)

	// quitar dependientes directamente en el almacén: los lotes nunca se borran por API
	require.NoError(t, f.store.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		return r.Documents.Delete(ctx, incoming)
	}))
	require.ErrorIs(t, f.catalog.DeleteSupplier(ctx, supplierID), domain.ErrConflict, "todavía tiene lotes")

	fresh, err := f.catalog.CreateSupplier(ctx, dto.CreateSupplierRequest{Name: "Sin movimientos"})
	require.NoError(t, err)
	require.NoError(t, f.catalog.DeleteSupplier(ctx, fresh.ID))
	_, err = f.catalog.GetSupplier(ctx, fresh.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCategory_BlockedByProducts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cat, err := f.catalog.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Antihistamínicos"})
	require.NoError(t, err)
	p, err := f.catalog.CreateProduct(ctx, dto.CreateProductRequest{Name: "Cetirizina", CategoryID: cat.ID, UnitOfMeasure: "caja"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.catalog.DeleteCategory(ctx, cat.ID), domain.ErrConflict)
	require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))
	require.NoError(t, f.catalog.DeleteCategory(ctx, cat.ID))
}

func TestDeleteProduct_BlockedByBatches(t *testing.T) {
	f := newFixture()
	supplierID, productID := f.supplierAndProduct(t)
	f.receive(t, supplierID, productID, 3, clock.AddDate(1, 0, 0))
	assert.ErrorIs(t, f.catalog.DeleteProduct(context.Background(), productID), domain.ErrConflict)
}

func TestCreate_DuplicateNamesIgnoreCaseAndSpacing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.catalog.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Analgésicos"})
	require.NoError(t, err)
	_, err = f.catalog.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "  ANALGÉSICOS "})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.catalog.CreateProduct(ctx, dto.CreateProductRequest{Name: "Naproxeno 250", ReleaseForm: "tabletas", UnitOfMeasure: "caja"})
	require.NoError(t, err)
	_, err = f.catalog.CreateProduct(ctx, dto.CreateProductRequest{Name: "naproxeno  250", ReleaseForm: "Tabletas", UnitOfMeasure: "caja"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = f.catalog.CreateProduct(ctx, dto.CreateProductRequest{Name: "Naproxeno 250", ReleaseForm: "suspensión", UnitOfMeasure: "frasco"})
	assert.NoError(t, err)

	_, err = f.catalog.CreateSupplier(ctx, dto.CreateSupplierRequest{Name: "A", TaxID: "800"})
	require.NoError(t, err)
	_, err = f.catalog.CreateSupplier(ctx, dto.CreateSupplierRequest{Name: "B", TaxID: "800"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestListProducts_PageCarriesTotal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, name := range []string{"Acetaminofén 500 mg", "Ibuprofeno 400 mg", "Loratadina 10 mg"} {
		_, err := f.catalog.CreateProduct(ctx, dto.CreateProductRequest{Name: name, UnitOfMeasure: "caja"})
		require.NoError(t, err)
	}

	list, err := f.catalog.ListProducts(ctx, dto.ProductFilterRequest{PageRequest: dto.PageRequest{Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 3, list.Page.Total)
	assert.True(t, list.Page.HasMore)

	list, err = f.catalog.ListProducts(ctx, dto.ProductFilterRequest{PageRequest: dto.PageRequest{Limit: 2, Offset: 2}})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 3, list.Page.Total)
	assert.False(t, list.Page.HasMore)

	list, err = f.catalog.ListProducts(ctx, dto.ProductFilterRequest{Search: "ibupro"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page.Total)
	assert.Equal(t, 20, list.Page.Limit)
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	f := newFixture()
	_, err := f.catalog.CreateProduct(context.Background(), dto.CreateProductRequest{Name: "X", CategoryID: "missing", UnitOfMeasure: "u"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArchiveProduct_WithoutStockCreatesNoWriteOff(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, productID := f.supplierAndProduct(t)

	res, err := f.catalog.ArchiveProduct(ctx, actor, productID, dto.ArchiveProductRequest{Reason: "descontinuado", RequiresWriteOff: true})
	require.NoError(t, err)
	assert.False(t, res.Product.IsActive)
	assert.False(t, res.Product.IsSalesBlocked)
	assert.NotNil(t, res.Product.ArchivedAt)
	assert.Empty(t, res.WriteOffDocumentID)

	docs, err := f.engine.ListDocuments(ctx, repository.DocumentFilter{Type: entity.DocumentWriteOff})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestArchiveProduct_WithStockWritesOffEverything(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	supplierID, productID := f.supplierAndProduct(t)
	f.receive(t, supplierID, productID, 6, clock.AddDate(0, 3, 0))
	f.receive(t, supplierID, productID, 9, clock.AddDate(1, 0, 0))

	res, err := f.catalog.ArchiveProduct(ctx, actor, productID, dto.ArchiveProductRequest{
		Reason: "retiro sanitario", BlockSales: true, Comment: "circular 12", RequiresWriteOff: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Product.IsSalesBlocked)
	assert.Equal(t, 0, res.Product.CurrentStock)
	assert.Equal(t, 15, res.WrittenOffQuantity)

	docs, err := f.engine.ListDocuments(ctx, repository.DocumentFilter{Type: entity.DocumentWriteOff})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	doc, err := f.engine.GetDocumentWithDetails(ctx, docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, res.WriteOffDocumentID, doc.ID)
	assert.Equal(t, entity.StatusProcessed, doc.Status)
	assert.Equal(t, 15, doc.TotalQuantity())
	assert.Len(t, doc.Lines, 2)

	_, err = f.catalog.ArchiveProduct(ctx, actor, productID, dto.ArchiveProductRequest{Reason: "otra vez"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestArchiveProduct_SellOutKeepsStockAndAllowsSales(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	supplierID, productID := f.supplierAndProduct(t)
	f.receive(t, supplierID, productID, 4, clock.AddDate(1, 0, 0))

	res, err := f.catalog.ArchiveProduct(ctx, actor, productID, dto.ArchiveProductRequest{Reason: "liquidación"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Product.CurrentStock)

	_, err = f.engine.CreateOutgoing(ctx, actor, document.DocumentInput{Status: entity.StatusProcessed},
		[]document.LineInput{{ProductID: productID, Quantity: 4}})
	require.NoError(t, err)

	list, err := f.catalog.ListProducts(ctx, dto.ProductFilterRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items, "los archivados no se listan por defecto")

	list, err = f.catalog.ListProducts(ctx, dto.ProductFilterRequest{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "out", list.Items[0].StockStatus)
}

func TestActivateProduct_ClearsArchiveMetadata(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, productID := f.supplierAndProduct(t)
	_, err := f.catalog.ArchiveProduct(ctx, actor, productID, dto.ArchiveProductRequest{Reason: "x", BlockSales: true, Comment: "y"})
	require.NoError(t, err)

	p, err := f.catalog.ActivateProduct(ctx, actor, productID)
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.False(t, p.IsSalesBlocked)
	assert.Nil(t, p.ArchivedAt)
	assert.Empty(t, p.ArchiveReason)
	assert.Empty(t, p.ArchiveComment)
}

func TestGetProduct_StockClassification(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	supplierID, productID := f.supplierAndProduct(t)

	p, err := f.catalog.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, "out", p.StockStatus)

	f.receive(t, supplierID, productID, 5, clock.AddDate(0, 0, 20))
	p, err = f.catalog.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.CurrentStock)
	assert.Equal(t, "low", p.StockStatus)
	assert.True(t, p.HasExpiringSoon)
	assert.False(t, p.HasExpired)
	require.NotNil(t, p.NearestExpiration)

	f.receive(t, supplierID, productID, 10, clock.AddDate(1, 0, 0))
	p, err = f.catalog.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, "in_stock", p.StockStatus)
}
