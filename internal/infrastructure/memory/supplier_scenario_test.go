package memory_test

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
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
)

func TestDeleteSupplier_SucceedsOnceBatchesAndDocumentsAreGone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := ledger.New(ledger.Config{})
	engine := document.NewEngine(store, l, nil, nil, document.Options{})
	svc := catalog.NewService(store, l, engine, nil, nil)
	actor := entity.Actor{UserID: "u1", Name: "Luis"}

	sup, err := svc.CreateSupplier(ctx, dto.CreateSupplierRequest{Name: "Droguería Norte"})
	require.NoError(t, err)
	p, err := svc.CreateProduct(ctx, dto.CreateProductRequest{Name: "Omeprazol 20 mg", UnitOfMeasure: "caja"})
	require.NoError(t, err)
	expires := time.Now().AddDate(1, 0, 0)
	_, err = engine.CreateIncoming(ctx, actor,
		document.DocumentInput{Status: entity.StatusProcessed, SupplierID: sup.ID},
		[]document.LineInput{{ProductID: p.ID, Quantity: 12, UnitPrice: decimal.NewFromInt(3), ExpirationDate: &expires}})
	require.NoError(t, err)

	err = svc.DeleteSupplier(ctx, sup.ID)
	require.ErrorIs(t, err, domain.ErrConflict)

	store.RemoveSupplierDependents(sup.ID)

	require.NoError(t, svc.DeleteSupplier(ctx, sup.ID))
	_, err = svc.GetSupplier(ctx, sup.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
