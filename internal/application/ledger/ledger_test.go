package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
)

var (
	clock = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	today = entity.DateOnly(clock)
	actor = entity.Actor{UserID: "u1", Name: "Ana Pérez", Role: entity.RolePharmacist}
)

type fixture struct {
	store  *memory.Store
	ledger *ledger.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.New(),
		ledger: ledger.New(ledger.Config{Markup: decimal.RequireFromString("1.30")}).WithClock(func() time.Time { return clock }),
	}
	err := f.store.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		if err := r.Suppliers.Create(ctx, &entity.Supplier{ID: "s1", Name: "Farmadistribuidora", IsActive: true}); err != nil {
			return err
		}
		return r.Products.Create(ctx, &entity.Product{ID: "p1", Name: "Amoxicilina 500 mg", MinRemainder: 5, IsActive: true})
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) produce(t *testing.T, qty int, expires time.Time) *entity.Batch {
	t.Helper()
	var b *entity.Batch
	err := f.store.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		var err error
		b, err = f.ledger.Produce(ctx, r, ledger.BatchSpec{
			ProductID:      "p1",
			SupplierID:     "s1",
			Series:         "S-" + expires.Format("0102"),
			ExpirationDate: expires,
			PurchasePrice:  decimal.RequireFromString("10.00"),
			Quantity:       qty,
		})
		return err
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) batch(t *testing.T, id string) *entity.Batch {
	t.Helper()
	var b *entity.Batch
	_ = f.store.ReadOnly(context.Background(), func(ctx context.Context, r repository.Repos) error {
		b, _ = r.Batches.GetByID(ctx, id)
		return nil
	})
	require.NotNil(t, b)
	return b
}

func TestConsume_SplitsAcrossBatchesInExpiryOrder(t *testing.T) {
	f := newFixture(t)
	late := f.produce(t, 10, today.AddDate(0, 6, 0))
	early := f.produce(t, 5, today.AddDate(0, 2, 0))

	err := f.store.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		plan, err := f.ledger.Consume(ctx, r, "p1", 7)
		require.NoError(t, err)
		require.Len(t, plan, 2)
		assert.Equal(t, early.ID, plan[0].Batch.ID)
		assert.Equal(t, 5, plan[0].Quantity)
		assert.Equal(t, late.ID, plan[1].Batch.ID)
		assert.Equal(t, 2, plan[1].Quantity)
		return nil
	})
	require.NoError(t, err)

	e := f.batch(t, early.ID)
	assert.Equal(t, 0, e.Quantity)
	assert.False(t, e.IsActive)
	l := f.batch(t, late.ID)
	assert.Equal(t, 8, l.Quantity)
	assert.True(t, l.IsActive)
}

func TestConsume_InsufficientStockLeavesBatchesUntouched(t *testing.T) {
	f := newFixture(t)
	b := f.produce(t, 70, today.AddDate(1, 0, 0))

	err := f.store.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		_, err := f.ledger.Consume(ctx, r, "p1", 150)
		return err
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 150, ise.Requested)
	assert.Equal(t, 70, ise.Available)
	assert.Equal(t, 80, ise.Shortfall())

	assert.Equal(t, 70, f.batch(t, b.ID).Quantity)
}

func TestConsume_RejectsNonPositiveAndUnknownProduct(t *testing.T) {
	f := newFixture(t)
	err := f.store.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		_, err := f.ledger.Consume(ctx, r, "p1", 0)
		return err
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	err = f.store.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		_, err := f.ledger.Consume(ctx, r, "nope", 1)
		return err
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListActiveBatches_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.produce(t, 3, today.AddDate(0, 3, 0))
	f.produce(t, 4, today.AddDate(0, 1, 0))

	var first, second []*entity.Batch
	_ = f.store.ReadOnly(context.Background(), func(ctx context.Context, r repository.Repos) error {
		first, _ = f.ledger.ListActiveBatches(ctx, r, "p1")
		second, _ = f.ledger.ListActiveBatches(ctx, r, "p1")
		return nil
	})
	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, 4, first[0].Quantity)
}

func TestProduce_DefaultsSellingPriceWithMarkup(t *testing.T) {
	f := newFixture(t)
	b := f.produce(t, 100, today.AddDate(1, 0, 0))

	assert.True(t, decimal.RequireFromString("13.00").Equal(b.SellingPrice), b.SellingPrice.String())
	assert.True(t, b.IsActive)
	assert.Equal(t, today, b.ArrivalDate)
}

func TestProduce_Validation(t *testing.T) {
	f := newFixture(t)
	cases := []ledger.BatchSpec{
		{ProductID: "p1", Quantity: 0, ExpirationDate: today},
		{ProductID: "p1", Quantity: 1},
		{ProductID: "", Quantity: 1, ExpirationDate: today},
		{ProductID: "p1", Quantity: 1, ExpirationDate: today, PurchasePrice: decimal.NewFromInt(-1)},
	}
	for _, spec := range cases {
		err := f.store.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
			_, err := f.ledger.Produce(ctx, r, spec)
			return err
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}

	err := f.store.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		_, err := f.ledger.Produce(ctx, r, ledger.BatchSpec{ProductID: "p1", SupplierID: "ghost", Quantity: 1, ExpirationDate: today})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCorrectQuantity_RoundTripWritesTwoLogRows(t *testing.T) {
	f := newFixture(t)
	b := f.produce(t, 10, today.AddDate(1, 0, 0))
	svc := ledger.NewService(f.store, f.ledger, nil, nil)
	ctx := context.Background()

	first, err := svc.CorrectBatch(ctx, actor, b.ID, 4, "conteo físico")
	require.NoError(t, err)
	assert.Equal(t, "10", first.OldValue)
	assert.Equal(t, "4", first.NewValue)
	assert.Equal(t, entity.CorrectionFieldQuantity, first.FieldName)
	assert.Equal(t, actor.Label(), first.ChangedBy)

	_, err = svc.CorrectBatch(ctx, actor, b.ID, 10, "error de conteo")
	require.NoError(t, err)

	assert.Equal(t, 10, f.batch(t, b.ID).Quantity)
	logs, err := svc.CorrectionHistory(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestCorrectQuantity_ZeroDeactivatesAndNeverReactivates(t *testing.T) {
	f := newFixture(t)
	b := f.produce(t, 10, today.AddDate(1, 0, 0))
	svc := ledger.NewService(f.store, f.ledger, nil, nil)
	ctx := context.Background()

	_, err := svc.CorrectBatch(ctx, actor, b.ID, 0, "rotura")
	require.NoError(t, err)
	assert.False(t, f.batch(t, b.ID).IsActive)

	_, err = svc.CorrectBatch(ctx, actor, b.ID, 3, "apareció en otra estantería")
	require.NoError(t, err)
	got := f.batch(t, b.ID)
	assert.Equal(t, 3, got.Quantity)
	assert.False(t, got.IsActive)

	active, err := svc.ActiveBatches(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCorrectQuantity_RejectsNegativeWithoutLogging(t *testing.T) {
	f := newFixture(t)
	b := f.produce(t, 10, today.AddDate(1, 0, 0))
	svc := ledger.NewService(f.store, f.ledger, nil, nil)

	_, err := svc.CorrectBatch(context.Background(), actor, b.ID, -1, "x")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	logs, _ := svc.CorrectionHistory(context.Background(), b.ID)
	assert.Empty(t, logs)
	assert.Equal(t, 10, f.batch(t, b.ID).Quantity)
}

func TestExpiredAndExpiringSoon(t *testing.T) {
	f := newFixture(t)
	expired := f.produce(t, 2, today)
	soon := f.produce(t, 2, today.AddDate(0, 0, 30))
	f.produce(t, 2, today.AddDate(0, 0, 31))
	svc := ledger.NewService(f.store, f.ledger, nil, nil)

	got, err := svc.Expired(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, expired.ID, got[0].ID)

	got, err = svc.ExpiringSoon(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, soon.ID, got[0].ID)

	got, err = svc.ExpiringSoon(context.Background(), 60)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
