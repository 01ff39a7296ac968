//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Farmacia-api/internal/application/document"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/postgres"
)

var (
	clock = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	actor = entity.Actor{UserID: "u1", Name: "Ana Pérez", Role: entity.RolePharmacist}
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("farmacia_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := postgres.NewMigrator(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, m.Close())

	pool, err := postgres.NewPoolFromDSN(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seed(t *testing.T, tx *postgres.TxRunner) {
	t.Helper()
	err := tx.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		if err := r.Suppliers.Create(ctx, &entity.Supplier{ID: "s1", Name: "Droguería Central", IsActive: true, CreatedAt: clock, UpdatedAt: clock}); err != nil {
			return err
		}
		return r.Products.Create(ctx, &entity.Product{ID: "P", Name: "Ibuprofeno 400 mg", MinRemainder: 10, IsActive: true, CreatedAt: clock, UpdatedAt: clock})
	})
	require.NoError(t, err)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func datePtr(t time.Time) *time.Time { return &t }

func TestPostgres_DocumentLifecycle(t *testing.T) {
	pool := newTestPool(t)
	tx := postgres.NewTxRunner(pool)
	seed(t, tx)
	ctx := context.Background()

	l := ledger.New(ledger.Config{Markup: dec("1.30")}).WithClock(func() time.Time { return clock })
	engine := document.NewEngine(tx, l, nil, nil, document.Options{})

	late := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	early := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	incoming, err := engine.CreateIncoming(ctx, actor,
		document.DocumentInput{Status: entity.StatusProcessed, SupplierID: "s1", InvoiceNumber: "F-1"},
		[]document.LineInput{
			{ProductID: "P", Quantity: 10, UnitPrice: dec("2.00"), Series: "L-LATE", ExpirationDate: datePtr(late)},
			{ProductID: "P", Quantity: 5, UnitPrice: dec("2.50"), Series: "L-EARLY", ExpirationDate: datePtr(early)},
		})
	require.NoError(t, err)

	doc, err := engine.GetDocumentWithDetails(ctx, incoming)
	require.NoError(t, err)
	assert.Equal(t, "PR-202605-001", doc.Number)
	assert.True(t, dec("32.50").Equal(doc.Amount), doc.Amount.String())
	require.Len(t, doc.Lines, 2)
	assert.NotEmpty(t, doc.Lines[0].CreatedBatchID)

	outgoing, err := engine.CreateOutgoing(ctx, actor,
		document.DocumentInput{Status: entity.StatusProcessed, CustomerName: "Mostrador"},
		[]document.LineInput{{ProductID: "P", Quantity: 7}})
	require.NoError(t, err)

	out, err := engine.GetDocumentWithDetails(ctx, outgoing)
	require.NoError(t, err)
	require.Len(t, out.Lines, 2, "consume el lote que vence primero y continúa con el siguiente")
	assert.Equal(t, "L-EARLY", out.Lines[0].Series)
	assert.Equal(t, 5, out.Lines[0].Quantity)
	assert.Equal(t, "L-LATE", out.Lines[1].Series)
	assert.Equal(t, 2, out.Lines[1].Quantity)

	var batches []*entity.Batch
	require.NoError(t, tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		batches, err = r.Batches.ListByProduct(ctx, "P")
		return err
	}))
	require.Len(t, batches, 2)
	assert.Equal(t, 0, batches[0].Quantity)
	assert.False(t, batches[0].IsActive)
	assert.Equal(t, 8, batches[1].Quantity)

	_, err = engine.CreateOutgoing(ctx, actor,
		document.DocumentInput{Status: entity.StatusProcessed},
		[]document.LineInput{{ProductID: "P", Quantity: 9}})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 8, insufficient.Available)

	correctionID, err := engine.CreateQuantityCorrection(ctx, actor, incoming, "conteo físico",
		[]document.CorrectionInput{{LineID: doc.Lines[0].ID, NewQuantity: 6}})
	require.NoError(t, err)

	withCorrections, err := engine.GetDocumentWithCorrections(ctx, incoming)
	require.NoError(t, err)
	require.Len(t, withCorrections.Corrections, 1)
	assert.Equal(t, correctionID, withCorrections.Corrections[0].ID)
	assert.Equal(t, "KR-202605-001", withCorrections.Corrections[0].Number)

	var logs []*entity.BatchCorrectionLog
	require.NoError(t, tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		logs, err = r.CorrectionLogs.ListByDocument(ctx, correctionID)
		return err
	}))
	require.Len(t, logs, 1)
	assert.Equal(t, "8", logs[0].OldValue)
	assert.Equal(t, "6", logs[0].NewValue)
}

func TestPostgres_DraftsAndNumbering(t *testing.T) {
	pool := newTestPool(t)
	tx := postgres.NewTxRunner(pool)
	seed(t, tx)
	ctx := context.Background()

	l := ledger.New(ledger.Config{Markup: dec("1.30")}).WithClock(func() time.Time { return clock })
	engine := document.NewEngine(tx, l, nil, nil, document.Options{})

	first, err := engine.CreateIncoming(ctx, actor, document.DocumentInput{SupplierID: "s1"},
		[]document.LineInput{{ProductID: "P", Quantity: 3, UnitPrice: dec("1.00")}})
	require.NoError(t, err)
	second, err := engine.CreateIncoming(ctx, actor, document.DocumentInput{SupplierID: "s1"},
		[]document.LineInput{{ProductID: "P", Quantity: 4, UnitPrice: dec("1.00")}})
	require.NoError(t, err)

	require.NoError(t, engine.DeleteDraft(ctx, actor, first))
	_, err = engine.GetDocumentWithDetails(ctx, first)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	third, err := engine.CreateIncoming(ctx, actor, document.DocumentInput{SupplierID: "s1"},
		[]document.LineInput{{ProductID: "P", Quantity: 5, UnitPrice: dec("1.00")}})
	require.NoError(t, err)

	numbers := make([]string, 0, 2)
	for _, id := range []string{second, third} {
		d, err := engine.GetDocumentWithDetails(ctx, id)
		require.NoError(t, err)
		numbers = append(numbers, d.Number)
	}
	assert.Equal(t, []string{"PR-202605-002", "PR-202605-003"}, numbers, "los números no se reutilizan")

	list, err := engine.ListDocuments(ctx, repository.DocumentFilter{Type: entity.DocumentIncoming, Status: entity.StatusDraft})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPostgres_ConcurrentConsumeNeverOversells(t *testing.T) {
	pool := newTestPool(t)
	tx := postgres.NewTxRunner(pool)
	seed(t, tx)
	ctx := context.Background()

	l := ledger.New(ledger.Config{Markup: dec("1.30")}).WithClock(func() time.Time { return clock })
	engine := document.NewEngine(tx, l, nil, nil, document.Options{})

	_, err := engine.CreateIncoming(ctx, actor,
		document.DocumentInput{Status: entity.StatusProcessed, SupplierID: "s1"},
		[]document.LineInput{{ProductID: "P", Quantity: 10, UnitPrice: dec("1.00"), ExpirationDate: datePtr(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))}})
	require.NoError(t, err)

	const workers = 5
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.CreateOutgoing(ctx, actor,
				document.DocumentInput{Status: entity.StatusProcessed},
				[]document.LineInput{{ProductID: "P", Quantity: 3}})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	var available int
	require.NoError(t, tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		available, err = l.Availability(ctx, r, "P")
		return err
	}))
	assert.LessOrEqual(t, ok, 3)
	assert.Equal(t, 10-3*ok, available)
	assert.GreaterOrEqual(t, available, 0)
}
