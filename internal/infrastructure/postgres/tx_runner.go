package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL REPEATABLE READ.
// Las fallas de serialización y los deadlocks se devuelven como domain.ConcurrencyError.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, "transacción", fn)
}

// ReadOnly instantánea consistente de solo lectura; siempre termina en Rollback.
func (r *TxRunner) ReadOnly(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, "lectura", fn)
}

func (r *TxRunner) run(ctx context.Context, opts pgx.TxOptions, op string, fn func(ctx context.Context, repos repository.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, Repos(tx)); err != nil {
		return concurrency(op, err)
	}
	if opts.AccessMode == pgx.ReadOnly {
		return nil
	}
	if err := tx.Commit(ctx); err != nil {
		return concurrency("commit", fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func concurrency(op string, err error) error {
	if isRetryable(err) {
		return &domain.ConcurrencyError{Op: op, Err: err}
	}
	return err
}

// Repos repositorios atados a q (pool o tx).
func Repos(q Querier) repository.Repos {
	return repository.Repos{
		Categories:     NewCategoryRepository(q),
		Suppliers:      NewSupplierRepository(q),
		Products:       NewProductRepository(q),
		Batches:        NewBatchRepository(q),
		Documents:      NewDocumentRepository(q),
		CorrectionLogs: NewCorrectionLogRepository(q),
		Sequences:      NewSequenceRepository(q),
		Users:          NewUserRepository(q),
	}
}
