package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository sobre PostgreSQL.
// Los listados salen en orden FEFO: vencimiento, llegada, id.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const (
	batchColumns = `id, product_id, supplier_id, series, expiration_date, purchase_price, selling_price, quantity,
	arrival_date, is_active, incoming_document_id, created_at, updated_at`
	fefoOrder = ` ORDER BY expiration_date, arrival_date, id`
)

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var (
		b          entity.Batch
		supplierID *string
		incomingID *string
	)
	err := row.Scan(&b.ID, &b.ProductID, &supplierID, &b.Series, &b.ExpirationDate, &b.PurchasePrice, &b.SellingPrice,
		&b.Quantity, &b.ArrivalDate, &b.IsActive, &incomingID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.SupplierID = deref(supplierID)
	b.IncomingDocumentID = deref(incomingID)
	return &b, nil
}

func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO batches (`+batchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		b.ID, b.ProductID, nullable(b.SupplierID), b.Series, b.ExpirationDate, b.PurchasePrice, b.SellingPrice,
		b.Quantity, b.ArrivalDate, b.IsActive, nullable(b.IncomingDocumentID), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.NewNotFoundError("product", b.ProductID)
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila del lote hasta el fin de la transacción.
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1 FOR UPDATE`, id)
}

func (r *BatchRepo) get(ctx context.Context, query, id string) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

func (r *BatchRepo) ListActiveByProduct(ctx context.Context, productID string) ([]*entity.Batch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM batches
		WHERE product_id = $1 AND is_active AND quantity > 0`+fefoOrder, productID)
}

// ListActiveByProductForUpdate bloquea las filas en orden FEFO.
func (r *BatchRepo) ListActiveByProductForUpdate(ctx context.Context, productID string) ([]*entity.Batch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM batches
		WHERE product_id = $1 AND is_active AND quantity > 0`+fefoOrder+` FOR UPDATE`, productID)
}

func (r *BatchRepo) ListAvailable(ctx context.Context) ([]*entity.Batch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM batches WHERE is_active AND quantity > 0`+fefoOrder)
}

func (r *BatchRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Batch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM batches WHERE product_id = $1`+fefoOrder, productID)
}

func (r *BatchRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Batch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// UpdateQuantity persiste cantidad e IsActive. El CHECK de la tabla impide cantidad 0 activa.
func (r *BatchRepo) UpdateQuantity(ctx context.Context, b *entity.Batch) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE batches SET quantity = $2, is_active = $3, updated_at = $4 WHERE id = $1`,
		b.ID, b.Quantity, b.IsActive, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update batch quantity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NewNotFoundError("batch", b.ID)
	}
	return nil
}

func (r *BatchRepo) CountBySupplier(ctx context.Context, supplierID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM batches WHERE supplier_id = $1`, supplierID)
}

func (r *BatchRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM batches WHERE product_id = $1`, productID)
}

func (r *BatchRepo) count(ctx context.Context, query, arg string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, query, arg).Scan(&n); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return n, nil
}
