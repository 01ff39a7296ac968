package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, name, category_id, release_form, manufacturer, unit_of_measure, min_remainder,
	is_active, is_sales_blocked, archived_at, archive_reason, archive_comment, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var (
		p          entity.Product
		categoryID *string
	)
	err := row.Scan(&p.ID, &p.Name, &categoryID, &p.ReleaseForm, &p.Manufacturer, &p.UnitOfMeasure, &p.MinRemainder,
		&p.IsActive, &p.IsSalesBlocked, &p.ArchivedAt, &p.ArchiveReason, &p.ArchiveComment, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CategoryID = deref(categoryID)
	return &p, nil
}

// Create persiste un nuevo producto. El stock no existe aquí: nace de los lotes.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Name, nullable(p.CategoryID), p.ReleaseForm, p.Manufacturer, p.UnitOfMeasure, p.MinRemainder,
		p.IsActive, p.IsSalesBlocked, p.ArchivedAt, p.ArchiveReason, p.ArchiveComment, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.NewNotFoundError("category", p.CategoryID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID bloqueando la fila.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepo) get(ctx context.Context, query, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Update actualiza datos de catálogo y estado de archivo.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET name = $2, category_id = $3, release_form = $4, manufacturer = $5, unit_of_measure = $6,
			min_remainder = $7, is_active = $8, is_sales_blocked = $9, archived_at = $10, archive_reason = $11,
			archive_comment = $12, updated_at = $13
		WHERE id = $1`,
		p.ID, p.Name, nullable(p.CategoryID), p.ReleaseForm, p.Manufacturer, p.UnitOfMeasure,
		p.MinRemainder, p.IsActive, p.IsSalesBlocked, p.ArchivedAt, p.ArchiveReason,
		p.ArchiveComment, p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewNotFoundError("category", p.CategoryID)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NewNotFoundError("product", p.ID)
	}
	return nil
}

// List lista productos por nombre con filtros y paginación opcional (Limit 0 = sin límite).
// productWhere cláusula WHERE (con espacio inicial) y argumentos del filtro.
func productWhere(f repository.ProductFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeArchived {
		where = append(where, "is_active")
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR manufacturer ILIKE $%d)", len(args), len(args)))
	}
	if len(where) == 0 {
		return "", args
	}
	return ` WHERE ` + strings.Join(where, " AND "), args
}

func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	where, args := productWhere(f)
	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY name, id`
	query, args = withPage(query, args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *ProductRepo) Count(ctx context.Context, f repository.ProductFilter) (int, error) {
	where, args := productWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *ProductRepo) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewConflictError("product", id, "tiene lotes o líneas de documentos")
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NewNotFoundError("product", id)
	}
	return nil
}
