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

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository sobre PostgreSQL.
// La cabecera y las líneas se guardan en tablas separadas; las líneas caen en cascada.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, number, type, date, status, created_by, created_at, updated_at, signed_by, signed_at,
	supplier_id, invoice_number, invoice_date, customer_name, customer_info, write_off_reason, commission,
	correction_type, correction_reason, original_document_id, notes, amount`

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		d          entity.Document
		supplierID *string
		originalID *string
	)
	err := row.Scan(&d.ID, &d.Number, &d.Type, &d.Date, &d.Status, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		&d.SignedBy, &d.SignedAt, &supplierID, &d.InvoiceNumber, &d.InvoiceDate, &d.CustomerName, &d.CustomerInfo,
		&d.WriteOffReason, &d.Commission, &d.CorrectionType, &d.CorrectionReason, &originalID, &d.Notes, &d.Amount)
	if err != nil {
		return nil, err
	}
	d.SupplierID = deref(supplierID)
	d.OriginalDocumentID = deref(originalID)
	return &d, nil
}

// Create inserta la cabecera (sin líneas). Número duplicado -> ErrDuplicate.
func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		d.ID, d.Number, d.Type, d.Date, d.Status, d.CreatedBy, d.CreatedAt, d.UpdatedAt, d.SignedBy, d.SignedAt,
		nullable(d.SupplierID), d.InvoiceNumber, d.InvoiceDate, d.CustomerName, d.CustomerInfo, d.WriteOffReason,
		d.Commission, d.CorrectionType, d.CorrectionReason, nullable(d.OriginalDocumentID), d.Notes, d.Amount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.NewNotFoundError("supplier", d.SupplierID)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
}

// GetForUpdate obtiene la cabecera y bloquea la fila.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE`, id)
}

func (r *DocumentRepo) get(ctx context.Context, query, id string) (*entity.Document, error) {
	d, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// Update actualiza la cabecera (estado, firma, monto, campos por tipo).
func (r *DocumentRepo) Update(ctx context.Context, d *entity.Document) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE documents SET date = $2, status = $3, updated_at = $4, signed_by = $5, signed_at = $6,
			supplier_id = $7, invoice_number = $8, invoice_date = $9, customer_name = $10, customer_info = $11,
			write_off_reason = $12, commission = $13, correction_type = $14, correction_reason = $15,
			notes = $16, amount = $17
		WHERE id = $1`,
		d.ID, d.Date, d.Status, d.UpdatedAt, d.SignedBy, d.SignedAt,
		nullable(d.SupplierID), d.InvoiceNumber, d.InvoiceDate, d.CustomerName, d.CustomerInfo,
		d.WriteOffReason, d.Commission, d.CorrectionType, d.CorrectionReason,
		d.Notes, d.Amount,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewNotFoundError("supplier", d.SupplierID)
		}
		return fmt.Errorf("update document: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NewNotFoundError("document", d.ID)
	}
	return nil
}

// Delete elimina la cabecera; las líneas caen en cascada.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewConflictError("document", id, "tiene lotes o correcciones asociadas")
		}
		return fmt.Errorf("delete document: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NewNotFoundError("document", id)
	}
	return nil
}

// documentWhere cláusula WHERE (con espacio inicial) y argumentos del filtro.
func documentWhere(f repository.DocumentFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.SupplierID != "" {
		add("supplier_id = $%d", f.SupplierID)
	}
	if f.From != nil {
		add("date >= $%d", *f.From)
	}
	if f.To != nil {
		add("date <= $%d", *f.To)
	}
	if len(where) == 0 {
		return "", args
	}
	return ` WHERE ` + strings.Join(where, " AND "), args
}

// List documentos por fecha y número descendentes.
func (r *DocumentRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	where, args := documentWhere(f)
	query := `SELECT ` + documentColumns + ` FROM documents` + where + ` ORDER BY date DESC, number DESC`
	query, args = withPage(query, args, f.Limit, f.Offset)
	return r.list(ctx, query, args...)
}

func (r *DocumentRepo) Count(ctx context.Context, f repository.DocumentFilter) (int, error) {
	where, args := documentWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// ListCorrections correcciones de un documento por número.
func (r *DocumentRepo) ListCorrections(ctx context.Context, originalID string) ([]*entity.Document, error) {
	return r.list(ctx, `SELECT `+documentColumns+` FROM documents
		WHERE type = $1 AND original_document_id = $2 ORDER BY number`, entity.DocumentCorrection, originalID)
}

func (r *DocumentRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Document, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

const lineColumns = `id, document_id, position, product_id, quantity, unit_price, selling_price, series, expiration_date,
	created_batch_id, source_batch_id, old_value, new_value, correction_notes`

func scanLine(row pgx.Row) (*entity.DocumentLine, error) {
	var (
		l         entity.DocumentLine
		createdID *string
		sourceID  *string
	)
	err := row.Scan(&l.ID, &l.DocumentID, &l.Position, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.SellingPrice,
		&l.Series, &l.ExpirationDate, &createdID, &sourceID, &l.OldValue, &l.NewValue, &l.CorrectionNotes)
	if err != nil {
		return nil, err
	}
	l.CreatedBatchID = deref(createdID)
	l.SourceBatchID = deref(sourceID)
	return &l, nil
}

// CreateLines inserta las líneas en un solo lote de comandos.
func (r *DocumentRepo) CreateLines(ctx context.Context, lines []*entity.DocumentLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`
			INSERT INTO document_lines (`+lineColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			l.ID, l.DocumentID, l.Position, l.ProductID, l.Quantity, l.UnitPrice, l.SellingPrice, l.Series,
			l.ExpirationDate, nullable(l.CreatedBatchID), nullable(l.SourceBatchID), l.OldValue, l.NewValue,
			l.CorrectionNotes,
		)
	}
	results := r.q.SendBatch(ctx, batch)
	defer results.Close()
	for _, l := range lines {
		if _, err := results.Exec(); err != nil {
			if isForeignKeyViolation(err) {
				return lineReferenceError(err, l)
			}
			return fmt.Errorf("insert document line %d: %w", l.Position, err)
		}
	}
	return nil
}

// lineReferenceError identifica por el nombre del constraint cuál referencia de la línea no existe.
func lineReferenceError(err error, l *entity.DocumentLine) error {
	switch pgConstraint(err) {
	case "document_lines_product_id_fkey":
		return domain.NewNotFoundError("product", l.ProductID)
	case "document_lines_created_batch_id_fkey":
		return domain.NewNotFoundError("batch", l.CreatedBatchID)
	case "document_lines_source_batch_id_fkey":
		return domain.NewNotFoundError("batch", l.SourceBatchID)
	case "document_lines_document_id_fkey":
		return domain.NewNotFoundError("document", l.DocumentID)
	}
	return fmt.Errorf("insert document line %d: %w", l.Position, err)
}

func (r *DocumentRepo) DeleteLines(ctx context.Context, documentID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete document lines: %w", err)
	}
	return nil
}

// ListLines líneas del documento por posición.
func (r *DocumentRepo) ListLines(ctx context.Context, documentID string) ([]*entity.DocumentLine, error) {
	rows, err := r.q.Query(ctx, `SELECT `+lineColumns+` FROM document_lines WHERE document_id = $1 ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document lines: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.DocumentLine, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document line: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func (r *DocumentRepo) GetLine(ctx context.Context, lineID string) (*entity.DocumentLine, error) {
	l, err := scanLine(r.q.QueryRow(ctx, `SELECT `+lineColumns+` FROM document_lines WHERE id = $1`, lineID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document line: %w", err)
	}
	return l, nil
}

func (r *DocumentRepo) CountBySupplier(ctx context.Context, supplierID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE supplier_id = $1`, supplierID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (r *DocumentRepo) CountLinesByProduct(ctx context.Context, productID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM document_lines WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count document lines: %w", err)
	}
	return n, nil
}
