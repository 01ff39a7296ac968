package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ repository.CorrectionLogRepository = (*CorrectionLogRepo)(nil)

// CorrectionLogRepo bitácora de correcciones de lotes. Solo inserción y lectura.
type CorrectionLogRepo struct {
	q Querier
}

// NewCorrectionLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCorrectionLogRepository(q Querier) *CorrectionLogRepo {
	return &CorrectionLogRepo{q: q}
}

const correctionLogColumns = `id, batch_id, correction_document_id, timestamp, field_name, old_value, new_value, changed_by, reason`

func (r *CorrectionLogRepo) Create(ctx context.Context, l *entity.BatchCorrectionLog) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO batch_correction_logs (`+correctionLogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.BatchID, nullable(l.CorrectionDocumentID), l.Timestamp, l.FieldName, l.OldValue, l.NewValue,
		l.ChangedBy, l.Reason,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.NewNotFoundError("batch", l.BatchID)
		}
		return fmt.Errorf("insert correction log: %w", err)
	}
	return nil
}

func (r *CorrectionLogRepo) ListByBatch(ctx context.Context, batchID string) ([]*entity.BatchCorrectionLog, error) {
	return r.list(ctx, `SELECT `+correctionLogColumns+` FROM batch_correction_logs
		WHERE batch_id = $1 ORDER BY timestamp, id`, batchID)
}

func (r *CorrectionLogRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.BatchCorrectionLog, error) {
	return r.list(ctx, `SELECT `+correctionLogColumns+` FROM batch_correction_logs
		WHERE correction_document_id = $1 ORDER BY timestamp, id`, documentID)
}

func (r *CorrectionLogRepo) list(ctx context.Context, query, id string) ([]*entity.BatchCorrectionLog, error) {
	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list correction logs: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.BatchCorrectionLog, 0)
	for rows.Next() {
		var (
			l     entity.BatchCorrectionLog
			docID *string
		)
		if err := rows.Scan(&l.ID, &l.BatchID, &docID, &l.Timestamp, &l.FieldName, &l.OldValue, &l.NewValue,
			&l.ChangedBy, &l.Reason); err != nil {
			return nil, fmt.Errorf("scan correction log: %w", err)
		}
		l.CorrectionDocumentID = deref(docID)
		list = append(list, &l)
	}
	return list, rows.Err()
}
