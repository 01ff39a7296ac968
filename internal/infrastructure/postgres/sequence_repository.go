package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador de numeración por (tipo, período) en document_sequences.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next el primer uso de un período arranca en la cantidad de documentos ya numerados
// con ese prefijo y período, más uno. La fila queda bloqueada hasta el fin de la tx.
func (r *SequenceRepo) Next(ctx context.Context, docType entity.DocumentType, period string) (int, error) {
	pattern := escapeLike(docType.NumberPrefix()+"-"+period+"-") + "%"
	var n int
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, last_value)
		VALUES ($1, $2, (SELECT COUNT(*) FROM documents WHERE type = $1 AND number LIKE $3) + 1)
		ON CONFLICT (doc_type, period) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`,
		string(docType), period, pattern,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next document number: %w", err)
	}
	return n, nil
}
