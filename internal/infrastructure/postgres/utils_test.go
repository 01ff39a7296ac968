package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

func TestLineReferenceError_NamesTheMissingReference(t *testing.T) {
	line := &entity.DocumentLine{DocumentID: "D1", ProductID: "P1", CreatedBatchID: "B1", SourceBatchID: "B2", Position: 3}

	cases := []struct {
		constraint string
		entity     string
		id         string
	}{
		{"document_lines_product_id_fkey", "product", "P1"},
		{"document_lines_created_batch_id_fkey", "batch", "B1"},
		{"document_lines_source_batch_id_fkey", "batch", "B2"},
		{"document_lines_document_id_fkey", "document", "D1"},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			err := lineReferenceError(&pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: tc.constraint}, line)
			var nf *domain.NotFoundError
			require.True(t, errors.As(err, &nf), err)
			assert.Equal(t, tc.entity, nf.Entity)
			assert.Equal(t, tc.id, nf.ID)
		})
	}

	err := lineReferenceError(&pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "otro"}, line)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "line 3")
}
