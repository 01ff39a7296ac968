package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// CorrectionLogRepository bitácora de correcciones de lotes. Solo inserción y lectura.
type CorrectionLogRepository interface {
	Create(ctx context.Context, log *entity.BatchCorrectionLog) error
	ListByBatch(ctx context.Context, batchID string) ([]*entity.BatchCorrectionLog, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.BatchCorrectionLog, error)
}
