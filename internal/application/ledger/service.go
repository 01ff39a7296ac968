package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// Service casos de uso del libro que no pertenecen a un documento:
// consultas de lotes y correcciones directas (conteo físico).
type Service struct {
	tx     repository.TxRunner
	ledger *Ledger
	cache  ports.ReportCache
	log    *logger.Logger
}

// NewService construye el servicio. cache puede ser nil.
func NewService(tx repository.TxRunner, l *Ledger, cache ports.ReportCache, log *logger.Logger) *Service {
	if cache == nil {
		cache = ports.NopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{tx: tx, ledger: l, cache: cache, log: log.Component("ledger")}
}

// Today fecha de hoy según el reloj del libro.
func (s *Service) Today() time.Time { return s.ledger.Today() }

// ActiveBatches lotes disponibles del producto en orden FEFO.
func (s *Service) ActiveBatches(ctx context.Context, productID string) ([]*entity.Batch, error) {
	var out []*entity.Batch
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		p, err := r.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NewNotFoundError("product", productID)
		}
		out, err = s.ledger.ListActiveBatches(ctx, r, productID)
		return err
	})
	return out, err
}

// BatchHistory todos los lotes del producto, incluidos los agotados.
func (s *Service) BatchHistory(ctx context.Context, productID string) ([]*entity.Batch, error) {
	var out []*entity.Batch
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		out, err = r.Batches.ListByProduct(ctx, productID)
		return err
	})
	return out, err
}

// GetBatch un lote por ID.
func (s *Service) GetBatch(ctx context.Context, id string) (*entity.Batch, error) {
	var out *entity.Batch
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		b, err := r.Batches.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.NewNotFoundError("batch", id)
		}
		out = b
		return nil
	})
	return out, err
}

// Expired lotes disponibles vencidos.
func (s *Service) Expired(ctx context.Context) ([]*entity.Batch, error) {
	var out []*entity.Batch
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		out, err = s.ledger.ListExpired(ctx, r)
		return err
	})
	return out, err
}

// ExpiringSoon lotes disponibles que vencen dentro de days (0 = ventana configurada).
func (s *Service) ExpiringSoon(ctx context.Context, days int) ([]*entity.Batch, error) {
	var out []*entity.Batch
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		out, err = s.ledger.ListExpiringSoon(ctx, r, days)
		return err
	})
	return out, err
}

// CorrectBatch corrección directa de cantidad, sin documento. Queda en la bitácora.
func (s *Service) CorrectBatch(ctx context.Context, actor entity.Actor, batchID string, newQuantity int, reason string) (*entity.BatchCorrectionLog, error) {
	var entry *entity.BatchCorrectionLog
	err := s.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		entry, err = s.ledger.CorrectQuantity(ctx, r, actor, CorrectionSpec{
			BatchID:     batchID,
			NewQuantity: newQuantity,
			Reason:      reason,
		})
		return err
	})
	if err != nil {
		s.log.Warn().Err(err).Str("batch_id", batchID).Msg("corrección de lote revertida")
		return nil, err
	}
	s.log.Info().
		Str("batch_id", batchID).
		Str("old", entry.OldValue).
		Str("new", entry.NewValue).
		Str("actor", entry.ChangedBy).
		Msg("lote corregido")
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("no se pudo invalidar la caché de reportes")
	}
	return entry, nil
}

// CorrectionHistory bitácora de correcciones de un lote.
func (s *Service) CorrectionHistory(ctx context.Context, batchID string) ([]*entity.BatchCorrectionLog, error) {
	var out []*entity.BatchCorrectionLog
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		out, err = r.CorrectionLogs.ListByBatch(ctx, batchID)
		return err
	})
	return out, err
}
