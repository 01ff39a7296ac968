package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var (
	_ repository.BatchRepository         = (*batchRepo)(nil)
	_ repository.CorrectionLogRepository = (*correctionLogRepo)(nil)
)

type batchRepo struct{ st *state }

func (r *batchRepo) Create(_ context.Context, b *entity.Batch) error {
	if _, ok := r.st.batches[b.ID]; ok {
		return domain.ErrDuplicate
	}
	if _, ok := r.st.products[b.ProductID]; !ok {
		return domain.NewNotFoundError("product", b.ProductID)
	}
	r.st.batches[b.ID] = *b
	return nil
}

func (r *batchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	b, ok := r.st.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *batchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.GetByID(ctx, id)
}

func (r *batchRepo) ListActiveByProduct(_ context.Context, productID string) ([]*entity.Batch, error) {
	return r.collect(func(b *entity.Batch) bool { return b.ProductID == productID && b.IsAvailable() }), nil
}

func (r *batchRepo) ListActiveByProductForUpdate(ctx context.Context, productID string) ([]*entity.Batch, error) {
	return r.ListActiveByProduct(ctx, productID)
}

func (r *batchRepo) ListAvailable(_ context.Context) ([]*entity.Batch, error) {
	return r.collect(func(b *entity.Batch) bool { return b.IsAvailable() }), nil
}

func (r *batchRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Batch, error) {
	return r.collect(func(b *entity.Batch) bool { return b.ProductID == productID }), nil
}

func (r *batchRepo) UpdateQuantity(_ context.Context, b *entity.Batch) error {
	cur, ok := r.st.batches[b.ID]
	if !ok {
		return domain.NewNotFoundError("batch", b.ID)
	}
	cur.Quantity = b.Quantity
	cur.IsActive = b.IsActive
	cur.UpdatedAt = b.UpdatedAt
	r.st.batches[b.ID] = cur
	return nil
}

func (r *batchRepo) CountBySupplier(_ context.Context, supplierID string) (int, error) {
	return len(r.collect(func(b *entity.Batch) bool { return b.SupplierID == supplierID })), nil
}

func (r *batchRepo) CountByProduct(_ context.Context, productID string) (int, error) {
	return len(r.collect(func(b *entity.Batch) bool { return b.ProductID == productID })), nil
}

// collect copia los lotes que cumplen keep, en orden FEFO.
func (r *batchRepo) collect(keep func(*entity.Batch) bool) []*entity.Batch {
	out := make([]*entity.Batch, 0)
	for _, b := range r.st.batches {
		b := b
		if keep(&b) {
			out = append(out, &b)
		}
	}
	ledger.SortFEFO(out)
	return out
}

type correctionLogRepo struct{ st *state }

func (r *correctionLogRepo) Create(_ context.Context, l *entity.BatchCorrectionLog) error {
	if _, ok := r.st.batches[l.BatchID]; !ok {
		return domain.NewNotFoundError("batch", l.BatchID)
	}
	r.st.logs = append(r.st.logs, *l)
	return nil
}

func (r *correctionLogRepo) ListByBatch(_ context.Context, batchID string) ([]*entity.BatchCorrectionLog, error) {
	return r.filter(func(l entity.BatchCorrectionLog) bool { return l.BatchID == batchID }), nil
}

func (r *correctionLogRepo) ListByDocument(_ context.Context, documentID string) ([]*entity.BatchCorrectionLog, error) {
	return r.filter(func(l entity.BatchCorrectionLog) bool { return l.CorrectionDocumentID == documentID }), nil
}

func (r *correctionLogRepo) filter(keep func(entity.BatchCorrectionLog) bool) []*entity.BatchCorrectionLog {
	out := make([]*entity.BatchCorrectionLog, 0)
	for _, l := range r.st.logs {
		if keep(l) {
			l := l
			out = append(out, &l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
