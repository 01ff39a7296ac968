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
	_ repository.DocumentRepository = (*documentRepo)(nil)
	_ repository.SequenceRepository = (*sequenceRepo)(nil)
)

type documentRepo struct{ st *state }

// header copia la cabecera sin líneas ni correcciones.
func header(d *entity.Document) entity.Document {
	h := *d
	h.Lines = nil
	h.Corrections = nil
	return h
}

func (r *documentRepo) Create(_ context.Context, d *entity.Document) error {
	if _, ok := r.st.documents[d.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range r.st.documents {
		if existing.Number == d.Number {
			return domain.ErrDuplicate
		}
	}
	r.st.documents[d.ID] = header(d)
	return nil
}

func (r *documentRepo) GetByID(_ context.Context, id string) (*entity.Document, error) {
	d, ok := r.st.documents[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *documentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.GetByID(ctx, id)
}

func (r *documentRepo) Update(_ context.Context, d *entity.Document) error {
	if _, ok := r.st.documents[d.ID]; !ok {
		return domain.NewNotFoundError("document", d.ID)
	}
	r.st.documents[d.ID] = header(d)
	return nil
}

func (r *documentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.documents[id]; !ok {
		return domain.NewNotFoundError("document", id)
	}
	delete(r.st.documents, id)
	for lid, l := range r.st.lines {
		if l.DocumentID == id {
			delete(r.st.lines, lid)
		}
	}
	return nil
}

func (r *documentRepo) List(_ context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	out := make([]*entity.Document, 0)
	for _, d := range r.st.documents {
		if !matchDocument(&d, f) {
			continue
		}
		d := d
		out = append(out, &d)
	}
	sortDocuments(out)
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *documentRepo) Count(_ context.Context, f repository.DocumentFilter) (int, error) {
	n := 0
	for _, d := range r.st.documents {
		if matchDocument(&d, f) {
			n++
		}
	}
	return n, nil
}

func matchDocument(d *entity.Document, f repository.DocumentFilter) bool {
	switch {
	case f.Type != "" && d.Type != f.Type:
		return false
	case f.Status != "" && d.Status != f.Status:
		return false
	case f.SupplierID != "" && d.SupplierID != f.SupplierID:
		return false
	case f.From != nil && d.Date.Before(*f.From):
		return false
	case f.To != nil && d.Date.After(*f.To):
		return false
	}
	return true
}

func (r *documentRepo) ListCorrections(_ context.Context, originalID string) ([]*entity.Document, error) {
	out := make([]*entity.Document, 0)
	for _, d := range r.st.documents {
		if d.Type == entity.DocumentCorrection && d.OriginalDocumentID == originalID {
			d := d
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *documentRepo) CreateLines(_ context.Context, lines []*entity.DocumentLine) error {
	for _, l := range lines {
		if _, ok := r.st.documents[l.DocumentID]; !ok {
			return domain.NewNotFoundError("document", l.DocumentID)
		}
		if _, ok := r.st.lines[l.ID]; ok {
			return domain.ErrDuplicate
		}
		r.st.lines[l.ID] = *l
	}
	return nil
}

func (r *documentRepo) DeleteLines(_ context.Context, documentID string) error {
	for id, l := range r.st.lines {
		if l.DocumentID == documentID {
			delete(r.st.lines, id)
		}
	}
	return nil
}

func (r *documentRepo) ListLines(_ context.Context, documentID string) ([]*entity.DocumentLine, error) {
	out := make([]*entity.DocumentLine, 0)
	for _, l := range r.st.lines {
		if l.DocumentID == documentID {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *documentRepo) GetLine(_ context.Context, lineID string) (*entity.DocumentLine, error) {
	l, ok := r.st.lines[lineID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *documentRepo) CountBySupplier(_ context.Context, supplierID string) (int, error) {
	n := 0
	for _, d := range r.st.documents {
		if d.SupplierID == supplierID {
			n++
		}
	}
	return n, nil
}

func (r *documentRepo) CountLinesByProduct(_ context.Context, productID string) (int, error) {
	n := 0
	for _, l := range r.st.lines {
		if l.ProductID == productID {
			n++
		}
	}
	return n, nil
}

// sortDocuments más recientes primero; a igual fecha, por número descendente.
func sortDocuments(docs []*entity.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].Date.Equal(docs[j].Date) {
			return docs[i].Date.After(docs[j].Date)
		}
		return docs[i].Number > docs[j].Number
	})
}

type sequenceRepo struct{ st *state }

func (r *sequenceRepo) Next(_ context.Context, docType entity.DocumentType, period string) (int, error) {
	key := string(docType) + "|" + period
	last, ok := r.st.sequences[key]
	if !ok {
		for _, d := range r.st.documents {
			if d.Type == docType && ledger.Period(d.Date) == period {
				last++
			}
		}
	}
	last++
	r.st.sequences[key] = last
	return last, nil
}
