package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var (
	_ repository.CategoryRepository = (*categoryRepo)(nil)
	_ repository.SupplierRepository = (*supplierRepo)(nil)
	_ repository.ProductRepository  = (*productRepo)(nil)
	_ repository.UserRepository     = (*userRepo)(nil)
)

type categoryRepo struct{ st *state }

func (r *categoryRepo) Create(_ context.Context, c *entity.Category) error {
	if _, ok := r.st.categories[c.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	c, ok := r.st.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *categoryRepo) Update(_ context.Context, c *entity.Category) error {
	if _, ok := r.st.categories[c.ID]; !ok {
		return domain.NewNotFoundError("category", c.ID)
	}
	r.st.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	out := make([]*entity.Category, 0, len(r.st.categories))
	for _, c := range r.st.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.categories[id]; !ok {
		return domain.NewNotFoundError("category", id)
	}
	delete(r.st.categories, id)
	return nil
}

type supplierRepo struct{ st *state }

func (r *supplierRepo) Create(_ context.Context, s *entity.Supplier) error {
	if _, ok := r.st.suppliers[s.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.suppliers[s.ID] = *s
	return nil
}

func (r *supplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	s, ok := r.st.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *supplierRepo) Update(_ context.Context, s *entity.Supplier) error {
	if _, ok := r.st.suppliers[s.ID]; !ok {
		return domain.NewNotFoundError("supplier", s.ID)
	}
	r.st.suppliers[s.ID] = *s
	return nil
}

func (r *supplierRepo) List(_ context.Context, onlyActive bool) ([]*entity.Supplier, error) {
	out := make([]*entity.Supplier, 0, len(r.st.suppliers))
	for _, s := range r.st.suppliers {
		if onlyActive && !s.IsActive {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *supplierRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.suppliers[id]; !ok {
		return domain.NewNotFoundError("supplier", id)
	}
	delete(r.st.suppliers, id)
	return nil
}

type productRepo struct{ st *state }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	if _, ok := r.st.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.products[p.ID] = *p
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetForUpdate en memoria la exclusión la da el mutex de escritura de Store.Run.
func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	if _, ok := r.st.products[p.ID]; !ok {
		return domain.NewNotFoundError("product", p.ID)
	}
	r.st.products[p.ID] = *p
	return nil
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0, len(r.st.products))
	for _, p := range r.st.products {
		if !matchProduct(&p, f) {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *productRepo) Count(_ context.Context, f repository.ProductFilter) (int, error) {
	n := 0
	for _, p := range r.st.products {
		if matchProduct(&p, f) {
			n++
		}
	}
	return n, nil
}

// matchProduct búsqueda parcial sin distinguir mayúsculas en nombre o fabricante.
func matchProduct(p *entity.Product, f repository.ProductFilter) bool {
	if !f.IncludeArchived && !p.IsActive {
		return false
	}
	if f.CategoryID != "" && p.CategoryID != f.CategoryID {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	return search == "" ||
		strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Manufacturer), search)
}

func (r *productRepo) CountByCategory(_ context.Context, categoryID string) (int, error) {
	n := 0
	for _, p := range r.st.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.products[id]; !ok {
		return domain.NewNotFoundError("product", id)
	}
	delete(r.st.products, id)
	return nil
}

type userRepo struct{ st *state }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	for _, existing := range r.st.users {
		if existing.ID == u.ID || strings.EqualFold(existing.Login, u.Login) {
			return domain.ErrDuplicate
		}
	}
	r.st.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByLogin(_ context.Context, login string) (*entity.User, error) {
	for _, u := range r.st.users {
		if strings.EqualFold(u.Login, login) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) List(_ context.Context) ([]*entity.User, error) {
	out := make([]*entity.User, 0, len(r.st.users))
	for _, u := range r.st.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
