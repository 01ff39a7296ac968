package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// CreateCategory crea una categoría. El nombre es único sin distinguir mayúsculas.
func (s *Service) CreateCategory(ctx context.Context, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	now := s.ledger.Now()
	c := &entity.Category{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		if err := uniqueCategoryName(ctx, r, c.ID, c.Name); err != nil {
			return err
		}
		return r.Categories.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return toCategoryResponse(c), nil
}

// GetCategory obtiene una categoría por ID.
func (s *Service) GetCategory(ctx context.Context, id string) (*dto.CategoryResponse, error) {
	var out *dto.CategoryResponse
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		c, err := loadCategory(ctx, r, id)
		if err != nil {
			return err
		}
		out = toCategoryResponse(c)
		return nil
	})
	return out, err
}

// UpdateCategory actualiza nombre y/o descripción.
func (s *Service) UpdateCategory(ctx context.Context, id string, in dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	var out *dto.CategoryResponse
	err := s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		c, err := loadCategory(ctx, r, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.NewValidationError("name", "requerido")
			}
			if err := uniqueCategoryName(ctx, r, c.ID, name); err != nil {
				return err
			}
			c.Name = name
		}
		if in.Description != nil {
			c.Description = strings.TrimSpace(*in.Description)
		}
		c.UpdatedAt = s.ledger.Now()
		if err := r.Categories.Update(ctx, c); err != nil {
			return err
		}
		out = toCategoryResponse(c)
		return nil
	})
	return out, err
}

// ListCategories todas las categorías por nombre.
func (s *Service) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	var out []dto.CategoryResponse
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		list, err := r.Categories.List(ctx)
		if err != nil {
			return err
		}
		out = make([]dto.CategoryResponse, 0, len(list))
		for _, c := range list {
			out = append(out, *toCategoryResponse(c))
		}
		return nil
	})
	return out, err
}

// DeleteCategory elimina una categoría sin productos.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		if _, err := loadCategory(ctx, r, id); err != nil {
			return err
		}
		n, err := r.Products.CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.NewConflictError("category", id, "tiene productos asociados")
		}
		return r.Categories.Delete(ctx, id)
	})
}

func loadCategory(ctx context.Context, r repository.Repos, id string) (*entity.Category, error) {
	c, err := r.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.NewNotFoundError("category", id)
	}
	return c, nil
}

func uniqueCategoryName(ctx context.Context, r repository.Repos, selfID, name string) error {
	list, err := r.Categories.List(ctx)
	if err != nil {
		return err
	}
	key := normalizeName(name)
	for _, c := range list {
		if c.ID != selfID && normalizeName(c.Name) == key {
			return domain.ErrDuplicate
		}
	}
	return nil
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	return &dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
