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

// CreateSupplier registra un proveedor activo. El NIT, si viene, no puede repetirse.
func (s *Service) CreateSupplier(ctx context.Context, in dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	now := s.ledger.Now()
	sup := &entity.Supplier{
		ID:            uuid.New().String(),
		Name:          name,
		TaxID:         strings.TrimSpace(in.TaxID),
		BankName:      strings.TrimSpace(in.BankName),
		BankAccount:   strings.TrimSpace(in.BankAccount),
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		Phone:         strings.TrimSpace(in.Phone),
		Email:         strings.TrimSpace(in.Email),
		Address:       strings.TrimSpace(in.Address),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		if err := uniqueTaxID(ctx, r, sup.ID, sup.TaxID); err != nil {
			return err
		}
		return r.Suppliers.Create(ctx, sup)
	})
	if err != nil {
		return nil, err
	}
	return toSupplierResponse(sup), nil
}

// GetSupplier obtiene un proveedor por ID.
func (s *Service) GetSupplier(ctx context.Context, id string) (*dto.SupplierResponse, error) {
	var out *dto.SupplierResponse
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		sup, err := loadSupplier(ctx, r, id)
		if err != nil {
			return err
		}
		out = toSupplierResponse(sup)
		return nil
	})
	return out, err
}

// UpdateSupplier actualiza los campos informados.
func (s *Service) UpdateSupplier(ctx context.Context, id string, in dto.UpdateSupplierRequest) (*dto.SupplierResponse, error) {
	var out *dto.SupplierResponse
	err := s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		sup, err := loadSupplier(ctx, r, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.NewValidationError("name", "requerido")
			}
			sup.Name = name
		}
		if in.TaxID != nil {
			taxID := strings.TrimSpace(*in.TaxID)
			if err := uniqueTaxID(ctx, r, sup.ID, taxID); err != nil {
				return err
			}
			sup.TaxID = taxID
		}
		setTrimmed(&sup.BankName, in.BankName)
		setTrimmed(&sup.BankAccount, in.BankAccount)
		setTrimmed(&sup.ContactPerson, in.ContactPerson)
		setTrimmed(&sup.Phone, in.Phone)
		setTrimmed(&sup.Email, in.Email)
		setTrimmed(&sup.Address, in.Address)
		if in.IsActive != nil {
			sup.IsActive = *in.IsActive
		}
		sup.UpdatedAt = s.ledger.Now()
		if err := r.Suppliers.Update(ctx, sup); err != nil {
			return err
		}
		out = toSupplierResponse(sup)
		return nil
	})
	return out, err
}

// ListSuppliers proveedores por nombre; onlyActive filtra los inactivos.
func (s *Service) ListSuppliers(ctx context.Context, onlyActive bool) ([]dto.SupplierResponse, error) {
	var out []dto.SupplierResponse
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		list, err := r.Suppliers.List(ctx, onlyActive)
		if err != nil {
			return err
		}
		out = make([]dto.SupplierResponse, 0, len(list))
		for _, sup := range list {
			out = append(out, *toSupplierResponse(sup))
		}
		return nil
	})
	return out, err
}

// DeleteSupplier elimina un proveedor sin lotes ni documentos.
func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	return s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		if _, err := loadSupplier(ctx, r, id); err != nil {
			return err
		}
		batches, err := r.Batches.CountBySupplier(ctx, id)
		if err != nil {
			return err
		}
		if batches > 0 {
			return domain.NewConflictError("supplier", id, "tiene lotes asociados")
		}
		docs, err := r.Documents.CountBySupplier(ctx, id)
		if err != nil {
			return err
		}
		if docs > 0 {
			return domain.NewConflictError("supplier", id, "tiene documentos asociados")
		}
		return r.Suppliers.Delete(ctx, id)
	})
}

func loadSupplier(ctx context.Context, r repository.Repos, id string) (*entity.Supplier, error) {
	sup, err := r.Suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		return nil, domain.NewNotFoundError("supplier", id)
	}
	return sup, nil
}

func uniqueTaxID(ctx context.Context, r repository.Repos, selfID, taxID string) error {
	if taxID == "" {
		return nil
	}
	list, err := r.Suppliers.List(ctx, false)
	if err != nil {
		return err
	}
	for _, sup := range list {
		if sup.ID != selfID && strings.EqualFold(sup.TaxID, taxID) {
			return domain.ErrDuplicate
		}
	}
	return nil
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func toSupplierResponse(s *entity.Supplier) *dto.SupplierResponse {
	return &dto.SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		TaxID:         s.TaxID,
		BankName:      s.BankName,
		BankAccount:   s.BankAccount,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}
