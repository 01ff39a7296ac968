package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Farmacia-api/internal/application/document"
	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	rules "github.com/jhoicas/Farmacia-api/internal/domain/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// CreateProduct crea un producto activo sin stock.
// No se repite la combinación nombre + forma farmacéutica + fabricante.
func (s *Service) CreateProduct(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	if strings.TrimSpace(in.UnitOfMeasure) == "" {
		return nil, domain.NewValidationError("unitOfMeasure", "requerida")
	}
	if in.MinRemainder < 0 {
		return nil, domain.NewValidationError("minRemainder", "no puede ser negativo")
	}
	now := s.ledger.Now()
	p := &entity.Product{
		ID:            uuid.New().String(),
		Name:          name,
		CategoryID:    strings.TrimSpace(in.CategoryID),
		ReleaseForm:   strings.TrimSpace(in.ReleaseForm),
		Manufacturer:  strings.TrimSpace(in.Manufacturer),
		UnitOfMeasure: strings.TrimSpace(in.UnitOfMeasure),
		MinRemainder:  in.MinRemainder,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	var out *dto.ProductResponse
	err := s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		if p.CategoryID != "" {
			if _, err := loadCategory(ctx, r, p.CategoryID); err != nil {
				return err
			}
		}
		if err := uniqueProduct(ctx, r, p); err != nil {
			return err
		}
		if err := r.Products.Create(ctx, p); err != nil {
			return err
		}
		out = s.toProductResponse(p, nil)
		return nil
	})
	return out, err
}

// GetProduct producto con su stock actual y banderas de vencimiento.
func (s *Service) GetProduct(ctx context.Context, id string) (*dto.ProductResponse, error) {
	var out *dto.ProductResponse
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		p, err := loadProduct(ctx, r, id)
		if err != nil {
			return err
		}
		batches, err := r.Batches.ListActiveByProduct(ctx, id)
		if err != nil {
			return err
		}
		out = s.toProductResponse(p, batches)
		return nil
	})
	return out, err
}

// UpdateProduct actualiza datos descriptivos. Stock y archivo tienen sus propias operaciones.
func (s *Service) UpdateProduct(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var out *dto.ProductResponse
	err := s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		p, err := loadProduct(ctx, r, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return domain.NewValidationError("name", "requerido")
			}
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.CategoryID != nil {
			categoryID := strings.TrimSpace(*in.CategoryID)
			if categoryID != "" {
				if _, err := loadCategory(ctx, r, categoryID); err != nil {
					return err
				}
			}
			p.CategoryID = categoryID
		}
		setTrimmed(&p.ReleaseForm, in.ReleaseForm)
		setTrimmed(&p.Manufacturer, in.Manufacturer)
		if in.UnitOfMeasure != nil {
			if strings.TrimSpace(*in.UnitOfMeasure) == "" {
				return domain.NewValidationError("unitOfMeasure", "requerida")
			}
			p.UnitOfMeasure = strings.TrimSpace(*in.UnitOfMeasure)
		}
		if in.MinRemainder != nil {
			if *in.MinRemainder < 0 {
				return domain.NewValidationError("minRemainder", "no puede ser negativo")
			}
			p.MinRemainder = *in.MinRemainder
		}
		if err := uniqueProduct(ctx, r, p); err != nil {
			return err
		}
		p.UpdatedAt = s.ledger.Now()
		if err := r.Products.Update(ctx, p); err != nil {
			return err
		}
		batches, err := r.Batches.ListActiveByProduct(ctx, id)
		if err != nil {
			return err
		}
		out = s.toProductResponse(p, batches)
		return nil
	})
	return out, err
}

// ListProducts lista paginada con stock derivado de una misma instantánea.
func (s *Service) ListProducts(ctx context.Context, in dto.ProductFilterRequest) (*dto.ProductListResponse, error) {
	in.DefaultPage()
	var out *dto.ProductListResponse
	filter := repository.ProductFilter{
		CategoryID:      in.CategoryID,
		Search:          in.Search,
		IncludeArchived: in.IncludeArchived,
		Limit:           in.Limit,
		Offset:          in.Offset,
	}
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		list, err := r.Products.List(ctx, filter)
		if err != nil {
			return err
		}
		total, err := r.Products.Count(ctx, filter)
		if err != nil {
			return err
		}
		available, err := r.Batches.ListAvailable(ctx)
		if err != nil {
			return err
		}
		byProduct := make(map[string][]*entity.Batch)
		for _, b := range available {
			byProduct[b.ProductID] = append(byProduct[b.ProductID], b)
		}
		items := make([]dto.ProductResponse, 0, len(list))
		for _, p := range list {
			items = append(items, *s.toProductResponse(p, byProduct[p.ID]))
		}
		out = &dto.ProductListResponse{
			Items: items,
			Page:  dto.NewPageResponse(in.PageRequest, total),
		}
		return nil
	})
	return out, err
}

// DeleteProduct elimina un producto sin lotes ni líneas de documentos.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		if _, err := loadProduct(ctx, r, id); err != nil {
			return err
		}
		batches, err := r.Batches.CountByProduct(ctx, id)
		if err != nil {
			return err
		}
		if batches > 0 {
			return domain.NewConflictError("product", id, "tiene lotes asociados")
		}
		lines, err := r.Documents.CountLinesByProduct(ctx, id)
		if err != nil {
			return err
		}
		if lines > 0 {
			return domain.NewConflictError("product", id, "aparece en documentos")
		}
		return r.Products.Delete(ctx, id)
	})
}

// ArchiveProduct archiva el producto. Con RequiresWriteOff y stock > 0 genera en la misma
// transacción una única baja procesada que agota todos sus lotes activos.
func (s *Service) ArchiveProduct(ctx context.Context, actor entity.Actor, id string, in dto.ArchiveProductRequest) (*dto.ArchiveProductResponse, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "requerido")
	}
	out := &dto.ArchiveProductResponse{}
	err := s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		p, err := r.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NewNotFoundError("product", id)
		}
		if p.ArchivedAt != nil {
			return domain.NewConflictError("product", id, "el producto ya está archivado")
		}

		if in.RequiresWriteOff {
			stock, err := s.ledger.Availability(ctx, r, id)
			if err != nil {
				return err
			}
			if stock > 0 {
				doc, err := s.writeOff.WriteOffInTx(ctx, r, actor,
					document.DocumentInput{
						WriteOffReason: "Archivo del producto: " + reason,
						Notes:          strings.TrimSpace(in.Comment),
					},
					[]document.LineInput{{ProductID: id, Quantity: stock}},
				)
				if err != nil {
					return err
				}
				out.WriteOffDocumentID = doc.ID
				out.WrittenOffQuantity = stock
			}
		}

		p.Archive(reason, strings.TrimSpace(in.Comment), in.BlockSales, s.ledger.Now())
		if err := r.Products.Update(ctx, p); err != nil {
			return err
		}
		batches, err := r.Batches.ListActiveByProduct(ctx, id)
		if err != nil {
			return err
		}
		out.Product = *s.toProductResponse(p, batches)
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("product_id", id).Str("actor", actor.Label()).Msg("archivo de producto revertido")
		return nil, err
	}
	s.log.Info().
		Str("product_id", id).
		Bool("block_sales", in.BlockSales).
		Str("write_off_document_id", out.WriteOffDocumentID).
		Int("written_off", out.WrittenOffQuantity).
		Str("actor", actor.Label()).
		Msg("producto archivado")
	return out, nil
}

// ActivateProduct reactiva un producto y limpia los datos de archivo.
func (s *Service) ActivateProduct(ctx context.Context, actor entity.Actor, id string) (*dto.ProductResponse, error) {
	var out *dto.ProductResponse
	err := s.write(ctx, func(ctx context.Context, r repository.Repos) error {
		p, err := r.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NewNotFoundError("product", id)
		}
		p.Activate(s.ledger.Now())
		if err := r.Products.Update(ctx, p); err != nil {
			return err
		}
		batches, err := r.Batches.ListActiveByProduct(ctx, id)
		if err != nil {
			return err
		}
		out = s.toProductResponse(p, batches)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("product_id", id).Str("actor", actor.Label()).Msg("producto reactivado")
	return out, nil
}

func loadProduct(ctx context.Context, r repository.Repos, id string) (*entity.Product, error) {
	p, err := r.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NewNotFoundError("product", id)
	}
	return p, nil
}

func uniqueProduct(ctx context.Context, r repository.Repos, p *entity.Product) error {
	list, err := r.Products.List(ctx, repository.ProductFilter{IncludeArchived: true})
	if err != nil {
		return err
	}
	key := productKey(p)
	for _, other := range list {
		if other.ID != p.ID && productKey(other) == key {
			return domain.ErrDuplicate
		}
	}
	return nil
}

func productKey(p *entity.Product) string {
	return normalizeName(p.Name) + "|" + normalizeName(p.ReleaseForm) + "|" + normalizeName(p.Manufacturer)
}

func (s *Service) toProductResponse(p *entity.Product, batches []*entity.Batch) *dto.ProductResponse {
	snap := rules.Snapshot(p, batches, s.ledger.Today(), s.ledger.ExpiringWindow())
	return &dto.ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		CategoryID:        p.CategoryID,
		ReleaseForm:       p.ReleaseForm,
		Manufacturer:      p.Manufacturer,
		UnitOfMeasure:     p.UnitOfMeasure,
		MinRemainder:      p.MinRemainder,
		IsActive:          p.IsActive,
		IsSalesBlocked:    p.IsSalesBlocked,
		ArchivedAt:        p.ArchivedAt,
		ArchiveReason:     p.ArchiveReason,
		ArchiveComment:    p.ArchiveComment,
		CurrentStock:      snap.CurrentStock,
		StockStatus:       string(snap.Status),
		NearestExpiration: snap.NearestExpiration,
		HasExpired:        snap.HasExpired,
		HasExpiringSoon:   snap.HasExpiringSoon,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
