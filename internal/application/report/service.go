// Package report contiene las consultas de solo lectura sobre el libro de inventario:
// vencimientos, niveles de stock, estadísticas de proveedores y el resumen general.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	rules "github.com/jhoicas/Farmacia-api/internal/domain/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// DefaultCacheTTL vigencia de los reportes cacheados si no se configura otra.
const DefaultCacheTTL = time.Minute

const overviewKey = "overview"

// Service fachada de reportes. Cada consulta corre sobre su propia instantánea de lectura.
type Service struct {
	tx     repository.TxRunner
	ledger *ledger.Ledger
	cache  ports.ReportCache
	ttl    time.Duration
	log    *logger.Logger
}

// NewService construye el servicio. cache puede ser nil; ttl <= 0 usa DefaultCacheTTL.
func NewService(tx repository.TxRunner, l *ledger.Ledger, cache ports.ReportCache, ttl time.Duration, log *logger.Logger) *Service {
	if cache == nil {
		cache = ports.NopCache{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{tx: tx, ledger: l, cache: cache, ttl: ttl, log: log.Component("report")}
}

// ExpiredBatches lotes disponibles ya vencidos.
func (s *Service) ExpiredBatches(ctx context.Context) ([]dto.BatchView, error) {
	var out []dto.BatchView
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		batches, err := s.ledger.ListExpired(ctx, r)
		if err != nil {
			return err
		}
		out, err = s.batchViews(ctx, r, batches)
		return err
	})
	return out, err
}

// ExpiringBatches lotes disponibles que vencen dentro de days (0 = ventana configurada).
func (s *Service) ExpiringBatches(ctx context.Context, days int) ([]dto.BatchView, error) {
	var out []dto.BatchView
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		batches, err := s.ledger.ListExpiringSoon(ctx, r, days)
		if err != nil {
			return err
		}
		out, err = s.batchViews(ctx, r, batches)
		return err
	})
	return out, err
}

func (s *Service) batchViews(ctx context.Context, r repository.Repos, batches []*entity.Batch) ([]dto.BatchView, error) {
	today := s.ledger.Today()
	products := make(map[string]string)
	suppliers := make(map[string]string)
	out := make([]dto.BatchView, 0, len(batches))
	for _, b := range batches {
		name, ok := products[b.ProductID]
		if !ok {
			p, err := r.Products.GetByID(ctx, b.ProductID)
			if err != nil {
				return nil, err
			}
			if p != nil {
				name = p.Name
			}
			products[b.ProductID] = name
		}
		v := dto.BatchView{
			BatchID:        b.ID,
			ProductID:      b.ProductID,
			ProductName:    name,
			SupplierID:     b.SupplierID,
			Series:         b.Series,
			ExpirationDate: b.ExpirationDate,
			DaysToExpiry:   b.DaysToExpiry(today),
			Quantity:       b.Quantity,
			PurchasePrice:  b.PurchasePrice,
			SellingPrice:   b.SellingPrice,
			PurchaseValue:  b.PurchaseValue(),
			SellingValue:   b.SellingValue(),
		}
		if b.SupplierID != "" {
			sname, ok := suppliers[b.SupplierID]
			if !ok {
				sup, err := r.Suppliers.GetByID(ctx, b.SupplierID)
				if err != nil {
					return nil, err
				}
				if sup != nil {
					sname = sup.Name
				}
				suppliers[b.SupplierID] = sname
			}
			v.SupplierName = sname
		}
		out = append(out, v)
	}
	return out, nil
}

// StockLevels stock derivado de cada producto, opcionalmente filtrado por categoría y estado.
func (s *Service) StockLevels(ctx context.Context, in dto.StockFilterRequest) ([]dto.ProductStock, error) {
	want := rules.StockStatus(in.Status)
	switch want {
	case "", rules.StockInStock, rules.StockLow, rules.StockOut:
	default:
		return nil, domain.NewValidationError("status", "debe ser in_stock, low u out")
	}
	var out []dto.ProductStock
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		products, err := r.Products.List(ctx, repository.ProductFilter{
			CategoryID:      in.CategoryID,
			IncludeArchived: in.IncludeArchived,
		})
		if err != nil {
			return err
		}
		byProduct, err := availableByProduct(ctx, r)
		if err != nil {
			return err
		}
		today := s.ledger.Today()
		out = make([]dto.ProductStock, 0, len(products))
		for _, p := range products {
			snap := rules.Snapshot(p, byProduct[p.ID], today, s.ledger.ExpiringWindow())
			if want != "" && snap.Status != want {
				continue
			}
			out = append(out, dto.ProductStock{
				ProductID:         p.ID,
				ProductName:       p.Name,
				CategoryID:        p.CategoryID,
				UnitOfMeasure:     p.UnitOfMeasure,
				MinRemainder:      p.MinRemainder,
				CurrentStock:      snap.CurrentStock,
				Status:            string(snap.Status),
				ActiveBatches:     snap.ActiveBatchCount,
				NearestExpiration: snap.NearestExpiration,
				HasExpired:        snap.HasExpired,
				HasExpiringSoon:   snap.HasExpiringSoon,
				AverageCost:       averageCost(byProduct[p.ID]),
				IsActive:          p.IsActive,
			})
		}
		return nil
	})
	return out, err
}

func averageCost(batches []*entity.Batch) decimal.Decimal {
	quantities := make([]int, 0, len(batches))
	costs := make([]decimal.Decimal, 0, len(batches))
	for _, b := range batches {
		quantities = append(quantities, b.Quantity)
		costs = append(costs, b.PurchasePrice)
	}
	return rules.WeightedAverageCost(quantities, costs)
}

func availableByProduct(ctx context.Context, r repository.Repos) (map[string][]*entity.Batch, error) {
	batches, err := r.Batches.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]*entity.Batch)
	for _, b := range batches {
		out[b.ProductID] = append(out[b.ProductID], b)
	}
	return out, nil
}

// SupplierStatistics entregas procesadas por mes del año indicado (0 = año en curso) y
// entradas atrasadas: fecha de factura anterior a hoy sin procesar.
func (s *Service) SupplierStatistics(ctx context.Context, supplierID string, year int) (*dto.SupplierStatistics, error) {
	if supplierID == "" {
		return nil, domain.NewValidationError("supplier_id", "es obligatorio")
	}
	if year < 0 {
		return nil, domain.NewValidationError("year", "no puede ser negativo")
	}
	if year == 0 {
		year = s.ledger.Today().Year()
	}
	key := fmt.Sprintf("supplier-stats:%s:%d", supplierID, year)
	var cached dto.SupplierStatistics
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	var out *dto.SupplierStatistics
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		sup, err := r.Suppliers.GetByID(ctx, supplierID)
		if err != nil {
			return err
		}
		if sup == nil {
			return domain.NewNotFoundError("supplier", supplierID)
		}
		docs, err := r.Documents.List(ctx, repository.DocumentFilter{
			Type:       entity.DocumentIncoming,
			SupplierID: supplierID,
		})
		if err != nil {
			return err
		}
		out = supplierStatistics(sup, docs, year, s.ledger.Today())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, key, out)
	return out, nil
}

func supplierStatistics(sup *entity.Supplier, docs []*entity.Document, year int, today time.Time) *dto.SupplierStatistics {
	stats := &dto.SupplierStatistics{
		SupplierID:     sup.ID,
		SupplierName:   sup.Name,
		Year:           year,
		Months:         make([]dto.MonthlyDeliveries, 12),
		TotalAmount:    decimal.Zero,
		AverageAmount:  decimal.Zero,
		LateDeliveries: make([]dto.LateDelivery, 0),
	}
	for i := range stats.Months {
		stats.Months[i] = dto.MonthlyDeliveries{Month: i + 1, TotalAmount: decimal.Zero, AverageAmount: decimal.Zero}
	}
	for _, d := range docs {
		if d.Status == entity.StatusProcessed {
			if d.Date.Year() != year {
				continue
			}
			m := &stats.Months[d.Date.Month()-1]
			m.Deliveries++
			m.TotalAmount = m.TotalAmount.Add(d.Amount)
			stats.TotalDeliveries++
			stats.TotalAmount = stats.TotalAmount.Add(d.Amount)
			continue
		}
		if d.InvoiceDate == nil || !entity.DateOnly(*d.InvoiceDate).Before(today) {
			continue
		}
		stats.LateDeliveries = append(stats.LateDeliveries, dto.LateDelivery{
			DocumentID:    d.ID,
			Number:        d.Number,
			Status:        string(d.Status),
			InvoiceNumber: d.InvoiceNumber,
			InvoiceDate:   *d.InvoiceDate,
			DaysLate:      entity.DaysBetween(*d.InvoiceDate, today),
			DocumentDate:  d.Date,
			SignedAt:      d.SignedAt,
		})
	}
	for i := range stats.Months {
		stats.Months[i].AverageAmount = average(stats.Months[i].TotalAmount, stats.Months[i].Deliveries)
	}
	stats.AverageAmount = average(stats.TotalAmount, stats.TotalDeliveries)
	sort.SliceStable(stats.LateDeliveries, func(i, j int) bool {
		return stats.LateDeliveries[i].InvoiceDate.Before(stats.LateDeliveries[j].InvoiceDate)
	})
	return stats
}

func average(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// Overview resumen general. Las cuatro consultas corren en paralelo, cada una con su instantánea.
func (s *Service) Overview(ctx context.Context) (*dto.OverviewResponse, error) {
	var cached dto.OverviewResponse
	if s.fromCache(ctx, overviewKey, &cached) {
		return &cached, nil
	}

	today := s.ledger.Today()
	window := s.ledger.ExpiringWindow()
	out := &dto.OverviewResponse{
		StockPurchaseValue: decimal.Zero,
		StockSellingValue:  decimal.Zero,
		GeneratedAt:        s.ledger.Now(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.tx.ReadOnly(gctx, func(ctx context.Context, r repository.Repos) error {
			products, err := r.Products.List(ctx, repository.ProductFilter{IncludeArchived: true})
			if err != nil {
				return err
			}
			byProduct, err := availableByProduct(ctx, r)
			if err != nil {
				return err
			}
			for _, p := range products {
				if !p.IsActive {
					out.ArchivedProducts++
					continue
				}
				out.Products++
				switch rules.Snapshot(p, byProduct[p.ID], today, window).Status {
				case rules.StockLow:
					out.LowStock++
				case rules.StockOut:
					out.OutOfStock++
				}
			}
			return nil
		})
	})
	g.Go(func() error {
		return s.tx.ReadOnly(gctx, func(ctx context.Context, r repository.Repos) error {
			suppliers, err := r.Suppliers.List(ctx, true)
			if err != nil {
				return err
			}
			out.Suppliers = len(suppliers)
			return nil
		})
	})
	g.Go(func() error {
		return s.tx.ReadOnly(gctx, func(ctx context.Context, r repository.Repos) error {
			batches, err := r.Batches.ListAvailable(ctx)
			if err != nil {
				return err
			}
			for _, b := range batches {
				switch {
				case b.IsExpired(today):
					out.ExpiredBatches++
				case b.IsExpiringSoon(today, window):
					out.ExpiringBatches++
				}
				out.StockPurchaseValue = out.StockPurchaseValue.Add(b.PurchaseValue())
				out.StockSellingValue = out.StockSellingValue.Add(b.SellingValue())
			}
			return nil
		})
	})
	g.Go(func() error {
		return s.tx.ReadOnly(gctx, func(ctx context.Context, r repository.Repos) error {
			drafts, err := r.Documents.List(ctx, repository.DocumentFilter{Status: entity.StatusDraft})
			if err != nil {
				return err
			}
			out.DraftDocuments = len(drafts)
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("report: resumen: %w", err)
	}
	s.toCache(ctx, overviewKey, out)
	return out, nil
}

// fromCache devuelve false ante cualquier error de la caché.
func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	found, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("lectura de caché fallida")
		return false
	}
	return found
}

func (s *Service) toCache(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("escritura de caché fallida")
	}
}
