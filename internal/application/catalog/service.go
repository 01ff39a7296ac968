// Package catalog casos de uso del catálogo: categorías, proveedores y productos, con las
// reglas de borrado (no se borra lo que tiene dependientes) y el archivo de productos.
package catalog

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Farmacia-api/internal/application/document"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// WriteOffCreator crea una baja procesada dentro de la transacción del caller.
// La implementa document.Engine.
type WriteOffCreator interface {
	WriteOffInTx(ctx context.Context, r repository.Repos, actor entity.Actor, in document.DocumentInput, lines []document.LineInput) (*entity.Document, error)
}

// Service casos de uso del catálogo.
type Service struct {
	tx       repository.TxRunner
	ledger   *ledger.Ledger
	writeOff WriteOffCreator
	cache    ports.ReportCache
	log      *logger.Logger
}

// NewService construye el servicio. cache y log pueden ser nil.
func NewService(tx repository.TxRunner, l *ledger.Ledger, writeOff WriteOffCreator, cache ports.ReportCache, log *logger.Logger) *Service {
	if cache == nil {
		cache = ports.NopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{tx: tx, ledger: l, writeOff: writeOff, cache: cache, log: log.Component("catalog")}
}

// write ejecuta fn en una transacción de escritura e invalida los reportes cacheados si confirma.
func (s *Service) write(ctx context.Context, fn func(ctx context.Context, r repository.Repos) error) error {
	if err := s.tx.Run(ctx, fn); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) changed(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("no se pudo invalidar la caché de reportes")
	}
}

// normalizeName clave de comparación de nombres: NFC, sin distinguir mayúsculas y con
// los espacios colapsados. "Paracetamol  500" y "PARACETAMOL 500" son el mismo nombre.
func normalizeName(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}
