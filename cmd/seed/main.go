// seed carga un catálogo inicial (categorías, proveedores y productos) desde un XML exportado
// por el sistema anterior de la farmacia. Acepta archivos en UTF-8 o ISO-8859-1.
//
// Uso: go run ./cmd/seed [ruta/catalogo.xml]
// Por defecto busca catalogo.xml en el directorio actual. Lo que ya existe se omite.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/jhoicas/Farmacia-api/internal/application/catalog"
	"github.com/jhoicas/Farmacia-api/internal/application/document"
	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Farmacia-api/pkg/config"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

func main() {
	xmlPath := "catalogo.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Name: "seed"})

	f, err := os.Open(xmlPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", xmlPath).Msg("abrir XML")
	}
	defer f.Close()

	cat, err := parseCatalog(f)
	if err != nil {
		log.Fatal().Err(err).Msg("decodificar XML")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	tx := postgres.NewTxRunner(pool)
	l := ledger.New(ledger.Config{Markup: cfg.Ledger.Markup, ExpiringDays: cfg.Ledger.ExpiringDays})
	engine := document.NewEngine(tx, l, nil, log, document.Options{NoSeriesLabel: cfg.Ledger.NoSeries})
	svc := catalog.NewService(tx, l, engine, nil, log)

	res, err := load(ctx, svc, cat)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo")
	}
	log.Info().
		Int("categories", res.categories).
		Int("suppliers", res.suppliers).
		Int("products", res.products).
		Int("skipped", res.skipped).
		Msg("catálogo cargado")
}

type result struct {
	categories, suppliers, products, skipped int
}

// load crea lo que falta. Los duplicados se cuentan como omitidos, cualquier otro error corta.
func load(ctx context.Context, svc *catalog.Service, cat *catalogXML) (result, error) {
	var res result
	for _, c := range cat.Categories {
		_, err := svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: c.Name, Description: c.Description})
		if err := count(err, &res.categories, &res.skipped); err != nil {
			return res, err
		}
	}
	for _, s := range cat.Suppliers {
		_, err := svc.CreateSupplier(ctx, s.request())
		if err := count(err, &res.suppliers, &res.skipped); err != nil {
			return res, err
		}
	}

	existing, err := svc.ListCategories(ctx)
	if err != nil {
		return res, err
	}
	byName := make(map[string]string, len(existing))
	for _, c := range existing {
		byName[catalogKey(c.Name)] = c.ID
	}
	for _, c := range cat.Categories {
		for _, p := range c.Products {
			_, err := svc.CreateProduct(ctx, p.request(byName[catalogKey(c.Name)]))
			if err := count(err, &res.products, &res.skipped); err != nil {
				return res, err
			}
		}
	}
	for _, p := range cat.Products {
		_, err := svc.CreateProduct(ctx, p.request(""))
		if err := count(err, &res.products, &res.skipped); err != nil {
			return res, err
		}
	}
	return res, nil
}

func count(err error, created, skipped *int) error {
	switch {
	case err == nil:
		*created++
	case errors.Is(err, domain.ErrDuplicate):
		*skipped++
	default:
		return err
	}
	return nil
}
