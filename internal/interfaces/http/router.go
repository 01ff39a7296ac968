package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/auth"
	"github.com/jhoicas/Farmacia-api/internal/application/catalog"
	"github.com/jhoicas/Farmacia-api/internal/application/document"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/report"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	Catalog   *catalog.Service
	Ledger    *ledger.Service
	Engine    *document.Engine
	Reports   *report.Service
	JWTSecret string
}

// Router registra las rutas de la API.
// Lecturas y documentos de uso diario: cualquier rol. Catálogo, correcciones, bloqueo y firma:
// admin y farmacéutico. Usuarios: solo admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(entity.RoleAdmin, entity.RolePharmacist, entity.RoleStorekeeper)
	managers := RequireRole(entity.RoleAdmin, entity.RolePharmacist)
	admins := RequireRole(entity.RoleAdmin)

	users := protected.Group("/auth/users", admins)
	users.Get("/", authHandler.ListUsers)
	users.Post("/", authHandler.Register)

	categories := protected.Group("/categories", anyRole)
	categoryHandler := NewCategoryHandler(deps.Catalog)
	categories.Get("/", categoryHandler.List)
	categories.Get("/:id", categoryHandler.GetByID)
	categories.Post("/", managers, categoryHandler.Create)
	categories.Put("/:id", managers, categoryHandler.Update)
	categories.Delete("/:id", managers, categoryHandler.Delete)

	suppliers := protected.Group("/suppliers", anyRole)
	supplierHandler := NewSupplierHandler(deps.Catalog)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Post("/", managers, supplierHandler.Create)
	suppliers.Put("/:id", managers, supplierHandler.Update)
	suppliers.Delete("/:id", managers, supplierHandler.Delete)

	products := protected.Group("/products", anyRole)
	productHandler := NewProductHandler(deps.Catalog, deps.Ledger)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/batches", productHandler.Batches)
	products.Post("/", managers, productHandler.Create)
	products.Put("/:id", managers, productHandler.Update)
	products.Delete("/:id", managers, productHandler.Delete)
	products.Post("/:id/archive", managers, productHandler.Archive)
	products.Post("/:id/activate", managers, productHandler.Activate)

	batches := protected.Group("/batches", anyRole)
	batchHandler := NewBatchHandler(deps.Ledger, deps.Reports)
	batches.Get("/expired", batchHandler.Expired)
	batches.Get("/expiring", batchHandler.Expiring)
	batches.Get("/:id", batchHandler.GetByID)
	batches.Get("/:id/corrections", batchHandler.Corrections)
	batches.Put("/:id/quantity", managers, batchHandler.CorrectQuantity)

	documents := protected.Group("/documents", anyRole)
	documentHandler := NewDocumentHandler(deps.Engine)
	documents.Get("/", documentHandler.List)
	documents.Post("/incoming", documentHandler.CreateIncoming)
	documents.Post("/outgoing", documentHandler.CreateOutgoing)
	documents.Post("/write-off", documentHandler.CreateWriteOff)
	documents.Post("/corrections", managers, documentHandler.CreateCorrection)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Get("/:id/corrections", documentHandler.Corrections)
	documents.Put("/:id", documentHandler.UpdateDraft)
	documents.Delete("/:id", documentHandler.Delete)
	documents.Post("/:id/process", documentHandler.Process)
	documents.Post("/:id/block", managers, documentHandler.Block)
	documents.Post("/:id/sign", managers, documentHandler.Sign)

	reports := protected.Group("/reports", anyRole)
	reportHandler := NewReportHandler(deps.Reports)
	reports.Get("/stock", reportHandler.Stock)
	reports.Get("/overview", reportHandler.Overview)
	reports.Get("/suppliers/:id/statistics", reportHandler.SupplierStatistics)
}
