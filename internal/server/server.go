// Package server wires handlers, middleware and dependencies into a fiber app.
package server

import (
	"log/slog"
	"strings"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/auth"
	"sitedesk-backend/internal/blob"
	"sitedesk-backend/internal/config"
	"sitedesk-backend/internal/dashboard"
	"sitedesk-backend/internal/expense"
	"sitedesk-backend/internal/inventory"
	"sitedesk-backend/internal/logger"
	"sitedesk-backend/internal/metrics"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/note"
	"sitedesk-backend/internal/photo"
	"sitedesk-backend/internal/report"
	"sitedesk-backend/internal/site"
	"sitedesk-backend/internal/stock"
	"sitedesk-backend/internal/store"
	"sitedesk-backend/internal/workforce"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Deps struct {
	Config  *config.Config
	Store   *store.Store
	Blobs   blob.Store
	Log     *slog.Logger
	Metrics *metrics.Metrics // nil disables /metrics
}

// New builds the app with every route registered.
func New(d Deps) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		AppName:      "sitedesk-backend",
		ErrorHandler: api.ErrorHandler(d.Log),
		BodyLimit:    cfg.Upload.MaxBytes + 1<<20,
		ReadTimeout:  30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.Requests(d.Log))
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Origins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}

	var observer stock.Observer
	if d.Metrics != nil {
		observer = d.Metrics
	}
	ledger := stock.NewLedger(d.Store, d.Log, observer)
	aw := audit.NewWriter(d.Store.AuditLogs, d.Log)
	st := d.Store

	r := app.Group("/api")

	// Public auth
	r.Post("/auth/login", auth.LoginHandler(st.Users, cfg.JWT.Secret, cfg.JWT.TTL))

	// Protected
	p := r.Group("")
	p.Use(auth.JWTMiddleware(cfg.JWT.Secret))
	p.Get("/auth/me", auth.MeHandler(st.Users))

	// Sites
	p.Post("/sites", site.CreateSiteHandler(st, aw))
	p.Get("/sites", site.ListSitesHandler(st))
	p.Get("/sites/:id", site.GetSiteHandler(st))
	p.Put("/sites/:id", site.UpdateSiteHandler(st, aw))
	p.Delete("/sites/:id", site.DeleteSiteHandler(st, aw))
	p.Get("/sites/:id/materials", inventory.ListSiteMaterialsHandler(st))
	p.Get("/sites/:id/materials/low-stock", inventory.LowStockHandler(st))
	p.Post("/sites/:id/materials/import", inventory.ImportMaterialsHandler(st, aw))
	p.Get("/sites/:id/dashboard", dashboard.SiteDashboardHandler(st))
	p.Get("/sites/:id/trend", dashboard.SiteTrendHandler(st))
	p.Get("/sites/:id/report", report.SiteReportHandler(st))

	// Materials and ledger
	p.Post("/materials", inventory.CreateMaterialHandler(st, aw))
	p.Get("/materials", inventory.ListMaterialsHandler(st))
	p.Get("/materials/:id", inventory.GetMaterialHandler(st))
	p.Put("/materials/:id", inventory.UpdateMaterialHandler(st, aw))
	p.Delete("/materials/:id", inventory.DeleteMaterialHandler(st, aw))
	p.Get("/materials/:id/transactions", inventory.ListMaterialTransactionsHandler(st))

	p.Post("/transactions", inventory.CreateTransactionHandler(ledger, aw))
	p.Get("/transactions", inventory.ListTransactionsHandler(st))
	p.Get("/transactions/:id", inventory.GetTransactionHandler(st))

	// Workforce
	p.Post("/workers", workforce.CreateWorkerHandler(st, aw))
	p.Get("/workers", workforce.ListWorkersHandler(st))
	p.Get("/workers/:id", workforce.GetWorkerHandler(st))
	p.Put("/workers/:id", workforce.UpdateWorkerHandler(st, aw))
	p.Delete("/workers/:id", workforce.DeleteWorkerHandler(st, aw))

	p.Post("/attendance", workforce.CreateAttendanceHandler(st, aw))
	p.Get("/attendance", workforce.ListAttendanceHandler(st))
	p.Get("/attendance/:id", workforce.GetAttendanceHandler(st))
	p.Put("/attendance/:id", workforce.UpdateAttendanceHandler(st, aw))
	p.Delete("/attendance/:id", workforce.DeleteAttendanceHandler(st, aw))

	// Expenses
	p.Post("/expenses", expense.CreateExpenseHandler(st, aw))
	p.Get("/expenses", expense.ListExpensesHandler(st))
	p.Get("/expenses/summary/monthly", expense.MonthlyExpenseSummaryHandler(st))
	p.Get("/expenses/:id", expense.GetExpenseHandler(st))
	p.Put("/expenses/:id", expense.UpdateExpenseHandler(st, aw))
	p.Delete("/expenses/:id", expense.DeleteExpenseHandler(st, aw))

	// Photos
	pd := photo.Deps{Store: st, Blobs: d.Blobs, Audit: aw, Log: d.Log, MaxBytes: cfg.Upload.MaxBytes}
	p.Post("/photos", photo.CreatePhotoHandler(pd))
	p.Post("/photos/upload", photo.UploadPhotoHandler(pd))
	p.Post("/photos/:id/import", photo.ImportPhotoHandler(pd))
	p.Get("/photos", photo.ListPhotosHandler(pd))
	p.Get("/photos/:id", photo.GetPhotoHandler(pd))
	p.Get("/photos/:id/image", photo.ServePhotoHandler(pd, false))
	p.Get("/photos/:id/thumbnail", photo.ServePhotoHandler(pd, true))
	p.Put("/photos/:id", photo.UpdatePhotoHandler(pd))
	p.Delete("/photos/:id", photo.DeletePhotoHandler(pd))

	// Notes
	p.Post("/notes", note.CreateNoteHandler(st, aw))
	p.Get("/notes", note.ListNotesHandler(st))
	p.Get("/notes/:id", note.GetNoteHandler(st))
	p.Put("/notes/:id", note.UpdateNoteHandler(st, aw))
	p.Delete("/notes/:id", note.DeleteNoteHandler(st, aw))

	// Dashboard
	p.Get("/dashboard", dashboard.OverviewHandler(st))

	// Audit log
	p.Get("/audit-logs", auth.RequireRole(models.RoleAdmin), audit.ListAuditLogsHandler(st.AuditLogs))

	return app
}
