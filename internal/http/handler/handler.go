package handler

import (
	"database/sql"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"motodash/docs"
	"motodash/internal/apiclient"
	"motodash/internal/config"
	"motodash/internal/http/middleware"
	"motodash/internal/model"
	"motodash/internal/permission"
	"motodash/internal/service"
	"motodash/internal/storage"
	"motodash/internal/validation"
)

// Deps are the collaborators the routes are built from. WhatsApp, Reports,
// DB and Storage are optional.
type Deps struct {
	API       *apiclient.Client
	Sessions  Sessions
	Closings  ClosingService
	WhatsApp  WhatsAppSync
	Reports   service.ReportService
	Dashboard *service.DashboardService
	DB        *sql.DB
	Storage   storage.Storage
	Gatherer  prometheus.Gatherer
	Cookie    config.SessionConfig
	// Location buckets report date ranges; nil means UTC.
	Location *time.Location
}

func view(r permission.Resource) fiber.Handler {
	return middleware.Require(permission.P(r, permission.View))
}

func can(r permission.Resource, a permission.Action) fiber.Handler {
	return middleware.Require(permission.P(r, a))
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	var checks []Check
	if d.Storage != nil {
		checks = append(checks, Check{Name: "storage", Ping: d.Storage.Ping})
	}
	app.Get("/health", HealthCheck(d.DB, checks...))
	app.Get("/healthz", LivenessProbe())

	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}
		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		return swagger.HandlerDefault(c)
	})

	api := app.Group("/api")
	api.Post("/auth/login", Login(d.API, d.Sessions, d.Cookie))
	api.Post("/auth/logout", Logout(d.Sessions, d.Cookie))

	r := api.Group("", middleware.Session(d.Sessions, d.Cookie.CookieName))
	r.Get("/auth/me", Me())
	r.Patch("/auth/password", ChangePassword(d.API))

	r.Get("/dashboard", Dashboard(d.Dashboard))

	onOwnerChange := func(id string) { d.Sessions.InvalidateOwner(id) }
	registerResource[model.Owner, validation.OwnerForm, validation.OwnerUpdateForm](r, "/owners", d.API.Owners, permission.Owners, onOwnerChange)
	registerResource[model.User, validation.UserForm, validation.UserForm](r, "/users", d.API.Users, permission.Users, nil)
	registerResource[model.Vehicle, validation.VehicleForm, validation.VehicleForm](r, "/vehicles", d.API.Vehicles, permission.Vehicles, nil)
	registerResource[model.Loan, validation.LoanForm, validation.LoanForm](r, "/loans", d.API.Loans, permission.Loans, nil)
	r.Get("/loans/:id/installments", view(permission.Loans), LoanInstallments(d.API))
	registerResource[model.Installment, validation.InstallmentForm, validation.InstallmentForm](r, "/installments", d.API.Installments, permission.Installments, nil)
	registerResource[model.Expense, validation.ExpenseForm, validation.ExpenseForm](r, "/expenses", d.API.Expenses, permission.Expenses, nil)
	registerResource[model.Provider, validation.ProviderForm, validation.ProviderForm](r, "/providers", d.API.Providers, permission.Providers, nil)
	registerResource[model.CashFlowAccount, validation.CashFlowAccountForm, validation.CashFlowAccountForm](r, "/cash-flow/accounts", d.API.CashFlowAccounts, permission.CashFlow, nil)
	registerResource[model.CashFlowTransaction, validation.CashFlowTransactionForm, validation.CashFlowTransactionForm](r, "/cash-flow/transactions", d.API.CashFlowTransactions, permission.CashFlow, nil)
	registerResource[model.CashFlowTransfer, validation.CashFlowTransferForm, validation.CashFlowTransferForm](r, "/cash-flow/transfers", d.API.CashFlowTransfers, permission.CashFlow, nil)
	registerResource[model.CashFlowRule, validation.CashFlowRuleForm, validation.CashFlowRuleForm](r, "/cash-flow/rules", d.API.CashFlowRules, permission.CashFlow, nil)

	closings := r.Group("/closings")
	closings.Get("/", view(permission.Closings), ListResource(d.API.Closings))
	closings.Get("/pending", can(permission.Closings, permission.Create), PendingInstallments(d.Closings))
	closings.Post("/preview", can(permission.Closings, permission.Create), PreviewClosing(d.Closings))
	closings.Post("/", can(permission.Closings, permission.Create), SubmitClosing(d.Closings))
	closings.Get("/:id", view(permission.Closings), GetResource(d.API.Closings))

	wa := WhatsAppHandlers{API: d.API, Sync: d.WhatsApp}
	wag := r.Group("/whatsapp")
	wag.Get("/status", view(permission.WhatsApp), wa.Status())
	wag.Get("/logs", view(permission.WhatsApp), wa.Logs())
	wag.Post("/request-qr", can(permission.WhatsApp, permission.Edit), wa.RequestQR())
	wag.Post("/logout", can(permission.WhatsApp, permission.Edit), wa.Logout())
	wag.Post("/restart", can(permission.WhatsApp, permission.Edit), wa.Restart())

	r.Get("/permissions/me", MyPermissions())
	r.Get("/permissions/owners/:id", view(permission.Permissions), OwnerPermissions(d.API))
	r.Put("/permissions/owners/:id", can(permission.Permissions, permission.Edit), UpdateOwnerPermissions(d.API, d.Sessions))

	reports := r.Group("/reports")
	if d.Reports == nil {
		reports.Use(ReportsDisabled())
		return
	}
	reports.Post("/", can(permission.Reports, permission.Create), CreateReport(d.Reports, d.Location))
	reports.Get("/", view(permission.Reports), ListReports(d.Reports))
	reports.Get("/:id", view(permission.Reports), GetReport(d.Reports))
	reports.Get("/:id/download", view(permission.Reports), DownloadReport(d.Reports))
	reports.Delete("/:id", can(permission.Reports, permission.Delete), DeleteReport(d.Reports))
}
