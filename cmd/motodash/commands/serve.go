package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"motodash/internal/apiclient"
	"motodash/internal/closing"
	"motodash/internal/database"
	"motodash/internal/database/migration"
	handlers "motodash/internal/http/handler"
	"motodash/internal/http/middleware"
	"motodash/internal/otel"
	"motodash/internal/repository/postgres"
	"motodash/internal/service"
	"motodash/internal/session"
	"motodash/internal/storage"
	"motodash/internal/whatsapp"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api := apiclient.New(cfg.Backend)
	sessions := session.NewStore(api, time.Duration(cfg.Session.CacheTTLSec)*time.Second)

	db, err := openDatabase(ctx, reg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	var objStore storage.Storage
	if storage.Enabled(cfg.MinIO) {
		// Initialize reusable S3-compatible object storage client (MinIO-supported)
		m, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
		objStore = m
	}

	var reports service.ReportService
	if db != nil && objStore != nil {
		reports = service.NewReportService(
			service.NewAPIRowSource(api, cfg.Location()),
			objStore,
			postgres.NewReportExportPostgres(db),
			time.Duration(cfg.Reports.PresignExpirySec)*time.Second,
			log,
		)
	} else {
		log.WithField("event", "reports_disabled").Warn("report exports need both a database and object storage")
	}

	var (
		waSync  handlers.WhatsAppSync
		waState service.WhatsAppState
	)
	if cfg.WhatsApp.Enabled {
		s, err := startWhatsApp(ctx, api, reg)
		if err != nil {
			return err
		}
		waSync, waState = s, s
	}

	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(log),
		DisableStartupMessage: true,
	})

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(promMw.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		API:       api,
		Sessions:  sessions,
		Closings:  closing.NewService(api),
		WhatsApp:  waSync,
		Reports:   reports,
		Dashboard: service.NewDashboardService(api, waState),
		DB:        db,
		Storage:   objStore,
		Gatherer:  reg,
		Cookie:    cfg.Session,
		Location:  cfg.Location(),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"event": "server_start", "addr": addr}).Info("listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.WithField("event", "server_shutdown").Info("shutting down")
	return app.ShutdownWithTimeout(shutdownTimeout)
}

// openDatabase connects and migrates the report index. It returns a nil
// *sql.DB when no database is configured.
func openDatabase(ctx context.Context, reg prometheus.Registerer) (*sql.DB, error) {
	if !database.Enabled(cfg.Database) {
		return nil, nil
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if _, err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := database.RegisterStats(reg, db, cfg.Database.Name); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register db stats: %w", err)
	}
	return db, nil
}

// startWhatsApp seeds the state from REST and opens the event socket. Both
// use the service token; without one the REST seed is skipped.
func startWhatsApp(ctx context.Context, api *apiclient.Client, reg prometheus.Registerer) (*whatsapp.Sync, error) {
	dialer, err := whatsapp.NewWSDialer(cfg.Backend.BaseURL, cfg.WhatsApp.SocketPath, cfg.Backend.ServiceToken)
	if err != nil {
		return nil, err
	}
	s, err := whatsapp.NewSync(dialer, whatsapp.Options{
		MaxReconnectAttempts: cfg.WhatsApp.MaxReconnectAttempts,
		ReconnectDelay:       cfg.WhatsApp.ReconnectDelay(),
		Logger:               log,
		Registerer:           reg,
	})
	if err != nil {
		return nil, fmt.Errorf("register whatsapp metrics: %w", err)
	}

	if tok := cfg.Backend.ServiceToken; tok != "" {
		st, err := api.WhatsAppStatus(ctx, tok)
		if err != nil {
			log.WithFields(logrus.Fields{"component": "whatsapp", "error": err.Error()}).Warn("initial whatsapp status unavailable")
		} else {
			s.Reconcile(*st)
		}
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
