package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quarters/config"
	"quarters/internal/admin"
	"quarters/internal/approval"
	"quarters/internal/audit"
	"quarters/internal/auth"
	"quarters/internal/billing"
	"quarters/internal/db"
	"quarters/internal/health"
	"quarters/internal/logs"
	"quarters/internal/middleware"
	"quarters/internal/models"
	"quarters/internal/notify"
	"quarters/internal/payments"
	"quarters/internal/render"
	"quarters/internal/repo"
	"quarters/internal/seal"
	"quarters/internal/signatures"
	"quarters/internal/throttle"
	"quarters/internal/token"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	Hub *notify.Hub

	ctx    context.Context
	cancel context.CancelFunc
}

func migrate(d *gorm.DB) error {
	return d.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Unit{},
		&models.LeaseTemplate{},
		&models.Lease{},
		&models.LeaseTenant{},
		&models.Charge{},
		&models.Signature{},
		&models.AuditEvent{},
		&throttle.Attempt{},
	)
}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB */
	d, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("db open failed: %w", err)
	}
	a.db = d
	if err := migrate(a.db); err != nil {
		return fmt.Errorf("db migrate failed: %w", err)
	}

	/* 3) Хранилища и сервисы */
	leases := repo.NewLeaseStore(a.db)
	charges := repo.NewChargeStore(a.db)
	sigs := repo.NewSignatureStore(a.db)
	users := repo.NewUserStore(a.db)
	audits := repo.NewAuditStore(a.db)
	templates := repo.NewTemplateStore(a.db)

	tokens := token.New(a.cfg.Auth.JWTSecret)
	recorder := audit.NewRecorder(audits)
	a.Hub = notify.NewHub()
	mailer := notify.LogMailer{}

	renderer := render.New(leases)
	blobs := seal.FSStore{Root: a.cfg.Documents.Dir}
	sealer := seal.New(seal.TextStamper{}, blobs, a.cfg.Documents.Template)

	approvalSvc := approval.New(leases, users, tokens, renderer, sealer, recorder, mailer, a.Hub, a.cfg.Approval.InviteTTL)
	collector := signatures.NewCollector(leases, sigs, recorder, a.Hub)
	generator := billing.NewGenerator(leases, charges, mailer)
	reconciler := payments.NewReconciler(charges, recorder, a.cfg.Payments.WebhookSecret, a.cfg.Payments.Tolerance)
	limiter := throttle.NewLimiter(a.db, a.cfg.Auth.LoginMaxAttempts, a.cfg.Auth.LoginBlockWindow)
	authSvc := auth.New(users, tokens, limiter, recorder, a.cfg.Auth.SessionTTL)
	exporter := audit.NewExporter(audits, leases)

	/* 4) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	health.RegisterRoutesWithDB(a.Router, a.db) // /healthz, /readyz

	auth.RegisterRoutes(a.Router, auth.NewHandler(authSvc))
	approval.RegisterRoutes(a.Router, approval.NewHandler(approvalSvc), tokens)
	signatures.RegisterRoutes(a.Router, signatures.NewHandler(collector), tokens)
	billing.RegisterRoutes(a.Router, billing.NewHandler(generator, charges, recorder), tokens)
	payments.RegisterRoutes(a.Router, payments.NewHandler(reconciler))
	audit.RegisterRoutes(a.Router, audit.NewHandler(exporter), tokens)

	admin.Attach(a.Router, admin.Dependencies{
		DB:        a.db,
		Leases:    leases,
		Charges:   charges,
		Templates: templates,
		Approval:  approvalSvc,
		Collector: collector,
		Generator: generator,
		Docs:      blobs,
		CFG:       a.cfg,
	})

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := rt.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		logs.Logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}

// NewChargeGenerator — обвязка для batch-команды `charges generate`:
// открывает БД и собирает генератор без HTTP-части.
func NewChargeGenerator(cfg *config.Config) (*billing.Generator, func(), error) {
	logs.Init(logs.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File})

	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open failed: %w", err)
	}
	if err := migrate(d); err != nil {
		return nil, nil, fmt.Errorf("db migrate failed: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := d.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	gen := billing.NewGenerator(repo.NewLeaseStore(d), repo.NewChargeStore(d), notify.LogMailer{})
	return gen, closeFn, nil
}
