package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales-crm/internal/audit"
	"sales-crm/internal/auth"
	"sales-crm/internal/campaigns"
	"sales-crm/internal/config"
	"sales-crm/internal/contacts"
	"sales-crm/internal/events"
	"sales-crm/internal/httpapi"
	"sales-crm/internal/leads"
	"sales-crm/internal/messaging"
	"sales-crm/internal/metrics"
	"sales-crm/internal/optout"
	"sales-crm/internal/orgs"
	"sales-crm/internal/reporting"
	"sales-crm/internal/senders"
	"sales-crm/internal/store/postgres"
	"sales-crm/internal/templates"
	"sales-crm/internal/webhook"
	"sales-crm/pkg/logger"
	"sales-crm/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(rootCtx, db); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	var publisher events.Publisher = events.LogPublisher{}
	if cfg.Events.AMQPURL != "" {
		amqpPub, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			log.Error("amqp init failed", "err", err)
			os.Exit(1)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}

	if cfg.WhatsApp.PublicBaseURL == "" {
		log.Warn("PUBLIC_BASE_URL not set; relative template media URLs will be sent as-is")
	}

	// Repositories
	campaignRepo := postgres.NewCampaignRepo(db)
	contactRepo := postgres.NewContactRepo(db)
	templateRepo := postgres.NewTemplateRepo(db)
	senderRepo := postgres.NewSenderRepo(db)
	leadStore := postgres.NewLeadStore(db)
	orgRepo := postgres.NewOrgRepo(db)

	// Services
	gateway := messaging.NewCloudAPI(cfg.WhatsApp.GraphBaseURL, &http.Client{Timeout: cfg.WhatsApp.HTTPTimeout})
	auditSvc := audit.NewService(postgres.NewAuditRepo(db))
	contactSvc := contacts.NewService(contactRepo)
	templateSvc := templates.NewService(templateRepo)
	orgSvc := orgs.NewService(orgRepo, auditSvc)
	leadSvc := leads.NewService(leadStore, leads.NewResolver(leadStore))

	dispatchOpts := []campaigns.DispatcherOption{campaigns.WithPublisher(publisher)}
	if cfg.Dispatch.SendCapPerOrg > 0 {
		dispatchOpts = append(dispatchOpts, campaigns.WithLimiter(campaigns.NewRedisLimiter(rdb, cfg.Dispatch.SendCapPerOrg, cfg.Dispatch.SendCapTTL)))
	}
	dispatcher := campaigns.NewDispatcher(campaignRepo, contactRepo, templateRepo, senderRepo, gateway,
		templates.NewResolver(cfg.WhatsApp.PublicBaseURL), dispatchOpts...)

	guard := optout.NewGuard(contactRepo, auditSvc, gateway, publisher, optout.Confirmation{
		Name:     cfg.WhatsApp.OptOutTemplate,
		Language: cfg.WhatsApp.OptOutTemplateLang,
	})
	processor := webhook.NewProcessor(webhook.Deps{
		Statuses:  campaignRepo,
		Senders:   senderRepo,
		Owners:    orgSvc,
		Contacts:  contactRepo,
		OptOut:    guard,
		Leads:     leadSvc,
		Dedupe:    webhook.NewRedisDeduper(rdb, cfg.WhatsApp.InboundDedupeTTL),
		Publisher: publisher,
	})

	h := httpapi.Handlers{
		Campaigns:  campaigns.NewService(campaignRepo, contactRepo, contactSvc, templateRepo, senderRepo, auditSvc),
		Dispatcher: dispatcher,
		Reporting:  reporting.NewService(campaignRepo),
		Senders:    senders.NewService(senderRepo, gateway, templateSvc, auditSvc),
		Templates:  templateSvc,
		Contacts:   contactSvc,
		Leads:      leadSvc,
		Orgs:       orgSvc,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(metrics.Middleware())

	registerRoutes(r, auth.RequireAccessToken(authManager), h,
		webhook.NewHandler(cfg.WhatsApp.VerifyToken, cfg.WhatsApp.AppSecret, processor))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// campaign sends answer only once the loop is done
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	log.Info("shutdown complete")
}
