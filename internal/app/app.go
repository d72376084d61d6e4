// Package app wires configuration into the store, clients and services the
// binaries run.
package app

import (
	"context"
	"database/sql"
	"fmt"

	httpapi "rentflow-backend/internal/api/http"
	"rentflow-backend/internal/config"
	"rentflow-backend/internal/esign"
	"rentflow-backend/internal/jobs"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/notify"
	"rentflow-backend/internal/pdf"
	"rentflow-backend/internal/renderer"
	"rentflow-backend/internal/repository"
	"rentflow-backend/internal/repository/postgres"
	"rentflow-backend/internal/security"
	"rentflow-backend/internal/service"
	"rentflow-backend/internal/storage"

	firebase "firebase.google.com/go/v4"
	_ "github.com/lib/pq"
	"google.golang.org/api/option"
)

// App is everything a binary needs, built from one Config.
type App struct {
	Config      *config.Config
	DB          *sql.DB
	Store       *postgres.Store
	Storage     storage.ObjectStorage
	API         httpapi.Services
	Jobs        *jobs.Services
	OutboxReady chan struct{}
	// Tokens is nil when bearer tokens are not configured.
	Tokens security.TokenManager
}

// OpenDatabase opens and pings the PostgreSQL pool.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")
	return db, nil
}

// NewFirebaseApp returns nil when neither firebase storage nor push
// notifications are configured.
func NewFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	if cfg.Storage.Type != "firebase" && !cfg.Firebase.PushEnabled {
		return nil, nil
	}
	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	fbCfg := &firebase.Config{
		ProjectID:     cfg.Firebase.ProjectID,
		StorageBucket: cfg.Firebase.StorageBucket,
	}
	fbApp, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	logger.Info("Firebase app initialized", "project_id", cfg.Firebase.ProjectID)
	return fbApp, nil
}

// New opens the database and builds every service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	service.DefaultTxOptions = repository.TxOptions{MaxWait: cfg.Transaction.MaxWait, Timeout: cfg.Transaction.Timeout}

	db, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := postgres.NewStore(db)
	if cfg.Database.Migrate {
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database schema applied")
	}

	a, err := build(ctx, cfg, store)
	if err != nil {
		db.Close()
		return nil, err
	}
	a.DB = db
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, store *postgres.Store) (*App, error) {
	fbApp, err := NewFirebaseApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := storage.New(ctx, storage.Config{
		Type:     cfg.Storage.Type,
		LocalDir: cfg.Storage.LocalDir,
		BaseURL:  cfg.Storage.BaseURL,
		Bucket:   cfg.Storage.Bucket,
	}, fbApp)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Document storage initialized", "type", cfg.Storage.Type)

	renderClient, err := renderer.NewClient(cfg.Renderer.BaseURL, cfg.Renderer.APIKey, cfg.Renderer.Timeout)
	if err != nil {
		return nil, err
	}
	var signer service.SignatureProvider
	if cfg.ESign.BaseURL != "" {
		esignClient, err := esign.NewClient(cfg.ESign.BaseURL, cfg.ESign.APIKey, cfg.ESign.Timeout)
		if err != nil {
			return nil, err
		}
		signer = esignClient
	} else {
		logger.Warn("E-signature provider not configured; signature requests will be rejected")
	}

	sink := notify.FanOut{notify.NewStoreSink(store.Notifications)}
	if cfg.Firebase.PushEnabled {
		push, err := notify.NewPushSink(ctx, fbApp)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize push notifications: %w", err)
		}
		sink = append(sink, push)
	}

	repos := store.Repositories
	outboxReady := make(chan struct{}, 1)
	seq := service.NewSequenceAllocator()
	entries := service.NewLedgerEntries(nil)

	bookingSvc := service.NewBookingService(store, repos, seq, entries, service.WithOutboxNotifier(outboxReady))
	documentSvc := service.NewDocumentService(store, repos, seq, renderClient, objects, pdf.NewPageReplacer(), signer, service.DocumentConfig{
		InvoiceTemplate:   cfg.Documents.InvoiceTemplate,
		AgreementTemplate: cfg.Documents.AgreementTemplate,
		AddendumTemplate:  cfg.Documents.AddendumTemplate,
		PollAttempts:      cfg.Documents.PollAttempts,
		PollInterval:      cfg.Documents.PollInterval,
	})
	emailSvc := service.NewEmailService(service.EmailConfig{
		APIKey:      cfg.SendGrid.APIKey,
		FromEmail:   cfg.SendGrid.FromEmail,
		FromName:    cfg.SendGrid.FromName,
		SandboxMode: cfg.SendGrid.SandboxMode,
	})

	var tokens security.TokenManager
	if cfg.Auth.TokenSecret != "" {
		tokens = security.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	}

	return &App{
		Tokens:  tokens,
		Config:  cfg,
		Store:   store,
		Storage: objects,
		API: httpapi.Services{
			Tenants:       service.NewTenantService(store, repos, seq),
			Bookings:      bookingSvc,
			Ledger:        service.NewLedgerService(store, repos, entries),
			Documents:     documentSvc,
			Notifications: service.NewNotificationService(store.Notifications),
		},
		Jobs: &jobs.Services{
			Booking:  bookingSvc,
			Document: documentSvc,
			Email:    emailSvc,
			Sink:     sink,
		},
		OutboxReady: outboxReady,
	}, nil
}

// Handler builds the HTTP API. Generated files are served only from local
// storage; firebase objects are fetched from the bucket directly.
func (a *App) Handler() *httpapi.Handler {
	var files storage.ObjectStorage
	if a.Config.Storage.Type == "local" {
		files = a.Storage
	}
	h := httpapi.NewHandler(a.API, files, !a.Config.IsProduction())
	if a.Tokens != nil {
		h.WithTokens(a.Tokens)
	}
	return h
}

// JobRunner builds the runner for the scheduled jobs.
func (a *App) JobRunner() *jobs.JobRunner {
	return jobs.NewJobRunner(a.Store, a.Store.Repositories, a.Jobs, a.Config)
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
