package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/handler"
	"inkwell/internal/middleware"
	"inkwell/internal/repository/postgres"
	"inkwell/internal/service/embed"
	"inkwell/internal/service/intake"
	"inkwell/internal/service/parse"
	"inkwell/internal/service/store"
	"inkwell/internal/service/trash"
	"inkwell/internal/tagcache"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for session authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	pageRepo := postgres.NewPageRepository(repoConfig)
	sectionRepo := postgres.NewSectionRepository(repoConfig)
	noteRepo := postgres.NewNoteRepository(repoConfig)
	permRepo := postgres.NewPermissionRepository(repoConfig)
	userRepo := postgres.NewUserRepository(repoConfig)
	apiKeyRepo := postgres.NewAPIKeyRepository(repoConfig)
	boxRepo := postgres.NewBoxConfigRepository(repoConfig)
	trashRepo := postgres.NewTrashRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Optional tag cache
	var tagCache store.TagCache
	if cfg.RedisURL != "" {
		cache, err := tagcache.New(cfg.RedisURL, logger)
		if err != nil {
			logger.Warn("tag cache unavailable, projections will recompute", "error", err)
		} else {
			defer cache.Close()
			tagCache = cache
			logger.Info("tag cache connected")
		}
	}

	// Embedding sink
	sink := embed.NewSink(cfg.EmbedderURL, logger)
	if sink.Enabled() {
		logger.Info("embedding sink enabled", "url", cfg.EmbedderURL)
	}

	// Store services
	authorizer := store.NewAuthorizer(pageRepo, permRepo)
	pageService := store.NewPageService(pageRepo, permRepo, authorizer, tagCache, logger)
	sectionService := store.NewSectionService(sectionRepo, permRepo, authorizer, tagCache, logger)
	noteService := store.NewNoteService(noteRepo, sectionRepo, permRepo, authorizer, tagCache, sink, logger)
	tagService := store.NewTagService(noteRepo, tagCache, logger)
	shareService := store.NewShareService(permRepo, userRepo, authorizer, logger)
	syncService := store.NewSyncService(pageRepo, sectionRepo, noteRepo, txManager, tagCache, logger)
	boxService := store.NewBoxConfigService(boxRepo)
	trashService := trash.NewService(trashRepo, permRepo, txManager, tagCache, logger)

	// Parse client + intake coordinator
	parseRegistry, err := parse.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load parser profiles: %v", err)
	}
	parseClient, err := parse.NewClient(parse.ClientConfig{
		BaseURL: cfg.ParseURL,
		APIKey:  cfg.ParseAPIKey,
		Profile: cfg.ParseProfile,
		Timeout: cfg.ParseTimeout,
	}, parseRegistry, logger)
	if err != nil {
		log.Fatalf("Failed to create parse client: %v", err)
	}
	coordinator := intake.NewCoordinator(parseClient, pageService, sectionService, noteService, tagService, logger)

	// API keys
	apiKeyService := auth.NewAPIKeyService(apiKeyRepo, logger)

	logger.Info("services initialized")

	// Handlers
	pageHandler := handler.NewPageHandler(pageService, logger)
	sectionHandler := handler.NewSectionHandler(sectionService, pageService, logger)
	noteHandler := handler.NewNoteHandler(noteService, logger)
	tagHandler := handler.NewTagHandler(tagService, logger)
	trashHandler := handler.NewTrashHandler(trashService, logger)
	keyHandler := handler.NewAPIKeyHandler(apiKeyService, logger)
	syncHandler := handler.NewSyncHandler(syncService, logger)
	boxHandler := handler.NewBoxConfigHandler(boxService, logger)
	intakeHandler := handler.NewIntakeHandler(coordinator, logger)
	shareHandler := handler.NewShareHandler(shareService, logger)
	healthHandler := handler.NewHealthHandler(pool)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.HealthCheck)

	// API key lifecycle (session auth enforced in handler)
	mux.HandleFunc("POST /keys", keyHandler.IssueKey)
	mux.HandleFunc("GET /keys", keyHandler.ListKeys)
	mux.HandleFunc("DELETE /keys/{id}", keyHandler.RevokeKey)

	// Page routes
	mux.HandleFunc("GET /pages", pageHandler.ListPages)
	mux.HandleFunc("POST /pages", pageHandler.CreatePage)
	mux.HandleFunc("PATCH /pages/{id}", pageHandler.UpdatePage)
	mux.HandleFunc("DELETE /pages/{id}", pageHandler.DeletePage)

	// Section routes
	mux.HandleFunc("GET /sections", sectionHandler.ListSections)
	mux.HandleFunc("POST /sections", sectionHandler.CreateSection)
	mux.HandleFunc("PATCH /sections/{id}", sectionHandler.UpdateSection)
	mux.HandleFunc("DELETE /sections/{id}", sectionHandler.DeleteSection)

	// Note routes
	mux.HandleFunc("GET /notes", noteHandler.ListNotes)
	mux.HandleFunc("POST /notes", noteHandler.CreateNote)
	mux.HandleFunc("PATCH /notes/{id}", noteHandler.UpdateNote)
	mux.HandleFunc("DELETE /notes/{id}", noteHandler.DeleteNote)

	// Tag projection
	mux.HandleFunc("GET /tags", tagHandler.ListTags)

	// Trash (session auth enforced in handler)
	mux.HandleFunc("GET /trash", trashHandler.ListTrash)
	mux.HandleFunc("POST /trash", trashHandler.Restore)
	mux.HandleFunc("DELETE /trash", trashHandler.Empty)

	// Bulk reconcile
	mux.HandleFunc("POST /sync", syncHandler.Reconcile)

	// Box configs
	mux.HandleFunc("GET /boxes/{contextID}", boxHandler.GetBoxConfig)
	mux.HandleFunc("PUT /boxes/{contextID}", boxHandler.PutBoxConfig)

	// Natural-language intake
	mux.HandleFunc("POST /intake", intakeHandler.Submit)
	mux.HandleFunc("POST /intake/confirm", intakeHandler.Confirm)

	// Shares
	mux.HandleFunc("GET /shares", shareHandler.ListShares)
	mux.HandleFunc("POST /shares", shareHandler.GrantShare)
	mux.HandleFunc("PATCH /shares/{pageID}", shareHandler.RespondToShare)
	mux.HandleFunc("DELETE /shares/{pageID}", shareHandler.RevokeShare)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	httpHandler = middleware.Auth(jwtVerifier, apiKeyService, userRepo, logger)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
