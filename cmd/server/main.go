package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/Yearfield/lorien/internal/auth"
	"github.com/Yearfield/lorien/internal/config"
	"github.com/Yearfield/lorien/internal/handler"
	"github.com/Yearfield/lorien/internal/hierarchy"
	"github.com/Yearfield/lorien/internal/middleware"
	"github.com/Yearfield/lorien/internal/repository/postgres"
	postgresTree "github.com/Yearfield/lorien/internal/repository/postgres/tree"
	postgresBuilder "github.com/Yearfield/lorien/internal/repository/postgres/vmbuilder"
	serviceTree "github.com/Yearfield/lorien/internal/service/tree"
	serviceBuilder "github.com/Yearfield/lorien/internal/service/vmbuilder"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// JWT verifier; without a JWKS URL in dev the auth middleware falls
	// back to the X-Actor header
	var jwtVerifier auth.JWTVerifier
	if cfg.JWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		jwtVerifier = verifier
	} else if cfg.Environment != "dev" {
		log.Fatal("JWKS_URL is required outside dev")
	} else {
		logger.Warn("DEV MODE: JWT auth disabled, actor taken from X-Actor header")
	}

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Hierarchy shape registry
	registry, err := hierarchy.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load hierarchy registry: %v", err)
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgresTree.NewNodeRepository(repoConfig)
	draftRepo := postgresBuilder.NewDraftRepository(repoConfig)
	auditRepo := postgresBuilder.NewAuditRepository(repoConfig)
	opLogger := postgresBuilder.NewOperationLogger(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Create services
	draftService := serviceBuilder.NewDraftService(draftRepo, nodeRepo, auditRepo, registry, logger)
	publisher := serviceBuilder.NewPublisher(draftRepo, nodeRepo, auditRepo, txManager, opLogger, logger)
	auditReader := serviceBuilder.NewAuditReader(auditRepo)
	treeService := serviceTree.NewTreeService(nodeRepo, registry, logger)

	// Create handlers
	draftHandler := handler.NewDraftHandler(draftService, publisher, auditReader, logger)
	treeHandler := handler.NewTreeHandler(treeService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", treeHandler.HealthCheck)

	// Draft routes
	mux.HandleFunc("POST /api/drafts", draftHandler.CreateDraft)
	mux.HandleFunc("GET /api/drafts", draftHandler.ListDrafts)
	mux.HandleFunc("GET /api/drafts/{id}", draftHandler.GetDraft)
	mux.HandleFunc("PUT /api/drafts/{id}", draftHandler.UpdateDraft)
	mux.HandleFunc("POST /api/drafts/{id}/plan", draftHandler.PlanDraft)
	mux.HandleFunc("POST /api/drafts/{id}/publish", draftHandler.PublishDraft)
	mux.HandleFunc("GET /api/drafts/{id}/audit", draftHandler.GetAudit)

	// Tree routes
	mux.HandleFunc("GET /api/tree/roots", treeHandler.GetRoots) // Must come before {id} route
	mux.HandleFunc("GET /api/tree/{id}/children", treeHandler.GetChildren)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	httpHandler = middleware.Auth(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Actor"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, httpHandler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
