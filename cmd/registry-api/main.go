package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/anchoring"
	"bluetrust/registry-backend/internal/auth"
	"bluetrust/registry-backend/internal/certificates"
	"bluetrust/registry-backend/internal/config"
	"bluetrust/registry-backend/internal/export"
	"bluetrust/registry-backend/internal/ledger"
	"bluetrust/registry-backend/internal/marketplace"
	"bluetrust/registry-backend/internal/notifications"
	"bluetrust/registry-backend/internal/notifications/websocket"
	"bluetrust/registry-backend/internal/oracle"
	"bluetrust/registry-backend/internal/participants"
	"bluetrust/registry-backend/internal/projects"
	"bluetrust/registry-backend/internal/storage"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Ledger, optionally anchored to Stellar
	ledgerOpts := []ledger.Option{}
	if cfg.Stellar.IssuerSecretKey != "" {
		anchor, err := anchoring.NewStellarAnchor(anchoring.StellarConfig{
			HorizonURL:      cfg.Stellar.HorizonURL,
			IssuerSecretKey: cfg.Stellar.IssuerSecretKey,
			Network:         cfg.Stellar.Network,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create Stellar anchor", zap.Error(err))
		}
		ledgerOpts = append(ledgerOpts, ledger.WithAnchor(anchor))
		logger.Info("Ledger anchoring enabled", zap.String("network", cfg.Stellar.Network))
	}
	creditLedger := ledger.New(logger, ledgerOpts...)

	// Evidence oracle
	simCfg := oracle.DefaultSimulatorConfig()
	simCfg.Seed = cfg.Oracle.Seed
	simCfg.BaselineIndex = cfg.Oracle.BaselineIndex
	simCfg.SiteToleranceKm = cfg.Oracle.SiteToleranceKm
	simCfg.Latency = time.Duration(cfg.Oracle.LatencyMs) * time.Millisecond
	simulator := oracle.NewSimulator(simCfg, logger)

	// Services
	participantsService := participants.NewService(creditLedger, logger)
	projectsService := projects.NewService(
		projects.NewMemoryRepository(),
		simulator,
		creditLedger,
		projects.Config{
			CreditsPerHectare:   cfg.Credits.PerHectare,
			ConfidenceThreshold: cfg.Credits.ConfidenceThreshold,
			OracleTimeout:       time.Duration(cfg.Credits.OracleTimeoutSec) * time.Second,
		},
		logger,
	)
	marketService := marketplace.NewService(creditLedger, marketplace.Config{
		MinUnitPrice: cfg.Marketplace.MinUnitPrice,
		MaxUnitPrice: cfg.Marketplace.MaxUnitPrice,
	}, logger)

	wsManager := websocket.NewManager(logger)
	defer wsManager.Stop()
	events := notifications.NewService(wsManager, logger)

	authService := auth.NewService(cfg.Security.JWTSecret, cfg.Security.TokenExpiry)

	// Optional Postgres archive, flushed in the background
	if cfg.Database.Host != "" {
		archive, err := storage.NewArchiveStore(cfg.Database.GetDatabaseURL(), logger)
		if err != nil {
			logger.Warn("Archive store unavailable, continuing without archival", zap.Error(err))
		} else {
			defer archive.Close()
			stopFlusher := startArchiveFlusher(archive, creditLedger, projectsService, logger)
			defer stopFlusher()
		}
	}

	if os.Getenv("SEED_DEMO") != "false" {
		if err := seedDemo(participantsService, authService); err != nil {
			logger.Fatal("Failed to seed demo fixtures", zap.Error(err))
		}
		logger.Info("Demo fixtures loaded")
	}

	// Setup Router
	router := gin.Default()
	router.Use(corsMiddleware())

	// Register Routes
	api := router.Group("/api/v1")
	{
		auth.NewHandler(authService, logger).RegisterRoutes(api)
		projects.NewHandler(projectsService, simCfg.Catalog, events, logger).RegisterRoutes(api)
		marketplace.NewHandler(marketService, events, logger).RegisterRoutes(api)
		ledger.NewHandler(creditLedger, certificates.NewGenerator(), logger).RegisterRoutes(api)
		participants.NewHandler(participantsService, marketService, logger).RegisterRoutes(api)
		oracle.NewHandler(simulator, logger).RegisterRoutes(api)
		export.NewHandler(creditLedger, marketService, logger).RegisterRoutes(api)
		notifications.NewHandler(wsManager, logger).RegisterRoutes(api)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Registry API started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// startArchiveFlusher mirrors the audit log and project snapshots into the
// archive once a minute. The flush is idempotent, so overlap with the audit
// worker is harmless.
func startArchiveFlusher(archive *storage.ArchiveStore, l *ledger.Ledger, ps *projects.Service, logger *zap.Logger) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := archive.SaveEntries(ctx, l.Entries()); err != nil {
					logger.Warn("Archive flush failed", zap.Error(err))
				}
				if pending, err := ps.PendingVerifications(ctx); err == nil {
					for _, p := range pending {
						if err := archive.SaveProjectSnapshot(ctx, p); err != nil {
							logger.Warn("Project snapshot failed", zap.Error(err))
							break
						}
					}
				}
				cancel()
			}
		}
	}()
	return func() { close(done) }
}

// seedDemo loads the demo participants and their login accounts.
func seedDemo(ps *participants.Service, as *auth.Service) error {
	if err := ps.SeedDemo(); err != nil {
		return err
	}
	for _, ngo := range ps.NGOs() {
		if _, err := as.CreateAccount(ngo.Email, ngo.Name, "demo123", auth.RoleNGO, ngo.ID); err != nil {
			return err
		}
	}
	for _, company := range ps.Companies() {
		if _, err := as.CreateAccount(company.Email, company.Name, "demo123", auth.RoleCompany, company.ID); err != nil {
			return err
		}
	}
	for _, verifier := range ps.Verifiers() {
		if _, err := as.CreateAccount(verifier.Email, verifier.Name, "demo123", auth.RoleVerifier, verifier.ID); err != nil {
			return err
		}
	}
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
