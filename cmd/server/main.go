package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-pos-mart/internal/auth"
	"go-pos-mart/internal/catalog"
	"go-pos-mart/internal/config"
	"go-pos-mart/internal/database"
	"go-pos-mart/internal/handlers"
	"go-pos-mart/internal/kvstore"
	"go-pos-mart/internal/logger"
	"go-pos-mart/internal/metrics"
	"go-pos-mart/internal/middleware"
	"go-pos-mart/internal/receipt"
	"go-pos-mart/internal/sales"
	"go-pos-mart/internal/store"
)

const sweepEvery = 10 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer func() { _ = zl.Sync() }()

	// 1. Storage
	st, err := openStore(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	// 2. Core services
	svc := catalog.NewService(st, zl)
	salesMetrics := metrics.NewSalesMetrics()
	engine := sales.NewEngine(st,
		sales.WithLogger(zl),
		sales.WithMetrics(salesMetrics),
		sales.WithRetryPolicy(store.RetryPolicy{
			MaxRetries:   cfg.Sales.CommitRetries,
			InitialDelay: cfg.Sales.CommitInitialDelay,
			MaxDelay:     cfg.Sales.CommitMaxDelay,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Store.Seed {
		if err := svc.Seed(ctx); err != nil {
			zl.Fatal("Failed to seed sample data", zap.Error(err))
		}
	}

	sessions := sales.NewSessions(cfg.Session.TTL)
	go sessions.Run(ctx, sweepEvery)

	receipts := receipt.New(cfg.Receipt)

	// 3. HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), logger.GinMiddleware(zl), logger.Recovery(zl))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.SessionHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.GET("/metrics", gin.WrapH(salesMetrics.Handler()))

	handlers.New(handlers.Deps{
		Catalog:  svc,
		Engine:   engine,
		Sessions: sessions,
		Tokens:   auth.NewTokenIssuer(cfg.Session.Secret, cfg.Session.TTL),
		Receipts: receipts,
		Log:      zl,
		System: handlers.SystemInfo{
			AppName:     cfg.App.Name,
			StoreDriver: cfg.Store.Driver,
			TerminalID:  receipts.Terminal(),
		},
	}).Register(r)

	// --- DEPLOYMENT: Serve the built frontend ---
	if dir := cfg.HTTP.WebDir; dir != "" {
		r.Static("/assets", filepath.Join(dir, "assets"))
		// SPA Catch-All: a refresh on "/dashboard" gets index.html
		r.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
				return
			}
			c.File(filepath.Join(dir, "index.html"))
		})
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Store.Driver),
			zap.String("terminal", receipts.Terminal()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
	zl.Info("Server exited gracefully")
}

// openStore builds the storage adapter named by store.driver.
func openStore(cfg *config.Config, zl *zap.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case "mysql", "postgres", "sqlite":
		db, err := database.Connect(cfg.Store, cfg.Log.Level, zl)
		if err != nil {
			return nil, err
		}
		return database.New(db), nil
	case "redis":
		backend, err := kvstore.NewRedisBackend(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return kvstore.New(backend, cfg.Store.KeyPrefix), nil
	case "memory":
		zl.Warn("Using the in-memory store; data is lost on restart")
		return kvstore.New(kvstore.NewMemoryBackend(), cfg.Store.KeyPrefix), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
