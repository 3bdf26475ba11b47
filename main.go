package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"kmj_screener/config"
	"kmj_screener/logger"
	"kmj_screener/middleware"
	"kmj_screener/models"
	"kmj_screener/routes"
	"kmj_screener/scheduler"
	"kmj_screener/services/analysis"
	"kmj_screener/services/datafetcher"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// dbInitialized tracks whether database has been successfully initialized
// so the /ready endpoint can report it
var dbInitialized bool
var dbInitMutex sync.RWMutex

// app holds what the background initializer creates and shutdown releases
type app struct {
	mu        sync.Mutex
	scheduler *scheduler.Scheduler
	cache     *datafetcher.SQLiteCache
	stop      chan struct{}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if err := logger.Init(logger.Config{
		Level:         cfg.LogLevel,
		Format:        cfg.LogFormat,
		Dir:           cfg.LogDir,
		RotationSize:  100,
		RetentionDays: 30,
		ServiceName:   "kmj-screener",
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().Str("environment", cfg.Environment).Msg("KMJ Screener API starting")

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(logger.NewAccessLogger(cfg.LogDir, 100, 30), time.Second))

	// Health endpoints come first so health checks succeed while the database connects
	setupHealthEndpoints(router)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	a := &app{stop: make(chan struct{})}

	// Initialize database and setup routes in background
	go func() {
		db, err := config.InitDB()
		if err != nil {
			log.Error().Err(err).Msg("Database connection failed, serving health checks only")
			return
		}

		log.Info().Msg("Running database migrations...")
		if err := models.MigrateStockModels(db); err != nil {
			log.Error().Err(err).Msg("Migration failed")
		} else {
			log.Info().Msg("Database migrations completed successfully")
		}

		dbInitMutex.Lock()
		dbInitialized = true
		dbInitMutex.Unlock()

		a.start(cfg, db, router)
		log.Info().Msg("Application fully initialized with database")
	}()

	gracefulShutdown(server, a)
}

// start wires the data pipeline, API routes and scheduler
func (a *app) start(cfg *config.Config, db *gorm.DB, router *gin.Engine) {
	a.mu.Lock()
	defer a.mu.Unlock()

	fetcher := datafetcher.NewDataFetcher(buildSource(cfg), a.openCache(cfg), datafetcher.NewGormPriceWriter(db), buildLister(cfg))

	store := analysis.NewGormPriceStore(db)
	analyzer := analysis.NewTechnicalAnalysis(store, cfg.HistoryDays, cfg.ScoreWorkers)

	a.scheduler = scheduler.NewScheduler(fetcher, cfg.HistoryDays, cfg.SyncAt, cfg.Location())
	if err := a.scheduler.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to start scheduler")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	limiter.StartCleanup(5*time.Minute, a.stop)

	routes.SetupRoutes(router, routes.Deps{
		Stocks:      store,
		Analyzer:    analyzer,
		Sync:        a.scheduler,
		RateLimiter: limiter,
		JWTSecret:   cfg.JWTSecret,
	})
}

// openCache returns a nil interface when the cache cannot be opened
func (a *app) openCache(cfg *config.Config) datafetcher.BarCache {
	cache, err := datafetcher.NewSQLiteCache(cfg.CachePath, cfg.CacheTTL)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.CachePath).Msg("Price cache disabled")
		return nil
	}
	a.cache = cache
	return cache
}

func newProvider(cfg *config.Config, i int) *datafetcher.HTTPProvider {
	p := datafetcher.NewHTTPProvider(fmt.Sprintf("source-%d", i+1), cfg.PriceAPIURLs[i])
	p.LoginPath = cfg.PriceAPILoginPath
	p.LogoutPath = cfg.PriceAPILogoutPath
	return p
}

// buildSource chains the configured price APIs in priority order
func buildSource(cfg *config.Config) *datafetcher.MultiSource {
	if len(cfg.PriceAPIURLs) == 0 {
		log.Warn().Msg("PRICE_API_URLS is empty, history sync will fail")
	}
	providers := make([]datafetcher.Provider, len(cfg.PriceAPIURLs))
	for i := range cfg.PriceAPIURLs {
		providers[i] = newProvider(cfg, i)
	}
	return datafetcher.NewMultiSource(providers...)
}

// buildLister uses the primary source for the stock list
func buildLister(cfg *config.Config) datafetcher.Lister {
	if len(cfg.PriceAPIURLs) == 0 {
		return nil
	}
	return newProvider(cfg, 0)
}

// setupHealthEndpoints sets up health check endpoints
func setupHealthEndpoints(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "KMJ Screener API",
			"version": "1.0.0",
		})
	})

	// Liveness check - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness check - checks if service is ready to receive traffic
	router.GET("/ready", func(c *gin.Context) {
		dbInitMutex.RLock()
		isDBReady := dbInitialized
		dbInitMutex.RUnlock()

		if !isDBReady {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database not connected",
			})
			return
		}

		sqlDB, err := config.DB.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database connection error",
			})
			return
		}
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database ping failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})
}

// gracefulShutdown handles graceful shutdown of the server
func gracefulShutdown(server *http.Server, a *app) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	a.mu.Lock()
	close(a.stop)
	// Stop scheduler first so no sync writes after the database closes
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close price cache")
		}
	}

	if config.DB != nil {
		sqlDB, err := config.DB.DB()
		if err == nil {
			sqlDB.Close()
			log.Info().Msg("Database connection closed")
		}
	}

	log.Info().Msg("Server shutdown completed")
}
