package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nstankic/tollcalc/server/internal/cache"
	"github.com/nstankic/tollcalc/server/internal/clients/osrm"
	"github.com/nstankic/tollcalc/server/internal/config"
	"github.com/nstankic/tollcalc/server/internal/handler"
	"github.com/nstankic/tollcalc/server/internal/lib/stations"
	"github.com/nstankic/tollcalc/server/internal/lib/tollmatrix"
	"github.com/nstankic/tollcalc/server/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	catalog, err := stations.LoadCatalog(cfg.Toll.StationsFile)
	if err != nil {
		log.Fatalw("failed to load station catalog", "file", cfg.Toll.StationsFile, "error", err)
	}
	log.Infow("station catalog loaded", "stations", catalog.Len())

	var storeOpts []tollmatrix.Option
	if cfg.Toll.StrictMatrixParsing {
		storeOpts = append(storeOpts, tollmatrix.WithStrictParsing())
	}
	store := tollmatrix.NewStore(cfg.Toll.Matrices, storeOpts...)

	osrmClient := osrm.NewClient(cfg.Routing.OSRMBaseURL)
	quoteCache := cache.New()

	service := services.NewTollService(catalog, store, osrmClient, quoteCache, &cfg.Toll, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	quoteCache.StartPeriodicCleanup(ctx, 10*time.Minute, log)

	// Warm the matrix cache up front so the first quote does not pay the
	// fetch latency; a cold start is not fatal, lazy loading covers it
	warmupCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if err := service.Warmup(warmupCtx); err != nil {
		log.Warnw("matrix warmup failed, matrices will load lazily", "error", err)
	}
	cancel()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CorsOrigins,
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Content-Type"},
	}))

	handler.NewTollHandler(service, log).RegisterRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Infow("toll calculation server starting", "port", cfg.Server.Port, "matrices", service.MatrixNames())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}
}
