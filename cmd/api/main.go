package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DavidGamba/go-getoptions"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/compliance-api/internal/bootstrap"
	"github.com/jwalitptl/compliance-api/internal/config"
	auditHandler "github.com/jwalitptl/compliance-api/internal/handler/audit"
	"github.com/jwalitptl/compliance-api/internal/handler/health"
	notificationHandler "github.com/jwalitptl/compliance-api/internal/handler/notification"
	promhandler "github.com/jwalitptl/compliance-api/internal/handler/prometheus"
	"github.com/jwalitptl/compliance-api/internal/middleware"
	"github.com/jwalitptl/compliance-api/internal/router"
	"github.com/jwalitptl/compliance-api/pkg/auth"
)

func parseCommandLine() string {
	var configPath string
	opt := getoptions.New()
	opt.Bool("help", false, opt.Alias("h", "?"))
	opt.StringVar(&configPath, "config", "",
		opt.Alias("c"),
		opt.Description("the path to config.yaml; the default search paths are used when empty"))

	_, err := opt.Parse(os.Args[1:])
	if opt.Called("help") {
		fmt.Fprint(os.Stderr, opt.Help())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
		fmt.Fprint(os.Stderr, opt.Help(getoptions.HelpSynopsis))
		os.Exit(1)
	}
	return configPath
}

func main() {
	cfg, err := config.LoadConfig(parseCommandLine())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := bootstrap.NewLogger(cfg.Log)
	appMetrics, registry := bootstrap.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := bootstrap.NewCore(ctx, cfg, appLogger, appMetrics)
	if err != nil {
		appLogger.Fatal(err, "failed to initialize dependencies")
	}
	defer core.Close()

	if cfg.Notification.SeedOnStartup {
		if _, err := core.Seeder.Seed(ctx); err != nil {
			appLogger.Fatal(err, "failed to seed notification templates")
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer))
	healthHandler := health.NewHandler(map[string]health.Pinger{
		"database": core.DB,
	})
	metricsHandler := promhandler.New(bootstrap.MetricsNamespace(), registry)
	notifications := notificationHandler.NewHandler(core.Notifications, core.Registry)

	r := router.NewRouter(
		authMiddleware,
		healthHandler,
		metricsHandler,
		router.RouterConfig{
			RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:      cfg.RateLimit.Burst,
			CORSConfig:     middleware.DefaultCORSConfig(),
			RequestTimeout: cfg.Server.WriteTimeout,
			MaxBodySize:    middleware.DefaultMaxBodySize,
			Mode:           gin.ReleaseMode,
		},
		notifications,
		auditHandler.NewHandler(core.Audit),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 5 * time.Second
}
