package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/DavidGamba/go-getoptions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/compliance-api/internal/bootstrap"
	"github.com/jwalitptl/compliance-api/internal/config"
	"github.com/jwalitptl/compliance-api/internal/handler/health"
	promhandler "github.com/jwalitptl/compliance-api/internal/handler/prometheus"
	"github.com/jwalitptl/compliance-api/internal/service/questionnaire"
	"github.com/jwalitptl/compliance-api/internal/service/timeline"
	"github.com/jwalitptl/compliance-api/internal/worker"
	"github.com/jwalitptl/compliance-api/pkg/logger"
)

type commandLine struct {
	Config  string
	RunOnce string
}

func parseCommandLine() commandLine {
	var values commandLine
	opt := getoptions.New()
	opt.Bool("help", false, opt.Alias("h", "?"))
	opt.StringVar(&values.Config, "config", "",
		opt.Alias("c"),
		opt.Description("the path to config.yaml; the default search paths are used when empty"))
	opt.StringVar(&values.RunOnce, "run-once", "",
		opt.ArgName("job"),
		opt.Description("run one job now and exit: timeline, reminder or audit-cleanup"))

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
	return values
}

func main() {
	cmd := parseCommandLine()

	cfg, err := config.LoadConfig(cmd.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := bootstrap.NewLogger(cfg.Log)
	appMetrics, registry := bootstrap.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		appLogger.Fatal(err, "invalid scheduler timezone")
	}

	core, err := bootstrap.NewCore(ctx, cfg, appLogger, appMetrics)
	if err != nil {
		appLogger.Fatal(err, "failed to initialize dependencies")
	}
	defer core.Close()

	clock := timeline.SystemClock{Location: loc}
	refresh := timeline.NewRefreshService(core.Projects, timeline.NewPolicy(clock), appLogger, appMetrics)
	reminders := questionnaire.NewReminderService(core.Questionnaire, core.Registry, clock, appLogger, appMetrics)
	auditCleanup := worker.NewAuditCleanupWorker(core.Audit, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval, appLogger, appMetrics)

	jobs := map[string]worker.Job{
		timeline.JobName: {Name: timeline.JobName, Run: func(ctx context.Context) error {
			_, err := refresh.Run(ctx)
			return err
		}},
		questionnaire.JobName: {Name: questionnaire.JobName, Run: func(ctx context.Context) error {
			_, err := reminders.Run(ctx)
			return err
		}},
	}

	if cmd.RunOnce != "" {
		os.Exit(runOnce(ctx, cmd.RunOnce, jobs, auditCleanup, appLogger))
	}

	var runners []*worker.DailyRunner
	if cfg.Scheduler.TimelineEnable {
		runners = append(runners, mustRunner(jobs[timeline.JobName], cfg.Scheduler.TimelineAt, loc, appLogger))
	}
	if cfg.Scheduler.ReminderEnable {
		runners = append(runners, mustRunner(jobs[questionnaire.JobName], cfg.Scheduler.ReminderAt, loc, appLogger))
	}

	srv := healthServer(cfg, core, registry)
	go func() {
		appLogger.Info("health server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(err, "health check server failed")
			stop()
		}
	}()

	var wg sync.WaitGroup
	for _, r := range runners {
		wg.Add(1)
		go func(r *worker.DailyRunner) {
			defer wg.Done()
			r.Start(ctx)
		}(r)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		auditCleanup.Start(ctx)
	}()

	<-ctx.Done()
	appLogger.Info("shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "health server forced to shutdown")
	}
	wg.Wait()
	appLogger.Info("worker exited properly")
}

func runOnce(ctx context.Context, name string, jobs map[string]worker.Job, cleanup *worker.AuditCleanupWorker, l *logger.Logger) int {
	switch name {
	case "timeline":
		name = timeline.JobName
	case "reminder":
		name = questionnaire.JobName
	case "audit-cleanup":
		if _, err := cleanup.Cleanup(ctx); err != nil {
			l.Error(err, "audit cleanup failed")
			return 1
		}
		return 0
	}

	job, ok := jobs[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown job %q: expected timeline, reminder or audit-cleanup\n", name)
		return 2
	}
	runner, err := worker.NewDailyRunner(job, "00:00", time.UTC, l)
	if err != nil {
		l.Error(err, "invalid job")
		return 1
	}
	if err := runner.RunOnce(ctx); err != nil {
		return 1
	}
	return 0
}

func mustRunner(job worker.Job, at string, loc *time.Location, l *logger.Logger) *worker.DailyRunner {
	r, err := worker.NewDailyRunner(job, at, loc, l)
	if err != nil {
		l.Fatal(err, "invalid schedule", "job", job.Name)
	}
	return r
}

// healthServer exposes liveness, readiness and the job metrics.
func healthServer(cfg *config.Config, core *bootstrap.Core, registry *prometheus.Registry) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	health.NewHandler(map[string]health.Pinger{
		"database": core.DB,
	}).RegisterRoutes(engine)
	engine.GET("/metrics", promhandler.New(bootstrap.MetricsNamespace(), registry).Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HealthPort),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
