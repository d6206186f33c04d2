package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/glindberg2000/ella-ai-sub000/internal/config"
	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
	"github.com/glindberg2000/ella-ai-sub000/internal/handler"
	"github.com/glindberg2000/ella-ai-sub000/internal/provider"
	"github.com/glindberg2000/ella-ai-sub000/internal/repository"
	"github.com/glindberg2000/ella-ai-sub000/internal/service"
	"github.com/glindberg2000/ella-ai-sub000/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra     Infrastructure
	config    *config.Config
	router    *gin.Engine
	server    *http.Server
	scheduler *service.PollingScheduler
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	metrics, err := observability.NewMetrics(infra.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	repos := repository.NewRepositories(infra.Postgres())
	clock := service.NewClock()

	credentials := service.NewCredentialManager(
		repos.Credential,
		cfg.OAuth,
		service.CredentialRetryPolicy(provider.IsTransient),
		clock,
		infra.Logger(),
		metrics,
	)

	timeout := cfg.Providers.RequestTimeout.Duration
	calendarClient := provider.NewCalendarClient(cfg.Providers.CalendarBaseURL, timeout, credentials.LazyClient(domain.ProviderCalendar))
	contentClient := provider.NewContentClient(cfg.Providers.ContentBaseURL, timeout)
	emailClient := provider.NewEmailClient(cfg.Providers.EmailBaseURL, timeout, credentials.LazyClient(domain.ProviderEmail))
	smsClient := provider.NewSMSClient(cfg.Providers.SMSBaseURL, timeout)
	voiceClient := provider.NewVoiceClient(cfg.Providers.VoiceBaseURL, timeout)

	ledger := service.NewDispatchLedger(infra.Redis(), cfg.Scheduler.LedgerRetention.Duration)
	computer := service.NewReminderComputer(cfg.Scheduler.DueGrace.Duration)
	conflicts := service.NewConflictChecker(calendarClient, clock, infra.Logger())

	router := service.NewDispatchRouter(
		contentClient,
		emailClient,
		smsClient,
		voiceClient,
		service.DefaultRetryPolicy(provider.IsTransient),
		infra.Logger(),
		metrics,
	)

	scheduler := service.NewPollingScheduler(
		repos.User,
		calendarClient,
		computer,
		ledger,
		router,
		clock,
		service.SchedulerOptions{
			PollInterval:    cfg.Scheduler.PollInterval.Duration,
			LookAhead:       cfg.Scheduler.LookAhead.Duration,
			DueGrace:        cfg.Scheduler.DueGrace.Duration,
			DefaultTimezone: cfg.Scheduler.DefaultTimezone,
		},
		infra.Logger(),
		metrics,
	)

	events := service.NewEventService(
		repos.User,
		calendarClient,
		conflicts,
		computer,
		router,
		ledger,
		clock,
		cfg.Scheduler.DefaultTimezone,
		infra.Logger(),
	)

	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)
	eventHandler := handler.NewEventHandler(events)

	engine := gin.Default()
	engine.Use(otelgin.Middleware("assistant-backend"))
	engine.Use(handler.LoggerMiddleware(infra.Logger()))
	engine.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(engine, cfg, eventHandler, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:     infra,
		config:    cfg,
		router:    engine,
		server:    srv,
		scheduler: scheduler,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	eventHandler *handler.EventHandler,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/status", healthChecker.Handler)

	rateLimit := handler.RateLimitMiddleware(
		rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.CallerKey,
	)

	api := router.Group("/")
	api.Use(handler.APIKeyMiddleware(cfg.Security.APIKey))
	{
		api.POST("/schedule_event", rateLimit, eventHandler.ScheduleEvent)
		api.GET("/events", eventHandler.ListEvents)
		api.PUT("/events/:event_id", rateLimit, eventHandler.UpdateEvent)
		api.DELETE("/events/:event_id", rateLimit, eventHandler.DeleteEvent)
		api.POST("/send_reminder", rateLimit, eventHandler.SendReminder)
		api.POST("/share_calendar", rateLimit, eventHandler.ShareCalendar)
	}
}

// Run starts the HTTP server and the reminder polling loop, and blocks
// until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	schedCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()

	schedDone := make(chan error, 1)
	go func() {
		schedDone <- a.scheduler.Run(schedCtx)
	}()

	errChan := make(chan error, 1)
	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	stopScheduler()
	<-schedDone

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
