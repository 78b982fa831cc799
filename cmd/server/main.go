package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/example/campmeeting/internal/api"
	"github.com/example/campmeeting/internal/client"
	"github.com/example/campmeeting/internal/config"
	"github.com/example/campmeeting/internal/core"
	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/identity"
	"github.com/example/campmeeting/internal/metrics"
	"github.com/example/campmeeting/internal/middleware"
	"github.com/example/campmeeting/internal/notify"
	"github.com/example/campmeeting/internal/render"
	"github.com/example/campmeeting/internal/seed"
	"github.com/example/campmeeting/internal/subscription"
)

func main() {
	// .env is for local development only; release deployments set the environment directly.
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: no .env file loaded:", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	zapLogger, err := newLogger(appConfig)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	zapLogger.Info("Application configuration loaded", zap.String("store", appConfig.StoreBackend))

	// --- Backends ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	store, clients, err := openStore(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize document store", zap.Error(err))
	}
	defer store.Close()

	var ids *identity.Service
	if clients != nil && clients.Auth != nil && appConfig.FirebaseWebAPIKey != "" {
		toolkit, err := identity.NewToolkit(initCtx, appConfig.FirebaseWebAPIKey, option.WithUserAgent("campmeeting"))
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to create identity toolkit client", zap.Error(err))
		}
		ids = identity.NewService(toolkit, clients.Auth, identity.OAuthConfig{
			ClientID:     appConfig.GoogleOAuthClientID,
			ClientSecret: appConfig.GoogleOAuthClientSecret,
			RedirectURL:  appConfig.GoogleOAuthRedirectURL,
		}, zapLogger.Named("identity"))
	}

	var scheduleRepo db.ScheduleRepository = db.NewScheduleRepository(store)
	if appConfig.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: appConfig.RedisAddr, Password: appConfig.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(initCtx).Err(); err != nil {
			zapLogger.Warn("Redis unreachable; schedule reads fall through to the store", zap.Error(err))
		}
		scheduleRepo = db.NewCachedScheduleRepository(scheduleRepo, rdb, appConfig.ScheduleCacheTTL, zapLogger.Named("cache"))
		zapLogger.Info("Schedule cache enabled", zap.String("addr", appConfig.RedisAddr))
	}

	notifier, closeNotifier := newNotifier(appConfig, zapLogger)
	defer closeNotifier()

	// --- Services ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)

	renderer, err := render.New(time.UTC)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to parse templates", zap.Error(err))
	}

	profiles := db.NewProfileRepository(store)
	profileService := core.NewProfileService(profiles, nil)
	services := api.Services{
		Profiles:      profileService,
		Prayers:       core.NewPrayerService(store, notifier, zapLogger.Named("prayers")),
		Feedback:      core.NewFeedbackService(store, notifier, zapLogger.Named("feedback")),
		Announcements: core.NewAnnouncementService(store),
	}

	registry := client.NewRegistry(client.Deps{
		Store:    store,
		Profiles: profileService,
		Users:    profiles,
		Schedule: scheduleRepo,
		Renderer: renderer,
		Limits: subscription.Limits{
			Announcements: appConfig.AnnouncementsLimit,
			StaffPrayers:  appConfig.StaffPrayersLimit,
			Feedback:      appConfig.FeedbackLimit,
		},
		Logger:  zapLogger.Named("client"),
		Metrics: appMetrics,
	}, appConfig.ClientIdleTTL)
	defer registry.Close()

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go registry.Run(runCtx)

	// --- HTTP ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger, appMetrics))
	router.Use(middleware.Recovery(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORS(appConfig.ClientURL))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured.")
	}

	var csrfKey []byte
	if appConfig.CSRFKey != "" {
		csrfKey = []byte(appConfig.CSRFKey)
	}
	api.SetupRoutes(router, api.RouteDeps{
		Logger:         zapLogger,
		Registry:       registry,
		Sessions:       middleware.NewCookieStore(appConfig.SessionSecret, appConfig.IsRelease()),
		Identity:       ids,
		Services:       services,
		Metrics:        appMetrics,
		Gatherer:       reg,
		CSRFKey:        csrfKey,
		SecureCookies:  appConfig.IsRelease(),
		TrustedOrigins: trustedOrigins(appConfig.ClientURL),
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", appConfig.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	zapLogger.Info("Starting HTTP server...", zap.String("address", httpServer.Addr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	stopRun()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully.")
}

func newLogger(appConfig *config.Config) (*zap.Logger, error) {
	if appConfig.IsRelease() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// openStore returns the configured document store. The memory store is
// seeded with the embedded demo fixture and uses Firebase only for auth,
// when a project is configured.
func openStore(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (db.DocumentStore, *db.Clients, error) {
	if appConfig.StoreBackend == config.StoreFirestore {
		clients, err := db.InitFirebase(ctx, appConfig, logger)
		if err != nil {
			return nil, nil, err
		}
		return db.NewFirestoreStore(clients.Firestore), clients, nil
	}

	store := db.NewMemoryStore(nil)
	fixture, err := seed.DefaultFixture()
	if err != nil {
		return nil, nil, err
	}
	rep, err := seed.NewSeeder(store, nil, nil, logger.Named("seed")).Run(ctx, fixture)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to seed memory store: %w", err)
	}
	logger.Info("Memory store seeded", zap.Int("users", rep.Users), zap.Int("schedule", rep.Schedule))

	if appConfig.FirebaseProjectID == "" {
		logger.Warn("FIREBASE_PROJECT_ID not set; running without sign-in")
		return store, nil, nil
	}
	clients, err := db.InitAuth(ctx, appConfig, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, clients, nil
}

// newNotifier fans staff notifications out to RabbitMQ and email, whichever
// are configured.
func newNotifier(appConfig *config.Config, logger *zap.Logger) (core.Notifier, func()) {
	var (
		targets notify.Multi
		closers []func()
	)
	if appConfig.RabbitMQURL != "" {
		pub, err := notify.DialQueuePublisher(appConfig.RabbitMQURL, appConfig.NotifyQueue, logger.Named("queue"))
		if err != nil {
			logger.Error("RabbitMQ unavailable; queue notifications disabled", zap.Error(err))
		} else {
			targets = append(targets, pub)
			closers = append(closers, func() {
				if err := pub.Close(); err != nil {
					logger.Warn("Failed to close RabbitMQ publisher", zap.Error(err))
				}
			})
		}
	}
	if appConfig.SMTPHost != "" && appConfig.StaffEmail != "" {
		mailer, err := notify.NewMailer(notify.SMTPConfig{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUser,
			Password: appConfig.SMTPPass,
			From:     appConfig.MailFrom,
			To:       appConfig.StaffEmail,
		})
		if err != nil {
			logger.Error("Mailer misconfigured; email notifications disabled", zap.Error(err))
		} else {
			targets = append(targets, mailer)
		}
	}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(targets) == 0 {
		return notify.Nop{}, closeAll
	}
	return targets, closeAll
}

func trustedOrigins(clientURL string) []string {
	if clientURL == "" {
		return nil
	}
	host := strings.TrimPrefix(strings.TrimPrefix(clientURL, "https://"), "http://")
	return []string{strings.TrimSuffix(host, "/")}
}
