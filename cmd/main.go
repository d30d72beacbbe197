package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shenikar/resq_dispatch/internal/config"
	"github.com/shenikar/resq_dispatch/internal/geo"
	v1 "github.com/shenikar/resq_dispatch/internal/handler/http/v1"
	"github.com/shenikar/resq_dispatch/internal/mockdata"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/notification"
	"github.com/shenikar/resq_dispatch/internal/realtime"
	"github.com/shenikar/resq_dispatch/internal/repository"
	"github.com/shenikar/resq_dispatch/internal/scheduler"
	"github.com/shenikar/resq_dispatch/internal/service"
	"github.com/shenikar/resq_dispatch/internal/storage"
	"github.com/shenikar/resq_dispatch/internal/webhook"
	"github.com/shenikar/resq_dispatch/pkg/logger"
	"github.com/shenikar/resq_dispatch/pkg/postgres"
	redisclient "github.com/shenikar/resq_dispatch/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/resq_dispatch/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	seedIncidentCount = 12
	stateKeyPrefix    = "resq:"
)

// newRand создает независимый генератор: *rand.Rand не потокобезопасен
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// @title RESQ Dispatch API
// @version 1.0
// @description Emergency incident dispatch service for Tuguegarao City.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	policy, err := models.ParseTransitionPolicy(cfg.StatusPolicy)
	if err != nil {
		log.Fatalf("Invalid STATUS_POLICY: %v", err)
	}

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()

	// Инициализация Redis клиента, если он нужен хотя бы одному компоненту
	var redisClient *goredis.Client
	if cfg.NeedsRedis() {
		redisClient, err = redisclient.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Info("Successfully connected to Redis")
	}

	// Хранилище сессий и уведомлений
	var stateStore storage.KeyValueStore = storage.NewMemoryStore()
	if cfg.StateStore == config.StoreRedis {
		stateStore = storage.NewRedisStore(redisClient, stateKeyPrefix)
	}

	// Инициализация репозиториев
	var incidentRepo service.IncidentRepository
	switch cfg.IncidentStore {
	case config.StorePostgres:
		if err := postgres.RunMigrations(cfg, log); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
		dbpool, err := postgres.NewPostgresDB(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbpool.Close()
		log.Info("Successfully connected to PostgreSQL")
		incidentRepo = repository.NewIncidentRepository(dbpool, redisClient)
	default:
		incidentRepo = repository.NewMemoryIncidentRepository()
	}
	responderRepo := repository.NewResponderRepository(mockdata.Responders(clock.Now()))

	// Шина событий и уведомления
	bus := realtime.NewBus(clock, log)
	registry := notification.NewRegistry(ctx, stateStore, clock, log)
	hub := v1.NewHub(cfg.CORSOrigins, log)
	if cfg.NotificationsDisplay {
		registry.SetDisplayer(hub)
	}
	unsubscribeHub := bus.SubscribeAll(hub.Forward)
	defer unsubscribeHub()

	// Инициализация сервисов
	gen := mockdata.NewGenerator(newRand())
	incidentService := service.NewIncidentService(incidentRepo, log, clock, policy, bus, registry, gen)
	responderService := service.NewResponderService(responderRepo, log, clock, bus, registry)
	authService := service.NewAuthService(stateStore, cfg.JWTSecret, clock, log)
	reportService := service.NewReportService(incidentRepo, log)
	chatService := service.NewChatService(bus, clock, cfg.ChatReplyDelay, log)
	defer chatService.Close()

	if cfg.SeedIncidents {
		if err := incidentService.Seed(ctx, gen.Incidents(seedIncidentCount, clock.Now())); err != nil {
			log.Fatalf("Failed to seed incidents: %v", err)
		}
	}

	// Экипажи следуют за событиями симулятора
	unfollow := responderService.Follow(bus.Subscribe)
	defer unfollow()

	bus.Connect()
	defer bus.Disconnect()

	if cfg.SimulatorEnabled {
		simulator := realtime.NewSimulator(bus, clock, newRand(), log, cfg.SimulatorMinInterval, cfg.SimulatorMaxInterval)
		simulator.Start(ctx)
		defer simulator.Stop()
	}

	// Инициализация издателя и воркера вебхуков
	if cfg.WebhookURL != "" {
		webhookPublisher := webhook.NewRedisWebhookPublisher(redisClient)
		unrelay := webhook.Relay(ctx, bus.SubscribeAll, webhookPublisher, log)
		defer unrelay()

		webhookWorker := webhook.NewWebhookWorker(redisClient, log, cfg, clock)
		webhookWorker.Start(ctx)
		defer webhookWorker.Wait()
	}

	// Периодические задачи
	sched := scheduler.NewScheduler(responderService, cfg.ResponderStaleAfter, log)
	if err := sched.Start(cfg.ResponderSweepSpec); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Текущее местоположение консоли
	locator := geo.NewLocator(nil, clock, newRand(), log)
	stopWatch := locator.Watch(ctx, cfg.LocationPollInterval, func(fix models.LocationFix) {
		if err := hub.Broadcast("location:current", fix, fix.Timestamp); err != nil {
			log.WithError(err).Warn("Failed to broadcast current location")
		}
	})
	defer stopWatch()

	// Инициализация хэндлеров
	handler := v1.NewHandler(v1.Services{
		Incidents:     incidentService,
		Responders:    responderService,
		Notifications: registry,
		Reports:       reportService,
		Chat:          chatService,
		Auth:          authService,
	}, locator, hub, log, cfg)

	// Настройка Gin роутера
	router := gin.New()
	router.Use(gin.Recovery(), v1.RequestLogger(log), v1.CORSMiddleware(cfg.CORSOrigins))
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.WithFields(logrus.Fields{
		"port":           cfg.HTTPPort,
		"incident_store": cfg.IncidentStore,
		"state_store":    cfg.StateStore,
		"status_policy":  policy,
	}).Info("HTTP server started")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	cancel()

	log.Info("Server gracefully stopped")
}
