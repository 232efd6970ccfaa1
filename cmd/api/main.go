package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/config"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/event"
	"github.com/yourusername/vefify-quiz/internal/handler"
	"github.com/yourusername/vefify-quiz/internal/middleware"
	"github.com/yourusername/vefify-quiz/internal/repository/gormrepo"
	redisRepo "github.com/yourusername/vefify-quiz/internal/repository/redis"
	"github.com/yourusername/vefify-quiz/internal/service"
	ws "github.com/yourusername/vefify-quiz/internal/websocket"
	"github.com/yourusername/vefify-quiz/pkg/auth"
	"github.com/yourusername/vefify-quiz/pkg/database"
	"github.com/yourusername/vefify-quiz/pkg/logger"
	"github.com/yourusername/vefify-quiz/pkg/monitoring"
)

const wsClientBuffer = 64

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("[Main] Конфигурация загружена",
		zap.String("config", configPath),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("redis", cfg.Redis.Enabled))

	gin.SetMode(cfg.Server.Mode)

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(cfg.Database)
	if err != nil {
		appLogger.Fatal("[Main] Не удалось подключиться к базе данных", zap.Error(err))
	}
	if err := database.MigrateDB(db, cfg.Database.Driver, cfg.Database.MigrationsDir, appLogger); err != nil {
		appLogger.Fatal("[Main] Не удалось применить миграции", zap.Error(err))
	}

	// Redis необязателен: без него кеш отключается, а лимитер работает в памяти процесса
	var (
		cache   repository.CacheRepository = redisRepo.NewNoopCache()
		counter middleware.Counter
	)
	if cfg.Redis.Enabled {
		redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Fatal("[Main] Не удалось подключиться к Redis", zap.Error(err))
		}
		defer redisClient.Close()

		redisCache, err := redisRepo.NewCacheRepo(redisClient, cfg.Cache.Prefix)
		if err != nil {
			appLogger.Fatal("[Main] Не удалось создать кеш", zap.Error(err))
		}
		counter = redisCache
		if cfg.Cache.Enabled {
			cache = redisCache
		}
		appLogger.Info("[Main] Redis подключен")
	}

	// Репозитории
	campaignRepo := gormrepo.NewCampaignRepo(db)
	questionRepo := gormrepo.NewQuestionRepo(db)
	giftRepo := gormrepo.NewGiftRepo(db)
	participantRepo := gormrepo.NewParticipantRepo(db)
	analyticsRepo := gormrepo.NewAnalyticsRepo(db)
	adminRepo := gormrepo.NewAdminUserRepo(db)
	txRunner := service.NewGormTxRunner(db)

	// Шина событий и её подписчики
	metrics := monitoring.New()
	bus := event.NewBus(appLogger)
	hub := ws.NewHub(appLogger)
	defer hub.Close()
	metrics.Registry().MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "ws_active_connections", Help: "Connected admin WebSocket clients"},
		func() float64 { return float64(hub.ClientCount()) },
	))

	analyticsService := service.NewAnalyticsService(analyticsRepo, campaignRepo, participantRepo, giftRepo, appLogger)
	bus.Subscribe("analytics", analyticsService.HandleEvent)
	bus.Subscribe("metrics", event.MetricsHandler(metrics))
	bus.Subscribe("websocket", hub.HandleEvent)

	if cfg.Events.AMQPURL != "" {
		publisher, err := event.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, appLogger)
		if err != nil {
			// Брокер недоступен: события остаются внутри процесса
			appLogger.Error("[Main] AMQP недоступен, публикация событий во внешний брокер отключена", zap.Error(err))
		} else {
			defer publisher.Close()
			bus.Subscribe("amqp", publisher.Handle)
		}
	}

	var notifier service.GiftNotifier = service.NewNoopGiftNotifier(appLogger)
	if cfg.Email.Enabled {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			appLogger.Fatal("[Main] Не удалось инициализировать отправку писем", zap.Error(err))
		}
		notifier = resendService
	}

	// Сервисы
	giftService := service.NewGiftService(
		giftRepo, participantRepo, campaignRepo, txRunner,
		service.GiftServiceConfig{
			DefaultPolicy:   cfg.Gift.DefaultPolicy,
			CodeLength:      cfg.Gift.CodeLength,
			MaxCodeAttempts: cfg.Gift.MaxCodeAttempts,
		},
		service.NewHTTPGiftFulfiller(cfg.Gift.APITimeout),
		notifier, bus, appLogger,
	)
	campaignService := service.NewCampaignService(
		campaignRepo, questionRepo, giftRepo, participantRepo,
		cache, cfg.Cache.TTL, txRunner, bus, appLogger,
	)
	questionService := service.NewQuestionService(questionRepo, campaignRepo, bus, appLogger)
	participantService := service.NewParticipantService(
		participantRepo, campaignRepo, questionRepo, giftService, bus,
		service.ParticipantServiceConfig{AbandonAfter: cfg.Participant.AbandonAfter},
		appLogger,
	)
	locationService, err := service.NewLocationService()
	if err != nil {
		appLogger.Fatal("[Main] Не удалось загрузить справочник провинций", zap.Error(err))
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs, cfg.JWT.Issuer, appLogger)
	if err != nil {
		appLogger.Fatal("[Main] Не удалось инициализировать JWT", zap.Error(err))
	}
	authService := service.NewAuthService(adminRepo, jwtService, appLogger)
	if err := authService.EnsureBootstrapAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		appLogger.Fatal("[Main] Не удалось создать администратора", zap.Error(err))
	}

	rateLimiter := middleware.NewRateLimiter(counter, middleware.RateLimitConfig{
		MaxRequests: cfg.RateLimit.Requests,
		Window:      cfg.RateLimit.Window,
		KeyPrefix:   "rl:public",
	}, appLogger)
	go rateLimiter.RunCleanup(ctx)

	router := setupRouter(routerDeps{
		cfg:          cfg,
		logger:       appLogger,
		metrics:      metrics,
		rateLimiter:  rateLimiter,
		authMW:       middleware.NewAuthMiddleware(authService, appLogger),
		auth:         handler.NewAuthHandler(authService, appLogger),
		campaigns:    handler.NewCampaignHandler(campaignService, appLogger),
		questions:    handler.NewQuestionHandler(questionService, appLogger),
		gifts:        handler.NewGiftHandler(giftService, appLogger),
		participants: handler.NewParticipantHandler(participantService, appLogger),
		analytics:    handler.NewAnalyticsHandler(analyticsService, appLogger),
		public:       handler.NewPublicHandler(campaignService, participantService, giftService, locationService, appLogger),
		ws:           handler.NewWSHandler(hub, cfg.Server.AllowedOrigins, wsClientBuffer, appLogger),
	})

	go runAbandonTicker(ctx, participantService, cfg.Participant.CleanupInterval, appLogger)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		appLogger.Info("[Main] HTTP сервер запущен", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("[Main] Ошибка HTTP сервера", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("[Main] Остановка сервера...")

	// Отправляем сигнал завершения для всех горутин
	cancel()

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("[Main] Сервер остановлен принудительно", zap.Error(err))
	}
	// Запросы завершены: новых выдач не будет, дожидаемся вызовов внешнего API и писем
	if err := giftService.Wait(shutdownCtx); err != nil {
		appLogger.Error("[Main] Не дождались пост-обработки подарков", zap.Error(err))
	}
	appLogger.Info("[Main] Сервер остановлен")
}

// abandoner помечает брошенные попытки
type abandoner interface {
	MarkAbandoned(ctx context.Context) (int64, error)
}

// runAbandonTicker периодически помечает незавершенные попытки как брошенные
func runAbandonTicker(ctx context.Context, svc abandoner, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		logger.Info("[Main] Пометка брошенных попыток отключена")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := svc.MarkAbandoned(ctx)
			if err != nil {
				logger.Error("[Main] Ошибка пометки брошенных попыток", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("[Main] Попытки помечены брошенными", zap.Int64("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
