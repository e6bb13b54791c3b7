package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/voisinage/entraide-backend/internal/config"
	"github.com/voisinage/entraide-backend/internal/db"
	httpHandlers "github.com/voisinage/entraide-backend/internal/http/handlers"
	httpRouter "github.com/voisinage/entraide-backend/internal/http/router"
	"github.com/voisinage/entraide-backend/internal/logger"
	"github.com/voisinage/entraide-backend/internal/models"
	"github.com/voisinage/entraide-backend/internal/repository"
	"github.com/voisinage/entraide-backend/internal/service"
	"github.com/voisinage/entraide-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	helpRequestRepo := repository.NewHelpRequestRepository(dbConn)
	helpOfferRepo := repository.NewHelpOfferRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Сервисы.
	policy := models.ExpirationPolicy{
		ProposedWindow:  cfg.ProposedExpirationWindow,
		ValidatedWindow: cfg.ValidatedExpirationWindow,
	}
	notificationService := service.NewNotificationService(notificationRepo)
	userService := service.NewUserService(userRepo)
	helpRequestService := service.NewHelpRequestService(helpRequestRepo)
	helpOfferService := service.NewHelpOfferService(
		helpOfferRepo, helpRequestRepo, messageRepo, reviewRepo, userRepo,
		policy, cfg.FeedbackGracePeriod,
	)
	helpOfferService.SetNotifier(notificationService)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()
	notificationService.SetHub(hub)

	// Фоновая сверка встреч без отзывов.
	reconciler := service.NewReconciler(helpOfferService, cfg.ReconcileInterval)
	reconciler.Start(ctx)

	// HTTP хэндлеры.
	helpRequestHandler := httpHandlers.NewHelpRequestHandler(helpRequestService)
	helpOfferHandler := httpHandlers.NewHelpOfferHandler(helpOfferService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	userHandler := httpHandlers.NewUserHandler(userService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, helpRequestHandler, helpOfferHandler, notificationHandler, userHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
