package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"schoolfee/config"
	"schoolfee/domain"
	"schoolfee/middleware"
	"schoolfee/services/fees/delivery"
	"schoolfee/services/fees/repository"
	"schoolfee/services/fees/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

var log *logrus.Logger
var wg sync.WaitGroup

func main() {
	if err := config.LoadEnv(); err != nil {
		logrus.Fatalf("Error loading .env file: %v", err)
	}

	log = config.GetLogrusInstance()
	if err := config.SetLocalTimezone(); err != nil {
		log.Fatal(err)
	}

	startHTTP()
}

// skipStream keeps buffering middlewares away from the SSE endpoint.
func skipStream(c *fiber.Ctx) bool {
	return c.Path() == "/events"
}

func startHTTP() {
	log.Info("Starting HTTP")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := fiber.New(config.GetFiberConfig())

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(compress.New(compress.Config{Next: skipStream}))
	app.Use(etag.New(etag.Config{Next: skipStream}))

	db, err := config.BootDB()
	if err != nil {
		log.Fatalf("Failed to boot DB: %v", err)
		return
	}

	// The pool only backs optional features; without it every remote call
	// falls back to the local computation.
	var pool *pgxpool.Pool
	if p, err := config.BootPool(ctx); err != nil {
		log.WithError(err).Warn("pgx pool unavailable, remote aggregates and realtime disabled")
	} else {
		pool = p
		defer pool.Close()
	}

	senders, err := config.InitSender(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to init senders, reminders will not be delivered")
	}

	jwtSecret, err := config.GetJWTSecret()
	if err != nil {
		log.Fatal(err)
		return
	}
	middleware.SetJWTKey(*jwtSecret)

	timeOut := config.GetRequestTimeout()

	// Regis repo and Usecase Here
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	remoteRepo := repository.NewRemoteAggregateRepository(pool)
	senderRepo := repository.NewSenderRepository(senders, config.GetAppName(), config.GetPhoneCountryCode())

	template := usecase.MessageTemplate{
		Institution: config.GetInstitutionName(),
		Tagline:     config.GetInstitutionTagline(),
		Currency:    config.GetCurrency(),
	}

	studentUC := usecase.NewStudentUseCase(studentRepo, classRepo, timeOut)
	classUC := usecase.NewClassUseCase(classRepo, timeOut)
	receiptUC := usecase.NewReceiptUseCase(receiptRepo, studentRepo, classRepo, timeOut)
	importUC := usecase.NewImportExportUseCase(studentUC, receiptUC, studentRepo)
	reminderUC := usecase.NewReminderUseCase(remoteRepo, receiptRepo, reminderRepo, senderRepo, usecase.ReminderConfig{
		GraceDays:    config.GetGracePeriodDays(),
		IntervalDays: config.GetReminderIntervalDays(),
		AutoSend:     config.GetReminderAutoSend(),
		Workers:      config.GetReminderWorkers(),
		Template:     template,
	}, timeOut)
	analyticsUC := usecase.NewAnalyticsUseCase(analyticsRepo, remoteRepo, timeOut)
	sessionUC := usecase.NewSessionUseCase(sessionRepo, config.GetSessionTimeout(), timeOut)
	authUC := usecase.NewAuthUseCase(userRepo, middleware.GenerateJWT, timeOut)
	hub := usecase.NewChangeHub(analyticsRepo, timeOut)

	// delivery here
	delivery.NewAuthDelivery(app, authUC)
	delivery.NewStudentDelivery(app, studentUC, importUC)
	delivery.NewClassDelivery(app, classUC)
	delivery.NewReceiptDelivery(app, receiptUC, importUC)
	delivery.NewTemplateDelivery(app, importUC)
	delivery.NewReminderDelivery(app, reminderUC, config.GetGracePeriodDays(), config.GetReminderIntervalDays())
	delivery.NewAnalyticsDelivery(app, analyticsUC)
	delivery.NewSessionDelivery(app, sessionUC)
	delivery.NewEventsDelivery(app, hub, analyticsUC)

	events := make(chan domain.ChangeEvent, 16)
	listener := repository.NewChangeListener(pool)

	wg.Add(2)
	go func() {
		defer wg.Done()
		hub.Run(ctx, events)
	}()
	go func() {
		defer wg.Done()
		if err := listener.Listen(ctx, events); err != nil {
			log.WithError(err).Warn("change listener stopped")
		}
	}()

	sweeper, err := delivery.NewReminderCron(config.GetReminderCron(), reminderUC, 10*timeOut)
	if err != nil {
		log.WithError(err).Error("invalid REMINDER_CRON, scheduled sweep disabled")
	} else {
		sweeper.Start()
		defer sweeper.Stop()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("Starting HTTP server for Public on port %s", config.GetFiberHttpPort())
		if err := app.Listen(config.GetFiberListenAddress()); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	<-signalChan

	log.Info("Shutting down the server...")
	cancel()

	if err := app.Shutdown(); err != nil {
		log.Errorf("Error during server shutdown: %v", err)
	}

	wg.Wait()
	log.Info("Server shut down gracefully")
}
