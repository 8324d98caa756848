package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/serviconli/citas-api/internal/config"
	"github.com/serviconli/citas-api/internal/handler"
	appointmentHandler "github.com/serviconli/citas-api/internal/handler/appointment"
	requestHandler "github.com/serviconli/citas-api/internal/handler/request"
	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/notification"
	"github.com/serviconli/citas-api/internal/notification/email"
	"github.com/serviconli/citas-api/internal/notification/whatsapp"
	"github.com/serviconli/citas-api/internal/repository/postgres"
	"github.com/serviconli/citas-api/internal/router"
	appointmentService "github.com/serviconli/citas-api/internal/service/appointment"
	historyService "github.com/serviconli/citas-api/internal/service/history"
	reminderService "github.com/serviconli/citas-api/internal/service/reminder"
	requestService "github.com/serviconli/citas-api/internal/service/request"
	"github.com/serviconli/citas-api/pkg/logger"
	"github.com/serviconli/citas-api/pkg/messaging/redis"
	"github.com/serviconli/citas-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to connect to Redis")
	}

	m := metrics.New("citas_api")

	requestRepo := postgres.NewAppointmentRequestRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	reminderRepo := postgres.NewReminderRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)

	historySvc := historyService.NewService(historyRepo, log)
	requestSvc := requestService.NewService(requestRepo, broker, log)

	scheduler, err := reminderService.NewScheduler(reminderRepo, patientRepo, cfg.Reminders, log)
	if err != nil {
		log.Fatal(err, "failed to initialize reminder scheduler")
	}

	channels := map[model.ReminderChannel]notification.Channel{
		model.ChannelWhatsApp: whatsapp.NewService(cfg.WhatsApp, log),
		model.ChannelEmail:    email.NewService(cfg.SMTP, log),
	}
	dispatcher := reminderService.NewDispatcher(
		reminderRepo,
		appointmentRepo,
		patientRepo,
		channels,
		historySvc,
		cfg.Reminders,
		reminderService.TemplateConfig{
			Reminder:     cfg.WhatsApp.TemplateReminder,
			Confirmation: cfg.WhatsApp.TemplateConfirmation,
			Language:     cfg.WhatsApp.Language,
		},
		log,
		m,
	)

	appointmentSvc := appointmentService.NewService(
		appointmentRepo, requestSvc, scheduler, dispatcher, historySvc, broker, log)

	h := handler.NewHandler()
	requestH := requestHandler.NewHandler(requestSvc)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc, historySvc)

	r := router.NewRouter(h, requestH, appointmentH, log)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited")
}
