package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stitchtherapy/config"
	"stitchtherapy/cron"
	"stitchtherapy/database"
	auditRepo "stitchtherapy/database/repository/audit"
	availabilityRepo "stitchtherapy/database/repository/availability"
	bookingRepo "stitchtherapy/database/repository/booking"
	settingsRepo "stitchtherapy/database/repository/settings"
	userRepo "stitchtherapy/database/repository/user"
	webhookRepo "stitchtherapy/database/repository/webhook"
	"stitchtherapy/handlers"
	"stitchtherapy/routes"
	"stitchtherapy/services/availability"
	"stitchtherapy/services/booking"
	"stitchtherapy/services/events"
	"stitchtherapy/services/notification"
	"stitchtherapy/services/signaling"
	"stitchtherapy/services/user"
	"stitchtherapy/utils"

	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	database.InitDB()
	utils.InitCache()

	// Repositories.
	users := userRepo.NewMongoUserRepo()
	windows := availabilityRepo.NewMongoAvailabilityRepo()
	bookings := bookingRepo.NewMongoBookingRepo()
	settings := settingsRepo.NewMongoSettingsRepo()
	webhooks := webhookRepo.NewMongoWebhookRepo()
	audit := auditRepo.NewMongoAuditRepo()

	// Event fan-out.
	bus := events.NewBus()
	dispatcher := events.NewWebhookDispatcher(webhooks)
	bus.Subscribe(dispatcher.Handle)

	mailer := notification.NewMailer(notification.NewSender())
	reminders := cron.NewReminderScheduler()
	defer reminders.Close()

	// Services.
	userService := user.NewDefaultUserService(users)
	availabilityService := availability.NewDefaultAvailabilityService(windows)
	hub := signaling.NewHub()
	bookingService := booking.NewDefaultBookingService(booking.Deps{
		Bookings:     bookings,
		Users:        users,
		Availability: windows,
		Settings:     settings,
		Audit:        audit,
		Bus:          bus,
		Mailer:       mailer,
		Cache:        utils.GetCacheClient(),
		Reminders:    reminders,
		Rooms:        hub,
	})

	cfg := config.AppConfig
	if err := userService.SeedAccounts(cfg.AdminEmail, cfg.AdminPassword, cfg.TherapistEmail, cfg.TherapistPassword); err != nil {
		logger.Warn("account seeding failed", zap.Error(err))
	}

	worker := cron.NewReminderWorker(bookings, users, settings, mailer, bus)
	if err := worker.Start(); err != nil {
		logger.Fatal("could not start reminder worker", zap.Error(err))
	}
	defer worker.Shutdown()

	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	bundle := handlers.NewBundle(userService, availabilityService, bookingService, hub, handlers.AdminDeps{
		Users:    userService,
		Settings: settings,
		Webhooks: webhooks,
		Audit:    audit,
	})
	router := routes.SetupRouter(bundle)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
