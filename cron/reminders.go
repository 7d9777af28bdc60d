// Package cron runs deferred work: session reminder delivery through an
// asynq queue backed by Redis.
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stitchtherapy/config"
	bookingRepo "stitchtherapy/database/repository/booking"
	settingsRepo "stitchtherapy/database/repository/settings"
	userRepo "stitchtherapy/database/repository/user"
	"stitchtherapy/models"
	"stitchtherapy/services/events"
	"stitchtherapy/services/notification"
	"stitchtherapy/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TaskSessionReminder = "booking:reminder"

	// Reminders go out a day before the session.
	reminderLead = 24 * time.Hour
)

type reminderPayload struct {
	BookingID string `json:"bookingId"`
}

func redisOpt() asynq.RedisClientOpt {
	cfg := config.AppConfig
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisReminderDB,
	}
}

// ReminderScheduler enqueues reminder tasks for verified bookings.
type ReminderScheduler struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewReminderScheduler connects a scheduler to the reminder queue.
func NewReminderScheduler() *ReminderScheduler {
	return &ReminderScheduler{
		client: asynq.NewClient(redisOpt()),
		logger: utils.GetLogger().Named("reminders"),
	}
}

// Schedule enqueues a reminder to fire ahead of the session start. Sessions
// closer than the lead time get no reminder.
func (s *ReminderScheduler) Schedule(b *models.Booking) error {
	fireAt := b.ScheduledAt.Add(-reminderLead)
	if fireAt.Before(time.Now()) {
		return nil
	}

	payload, err := json.Marshal(reminderPayload{BookingID: b.ID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskSessionReminder, payload)
	info, err := s.client.Enqueue(task,
		asynq.ProcessAt(fireAt),
		asynq.MaxRetry(3),
		asynq.TaskID(fmt.Sprintf("reminder:%s", b.ID)),
	)
	if err != nil {
		return fmt.Errorf("enqueue reminder for booking %s: %w", b.ID, err)
	}
	s.logger.Info("reminder scheduled",
		zap.String("booking", b.ID),
		zap.Time("fireAt", fireAt),
		zap.String("task", info.ID))
	return nil
}

// Close releases the queue connection.
func (s *ReminderScheduler) Close() error {
	return s.client.Close()
}

// ReminderWorker consumes reminder tasks and sends the reminder email.
type ReminderWorker struct {
	server   *asynq.Server
	bookings bookingRepo.BookingRepository
	users    userRepo.UserRepository
	settings settingsRepo.SettingsRepository
	mailer   *notification.Mailer
	bus      *events.Bus
	logger   *zap.Logger
}

// NewReminderWorker builds the queue consumer.
func NewReminderWorker(bookings bookingRepo.BookingRepository, users userRepo.UserRepository, settings settingsRepo.SettingsRepository, mailer *notification.Mailer, bus *events.Bus) *ReminderWorker {
	server := asynq.NewServer(redisOpt(), asynq.Config{
		Concurrency: 5,
	})
	return &ReminderWorker{
		server:   server,
		bookings: bookings,
		users:    users,
		settings: settings,
		mailer:   mailer,
		bus:      bus,
		logger:   utils.GetLogger().Named("reminders"),
	}
}

// Start runs the worker in the background.
func (w *ReminderWorker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSessionReminder, w.handleReminder)
	return w.server.Start(mux)
}

// Shutdown stops the worker, waiting for in-flight tasks.
func (w *ReminderWorker) Shutdown() {
	w.server.Shutdown()
}

func (w *ReminderWorker) handleReminder(ctx context.Context, task *asynq.Task) error {
	var payload reminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed reminder payload: %w", err)
	}

	b, err := w.bookings.GetByID(payload.BookingID)
	if err != nil {
		return err
	}
	// Cancelled or completed sessions silently skip their reminder.
	if b == nil || b.Terminal() {
		return nil
	}

	client, err := w.users.GetByID(b.ClientID)
	if err != nil {
		return err
	}
	if client == nil {
		return nil
	}
	settings, err := w.settings.Get()
	if err != nil {
		return err
	}

	if err := w.mailer.SendReminder(client, b, settings); err != nil {
		return err
	}
	if w.bus != nil {
		w.bus.Publish(models.EventBookingReminder, map[string]any{
			"bookingId":   b.ID,
			"scheduledAt": b.ScheduledAt,
		})
	}
	w.logger.Info("reminder delivered", zap.String("booking", b.ID))
	return nil
}
