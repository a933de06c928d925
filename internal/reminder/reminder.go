package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/mira-santoso/salonbook-api/internal/models"
)

// TaskTypeReminder is the asynq task type for the pre-appointment reminder.
const TaskTypeReminder = "appointment:reminder"

const queueName = "reminders"

// Scheduler enqueues delayed reminder tasks. Tasks survive restarts in
// Redis and fire at the scheduled instant, 24 hours before the
// appointment by default.
type Scheduler struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewScheduler builds a Scheduler on the given Redis connection.
func NewScheduler(redisOpt asynq.RedisClientOpt, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{client: asynq.NewClient(redisOpt), logger: logger}
}

// Schedule enqueues one reminder to fire at fireAt.
func (s *Scheduler) Schedule(ctx context.Context, payload models.ReminderPayload, fireAt time.Time) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal reminder payload: %w", err)
	}
	task := asynq.NewTask(TaskTypeReminder, data)
	info, err := s.client.EnqueueContext(ctx, task,
		asynq.Queue(queueName),
		asynq.ProcessAt(fireAt),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return fmt.Errorf("enqueue reminder: %w", err)
	}
	s.logger.Info("reminder scheduled",
		zap.String("task_id", info.ID),
		zap.String("appointment_id", payload.AppointmentID),
		zap.Time("fire_at", fireAt))
	return nil
}

// Close releases the underlying Redis client.
func (s *Scheduler) Close() error {
	return s.client.Close()
}

// Sender dispatches a due reminder to the customer.
type Sender interface {
	SendReminder(ctx context.Context, payload models.ReminderPayload) error
}

// Worker consumes scheduled reminder tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewWorker builds the reminder consumer.
func NewWorker(redisOpt asynq.RedisClientOpt, concurrency int, sender Sender, logger *zap.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queueName: 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeReminder, func(ctx context.Context, task *asynq.Task) error {
		var payload models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Malformed payloads can never succeed; drop instead of retrying.
			logger.Error("reminder payload unreadable", zap.Error(err))
			return fmt.Errorf("unmarshal reminder: %v: %w", err, asynq.SkipRetry)
		}
		if err := sender.SendReminder(ctx, payload); err != nil {
			logger.Warn("reminder dispatch failed",
				zap.String("appointment_id", payload.AppointmentID), zap.Error(err))
			return err
		}
		return nil
	})

	return &Worker{server: server, mux: mux, logger: logger}
}

// Start runs the consumer in the background.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Shutdown drains in-flight tasks and stops the consumer.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
