package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeVerification = "mail:verification"
	queueName        = "mail"
)

type verificationPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	MaxRetry      int
	// Tasks older than this are dropped, the code inside would have expired
	Retention time.Duration
}

func (c QueueConfig) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Queue is a Dispatcher that enqueues verification mail for the Worker, so a
// failed SMTP delivery is retried instead of lost
type Queue struct {
	client *asynq.Client
	cfg    QueueConfig
}

func NewQueue(cfg QueueConfig) *Queue {
	if cfg.Retention <= 0 {
		cfg.Retention = 15 * time.Minute
	}

	return &Queue{
		client: asynq.NewClient(cfg.redisOpt()),
		cfg:    cfg,
	}
}

func (q *Queue) Dispatch(ctx context.Context, email, code string) error {
	task, err := newVerificationTask(email, code)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(queueName),
		asynq.MaxRetry(q.cfg.MaxRetry),
		asynq.Timeout(30*time.Second),
		asynq.Deadline(time.Now().Add(q.cfg.Retention)),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue verification email, %w", err)
	}

	zap.L().Debug("Verification email queued", zap.String("taskID", info.ID))

	return nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func newVerificationTask(email, code string) (*asynq.Task, error) {
	b, err := json.Marshal(verificationPayload{Email: email, Code: code})
	if err != nil {
		return nil, fmt.Errorf("failed to encode verification task, %w", err)
	}

	return asynq.NewTask(TypeVerification, b), nil
}

// Worker drains the mail queue and delivers every task with the Sender
type Worker struct {
	srv    *asynq.Server
	sender Sender
}

func NewWorker(cfg QueueConfig, sender Sender) *Worker {
	srv := asynq.NewServer(cfg.redisOpt(), asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{queueName: 1},
		Logger:      zap.S(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)

			zap.L().Warn("Verification email delivery failed",
				zap.String("type", task.Type()),
				zap.Int("retry", retried),
				zap.Int("maxRetry", maxRetry),
				zap.Error(err),
			)
		}),
	})

	return &Worker{srv: srv, sender: sender}
}

func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeVerification, w.handleVerification)

	if err := w.srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start mail worker, %w", err)
	}

	zap.L().Info("Mail worker started")

	return nil
}

func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

func (w *Worker) handleVerification(ctx context.Context, t *asynq.Task) error {
	var p verificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("malformed verification task, %v: %w", err, asynq.SkipRetry)
	}

	if p.Email == "" || p.Code == "" {
		return fmt.Errorf("incomplete verification task: %w", asynq.SkipRetry)
	}

	return w.sender.Send(ctx, p.Email, p.Code)
}
