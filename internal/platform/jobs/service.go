package jobs

import (
	"context"
	"log/slog"
	"time"
)

const (
	JobInvitationEmail   = "invitation_email"
	JobPasswordReset     = "password_reset_email"
	JobNotificationEmail = "notification_email"
)

// Enqueuer accepts work that must run after the caller's transaction
// committed and whose failure must not fail the request.
type Enqueuer interface {
	Enqueue(jobType string, run func(context.Context) error)
}

type Service struct {
	queue   chan job
	timeout time.Duration
	done    chan struct{}
}

type job struct {
	Type string
	Run  func(context.Context) error
}

func New(size int) *Service {
	if size <= 0 {
		size = 128
	}
	return &Service{queue: make(chan job, size), timeout: 30 * time.Second, done: make(chan struct{})}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Done is closed once the worker has drained and exited.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

func (s *Service) Enqueue(jobType string, run func(context.Context) error) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) worker(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return
		case j := <-s.queue:
			s.runJob(context.Background(), j)
		}
	}
}

func (s *Service) drain() {
	for {
		select {
		case j := <-s.queue:
			s.runJob(context.Background(), j)
		default:
			return
		}
	}
}

func (s *Service) runJob(parent context.Context, j job) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job panicked", "jobType", j.Type, "panic", r)
		}
	}()
	if err := j.Run(ctx); err != nil {
		slog.Warn("job run failed", "jobType", j.Type, "err", err)
	}
}

// Inline runs jobs synchronously. Tests and one-shot tools use it.
type Inline struct{}

func (Inline) Enqueue(jobType string, run func(context.Context) error) {
	if err := run(context.Background()); err != nil {
		slog.Warn("job run failed", "jobType", jobType, "err", err)
	}
}
