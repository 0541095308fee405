package trigger

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrUnauthorized is returned when the caller's token does not match.
	ErrUnauthorized = errors.New("invalid trigger token")
	// ErrAlreadyRunning is returned when a task of the same kind is in flight.
	ErrAlreadyRunning = errors.New("task already running")
)

// Status describes the last known state of one task kind.
type Status struct {
	Running    bool      `json:"running"`
	StartedAt  time.Time `json:"startedAt,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	LastError  string    `json:"lastError,omitempty"`
}

// Runner gates long-running admin tasks behind a shared-secret token and
// runs them asynchronously, at most one per kind at a time. The caller gets
// an immediate acknowledgement; completion is observable through Status.
type Runner struct {
	token  string
	logger *slog.Logger

	mu    sync.Mutex
	tasks map[string]*Status
}

func NewRunner(token string, logger *slog.Logger) *Runner {
	return &Runner{
		token:  token,
		logger: logger,
		tasks:  map[string]*Status{},
	}
}

// Run authorizes the caller and starts task on its own goroutine. It returns
// once the task is accepted, not once it completes.
func (r *Runner) Run(kind, token string, task func(context.Context) error) error {
	if err := r.authorize(token); err != nil {
		return err
	}

	r.mu.Lock()
	status, ok := r.tasks[kind]
	if !ok {
		status = &Status{}
		r.tasks[kind] = status
	}
	if status.Running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	status.Running = true
	status.StartedAt = time.Now()
	status.FinishedAt = time.Time{}
	status.LastError = ""
	r.mu.Unlock()

	go func() {
		err := task(context.Background())

		r.mu.Lock()
		status.Running = false
		status.FinishedAt = time.Now()
		if err != nil {
			status.LastError = err.Error()
		}
		r.mu.Unlock()

		if r.logger != nil {
			if err != nil {
				r.logger.Error("triggered task failed", "kind", kind, "error", err)
			} else {
				r.logger.Info("triggered task finished", "kind", kind)
			}
		}
	}()

	return nil
}

// Status returns a copy of the state for one task kind.
func (r *Runner) Status(kind string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status, ok := r.tasks[kind]; ok {
		return *status
	}
	return Status{}
}

func (r *Runner) authorize(token string) error {
	if r.token == "" {
		return errors.New("trigger token is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(r.token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
