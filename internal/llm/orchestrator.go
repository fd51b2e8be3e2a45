package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds one attempt
	DefaultTimeout = 60 * time.Second
	// DefaultMaxRetries gives three attempts in total
	DefaultMaxRetries = 2
	// DefaultBackoff is the base of the linear backoff between attempts
	DefaultBackoff = time.Second
	// DefaultCancelGrace bounds how long a cancelled attempt may take to unwind
	DefaultCancelGrace = 5 * time.Second
)

// OrchestratorConfig configures timeouts and retries
type OrchestratorConfig struct {
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
	CancelGrace time.Duration
}

// DefaultOrchestratorConfig returns the production retry policy
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
		Backoff:     DefaultBackoff,
		CancelGrace: DefaultCancelGrace,
	}
}

// Result is the outcome of Generate. Text is non-empty iff Status is StatusSuccess.
type Result struct {
	Status    Status
	Text      string
	ErrorKind ErrorKind
	Attempts  int
	Err       error
}

// OK reports whether the request produced text
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Orchestrator sends requests through a Client with per-attempt deadlines,
// bounded retries and cancellation that never leaves an attempt running.
type Orchestrator struct {
	client Client
	cfg    OrchestratorConfig
	logger *slog.Logger
}

// NewOrchestrator wraps a client. Zero config fields take their defaults;
// a negative MaxRetries disables retries and a negative Backoff disables the
// delay between attempts.
func NewOrchestrator(client Client, cfg OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	switch {
	case cfg.Backoff == 0:
		cfg.Backoff = DefaultBackoff
	case cfg.Backoff < 0:
		cfg.Backoff = 0
	}
	if cfg.CancelGrace <= 0 {
		cfg.CancelGrace = DefaultCancelGrace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{client: client, cfg: cfg, logger: logger}
}

// Config returns the effective retry policy
func (o *Orchestrator) Config() OrchestratorConfig {
	return o.cfg
}

// Generate runs the request until it succeeds, fails terminally, runs out of
// attempts or ctx is cancelled.
func (o *Orchestrator) Generate(ctx context.Context, req Request) Result {
	if err := req.Validate(); err != nil {
		return failure(ErrorInvalidRequest, 0, err)
	}
	if req.Model == "" {
		req.Model = o.client.GetModel(req.Tier)
	}

	maxAttempts := o.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return failure(ErrorCancelled, attempt-1, err)
		}

		text, err := o.attempt(ctx, req, attempt)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return failure(ErrorInvalidResponse, attempt, &ResponseError{Message: "empty completion"})
			}
			return Result{Status: StatusSuccess, Text: text, Attempts: attempt}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			o.logger.Info("ai request cancelled", "model", req.Model, "attempt", attempt)
			return failure(ErrorCancelled, attempt, ctxErr)
		}

		if !IsTransient(err) {
			kind := ErrorInvalidResponse
			var reqErr *RequestError
			if errors.As(err, &reqErr) {
				kind = ErrorInvalidRequest
			}
			o.logger.Warn("ai request failed", "model", req.Model, "attempt", attempt, "kind", kind, "error", err)
			return failure(kind, attempt, err)
		}

		lastErr = err
		if attempt == maxAttempts {
			break
		}

		delay := o.cfg.Backoff * time.Duration(attempt)
		o.logger.Warn("ai request failed, retrying",
			"model", req.Model, "attempt", attempt, "max_attempts", maxAttempts, "backoff", delay, "error", err)
		if err := sleepCtx(ctx, delay); err != nil {
			return failure(ErrorCancelled, attempt, err)
		}
	}

	o.logger.Error("ai request exhausted retries", "model", req.Model, "attempts", maxAttempts, "error", lastErr)
	return failure(ErrorExhaustedRetries, maxAttempts, lastErr)
}

type outcome struct {
	text string
	err  error
}

// attempt runs one client call under its own deadline. It does not return
// until the call has returned or the cancel grace period has elapsed.
func (o *Orchestrator) attempt(ctx context.Context, req Request, n int) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	o.logger.Debug("ai request",
		"model", req.Model, "messages", len(req.Messages), "attempt", n, "timeout", o.cfg.Timeout)
	start := time.Now()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("client panic: %v", r)}
			}
		}()
		text, err := o.client.Complete(attemptCtx, req)
		done <- outcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %v", ErrAttemptTimeout, o.cfg.Timeout, out.err)
		}
		if out.err == nil {
			o.logger.Debug("ai response",
				"model", req.Model, "attempt", n, "chars", len(out.text), "duration", time.Since(start))
		}
		return out.text, out.err

	case <-attemptCtx.Done():
		cancel()
		grace := time.NewTimer(o.cfg.CancelGrace)
		defer grace.Stop()
		select {
		case <-done:
		case <-grace.C:
			o.logger.Warn("ai client ignored cancellation", "model", req.Model, "attempt", n, "grace", o.cfg.CancelGrace)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w after %s", ErrAttemptTimeout, o.cfg.Timeout)
	}
}

func failure(kind ErrorKind, attempts int, cause error) Result {
	return Result{
		Status:    StatusError,
		ErrorKind: kind,
		Attempts:  attempts,
		Err:       &AIRequestError{Kind: kind, Attempts: attempts, Cause: cause},
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
