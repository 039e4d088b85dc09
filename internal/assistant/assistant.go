// Package assistant drafts emergency alert text and answers donation
// questions through an external text-generation model.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"helpinghands/internal/platform/metrics"
	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/platform/circuit"
	"helpinghands/pkg/requestcontext"
)

const (
	opDraft  = "draft_emergency"
	opAnswer = "answer"

	maxQuestionLength = 1000
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Assistant wraps a Generator with a per-call deadline and a circuit breaker.
// There are no retries and no caching.
type Assistant struct {
	gen     Generator
	timeout time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Assistant)

func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(a *Assistant) {
		a.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Assistant) {
		a.metrics = m
	}
}

// New constructs an Assistant. Defaults: 15s timeout, breaker named "ai".
func New(gen Generator, opts ...Option) *Assistant {
	a := &Assistant{
		gen:     gen,
		timeout: 15 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.breaker == nil {
		a.breaker = circuit.New("ai")
	}
	return a
}

// DraftEmergencyMessage returns the model's alert text verbatim.
func (a *Assistant) DraftEmergencyMessage(ctx context.Context, b EmergencyBrief) (string, error) {
	return a.generate(ctx, opDraft, emergencyPrompt(b))
}

// FallbackEmergencyMessage returns template alert text for b.
func (a *Assistant) FallbackEmergencyMessage(b EmergencyBrief) string {
	a.metrics.IncrementAIFallbacks()
	return FallbackEmergencyMessage(b)
}

// Answer responds to a free-text blood donation question.
func (a *Assistant) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", dErrors.New(dErrors.CodeValidation, "question is required")
	}
	if utf8.RuneCountInString(question) > maxQuestionLength {
		return "", dErrors.New(dErrors.CodeValidation, "question is too long")
	}
	return a.generate(ctx, opAnswer, answerPrompt(question))
}

func (a *Assistant) generate(ctx context.Context, op, prompt string) (string, error) {
	if !a.breaker.Allow() {
		a.metrics.RecordAIRejected(op)
		return "", dErrors.New(dErrors.CodeUnavailable, "AI service unavailable")
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	text, err := a.gen.Generate(callCtx, prompt)
	a.metrics.ObserveAIRequest(op, start, err)
	if err != nil {
		if _, change := a.breaker.RecordFailure(); change.Opened {
			a.logger.WarnContext(ctx, "ai circuit opened",
				"breaker", a.breaker.Name(),
			)
		}
		a.logger.ErrorContext(ctx, "ai request failed",
			"request_id", requestcontext.RequestID(ctx),
			"operation", op,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "AI service timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "AI service unavailable")
	}
	if _, change := a.breaker.RecordSuccess(); change.Closed {
		a.logger.InfoContext(ctx, "ai circuit closed", "breaker", a.breaker.Name())
	}
	return text, nil
}
