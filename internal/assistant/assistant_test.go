package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpinghands/internal/platform/metrics"
	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/platform/circuit"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
	delay   time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func newAssistant(gen Generator, opts ...Option) (*Assistant, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(m),
	}, opts...)
	return New(gen, opts...), m
}

var brief = EmergencyBrief{PatientName: "Meera", BloodGroup: "A+", Hospital: "AIIMS", Contact: "+91 99999 00000"}

func TestDraftEmergencyMessage(t *testing.T) {
	gen := &fakeGenerator{reply: "Please help Meera"}
	a, _ := newAssistant(gen)

	text, err := a.DraftEmergencyMessage(context.Background(), brief)
	require.NoError(t, err)
	assert.Equal(t, "Please help Meera", text)

	require.Len(t, gen.prompts, 1)
	p := gen.prompts[0]
	assert.True(t, strings.HasPrefix(p, "Generate a compassionate and urgent emergency alert message for blood donors."))
	for _, want := range []string{"Patient: Meera", "Blood Group: A+", "Hospital: AIIMS", "Contact: +91 99999 00000", "Keep it concise, emotional, and actionable."} {
		assert.Contains(t, p, want)
	}
}

func TestAnswer(t *testing.T) {
	t.Run("embeds question in template", func(t *testing.T) {
		gen := &fakeGenerator{reply: "Every 56 days."}
		a, m := newAssistant(gen)

		text, err := a.Answer(context.Background(), "  How often can I donate?  ")
		require.NoError(t, err)
		assert.Equal(t, "Every 56 days.", text)
		assert.Contains(t, gen.prompts[0], "Question: How often can I donate?")
		assert.Contains(t, gen.prompts[0], "Keep the answer under 150 words.")
		assert.Equal(t, float64(1), promtestutil.ToFloat64(m.AIRequests.WithLabelValues(opAnswer, "success")))
	})

	t.Run("empty question never calls the model", func(t *testing.T) {
		gen := &fakeGenerator{}
		a, _ := newAssistant(gen)
		_, err := a.Answer(context.Background(), "   ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Empty(t, gen.prompts)
	})

	t.Run("length limit counts characters not bytes", func(t *testing.T) {
		gen := &fakeGenerator{reply: "ok"}
		a, _ := newAssistant(gen)

		atLimit := strings.Repeat("र", maxQuestionLength)
		_, err := a.Answer(context.Background(), atLimit)
		require.NoError(t, err)

		_, err = a.Answer(context.Background(), atLimit+"र")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Len(t, gen.prompts, 1)
	})

	t.Run("model failure is unavailable", func(t *testing.T) {
		a, _ := newAssistant(&fakeGenerator{err: errors.New("503")})
		_, err := a.Answer(context.Background(), "Can I donate after a tattoo?")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		assert.Contains(t, err.Error(), "AI service unavailable")
	})
}

func TestTimeoutBoundsTheCall(t *testing.T) {
	a, _ := newAssistant(&fakeGenerator{delay: time.Second}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := a.DraftEmergencyMessage(context.Background(), brief)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	breaker := circuit.New("ai", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Minute), circuit.WithClock(clock))
	gen := &fakeGenerator{err: errors.New("boom")}
	a, m := newAssistant(gen, WithBreaker(breaker))

	for i := 0; i < 2; i++ {
		_, err := a.Answer(context.Background(), "q")
		require.Error(t, err)
	}
	assert.True(t, breaker.IsOpen())

	_, err := a.Answer(context.Background(), "q")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Len(t, gen.prompts, 2, "open breaker must not reach the model")
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.AIRequests.WithLabelValues(opAnswer, "rejected")))

	now = now.Add(2 * time.Minute)
	gen.err = nil
	gen.reply = "ok"
	text, err := a.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestFallbackEmergencyMessage(t *testing.T) {
	a, m := newAssistant(&fakeGenerator{})
	msg := a.FallbackEmergencyMessage(brief)
	for _, want := range []string{"Meera", "A+", "AIIMS", "+91 99999 00000"} {
		assert.Contains(t, msg, want)
	}
	assert.Equal(t, msg, FallbackEmergencyMessage(brief))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.AIFallbacksUsed))
}
