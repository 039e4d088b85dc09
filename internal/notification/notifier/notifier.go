// Package notifier records donor notifications and fans them out to delivery
// sinks. Delivery is best-effort: failures are logged and counted, never
// returned to the calling workflow.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	donormodels "helpinghands/internal/donor/models"
	emergencymodels "helpinghands/internal/emergency/models"
	"helpinghands/internal/notification/models"
	"helpinghands/internal/platform/metrics"
	"helpinghands/pkg/requestcontext"
)

const sinkStore = "store"

// Store persists notifications.
type Store interface {
	Append(ctx context.Context, n *models.Notification) error
}

// Sink delivers a notification outside the process.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n *models.Notification, donor *donormodels.Donor) error
}

// Notifier implements the emergency and thank-you notification hooks.
type Notifier struct {
	store   Store
	sinks   []Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Notifier)

func WithSink(s Sink) Option {
	return func(n *Notifier) {
		if s != nil {
			n.sinks = append(n.sinks, s)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

func New(store Store, opts ...Option) *Notifier {
	n := &Notifier{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyEmergency tells one matched donor about an emergency.
func (n *Notifier) NotifyEmergency(ctx context.Context, donor *donormodels.Donor, e *emergencymodels.Emergency) {
	summary := fmt.Sprintf("Emergency: %s needs %s at %s", e.PatientName, e.BloodGroup, e.Hospital)
	msg := fmt.Sprintf("%s. Contact %s.", summary, e.Contact)
	id := e.ID
	n.send(ctx, donor, models.New(donor.ID, &id, models.TypeEmergency, msg, requestcontext.Now(ctx)), summary)
}

// ThankDonor sends the post-donation thank-you.
func (n *Notifier) ThankDonor(ctx context.Context, donor *donormodels.Donor) {
	msg := fmt.Sprintf("Thank you, %s! Your donation #%d can save up to three lives.", donor.Name, donor.DonationCount)
	n.send(ctx, donor, models.New(donor.ID, nil, models.TypeThankYou, msg, requestcontext.Now(ctx)), msg)
}

func (n *Notifier) send(ctx context.Context, donor *donormodels.Donor, note *models.Notification, summary string) {
	n.logger.InfoContext(ctx, "notification sent",
		"request_id", requestcontext.RequestID(ctx),
		"donor_id", donor.ID,
		"donor_name", donor.Name,
		"notification_id", note.ID,
		"type", note.Type,
	)
	n.logger.InfoContext(ctx, summary, "notification_id", note.ID)

	err := n.store.Append(ctx, note)
	n.metrics.RecordNotification(sinkStore, err)
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to store notification",
			"notification_id", note.ID,
			"error", err,
		)
	}

	for _, sink := range n.sinks {
		err := sink.Deliver(ctx, note, donor)
		n.metrics.RecordNotification(sink.Name(), err)
		if err != nil {
			n.logger.WarnContext(ctx, "notification delivery failed",
				"sink", sink.Name(),
				"notification_id", note.ID,
				"error", err,
			)
		}
	}
}
