// Package push delivers web-push notifications to stored subscriptions.
package push

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/praxisos/praxis-server/internal/logging"
	"github.com/praxisos/praxis-server/internal/metrics"
	"github.com/praxisos/praxis-server/internal/store"
)

// ErrSubscriptionGone signals that the push service no longer knows the
// endpoint; the stored subscription should be removed.
var ErrSubscriptionGone = stderrors.New("push subscription gone")

// Notification is the payload shown to the user.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	URL   string `json:"url,omitempty"`
}

// SubscriptionRemover removes a dead subscription from the store.
type SubscriptionRemover interface {
	RemovePushSubscription(ctx context.Context, id string) error
}

// Sender sends notifications with the configured VAPID keys.
type Sender struct {
	options webpush.Options
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// Config holds sender configuration.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// Contact is the subscriber contact (mailto: URI) announced to push
	// services.
	Contact string
}

// NewSender creates a sender.
func NewSender(cfg Config, logger *logging.Logger, m *metrics.Metrics) (*Sender, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("VAPID key pair is required")
	}
	return &Sender{
		options: webpush.Options{
			Subscriber:      cfg.Contact,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             60,
		},
		logger:  logger,
		metrics: m,
	}, nil
}

// Send delivers one notification to one subscription.
func (s *Sender) Send(ctx context.Context, sub store.PushSubscription, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.AuthKey,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &s.options)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

// Report summarizes a dispatch run.
type Report struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Cleaned int `json:"cleaned"`
}

// Dispatch sends a notification to every subscription, removing the ones
// the push service reports as gone. Failures are counted, not retried.
func (s *Sender) Dispatch(ctx context.Context, subs []store.PushSubscription, n Notification, remover SubscriptionRemover) Report {
	var report Report
	for _, sub := range subs {
		err := s.Send(ctx, sub, n)
		switch {
		case err == nil:
			report.Sent++
		case stderrors.Is(err, ErrSubscriptionGone):
			report.Cleaned++
			if remover != nil {
				if rmErr := remover.RemovePushSubscription(ctx, sub.ID); rmErr != nil {
					s.logger.WithContext(ctx).WithError(rmErr).Warn("failed to remove dead subscription")
				}
			}
		default:
			report.Failed++
			s.logger.WithContext(ctx).WithError(err).Warn("push delivery failed")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordPushDispatch("sent", report.Sent)
		s.metrics.RecordPushDispatch("failed", report.Failed)
		s.metrics.RecordPushDispatch("cleaned", report.Cleaned)
	}
	return report
}
