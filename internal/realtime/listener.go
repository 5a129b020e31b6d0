// Package realtime fans new-message events out to web-push subscriptions.
// Delivery is best effort: events arriving while the websocket is down are
// lost, and failed pushes are counted, not retried.
package realtime

import (
	"context"
	"fmt"

	"github.com/praxisos/praxis-server/internal/logging"
	"github.com/praxisos/praxis-server/internal/metrics"
	"github.com/praxisos/praxis-server/internal/push"
	"github.com/praxisos/praxis-server/internal/store"
	"github.com/praxisos/praxis-server/internal/supabase"
)

// Listener subscribes to message inserts and notifies the recipient.
type Listener struct {
	realtime *supabase.RealtimeClient
	store    *store.Store
	sender   *push.Sender
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewListener creates a listener.
func NewListener(rt *supabase.RealtimeClient, st *store.Store, sender *push.Sender, logger *logging.Logger, m *metrics.Metrics) *Listener {
	return &Listener{realtime: rt, store: st, sender: sender, logger: logger, metrics: m}
}

// Run blocks until ctx is cancelled, reconnecting on connection loss.
func (l *Listener) Run(ctx context.Context) error {
	sub := supabase.SubscriptionConfig{
		Table: "nachrichten",
		Event: supabase.EventInsert,
	}
	return l.realtime.Listen(ctx, sub, func(event supabase.ChangeEvent) {
		l.handleMessage(ctx, event)
	})
}

func (l *Listener) handleMessage(ctx context.Context, event supabase.ChangeEvent) {
	if l.metrics != nil {
		l.metrics.RecordRealtimeEvent(event.Table)
	}

	recipient, _ := event.Record["empfaenger_id"].(string)
	if recipient == "" {
		return
	}

	subs, err := l.store.PushSubscriptionsByUsers(ctx, []string{recipient})
	if err != nil {
		l.logger.WithContext(ctx).WithError(err).Warn("load recipient subscriptions failed")
		return
	}
	if len(subs) == 0 {
		return
	}

	notification := push.Notification{
		Title: "Neue Nachricht",
		Body:  messagePreview(event.Record),
		URL:   "/nachrichten",
	}
	report := l.sender.Dispatch(ctx, subs, notification, l.store)
	if report.Failed > 0 {
		l.logger.WithContext(ctx).WithFields(map[string]any{
			"recipient": recipient,
			"failed":    report.Failed,
		}).Warn("message push partially failed")
	}
}

// messagePreview truncates the message body for the notification.
func messagePreview(record map[string]any) string {
	inhalt, _ := record["inhalt"].(string)
	if inhalt == "" {
		return "Sie haben eine neue Nachricht erhalten."
	}
	runes := []rune(inhalt)
	if len(runes) > 80 {
		return fmt.Sprintf("%s…", string(runes[:80]))
	}
	return inhalt
}
