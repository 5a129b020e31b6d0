// Package reminders dispatches due appointment reminders as web-push
// notifications via the server's internal push endpoint.
package reminders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/praxisos/praxis-server/internal/logging"
	"github.com/praxisos/praxis-server/internal/store"
)

// dedupeTTL keeps a sent marker long enough to survive restarts without
// growing the keyspace forever.
const dedupeTTL = 48 * time.Hour

// SecretHeader is the shared-secret header of the push endpoint.
const SecretHeader = "X-Praxis-Push-Secret"

// Dispatcher loads due reminders and pushes them out, once each.
type Dispatcher struct {
	store      *store.Store
	redis      *redis.Client
	pushURL    string
	pushSecret string
	httpClient *http.Client
	logger     *logging.Logger
}

// Config configures a Dispatcher.
type Config struct {
	// PushURL is the full URL of the internal push dispatch endpoint.
	PushURL    string
	PushSecret string
}

// New creates a dispatcher.
func New(st *store.Store, rdb *redis.Client, cfg Config, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		store:      st,
		redis:      rdb,
		pushURL:    cfg.PushURL,
		pushSecret: cfg.PushSecret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// RunOnce processes every reminder due at now. Each reminder is dispatched at
// most once per day; the Redis marker is claimed before the push so a crash
// drops a reminder rather than duplicating it.
func (d *Dispatcher) RunOnce(ctx context.Context, now time.Time) error {
	due, err := d.store.DueReminders(ctx, now)
	if err != nil {
		return fmt.Errorf("load due reminders: %w", err)
	}

	for _, reminder := range due {
		if reminder.UserID == nil || *reminder.UserID == "" {
			continue
		}

		key := dedupeKey(reminder.ID, now)
		claimed, err := d.redis.SetNX(ctx, key, "1", dedupeTTL).Result()
		if err != nil {
			d.logger.WithContext(ctx).WithError(err).Warn("reminder dedupe check failed")
			continue
		}
		if !claimed {
			continue
		}

		if err := d.sendPush(ctx, *reminder.UserID, reminder.Titel); err != nil {
			d.logger.WithContext(ctx).WithError(err).WithField("reminder_id", reminder.ID).
				Warn("reminder push failed")
			continue
		}

		if err := d.store.MarkReminderSent(ctx, reminder.ID, now); err != nil {
			d.logger.WithContext(ctx).WithError(err).WithField("reminder_id", reminder.ID).
				Warn("mark reminder sent failed")
		}
	}
	return nil
}

func dedupeKey(reminderID string, now time.Time) string {
	return fmt.Sprintf("reminder:%s:%s", reminderID, now.UTC().Format("2006-01-02"))
}

func (d *Dispatcher) sendPush(ctx context.Context, userID, title string) error {
	payload, err := json.Marshal(map[string]any{
		"userIds": []string{userID},
		"title":   title,
		"url":     "/termine",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.pushURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, d.pushSecret)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
