package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// RealtimeHandler handles database change events.
type RealtimeHandler func(event ChangeEvent)

// RealtimeClient subscribes to database changes over the phoenix-channel
// websocket protocol.
type RealtimeClient struct {
	client *Client

	mu  sync.Mutex
	ref int
}

const (
	realtimeHeartbeatInterval = 25 * time.Second
	realtimeMaxBackoff        = time.Minute
)

// phxMessage is the phoenix channel wire format.
type phxMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
}

// Listen subscribes to the configured table and invokes handler for each
// matching change event. It blocks until ctx is cancelled, reconnecting with
// exponential backoff on connection loss. Events arriving while disconnected
// are lost; callers that need durability must not rely on this channel.
func (r *RealtimeClient) Listen(ctx context.Context, sub SubscriptionConfig, handler RealtimeHandler) error {
	if sub.Schema == "" {
		sub.Schema = "public"
	}
	if sub.Event == "" {
		sub.Event = EventAll
	}
	if sub.Table == "" {
		return fmt.Errorf("table is required")
	}

	backoff := time.Second
	for {
		err := r.listenOnce(ctx, sub, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > realtimeMaxBackoff {
			backoff = realtimeMaxBackoff
		}
	}
}

// listenOnce runs a single websocket session until it fails or ctx ends.
func (r *RealtimeClient) listenOnce(ctx context.Context, sub SubscriptionConfig, handler RealtimeHandler) error {
	wsURL := fmt.Sprintf("%s/websocket?apikey=%s&vsn=1.0.0", r.client.realtimeURL, r.client.config.AnonKey)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial realtime: %w", err)
	}
	defer conn.Close()

	topic := fmt.Sprintf("realtime:%s:%s", sub.Schema, sub.Table)
	if err := r.send(conn, topic, "phx_join", map[string]any{}); err != nil {
		return fmt.Errorf("join channel: %w", err)
	}

	// Heartbeats keep the channel open; the server drops silent clients.
	heartbeatDone := make(chan struct{})
	defer close(heartbeatDone)
	go func() {
		ticker := time.NewTicker(realtimeHeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.send(conn, "phoenix", "heartbeat", map[string]any{}); err != nil {
					return
				}
			case <-heartbeatDone:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		var msg phxMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read realtime message: %w", err)
		}

		switch msg.Event {
		case "phx_reply", "phx_close", "heartbeat":
			continue
		case string(EventInsert), string(EventUpdate), string(EventDelete):
			if sub.Event != EventAll && string(sub.Event) != msg.Event {
				continue
			}
		default:
			continue
		}

		var payload struct {
			Record          map[string]any `json:"record"`
			OldRecord       map[string]any `json:"old_record"`
			Table           string         `json:"table"`
			Schema          string         `json:"schema"`
			CommitTimestamp time.Time      `json:"commit_timestamp"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			continue
		}

		handler(ChangeEvent{
			Type:      msg.Event,
			Table:     payload.Table,
			Schema:    payload.Schema,
			Record:    payload.Record,
			OldRecord: payload.OldRecord,
			Timestamp: payload.CommitTimestamp,
		})
	}
}

func (r *RealtimeClient) send(conn *websocket.Conn, topic, event string, payload any) error {
	r.mu.Lock()
	r.ref++
	ref := strconv.Itoa(r.ref)
	r.mu.Unlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(phxMessage{
		Topic:   topic,
		Event:   event,
		Payload: raw,
		Ref:     &ref,
	})
}
