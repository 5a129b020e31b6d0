package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/praxisos/praxis-server/internal/supabase"
)

// SavePushSubscription stores or refreshes a subscription for the caller.
// Upserts on the endpoint so re-subscribing from the same browser replaces
// the old keys.
func (s *Store) SavePushSubscription(ctx context.Context, sub PushSubscription, token string) (*PushSubscription, error) {
	var rows []PushSubscription
	err := s.db.From("push_subscriptions").
		Upsert(sub, "endpoint").
		WithToken(token).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("save push subscription: %w", err)
	}
	if len(rows) == 0 {
		return &sub, nil
	}
	return &rows[0], nil
}

// DeletePushSubscription removes the caller's subscription for an endpoint.
// Returns false when no row matched.
func (s *Store) DeletePushSubscription(ctx context.Context, endpoint, token string) (bool, error) {
	var rows []PushSubscription
	err := s.db.From("push_subscriptions").
		Delete().
		Eq("endpoint", endpoint).
		WithToken(token).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return false, fmt.Errorf("delete push subscription: %w", err)
	}
	return len(rows) > 0, nil
}

// PushSubscriptionsByUsers returns the subscriptions of the given users.
// Privileged: used by the dispatch endpoint and background components only.
func (s *Store) PushSubscriptionsByUsers(ctx context.Context, userIDs []string) ([]PushSubscription, error) {
	if len(userIDs) == 0 {
		return []PushSubscription{}, nil
	}

	var rows []PushSubscription
	err := s.db.From("push_subscriptions").
		Select("*").
		Filter("user_id", supabase.OpIn, "("+strings.Join(userIDs, ",")+")").
		WithServiceRole().
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("load push subscriptions: %w", err)
	}
	if rows == nil {
		rows = []PushSubscription{}
	}
	return rows, nil
}

// AllPushSubscriptions returns every stored subscription. Privileged;
// used for broadcast dispatches.
func (s *Store) AllPushSubscriptions(ctx context.Context) ([]PushSubscription, error) {
	var rows []PushSubscription
	err := s.db.From("push_subscriptions").
		Select("*").
		WithServiceRole().
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("load push subscriptions: %w", err)
	}
	if rows == nil {
		rows = []PushSubscription{}
	}
	return rows, nil
}

// RemovePushSubscription deletes a subscription by ID. Privileged; used to
// clean up endpoints the push service reports as gone.
func (s *Store) RemovePushSubscription(ctx context.Context, id string) error {
	_, err := s.db.From("push_subscriptions").
		Delete().
		Eq("id", id).
		WithServiceRole().
		Execute(ctx)
	if err != nil {
		return fmt.Errorf("remove push subscription: %w", err)
	}
	return nil
}
