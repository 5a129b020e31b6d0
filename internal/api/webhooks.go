package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/praxisos/praxis-server/internal/auditstore"
	"github.com/praxisos/praxis-server/internal/errors"
	"github.com/praxisos/praxis-server/internal/pipeline"
)

// sourcePattern constrains the webhook source path segment.
var sourcePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// maxWebhookBody bounds stored webhook payloads.
const maxWebhookBody = 256 << 10

var errAuditDisabled = stderrors.New("audit store not configured")

func (s *Server) recordWebhookOp() pipeline.Operation {
	return pipeline.Operation{
		Name:   "webhooks.record",
		Public: true,
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			if s.audit == nil {
				return nil, errors.Upstream(errAuditDisabled)
			}
			source := pathVar(req, "source")
			if !sourcePattern.MatchString(source) {
				return nil, errors.BadRequest("Ungültige Webhook-Quelle.")
			}

			raw, err := io.ReadAll(io.LimitReader(req.HTTP.Body, maxWebhookBody))
			if err != nil {
				return nil, errors.BadRequest("Ungültiger Request-Body.")
			}
			if !json.Valid(raw) {
				return nil, errors.BadRequest("Ungültiger Request-Body.")
			}

			eventType := gjson.GetBytes(raw, "type").String()
			if eventType == "" {
				eventType = gjson.GetBytes(raw, "event").String()
			}
			if eventType == "" {
				eventType = "unknown"
			}

			if err := s.audit.Insert(ctx, source, eventType, json.RawMessage(raw)); err != nil {
				return nil, errors.Upstream(err)
			}
			return pipeline.OK(map[string]bool{"ok": true}), nil
		},
	}
}

func (s *Server) listWebhookEventsOp() pipeline.Operation {
	return pipeline.Operation{
		Name:  "webhooks.list_events",
		Roles: pipeline.Roles(pipeline.RoleAdmin),
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			if s.audit == nil {
				return nil, errors.Upstream(errAuditDisabled)
			}
			events, err := s.audit.Recent(ctx, auditstore.MaxRecentEvents)
			if err != nil {
				return nil, errors.Upstream(err)
			}
			return pipeline.OK(map[string]any{"events": events}), nil
		},
	}
}
