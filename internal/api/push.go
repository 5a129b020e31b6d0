package api

import (
	"context"
	stderrors "errors"
	"net/url"

	"github.com/praxisos/praxis-server/internal/errors"
	"github.com/praxisos/praxis-server/internal/pipeline"
	"github.com/praxisos/praxis-server/internal/push"
	"github.com/praxisos/praxis-server/internal/store"
)

var errPushDisabled = stderrors.New("push sender not configured")

type subscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

// validEndpointURL reports whether the endpoint is an absolute http(s) URL.
// A non-URL endpoint is a malformed request, checked before any store call.
func validEndpointURL(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

// requirePatientProfile resolves the caller's patient record or fails with
// the profile-not-found outcome.
func (s *Server) requirePatientProfile(ctx context.Context, req *pipeline.Request) (*store.Patient, error) {
	patient, err := s.store.OwnPatient(ctx, req.Identity.Subject, req.Identity.Email, req.Token)
	if err != nil {
		return nil, errors.Upstream(err)
	}
	if patient == nil {
		return nil, errors.NotFound("Kein Patientenprofil gefunden.")
	}
	return patient, nil
}

func (s *Server) subscribePushOp() pipeline.Operation {
	return pipeline.Operation{
		Name: "push.subscribe",
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			var body subscribeRequest
			if err := pipeline.DecodeValid(req.HTTP, &body); err != nil {
				return nil, err
			}
			if !validEndpointURL(body.Endpoint) {
				return nil, errors.BadRequest("Ungültige Endpoint-URL.")
			}

			if _, err := s.requirePatientProfile(ctx, req); err != nil {
				return nil, err
			}

			sub := store.PushSubscription{
				UserID:   req.Identity.Subject,
				Endpoint: body.Endpoint,
				P256dh:   body.Keys.P256dh,
				AuthKey:  body.Keys.Auth,
			}
			if _, err := s.store.SavePushSubscription(ctx, sub, req.Token); err != nil {
				return nil, errors.Upstream(err)
			}
			return pipeline.OK(map[string]bool{"ok": true}), nil
		},
	}
}

func (s *Server) unsubscribePushOp() pipeline.Operation {
	return pipeline.Operation{
		Name: "push.unsubscribe",
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			var body unsubscribeRequest
			if err := pipeline.DecodeValid(req.HTTP, &body); err != nil {
				return nil, err
			}
			// The URL check runs before the profile lookup so a malformed
			// endpoint never triggers store I/O.
			if !validEndpointURL(body.Endpoint) {
				return nil, errors.BadRequest("Ungültige Endpoint-URL.")
			}

			if _, err := s.requirePatientProfile(ctx, req); err != nil {
				return nil, err
			}

			if _, err := s.store.DeletePushSubscription(ctx, body.Endpoint, req.Token); err != nil {
				return nil, errors.Upstream(err)
			}
			return pipeline.OK(map[string]bool{"ok": true}), nil
		},
	}
}

type sendPushRequest struct {
	UserIDs []string `json:"userIds" validate:"omitempty,dive,uuid"`
	Title   string   `json:"title" validate:"required,max=120"`
	Body    string   `json:"body" validate:"omitempty,max=500"`
	URL     string   `json:"url" validate:"omitempty,url"`
}

func (s *Server) sendPushOp() pipeline.Operation {
	return pipeline.Operation{
		Name:   "push.send",
		Public: true, // guarded by the shared-secret header gate
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			if s.sender == nil {
				return nil, errors.Upstream(errPushDisabled)
			}
			var body sendPushRequest
			if err := pipeline.DecodeJSON(req.HTTP, &body); err != nil {
				return nil, err
			}
			// Machine callers get 400 on schema violations, keeping the
			// endpoint's failure surface to bad-secret and bad-request.
			if err := pipeline.ValidatePayload(&body); err != nil {
				se := errors.GetServiceError(err)
				bad := errors.BadRequest("Ungültiger Request-Body.")
				if se != nil && se.Details != nil {
					bad = bad.WithDetails("fieldErrors", se.Details["fieldErrors"])
				}
				return nil, bad
			}

			var (
				subs []store.PushSubscription
				err  error
			)
			if len(body.UserIDs) > 0 {
				subs, err = s.store.PushSubscriptionsByUsers(ctx, body.UserIDs)
			} else {
				subs, err = s.store.AllPushSubscriptions(ctx)
			}
			if err != nil {
				return nil, errors.Upstream(err)
			}

			report := s.sender.Dispatch(ctx, subs, push.Notification{
				Title: body.Title,
				Body:  body.Body,
				URL:   body.URL,
			}, s.store)

			return pipeline.OK(map[string]any{
				"ok":      true,
				"sent":    report.Sent,
				"failed":  report.Failed,
				"cleaned": report.Cleaned,
			}), nil
		},
	}
}
