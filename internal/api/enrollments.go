package api

import (
	"context"
	"time"

	"github.com/praxisos/praxis-server/internal/errors"
	"github.com/praxisos/praxis-server/internal/pipeline"
	"github.com/praxisos/praxis-server/internal/store"
)

type enrollmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=aktiv abgeschlossen abgebrochen"`
}

func (s *Server) updateEnrollmentOp() pipeline.Operation {
	return pipeline.Operation{
		Name:     "enrollments.update_status",
		Roles:    pipeline.Staff(),
		IDParams: []string{"id", "enrollmentId"},
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			var body enrollmentStatusRequest
			if err := pipeline.DecodeValid(req.HTTP, &body); err != nil {
				return nil, err
			}

			patch := store.DeriveEnrollmentPatch(body.Status, time.Now().UTC())
			enrollment, err := s.store.UpdateEnrollmentStatus(ctx,
				req.IDs["id"], req.IDs["enrollmentId"], patch, req.Token)
			if err != nil {
				return nil, errors.Upstream(err)
			}
			if enrollment == nil {
				return nil, errors.NotFound("Anmeldung nicht gefunden.")
			}
			return pipeline.OK(map[string]any{"enrollment": enrollment}), nil
		},
	}
}
