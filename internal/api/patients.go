package api

import (
	"context"

	"github.com/praxisos/praxis-server/internal/pipeline"
)

func (s *Server) ownPatientOp() pipeline.Operation {
	return pipeline.Operation{
		Name:  "patients.me",
		Roles: pipeline.Roles(pipeline.RolePatient),
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			patient, err := s.requirePatientProfile(ctx, req)
			if err != nil {
				return nil, err
			}
			return pipeline.OK(map[string]any{"patient": patient}), nil
		},
	}
}
