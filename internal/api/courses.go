package api

import (
	"context"
	stderrors "errors"

	"github.com/praxisos/praxis-server/internal/errors"
	"github.com/praxisos/praxis-server/internal/pipeline"
	"github.com/praxisos/praxis-server/internal/store"
)

func (s *Server) listCoursesOp() pipeline.Operation {
	return pipeline.Operation{
		Name: "courses.list",
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			courses, err := s.store.ListCourses(ctx, req.Token)
			if err != nil {
				return nil, errors.Upstream(err)
			}
			return pipeline.OK(map[string]any{"courses": courses}), nil
		},
	}
}

func (s *Server) getCourseOp() pipeline.Operation {
	return pipeline.Operation{
		Name:     "courses.get",
		IDParams: []string{"id"},
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			course, err := s.store.GetCourse(ctx, req.IDs["id"], req.Token)
			if err != nil {
				return nil, errors.Upstream(err)
			}
			if course == nil {
				return nil, errors.NotFound("Kurs nicht gefunden.")
			}
			return pipeline.OK(map[string]any{"course": course}), nil
		},
	}
}

func (s *Server) archiveCourseOp() pipeline.Operation {
	return pipeline.Operation{
		Name:     "courses.archive",
		Roles:    pipeline.Staff(),
		IDParams: []string{"id"},
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			archived, err := s.store.ArchiveCourse(ctx, req.IDs["id"], req.Token)
			if err != nil {
				return nil, errors.Upstream(err)
			}
			// Zero matched rows covers both an unknown course and one that is
			// already archived; neither re-triggers the transition.
			if !archived {
				return nil, errors.NotFound("Kurs nicht gefunden.")
			}
			return pipeline.OK(map[string]bool{"success": true}), nil
		},
	}
}

func (s *Server) publishCourseOp() pipeline.Operation {
	return pipeline.Operation{
		Name:     "courses.publish",
		Roles:    pipeline.Staff(),
		IDParams: []string{"id"},
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			result, err := s.store.PublishCourse(ctx, req.IDs["id"], req.Token)
			switch {
			case stderrors.Is(err, store.ErrCourseNotOwned):
				return nil, errors.Forbidden("Keine Berechtigung oder Kurs nicht gefunden.")
			case stderrors.Is(err, store.ErrCourseNoLessons):
				return nil, errors.Unprocessable("Der Kurs hat keine Lektionen und kann nicht veröffentlicht werden.")
			case err != nil:
				return nil, errors.Upstream(err)
			}
			return pipeline.OK(result), nil
		},
	}
}
