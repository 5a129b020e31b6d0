// Package pipeline implements the per-request authorization and validation
// sequence every API route runs: session resolution, role gating, identifier
// validation, payload validation, a single data operation, and response
// mapping. Routes declare their requirements as an Operation; the pipeline
// owns the ordering and the short-circuit behavior.
package pipeline

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/praxisos/praxis-server/internal/logging"
)

// Request carries the request-scoped values produced by the pipeline stages.
// Nothing in it outlives the request.
type Request struct {
	HTTP     *http.Request
	Identity Identity
	// Token is the caller's raw access token, passed to the data layer so
	// row-level security applies to every store call made on the caller's
	// behalf.
	Token string
	Role  Role
	// IDs holds the validated, canonicalized path identifiers.
	IDs map[string]string
}

// Result is a successful outcome.
type Result struct {
	Status int
	Body   any
}

// OK wraps a 200 outcome.
func OK(body any) *Result { return &Result{Status: http.StatusOK, Body: body} }

// Created wraps a 201 outcome.
func Created(body any) *Result { return &Result{Status: http.StatusCreated, Body: body} }

// Operation is the per-route pipeline configuration.
type Operation struct {
	// Name identifies the operation in logs.
	Name string

	// Public skips session resolution (pre-authentication routes such as
	// invite lookup).
	Public bool

	// Roles is the allow-list checked by the role gate. Empty admits any
	// authenticated caller without a profile lookup.
	Roles RoleSet

	// IDParams names the path variables validated as canonical
	// identifiers before any I/O.
	IDParams []string

	// Ownership is an optional fine-grained predicate evaluated after the
	// coarse role check.
	Ownership func(ctx context.Context, req *Request) error

	// Handle performs payload validation and the single data operation.
	Handle func(ctx context.Context, req *Request) (*Result, error)
}

// Pipeline wires the shared stages. One instance serves all routes.
type Pipeline struct {
	sessions SessionResolver
	gate     *RoleGate
	logger   *logging.Logger
}

// New assembles a pipeline.
func New(sessions SessionResolver, profiles ProfileDirectory, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		sessions: sessions,
		gate:     NewRoleGate(profiles),
		logger:   logger,
	}
}

// Handler turns an Operation into an http.HandlerFunc running the stages in
// order. Each failing stage terminates the request; later stages, including
// the data operation, never run.
func (p *Pipeline) Handler(op Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req := &Request{HTTP: r}

		if !op.Public {
			ident, token, err := p.sessions.Resolve(r)
			if err != nil {
				WriteError(w, r, p.logger, err)
				return
			}
			req.Identity = ident
			req.Token = token
			ctx = logging.WithUserID(ctx, ident.Subject)

			role, err := p.gate.Check(ctx, ident, op.Roles)
			if err != nil {
				WriteError(w, r.WithContext(ctx), p.logger, err)
				return
			}
			req.Role = role
			if role != "" {
				ctx = logging.WithRole(ctx, string(role))
			}
		}

		ids, err := ValidateIDs(mux.Vars(r), op.IDParams)
		if err != nil {
			WriteError(w, r.WithContext(ctx), p.logger, err)
			return
		}
		req.IDs = ids

		if op.Ownership != nil {
			if err := op.Ownership(ctx, req); err != nil {
				WriteError(w, r.WithContext(ctx), p.logger, err)
				return
			}
		}

		res, err := op.Handle(ctx, req)
		if err != nil {
			WriteError(w, r.WithContext(ctx), p.logger, err)
			return
		}
		if res == nil {
			res = OK(map[string]bool{"success": true})
		}
		WriteJSON(w, res.Status, res.Body)
	}
}
