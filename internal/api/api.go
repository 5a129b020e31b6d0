// Package api wires the HTTP surface: the router, the per-route pipeline
// configuration, and the handlers behind each data operation.
package api

import (
	"github.com/gorilla/mux"

	"github.com/praxisos/praxis-server/internal/auditstore"
	"github.com/praxisos/praxis-server/internal/config"
	"github.com/praxisos/praxis-server/internal/logging"
	"github.com/praxisos/praxis-server/internal/metrics"
	"github.com/praxisos/praxis-server/internal/pipeline"
	"github.com/praxisos/praxis-server/internal/push"
	"github.com/praxisos/praxis-server/internal/store"
)

// Server bundles the dependencies of the HTTP handlers.
type Server struct {
	store    *store.Store
	audit    *auditstore.Store
	sender   *push.Sender
	pipeline *pipeline.Pipeline
	logger   *logging.Logger
	metrics  *metrics.Metrics
	config   *config.Config
	features *config.FeaturesConfig
	version  string
}

// Options configures a Server.
type Options struct {
	Store    *store.Store
	Audit    *auditstore.Store
	Sender   *push.Sender
	Pipeline *pipeline.Pipeline
	Logger   *logging.Logger
	Metrics  *metrics.Metrics
	Config   *config.Config
	Features *config.FeaturesConfig
	Version  string
}

// NewServer creates the HTTP server wiring.
func NewServer(opts Options) *Server {
	return &Server{
		store:    opts.Store,
		audit:    opts.Audit,
		sender:   opts.Sender,
		pipeline: opts.Pipeline,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		config:   opts.Config,
		features: opts.Features,
		version:  opts.Version,
	}
}

// pathVar reads a raw path variable that is not a canonical identifier
// (webhook sources, invite tokens). Canonical ids go through the pipeline's
// identifier validation instead.
func pathVar(req *pipeline.Request, name string) string {
	return mux.Vars(req.HTTP)[name]
}
