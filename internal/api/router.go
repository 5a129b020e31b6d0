package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/praxisos/praxis-server/internal/middleware"
	"github.com/praxisos/praxis-server/internal/pipeline"
)

// Shared-secret headers for machine-to-machine endpoints.
const (
	PushSecretHeader    = "X-Praxis-Push-Secret"
	WebhookSecretHeader = "X-Praxis-Webhook-Secret"
)

// Router builds the full route table with the middleware chain applied.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Tracing(s.logger))
	r.Use(middleware.Metrics(s.metrics))
	r.Use(middleware.CORS(s.config.AllowedOrigins()))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.features.IsEnabled("system_health") {
		r.HandleFunc("/health/system", s.handleSystemHealth).Methods(http.MethodGet)
	}
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	limiter := middleware.NewRateLimiter(float64(s.config.RateLimitPerSecond), s.config.RateLimitBurst)
	api.Use(limiter.Middleware)

	// Courses.
	api.Handle("/courses", s.pipeline.Handler(s.listCoursesOp())).Methods(http.MethodGet)
	api.Handle("/courses/{id}", s.pipeline.Handler(s.getCourseOp())).Methods(http.MethodGet)
	api.Handle("/courses/{id}/archive", s.pipeline.Handler(s.archiveCourseOp())).Methods(http.MethodPost)
	api.Handle("/courses/{id}/publish", s.pipeline.Handler(s.publishCourseOp())).Methods(http.MethodPost)
	api.Handle("/courses/{id}/enrollments/{enrollmentId}",
		s.pipeline.Handler(s.updateEnrollmentOp())).Methods(http.MethodPatch)

	// Admin.
	api.Handle("/admin/webhook-events", s.pipeline.Handler(s.listWebhookEventsOp())).Methods(http.MethodGet)

	// Machine-to-machine, guarded by shared secrets instead of sessions.
	webhookGate := middleware.HeaderGate(WebhookSecretHeader, s.config.WebhookSharedSecret)
	api.Handle("/webhooks/{source}",
		webhookGate(s.pipeline.Handler(s.recordWebhookOp()))).Methods(http.MethodPost)

	pushGate := middleware.HeaderGate(PushSecretHeader, s.config.PushSharedSecret)
	api.Handle("/push/send",
		pushGate(s.pipeline.Handler(s.sendPushOp()))).Methods(http.MethodPost)

	// Caller-owned resources.
	api.Handle("/me/push/subscribe", s.pipeline.Handler(s.subscribePushOp())).Methods(http.MethodPost)
	api.Handle("/me/push/unsubscribe", s.pipeline.Handler(s.unsubscribePushOp())).Methods(http.MethodDelete)
	api.Handle("/patients/me", s.pipeline.Handler(s.ownPatientOp())).Methods(http.MethodGet)

	// Pre-authentication invite flow.
	api.Handle("/patients/invite/{token}", s.pipeline.Handler(s.inviteLookupOp())).Methods(http.MethodGet)
	api.Handle("/patients/invite/{token}/accept", s.pipeline.Handler(s.inviteAcceptOp())).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		pipeline.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "Nicht gefunden."})
	})
	return r
}
