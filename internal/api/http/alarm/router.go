package alarm

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oshokin/alarm-orchestrator/internal/auth"
)

// NewRouter assembles the full route tree for the orchestrator.
// Health is open; trigger recording accepts anonymous sensor calls;
// everything else requires a verified identity.
func NewRouter(handler *Handler, verifier *auth.Verifier) http.Handler {
	router := chi.NewRouter()

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware)
	router.Use(recoverMiddleware)

	router.Get("/health", handler.health)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/arming", func(arming chi.Router) {
			arming.Use(requireAuth(verifier))

			arming.Get("/", handler.allStatuses)
			arming.Post("/{alarm_id}/arm", handler.arm)
			arming.Post("/{alarm_id}/disarm", handler.disarm)
			arming.Get("/{alarm_id}", handler.status)
		})

		api.Route("/triggers", func(triggers chi.Router) {
			triggers.With(optionalAuth(verifier)).Post("/", handler.recordTrigger)

			triggers.Group(func(protected chi.Router) {
				protected.Use(requireAuth(verifier))

				protected.Get("/", handler.listAllTriggers)
				protected.Get("/{alarm_id}", handler.listTriggers)
				protected.Get("/{alarm_id}/active", handler.listActiveTriggers)
				protected.Get("/{alarm_id}/stats", handler.triggerStats)
				protected.Patch("/events/{event_id}/resolve", handler.resolveTrigger)
			})
		})
	})

	return router
}
