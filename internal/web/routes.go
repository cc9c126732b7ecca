package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/recall/internal/web/handlers"
	"github.com/kozaktomas/recall/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	recognizeHandler := handlers.NewRecognizeHandler(s.config, s.deps.Pipeline, s.deps.Enrollment, s.deps.Announcer)
	peopleHandler := handlers.NewPeopleHandler(s.deps.Enrollment)
	announcementHandler := handlers.NewAnnouncementHandler(s.config, s.deps.Enrollment, s.deps.Announcer)
	eventsHandler := handlers.NewEventsHandler(s.deps.Events)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(s.config.Web.APIToken))

			// Recognition
			r.Post("/patients/{patientId}/recognize", recognizeHandler.Recognize)
			r.Get("/patients/{patientId}/events", eventsHandler.List)
			r.Get("/patients/{patientId}/people", peopleHandler.List)

			// Enrollment
			r.Post("/people", peopleHandler.Create)
			r.Get("/people/{personId}", peopleHandler.Get)
			r.Put("/people/{personId}", peopleHandler.Update)
			r.Delete("/people/{personId}", peopleHandler.Delete)
			r.Post("/people/{personId}/references", peopleHandler.AddReference)
			r.Get("/people/{personId}/references", peopleHandler.ListReferences)
			r.Delete("/people/{personId}/references/{referenceId}", peopleHandler.RemoveReference)

			// Announcements
			r.Post("/people/{personId}/announcement-audio", announcementHandler.Generate)
		})
	})

	// Announcement audio for the local store backend.
	if s.deps.AudioDir != "" {
		s.router.Get("/audio/*", serveLocalAudio(s.deps.AudioDir))
	}
}
