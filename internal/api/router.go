package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"insiden/internal/auth"
	domainincident "insiden/internal/domain/incident"
	"insiden/internal/ports"
	incidentusecase "insiden/internal/usecase/incident"
)

// Server holds the handler dependencies and builds the HTTP router.
type Server struct {
	incidents *incidentusecase.Service
	users     ports.UserRepository
	tokens    *auth.TokenIssuer
}

func NewServer(incidents *incidentusecase.Service, users ports.UserRepository, tokens *auth.TokenIssuer) *Server {
	return &Server{
		incidents: incidents,
		users:     users,
		tokens:    tokens,
	}
}

// Router builds the versioned API surface. Lifecycle authorization beyond the
// coarse role gate lives in the usecases, so every transition failure comes
// back as a typed workflow error rather than a routing 404.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/incidents", func(r chi.Router) {
				r.With(requireRole(domainincident.RolePerawat)).Post("/", s.handleCreateIncident)
				r.With(requireRole(domainincident.RolePerawat)).Put("/{incidentID}", s.handleUpdateIncident)
				r.With(requireRole(domainincident.RolePerawat)).Post("/{incidentID}/submit", s.handleSubmitIncident)
				r.Get("/", s.handleListIncidents)
				r.Get("/{incidentID}", s.handleGetIncident)
			})

			r.Route("/approvals", func(r chi.Router) {
				r.With(requireRole(domainincident.RolePJ)).Post("/{incidentID}/pj", s.handlePJReview)
				r.With(requireRole(domainincident.RoleMutu)).Post("/{incidentID}/mutu", s.handleMutuReview)
				r.With(requireRole(domainincident.RoleMutu, domainincident.RoleAdmin)).Post("/{incidentID}/close", s.handleCloseIncident)
			})

			r.Route("/references", func(r chi.Router) {
				r.Get("/incident-categories", s.handleListCategories)
				r.Get("/departments", s.handleListDepartments)
				r.Get("/locations", s.handleListLocations)
			})
		})
	})

	return r
}
