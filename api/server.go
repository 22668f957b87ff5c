/*
server.go - HTTP router and middleware configuration

PURPOSE:

	Configures the HTTP router (chi), middleware stack, and route definitions.
	This is the wiring layer that connects URLs to handlers.

ROUTER: chi

	Chi was chosen for:
	- Lightweight and fast
	- Context-based
	- Middleware support
	- RESTful route patterns

MIDDLEWARE STACK:
 1. Logger:     Request logging
 2. Recoverer:  Panic recovery (500 instead of crash)
 3. RequestID:  Unique ID per request for tracing
 4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:

	/api/organizations/*  Agencies and corporate donors
	/api/donors/*         Donor records and derived stats
	/api/campaigns/*      Campaigns, rollups, distribution preview
	/api/pledges/*        Pledge lifecycle
	/api/donations/*      Donation lifecycle
	/api/writeoffs/*      Pledge write-offs
	/api/distributions/*  Distribution runs
	/api/remittances/*    Settlement batches
	/api/scenarios/*      Demo scenarios
	/api/payroll/*        Payroll file intake

SECURITY NOTE:

	No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", h.ListOrganizations)
			r.Post("/", h.SaveOrganization)
			r.Get("/{id}", h.GetOrganization)
		})

		r.Route("/donors", func(r chi.Router) {
			r.Get("/", h.ListDonors)
			r.Post("/", h.SaveDonor)
			r.Get("/{id}", h.GetDonor)
			r.Get("/{id}/pledges", h.GetDonorPledges)
			r.Get("/{id}/donations", h.GetDonorDonations)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.SaveCampaign)
			r.Get("/{id}", h.GetCampaign)
			r.Get("/{id}/pledges", h.GetCampaignPledges)
			r.Get("/{id}/distributions", h.GetCampaignDistributions)
			r.Get("/{id}/distributions/preview", h.PreviewDistribution)
		})

		r.Route("/pledges", func(r chi.Router) {
			r.Post("/", h.SubmitPledge)
			r.Get("/{id}", h.GetPledge)
			r.Delete("/{id}", h.CancelPledge)
			r.Get("/{id}/donations", h.GetPledgeDonations)
		})

		r.Route("/donations", func(r chi.Router) {
			r.Post("/", h.SubmitDonation)
			r.Get("/{id}", h.GetDonation)
			r.Delete("/{id}", h.CancelDonation)
		})

		r.Route("/writeoffs", func(r chi.Router) {
			r.Post("/", h.SubmitWriteoff)
			r.Delete("/{id}", h.CancelWriteoff)
		})

		r.Route("/distributions", func(r chi.Router) {
			r.Post("/", h.SubmitDistribution)
			r.Get("/{id}", h.GetDistribution)
			r.Delete("/{id}", h.CancelDistribution)
		})

		r.Route("/remittances", func(r chi.Router) {
			r.Get("/", h.ListRemittances)
			r.Post("/", h.SubmitRemittance)
			r.Get("/{id}", h.GetRemittance)
			r.Delete("/{id}", h.CancelRemittance)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Post("/parse", h.ParsePayroll)
			r.Post("/match", h.MatchPayroll)
			r.Post("/remittance", h.PayrollRemittance)
		})
	})

	return r
}
