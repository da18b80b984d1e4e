package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/visitsafe-api/internal/application/broadcast"
	"github.com/visitsafe-api/internal/application/resident"
	"github.com/visitsafe-api/internal/application/unitref"
	"github.com/visitsafe-api/internal/application/visitor"
	"github.com/visitsafe-api/internal/application/visitoraction"
	"github.com/visitsafe-api/internal/config"
	"github.com/visitsafe-api/internal/domain"
	jwtinfra "github.com/visitsafe-api/internal/infrastructure/jwt"
	"github.com/visitsafe-api/internal/transport/http/handler"
	appmiddleware "github.com/visitsafe-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router. SMS, Photos
// and JWTProvider are optional.
type Deps struct {
	VisitorRequests VisitorRequestRepository
	Residents       ResidentRepository
	Residencies     ResidencyRepository
	Units           UnitRepository
	Blocks          BlockRepository
	Push            PushSender
	SMS             SMSSender
	Photos          PhotoStore
	JWTProvider     *jwtinfra.Provider
	// Ready reports whether the backend store is reachable.
	Ready func(ctx context.Context) error
}

// NewRouter builds and returns the application router. Background work
// owned by the router stops when ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := passthrough
	adminMw := passthrough
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		adminMw = appmiddleware.RequireRole(domain.RoleAdmin)
	}

	// Gate submissions and action links are unauthenticated.
	publicRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.PublicRateLimit), cfg.PublicRateBurst)
	go func() {
		<-ctx.Done()
		publicRL.Stop()
	}()

	resolver := unitref.NewResolver(deps.Units, deps.Blocks)
	visitorSvc := visitor.NewService(visitor.ServiceDeps{
		RequestRepo:   deps.VisitorRequests,
		ResidentRepo:  deps.Residents,
		ResidencyRepo: deps.Residencies,
		UnitResolver:  resolver,
		Pusher:        deps.Push,
		SMS:           deps.SMS,
		Photos:        deps.Photos,
		PhotoURLTTL:   cfg.PhotoURLTTL,
	})
	actionSvc := visitoraction.NewService(visitoraction.ServiceDeps{
		RequestRepo:  deps.VisitorRequests,
		ResidentRepo: deps.Residents,
		UnitResolver: resolver,
	})
	broadcastSvc := broadcast.NewService(broadcast.ServiceDeps{
		ResidentRepo: deps.Residents,
		Pusher:       deps.Push,
	})
	residentSvc := resident.NewService(resident.ServiceDeps{
		ResidentRepo:  deps.Residents,
		ResidencyRepo: deps.Residencies,
	})

	healthH := handler.NewHealthHandler(deps.Ready)
	visitorH := handler.NewVisitorRequestHandler(visitorSvc, cfg.PublicBaseURL, cfg.TrustProxy)
	actionH := handler.NewVisitorActionHandler(actionSvc)
	broadcastH := handler.NewBroadcastHandler(broadcastSvc)
	residentH := handler.NewResidentHandler(residentSvc)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(publicRL.Limit).Post("/visitor-requests", visitorH.Submit)
		r.With(publicRL.Limit).Get("/visitor-action", actionH.Handle)
		r.With(publicRL.Limit).Post("/visitor-action", actionH.Handle)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Put("/residencies/{residencyID}/residents/{residentID}/device-token", residentH.SetDeviceToken)
			r.Delete("/residencies/{residencyID}/residents/{residentID}/device-token", residentH.ClearDeviceToken)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(adminMw)

				r.Post("/broadcasts", broadcastH.Send)
				r.Put("/residencies/{residencyID}/admin-device-token", residentH.SetAdminDeviceToken)
			})
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }
