package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/freightquote-backend/api/controllers"
	"github.com/angelmondragon/freightquote-backend/api/middleware"
	"github.com/angelmondragon/freightquote-backend/internal/drafts"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	catalogs controllers.CatalogRegistry,
	lookups controllers.LookupRegistry,
	draftService drafts.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["database"] = dbP
	}
	var (
		idempotencyStore redis.IdempotencyStore
		rateStore        middleware.RateLimiterStore
	)
	if redisClient != nil {
		readiness["redis"] = redisClient
		idempotencyStore = redisClient
		rateStore = redisClient
	}

	upstreamPolicy := middleware.NewRateLimitPolicy(
		"catalog_upstream",
		cfg.Catalog.UpstreamRateWindow,
		cfg.Catalog.UpstreamRateLimit,
	)
	draftWrite := middleware.Idempotency(idempotencyStore, middleware.DraftWriteIdempotency, logg)
	submitOnce := middleware.Idempotency(idempotencyStore, middleware.SubmitIdempotency, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/catalogs", func(r chi.Router) {
		r.Get("/", controllers.CatalogList(catalogs))
		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/", controllers.CatalogStatus(catalogs, logg))
			r.With(middleware.RateLimit(upstreamPolicy, rateStore, logg)).Post("/refresh", controllers.CatalogRefresh(catalogs, logg))
		})
	})

	r.Route("/api/v1/drafts", func(r chi.Router) {
		r.With(draftWrite).Post("/", controllers.DraftCreate(draftService, logg))

		r.Route("/{draftId}", func(r chi.Router) {
			r.Use(middleware.DraftContext(logg))

			r.Get("/", controllers.DraftFetch(draftService, logg))
			r.Put("/basics", controllers.DraftUpdateBasics(draftService, logg))

			r.Route("/views/{kind}", func(r chi.Router) {
				r.Put("/", controllers.DraftSetView(draftService, logg))
				r.Get("/", controllers.DraftGetView(draftService, logg))
			})

			r.Route("/lookup/{kind}", func(r chi.Router) {
				r.With(middleware.RateLimit(upstreamPolicy, rateStore, logg)).Post("/", controllers.DraftLookupSearch(lookups, draftService, logg))
				r.Get("/", controllers.DraftLookupResult(lookups, draftService, logg))
			})

			r.Route("/selections/{kind}", func(r chi.Router) {
				r.Post("/toggle", controllers.DraftToggleSelection(draftService, logg))
				r.Patch("/{offerId}", controllers.DraftSelectionNote(draftService, logg))
			})

			r.Route("/containers", func(r chi.Router) {
				r.Post("/", controllers.DraftAddContainer(draftService, logg))
				r.Patch("/{entryId}", controllers.DraftUpdateContainer(draftService, logg))
				r.Delete("/{entryId}", controllers.DraftRemoveContainer(draftService, logg))
			})

			r.Route("/options", func(r chi.Router) {
				r.With(draftWrite).Post("/", controllers.DraftSaveOption(draftService, logg))
				r.Post("/{optionId}/load", controllers.DraftLoadOption(draftService, logg))
				r.Delete("/{optionId}", controllers.DraftRemoveOption(draftService, logg))
			})

			r.With(submitOnce).Post("/submit", controllers.DraftSubmit(draftService, logg))
		})
	})

	return r
}
