package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/database"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/http/handler"
	"github.com/talentmap/bidding-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/talentmap/bidding-api/docs" // Import generated swagger docs
)

// DependencyCheck reports the health of an optional dependency for the readiness probe
type DependencyCheck func(ctx context.Context) error

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	checks              map[string]DependencyCheck
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	authHandler         *handler.AuthHandler
	bidHandler          *handler.BidHandler
	handshakeHandler    *handler.HandshakeHandler
	rankingHandler      *handler.RankingHandler
	statisticsHandler   *handler.StatisticsHandler
	notificationHandler *handler.NotificationHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	checks map[string]DependencyCheck,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	bidHandler *handler.BidHandler,
	handshakeHandler *handler.HandshakeHandler,
	rankingHandler *handler.RankingHandler,
	statisticsHandler *handler.StatisticsHandler,
	notificationHandler *handler.NotificationHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		checks:              checks,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		authHandler:         authHandler,
		bidHandler:          bidHandler,
		handshakeHandler:    handshakeHandler,
		rankingHandler:      rankingHandler,
		statisticsHandler:   statisticsHandler,
		notificationHandler: notificationHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		writeHealth(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check (database plus configured dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{"status": "healthy"}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		for name, check := range rt.checks {
			if err := check(ctx); err != nil {
				rt.logger.Warn("Dependency health check failed", zap.String("dependency", name), zap.Error(err))
				checks[name] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
				allHealthy = false
				continue
			}
			checks[name] = map[string]interface{}{"status": "healthy"}
		}

		status, code := "healthy", http.StatusOK
		if !allHealthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		writeHealth(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(rt.cfg.Server.RequestTimeoutDuration()))
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.Limit)

		// Auth
		r.Get("/auth/me", rt.authHandler.Me)
		r.Get("/access-grants/{perdet}", rt.authHandler.ListGrants)
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireRole(domain.RoleSuperUser))
			r.Post("/access-grants", rt.authHandler.Grant)
			r.Delete("/access-grants", rt.authHandler.Revoke)
		})

		// Bids
		r.Route("/bids", func(r chi.Router) {
			r.Get("/", rt.bidHandler.ListMine)
			r.Post("/", rt.bidHandler.AddToBidlist)
			r.Get("/{id}", rt.bidHandler.GetByID)
			r.Delete("/{id}", rt.bidHandler.Close)
			r.Put("/{id}/submit", rt.bidHandler.Submit)
			r.Put("/{id}/handshake-accept", rt.bidHandler.AcceptHandshake)
			r.Put("/{id}/handshake-decline", rt.bidHandler.DeclineHandshake)

			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.RoleBureau))
				r.Put("/{id}/handshake-offer", rt.bidHandler.OfferHandshake)
				r.Put("/{id}/panel", rt.bidHandler.SchedulePanel)
				r.Put("/{id}/approve", rt.bidHandler.Approve)
				r.Put("/{id}/decline", rt.bidHandler.Decline)
			})
		})

		// Handshakes, rankings and statistics are position scoped
		r.Route("/positions/{cpId}", func(r chi.Router) {
			r.Get("/handshake", rt.handshakeHandler.GetPositionHandshake)
			r.Get("/handshake/lead", rt.handshakeHandler.GetLeadHandshake)
			r.Put("/handshake/accept", rt.handshakeHandler.BidderAccept)
			r.Put("/handshake/decline", rt.handshakeHandler.BidderDecline)
			r.Get("/handshakes", rt.handshakeHandler.ListForPosition)
			r.Get("/handshakes/{perdet}", rt.handshakeHandler.GetBidderHandshake)

			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.RoleCDO))
				r.Put("/handshakes/{perdet}/cdo-accept", rt.handshakeHandler.CDOAccept)
				r.Put("/handshakes/{perdet}/cdo-decline", rt.handshakeHandler.CDODecline)
			})

			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.RoleBureau))
				r.Put("/handshakes/{perdet}", rt.handshakeHandler.Offer)
				r.Delete("/handshakes/{perdet}", rt.handshakeHandler.Revoke)

				r.Get("/rankings", rt.rankingHandler.ListForPosition)
				r.Delete("/rankings", rt.rankingHandler.DeleteAll)
				r.Delete("/rankings/{perdet}", rt.rankingHandler.DeleteBidder)
				r.Put("/ranking-lock", rt.rankingHandler.Lock)
				r.Get("/ranking-lock", rt.rankingHandler.GetLock)
				r.Delete("/ranking-lock", rt.rankingHandler.Unlock)
			})
		})

		r.Get("/handshakes/mine", rt.handshakeHandler.ListMine)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireRole(domain.RoleBureau))
			r.Post("/rankings", rt.rankingHandler.BulkUpsert)
			r.Get("/bidders/{perdet}/rankings", rt.rankingHandler.BidderRankings)
		})

		// Statistics
		r.Get("/bid-cycles/{bidCycleId}/positions/{cpId}/statistics", rt.statisticsHandler.GetPositionStatistics)
		r.Get("/bid-cycles/{bidCycleId}/bidders/{perdet}/statistics", rt.statisticsHandler.GetUserStatistics)

		// Notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", rt.notificationHandler.List)
			r.Get("/count", rt.notificationHandler.GetUnreadCount)
			r.Put("/read-all", rt.notificationHandler.MarkAllAsRead)
			r.Put("/{id}/read", rt.notificationHandler.MarkAsRead)
		})
	})

	return r
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
