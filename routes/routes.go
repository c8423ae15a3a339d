package routes

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"eventix/controllers/events"
	"eventix/controllers/payments"
	"eventix/controllers/users"
	"eventix/middleware"
	"eventix/utils"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "eventix-api",
	})
}

func InitRouter(db *gorm.DB, cfg utils.PayUConfig) *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint for Docker health checks (root level)
	r.Handle("/health", http.HandlerFunc(healthHandler)).Methods(http.MethodGet)

	// CORS - origins from CORS_ALLOWED_ORIGINS (comma-separated) or defaults
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	origins := []string{
		"http://localhost:3000", "http://localhost:8080", "http://127.0.0.1:3000", "http://127.0.0.1:8080",
	}
	if originsEnv != "" {
		parts := strings.Split(originsEnv, ",")
		for _, p := range parts {
			if o := strings.TrimSpace(p); o != "" {
				origins = append(origins, o)
			}
		}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-CRON-KEY", "X-Requested-With", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(next)
	})

	paymentsController := payments.NewController(db, cfg)
	eventsController := events.NewController(db)
	usersController := users.NewController(db)

	api := r.PathPrefix("/v1").Subrouter()

	// Catch-all OPTIONS handler for CORS preflight
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	// Rate limiter for payment initiation: 30/ip per 10 minutes
	initiateLimiter := middleware.NewIPRateLimiter(30, 10*time.Minute)
	// Rate limiter for the public catalog listing: 300/ip per minute
	catalogLimiter := middleware.NewIPRateLimiter(300, time.Minute)
	// Rate limiter for cron: 1000/hour
	cronLimiter := middleware.NewIPRateLimiter(1000, time.Hour)
	// Rate limiter for gateway callbacks: 500/ip, whitelist, sliding window
	webhookWhitelist := []string{"127.0.0.1"}
	if v := os.Getenv("GATEWAY_IP_WHITELIST"); v != "" {
		webhookWhitelist = append(webhookWhitelist, strings.Split(v, ",")...)
	}
	webhookLimiter := middleware.NewWebhookLimiter(500, time.Hour, webhookWhitelist)

	// Event catalog (public)
	api.Handle("/events", catalogLimiter.Middleware(http.HandlerFunc(eventsController.ListHandler))).Methods(http.MethodGet)
	api.Handle("/events/{id:[0-9]+}", http.HandlerFunc(eventsController.GetHandler)).Methods(http.MethodGet)

	// Payment initiation (authenticated, per-IP limited)
	api.Handle("/payments/initiate",
		initiateLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(paymentsController.InitiateHandler)))).
		Methods(http.MethodPost)

	// Payment status poll (authenticated, owner only)
	api.Handle("/payments/{txnid}",
		middleware.AuthMiddleware(http.HandlerFunc(paymentsController.StatusHandler))).
		Methods(http.MethodGet)

	// Gateway callbacks. The gateway posts the browser here, so both GET and
	// POST must be accepted on either outcome leg.
	api.Handle("/payments/callback/success/{txnid}",
		webhookLimiter.Middleware(http.HandlerFunc(paymentsController.SuccessCallbackHandler))).
		Methods(http.MethodGet, http.MethodPost)
	api.Handle("/payments/callback/failure/{txnid}",
		webhookLimiter.Middleware(http.HandlerFunc(paymentsController.FailureCallbackHandler))).
		Methods(http.MethodGet, http.MethodPost)

	// User booking history (authenticated)
	api.Handle("/users/bookings",
		middleware.AuthMiddleware(http.HandlerFunc(usersController.BookingsHandler))).
		Methods(http.MethodGet)

	// Cron endpoint for expiring stale initiated payments (X-CRON-KEY header)
	api.Handle("/cron/expired-payments",
		cronLimiter.Middleware(http.HandlerFunc(paymentsController.ExpiredPaymentsHandler))).
		Methods(http.MethodPost)

	// Landing pages the callback handlers redirect the browser to
	r.Handle("/payment/{outcome:success|failure}/{txnid}",
		http.HandlerFunc(paymentsController.ResultPageHandler)).
		Methods(http.MethodGet)

	return r
}
