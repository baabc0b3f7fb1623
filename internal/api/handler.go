// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custom_errors "github-wrapped/internal/errors"
	"github-wrapped/internal/identity"
	"github-wrapped/internal/model"
	"github-wrapped/internal/store"
	"github-wrapped/internal/wrapped"
)

// StatsService is the orchestrator surface the API forwards to.
type StatsService interface {
	GetYearInReview(ctx context.Context, principal *model.Principal, username string, year int) (*wrapped.Result, error)
}

// ProfileStore is the store surface the profile and waitlist routes use.
type ProfileStore interface {
	GetOrCreateProfile(ctx context.Context, principal *model.Principal, lookup store.ProfileLookupFn) (*model.UserProfile, error)
	AddToWaitlist(ctx context.Context, email string) (*model.WaitlistEntry, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	svc       StatsService
	store     ProfileStore
	ident     identity.Provider
	newClient wrapped.ClientFactory
	logger    *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(svc StatsService, st ProfileStore, ident identity.Provider, newClient wrapped.ClientFactory, logger *slog.Logger) http.Handler {
	h := &Handler{
		svc:       svc,
		store:     st,
		ident:     ident,
		newClient: newClient,
		logger:    logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/github/stats", h.getStats)
		r.Get("/user/profile", h.getProfile)
		r.Post("/waitlist", h.joinWaitlist)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getStats serves the year-in-review summary.
// GET /v1/github/stats?username=NAME&year=YYYY
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	principal, err := h.ident.Resolve(r)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	username := r.URL.Query().Get("username")

	year := 0
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err = strconv.Atoi(yearStr)
		if err != nil || year < 2008 { // GitHub launched in 2008
			respondWithError(w, http.StatusBadRequest, "Invalid 'year' parameter")
			return
		}
	}

	result, err := h.svc.GetYearInReview(r.Context(), principal, username, year)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// getProfile serves the stored profile row for the signed-in user, creating
// it from a platform lookup on first access.
// GET /v1/user/profile
func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	principal, err := h.ident.Resolve(r)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	client := h.newClient(principal.Token)
	profile, err := h.store.GetOrCreateProfile(r.Context(), principal, func(ctx context.Context) (*model.GitHubUser, error) {
		return client.GetUser(ctx, principal.Login)
	})
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"user": profile})
}

// joinWaitlist records an email for launch notifications.
// POST /v1/waitlist
func (h *Handler) joinWaitlist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.TrimSpace(body.Email)
	if email == "" || !strings.Contains(email, "@") {
		respondWithError(w, http.StatusBadRequest, "A valid 'email' is required")
		return
	}

	entry, err := h.store.AddToWaitlist(r.Context(), email)
	if err != nil {
		h.logger.Error("Failed to add waitlist entry", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusCreated, entry)
}

// respondWithServiceError maps the core error taxonomy to HTTP status codes.
func (h *Handler) respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, custom_errors.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, custom_errors.ErrInvalidArgument):
		respondWithError(w, http.StatusBadRequest, "Username is required")
	case custom_errors.IsNotFound(err):
		respondWithError(w, http.StatusNotFound, "GitHub user not found")
	default:
		h.logger.Error("Failed to serve request", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
