// Package handlers exposes the identity provider over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"village-registry-system/pkg/middleware"
	"village-registry-system/pkg/response"
	"village-registry-system/pkg/sentinel"
	"village-registry-system/services/auth-service/service"
)

type Handler struct {
	svc    *service.Service
	log    *zap.Logger
	health func(ctx context.Context) error
}

func New(svc *service.Service, log *zap.Logger, health func(ctx context.Context) error) *Handler {
	return &Handler{svc: svc, log: log, health: health}
}

func (h *Handler) Router(auth *middleware.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.Logger(h.log))

	r.Get("/health", h.healthCheck)
	r.Handle("/metrics", middleware.GetMetricsHandler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/admin/login", h.adminLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Post("/logout", h.logout)
			r.Get("/me", h.me)
		})
	})
	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.log.Warn("[WARN] invalid request format")
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}
	sess, err := h.svc.Register(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, "User registered successfully", sessionBody(sess))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}
	sess, err := h.svc.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Login successful", sessionBody(sess))
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}
	sess, err := h.svc.AdminLogin(r.Context(), input.Username, input.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Login successful", sessionBody(sess))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if err := h.svc.Logout(r.Context(), claims); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Logged out", nil)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve user context", "")
		return
	}
	u, err := h.svc.Me(r.Context(), claims.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "User profile fetched", u)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":  "UP",
		"service": "auth-service",
	}
	status := http.StatusOK
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			health["status"] = "DOWN"
			health["database"] = "disconnected"
			status = http.StatusServiceUnavailable
		} else {
			health["database"] = "connected"
		}
	}
	response.JSON(w, status, health)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var input *service.InputError
	switch {
	case errors.As(err, &input):
		response.Error(w, http.StatusBadRequest, input.Message, "")
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(w, http.StatusConflict, "Email already registered", "")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid email or password", "")
	case errors.Is(err, service.ErrNotAdmin):
		response.Error(w, http.StatusForbidden, "Administrator access required", "")
	case errors.Is(err, sentinel.ErrNotFound):
		response.Error(w, http.StatusNotFound, "User not found", "")
	default:
		h.log.Error("[ERROR] request failed",
			zap.String("trace_id", middleware.GetTraceID(r)),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func sessionBody(sess *service.Session) map[string]interface{} {
	return map[string]interface{}{
		"id":         sess.User.ID,
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
		"name":       sess.User.Name,
		"email":      sess.User.Email,
		"role":       sess.User.Role,
	}
}
