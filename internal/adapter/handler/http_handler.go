package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/core/service"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sid"

	sessionCookieMaxAge = 30 * 24 * 60 * 60
)

type ctxKey int

const storefrontKey ctxKey = iota

type HTTPHandler struct {
	registry *service.Registry
	leads    *service.LeadService
	logger   *zap.Logger
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(registry *service.Registry, leads *service.LeadService, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{registry: registry, leads: leads, logger: logger}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/leads", h.IngestLead)
		r.Get("/leads/{leadId}", h.GetLead)

		r.Group(func(r chi.Router) {
			r.Use(h.session)

			r.Get("/cart", h.GetCart)
			r.Delete("/cart", h.ClearCart)
			r.Post("/cart/items", h.AddCartItem)
			r.Patch("/cart/items", h.UpdateCartItem)
			r.Delete("/cart/items", h.RemoveCartItem)

			r.Get("/wishlist", h.GetWishlist)
			r.Post("/wishlist", h.AddWishlistItem)
			r.Post("/wishlist/toggle", h.ToggleWishlistItem)
			r.Get("/wishlist/{productId}", h.GetWishlistItem)
			r.Delete("/wishlist/{productId}", h.RemoveWishlistItem)

			r.Post("/checkout", h.Checkout)
			r.Get("/events", h.Events)
		})
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.registry.Len(),
	})
}

// session resolves the caller's storefront from the session header or
// cookie, minting a new session id when neither carries a valid one.
func (h *HTTPHandler) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := sessionID(r)
		if sid == "" {
			sid = uuid.NewString()
		}
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sid,
			Path:     "/",
			MaxAge:   sessionCookieMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		w.Header().Set(SessionHeader, sid)

		sf := h.registry.Open(r.Context(), sid)
		ctx := context.WithValue(r.Context(), storefrontKey, sf)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	candidates := []string{r.Header.Get(SessionHeader)}
	if c, err := r.Cookie(SessionCookie); err == nil {
		candidates = append(candidates, c.Value)
	}
	for _, c := range candidates {
		if id, err := uuid.Parse(strings.TrimSpace(c)); err == nil {
			return id.String()
		}
	}
	return ""
}

func storefront(r *http.Request) *service.Storefront {
	return r.Context().Value(storefrontKey).(*service.Storefront)
}

func (h *HTTPHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// quantityField accepts a JSON number or a numeric string.
type quantityField string

func (q *quantityField) UnmarshalJSON(b []byte) error {
	*q = quantityField(strings.Trim(strings.TrimSpace(string(b)), `"`))
	return nil
}

func (q quantityField) Int() int {
	return domain.ParseQuantity(string(q))
}
