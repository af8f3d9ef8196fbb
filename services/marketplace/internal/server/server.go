package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"marketplace/internal/ratelimit"
	"marketplace/internal/usertoken"
	"marketplace/internal/util"
	"marketplace/services/marketplace/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// RegisterLimiter and LoginLimiter are optional; nil disables the limit.
	RegisterLimiter    ratelimit.Limiter
	LoginLimiter       ratelimit.Limiter
	TrustedProxies     *util.TrustedProxies
	CORSAllowedOrigins []string
}

// Server exposes HTTP endpoints for the marketplace.
type Server struct {
	app             *app.App
	mux             *http.ServeMux
	registerLimiter ratelimit.Limiter
	loginLimiter    ratelimit.Limiter
	trustedProxies  *util.TrustedProxies
	corsOrigins     []string
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server requires an app")
	}
	s := &Server{
		app:             cfg.App,
		mux:             http.NewServeMux(),
		registerLimiter: cfg.RegisterLimiter,
		loginLimiter:    cfg.LoginLimiter,
		trustedProxies:  cfg.TrustedProxies,
		corsOrigins:     cfg.CORSAllowedOrigins,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.corsOrigins, s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// accounts
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.Handle("GET /users", s.adminOnly(s.handleListUsers))
	s.mux.Handle("PUT /users/{id}/role", s.adminOnly(s.handleUpdateUserRole))
	s.mux.Handle("DELETE /users/{id}", s.adminOnly(s.handleDeleteUser))

	// catalog
	s.mux.HandleFunc("GET /products", s.handleListProducts)
	s.mux.HandleFunc("GET /products/{id}", s.handleGetProduct)
	s.mux.Handle("POST /products", s.adminOnly(s.handleCreateProduct))
	s.mux.Handle("PUT /products/{id}", s.adminOnly(s.handleUpdateProduct))
	s.mux.Handle("DELETE /products/{id}", s.adminOnly(s.handleDeleteProduct))
	s.mux.Handle("POST /products/{id}/images", s.adminOnly(s.handleUploadProductImage))
	s.mux.HandleFunc("GET /products/{id}/reviews", s.handleListReviews)
	s.mux.Handle("POST /products/{id}/reviews", s.authenticated(s.handleAddReview))

	// cart & orders
	s.mux.Handle("POST /cart", s.authenticated(s.handleAddToCart))
	s.mux.Handle("GET /cart", s.authenticated(s.handleListCart))
	s.mux.Handle("DELETE /cart/{itemId}", s.authenticated(s.handleRemoveCartItem))
	s.mux.Handle("POST /checkout", s.authenticated(s.handleCheckout))
	s.mux.Handle("GET /orders", s.authenticated(s.handleListOrders))

	// social
	s.mux.Handle("POST /wishlist", s.authenticated(s.handleAddToWishlist))
	s.mux.Handle("GET /wishlist/{userId}", s.authenticated(s.handleListWishlist))
	s.mux.Handle("DELETE /wishlist/{userId}/{productId}", s.authenticated(s.handleRemoveFromWishlist))
	s.mux.Handle("POST /notifications", s.authenticated(s.handleCreateNotification))
	s.mux.Handle("GET /notifications/{userId}", s.authenticated(s.handleListNotifications))
	s.mux.Handle("PUT /notifications/{id}/read", s.authenticated(s.handleMarkNotificationRead))
	s.mux.Handle("POST /user-ratings", s.authenticated(s.handleRateUser))
	s.mux.Handle("GET /user-ratings/{userId}", s.authenticated(s.handleRatingSummary))
	s.mux.Handle("POST /reports", s.authenticated(s.handleFileReport))
	s.mux.Handle("GET /reports", s.adminOnly(s.handleListReports))
	s.mux.Handle("PUT /reports/{id}/status", s.adminOnly(s.handleUpdateReportStatus))
	s.mux.Handle("POST /messages", s.authenticated(s.handleSendMessage))
	s.mux.Handle("GET /messages/{user1Id}/{user2Id}", s.authenticated(s.handleConversation))

	// payments
	s.mux.HandleFunc("GET /razorpay/key", s.handlePaymentKey)
	s.mux.HandleFunc("POST /razorpay/order", s.handleCreatePaymentOrder)
	s.mux.HandleFunc("POST /razorpay/verify", s.handleVerifyPayment)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Health(r.Context()); err != nil {
		util.LoggerFromContext(r.Context()).Error("health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, usertoken.Identity)

// authenticated verifies the bearer token and binds the caller identity into
// the request context before calling next.
func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.audit(r, "marketplace.authorize", "fail", "reason", "missing_token")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ident, err := s.app.Authenticate(token)
		if err != nil {
			s.audit(r, "marketplace.authorize", "fail", "reason", tokenFailureReason(err))
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		s.audit(r, "marketplace.authorize", "success", "user_id", ident.UserID)
		ctx := usertoken.ContextWithIdentity(r.Context(), ident)
		ctx = util.ContextWithLogger(ctx, util.LoggerFromContext(ctx).With("user_id", ident.UserID))
		next(w, r.WithContext(ctx), ident)
	})
}

// requireAdmin must run inside authenticated; it reads the bound identity.
func (s *Server) requireAdmin(next authHandler) authHandler {
	return func(w http.ResponseWriter, r *http.Request, _ usertoken.Identity) {
		ident, ok := usertoken.IdentityFromContext(r.Context())
		if !ok {
			slog.Error("admin check reached without an authenticated identity", "path", r.URL.Path)
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		if !ident.IsAdmin() {
			s.audit(r, "marketplace.admin.authorize", "fail", "user_id", ident.UserID, "reason", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		s.audit(r, "marketplace.admin.authorize", "success", "user_id", ident.UserID)
		next(w, r, ident)
	}
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(s.requireAdmin(next))
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, usertoken.ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, usertoken.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed_token"
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		slog.Warn("missing bearer prefix", "path", r.URL.Path)
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		slog.Warn("empty bearer token", "path", r.URL.Path)
		return "", false
	}
	return token, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// pathID parses a positive integer path parameter, answering 400 otherwise.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeAppError is the single place business errors become HTTP responses.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch app.KindOf(err) {
	case app.KindValidation, app.KindBusinessRule:
		status = http.StatusBadRequest
	case app.KindUnauthenticated:
		status = http.StatusUnauthorized
	case app.KindForbidden:
		status = http.StatusForbidden
	case app.KindNotFound:
		status = http.StatusNotFound
	case app.KindConflict:
		status = http.StatusConflict
	case app.KindUnavailable:
		status = http.StatusServiceUnavailable
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, status, app.PublicMessage(err))
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter ratelimit.Limiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if limiter.Allow(r.Context(), key) {
		return true
	}
	s.audit(r, "marketplace.ratelimit", "fail", "reason", "rate_limited")
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}
