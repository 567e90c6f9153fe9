package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	appnotif "github.com/Zhima-Mochi/minishop-notify/internal/application/notification"
	appproduct "github.com/Zhima-Mochi/minishop-notify/internal/application/product"
	domproduct "github.com/Zhima-Mochi/minishop-notify/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	maxBodyBytes         = 1 << 20
)

var errMissingURL = errors.New("url is required")

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	notifications *appnotif.Service
	products      *appproduct.Service
	health        HealthCheck

	log          observability.Logger
	tel          observability.Observability
	reqCounter   observability.Counter   // http_requests_total{method,route,status}
	durHistogram observability.Histogram // http_request_duration_seconds{method,route,status}
}

func NewHandler(notifications *appnotif.Service, products *appproduct.Service, health HealthCheck, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		notifications: notifications,
		products:      products,
		health:        health,
		log:           tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:           tel,
		reqCounter:    tel.Metrics().Counter(observability.MHTTPRequests),
		durHistogram:  tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Trace → ObservabilityMiddleware (request logger) → HTTP metrics → Access log → Handler
	h.muxHandle(mux, http.MethodPost, "/notification/subscribe/{product_type}", h.handleSubscribe)
	h.muxHandle(mux, http.MethodPost, "/notification/unsubscribe/{product_type}", h.handleUnsubscribe)
	h.muxHandle(mux, http.MethodGet, "/notification/subscribers/{product_type}", h.handleListSubscribers)

	h.muxHandle(mux, http.MethodPost, "/product", h.handleCreateProduct)
	h.muxHandle(mux, http.MethodGet, "/product", h.handleListProducts)
	h.muxHandle(mux, http.MethodGet, "/product/{id}", h.handleGetProduct)
	h.muxHandle(mux, http.MethodDelete, "/product/{id}", h.handleDeleteProduct)
	h.muxHandle(mux, http.MethodPost, "/product/{id}/publish", h.handlePublishProduct)

	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
		)(
			h.withHTTPMetrics(
				h.withAccessLog(handler),
			),
		),
	)
	mux.Handle(method+" "+route, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// stable template for low-cardinality labels
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), route)))
	}))
}

type subscribeRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, errMissingURL)
		return
	}

	stored, err := h.notifications.Subscribe(r.Context(), r.PathValue("product_type"), subscriber.Subscriber{
		URL:  req.URL,
		Name: req.Name,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, errMissingURL)
		return
	}

	removed, err := h.notifications.Unsubscribe(r.Context(), r.PathValue("product_type"), url)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

func (h *Handler) handleListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.notifications.Subscribers(r.Context(), r.PathValue("product_type"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

type createProductRequest struct {
	Title    string `json:"title"`
	Type     string `json:"product_type"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.products.Create(r.Context(), appproduct.CreateInput{
		Title:    req.Title,
		Type:     req.Type,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.products.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if ps == nil {
		ps = []*domproduct.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	h.withProductID(w, r, h.products.Get, http.StatusOK)
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	h.withProductID(w, r, h.products.Delete, http.StatusOK)
}

func (h *Handler) handlePublishProduct(w http.ResponseWriter, r *http.Request) {
	h.withProductID(w, r, h.products.Publish, http.StatusAccepted)
}

func (h *Handler) withProductID(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (*domproduct.Product, error), status int) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid product id %q", r.PathValue("id")))
		return
	}
	p, err := op(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, status, p)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			logctx.FromOr(r.Context(), h.log).Warn("health_check_failed", observability.Err(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appnotif.ErrNotFound),
		errors.Is(err, domproduct.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case appproduct.IsValidation(err):
		writeError(w, http.StatusBadRequest, err)
	default:
		logctx.FromOr(r.Context(), h.log).Error("http_internal_error", observability.Err(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

type routeKey struct{}

func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
