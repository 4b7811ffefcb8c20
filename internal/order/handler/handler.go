// Package handler exposes order operations over HTTP. It stays thin:
// identity comes from the request context, behavior from the service.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/notorious-utopia/egrn/internal/order/models"
	"github.com/notorious-utopia/egrn/internal/order/service"
	"github.com/notorious-utopia/egrn/internal/transport/http/shared"
	"github.com/notorious-utopia/egrn/pkg/domain"
	dErrors "github.com/notorious-utopia/egrn/pkg/domain-errors"
	"github.com/notorious-utopia/egrn/pkg/requestcontext"
)

// Service defines the order operations the handler delegates to.
type Service interface {
	Submit(ctx context.Context, username, cadastralNumber string) (*models.Order, error)
	List(ctx context.Context, username string) ([]service.OrderView, error)
	Download(ctx context.Context, username string, orderID domain.OrderID) (io.ReadCloser, error)
}

// Handler handles order endpoints.
type Handler struct {
	logger *slog.Logger
	orders Service
}

// New creates a new order Handler.
func New(orders Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		orders: orders,
	}
}

// Register registers the order routes. The caller supplies a router
// that already carries the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/orders", h.handleSubmit)
	r.Get("/orders", h.handleList)
	r.Get("/orders/{orderID}/download", h.handleDownload)
}

type submitRequest struct {
	CadastralNumber string `json:"cadastral_number"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := requestcontext.Username(ctx)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid submit request",
			slog.String("request_id", requestcontext.RequestID(ctx)),
			slog.String("error", err.Error()))
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	order, err := h.orders.Submit(ctx, username, req.CadastralNumber)
	if err != nil {
		h.logError(ctx, "order submission failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]string{
		"id":          order.ID.String(),
		"external_id": order.ExternalID,
		"tracking_id": order.TrackingID,
		"status":      order.Status.Raw(),
		"created_at":  models.FormatDisplayTime(order.CreatedAt),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	views, err := h.orders.List(ctx, requestcontext.Username(ctx))
	if err != nil {
		h.logError(ctx, "order listing failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{"orders": views})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := domain.ParseOrderID(chi.URLParam(r, "orderID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	body, err := h.orders.Download(ctx, requestcontext.Username(ctx), orderID)
	if err != nil {
		h.logError(ctx, "order download failed", err)
		shared.WriteError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="egrn-`+orderID.String()+`.zip"`)
	if _, err := io.Copy(w, body); err != nil {
		// Headers are already sent; all we can do is log the broken stream.
		h.logger.WarnContext(ctx, "download stream interrupted",
			slog.String("request_id", requestcontext.RequestID(ctx)),
			slog.String("error", err.Error()))
	}
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	log := h.logger.WarnContext
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		log = h.logger.ErrorContext
	}
	log(ctx, msg,
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.String("error", err.Error()))
}
