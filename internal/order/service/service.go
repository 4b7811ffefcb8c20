// Package service orchestrates order submission, listing and artifact
// download. It keeps transport concerns out of the store and registry
// layers.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/notorious-utopia/egrn/internal/audit"
	"github.com/notorious-utopia/egrn/internal/order/models"
	"github.com/notorious-utopia/egrn/internal/order/store"
	"github.com/notorious-utopia/egrn/pkg/domain"
	dErrors "github.com/notorious-utopia/egrn/pkg/domain-errors"
	"github.com/notorious-utopia/egrn/pkg/platform/sentinel"
	"github.com/notorious-utopia/egrn/pkg/requestcontext"
)

// RegistryClient is the slice of the registry client the submission and
// download flows need.
type RegistryClient interface {
	Submit(ctx context.Context, cadastralNumber string) (string, error)
	Download(ctx context.Context, externalID string) (io.ReadCloser, error)
}

// OrderView is an order shaped for presentation: the submission
// timestamp is already converted to the display zone.
type OrderView struct {
	ID              domain.OrderID `json:"id"`
	CadastralNumber string         `json:"cadastral_number"`
	ExternalID      string         `json:"external_id"`
	TrackingID      string         `json:"tracking_id"`
	Status          string         `json:"status"`
	CreatedAt       string         `json:"created_at"`
	Completed       bool           `json:"completed"`
}

// Service implements the order operations exposed over HTTP.
type Service struct {
	orders    store.OrderStore
	registry  RegistryClient
	publisher *audit.Publisher
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher attaches an audit publisher for submission events.
func WithPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs the order service.
func New(orders store.OrderStore, registry RegistryClient, opts ...Option) (*Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry client is required")
	}
	s := &Service{
		orders:   orders,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Submit validates the cadastral number, files the order with the
// registry and persists the resulting row. The stored order starts in
// the created status with the tracking placeholder; the reconciliation
// loop takes it from there.
func (s *Service) Submit(ctx context.Context, username, cadastralNumber string) (*models.Order, error) {
	if username == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no authenticated user")
	}
	if !models.ValidCadastralNumber(cadastralNumber) {
		return nil, dErrors.New(dErrors.CodeValidation, "cadastral number must match NN:NN:NNNNNNN:N")
	}

	externalID, err := s.registry.Submit(ctx, cadastralNumber)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "submitting order to registry")
	}

	order := &models.Order{
		ID:              domain.NewOrderID(),
		Username:        username,
		CadastralNumber: cadastralNumber,
		ExternalID:      externalID,
		TrackingID:      models.TrackingPending,
		Status:          models.StatusCreated,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "order already exists for this registry id")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persisting order")
	}

	s.logger.InfoContext(ctx, "order submitted",
		slog.String("username", username),
		slog.String("cadastral_number", cadastralNumber),
		slog.String("external_id", externalID))

	s.emit(ctx, audit.Event{
		OrderID:    order.ID,
		ExternalID: order.ExternalID,
		Username:   username,
		Action:     audit.ActionOrderSubmitted,
		NewStatus:  order.Status.Raw(),
	})

	return order, nil
}

// List returns the caller's orders, newest first, shaped for display.
func (s *Service) List(ctx context.Context, username string) ([]OrderView, error) {
	if username == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no authenticated user")
	}

	orders, err := s.orders.ListByUser(ctx, username)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing orders")
	}

	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, OrderView{
			ID:              order.ID,
			CadastralNumber: order.CadastralNumber,
			ExternalID:      order.ExternalID,
			TrackingID:      order.TrackingID,
			Status:          order.Status.Raw(),
			CreatedAt:       models.FormatDisplayTime(order.CreatedAt),
			Completed:       order.Status.Terminal(),
		})
	}
	return views, nil
}

// Download streams the finished document bundle for an order owned by
// the caller. Orders that have not completed have nothing to download.
func (s *Service) Download(ctx context.Context, username string, orderID domain.OrderID) (io.ReadCloser, error) {
	if username == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no authenticated user")
	}

	order, err := s.findOwned(ctx, username, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Terminal() {
		return nil, dErrors.New(dErrors.CodeConflict, "order is not completed yet")
	}

	body, err := s.registry.Download(ctx, order.ExternalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "downloading order documents")
	}
	return body, nil
}

// findOwned resolves an order by id within the caller's own orders.
// Another user's order is indistinguishable from a missing one.
func (s *Service) findOwned(ctx context.Context, username string, orderID domain.OrderID) (*models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, username)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing orders")
	}
	for _, order := range orders {
		if order.ID == orderID {
			return order, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "order not found")
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientInfo = clientInfo(ctx)
	s.publisher.Emit(ctx, event)
}

func clientInfo(ctx context.Context) string {
	ip := requestcontext.ClientIP(ctx)
	ua := requestcontext.UserAgent(ctx)
	switch {
	case ip == "":
		return ua
	case ua == "":
		return ip
	default:
		return ip + " " + ua
	}
}
