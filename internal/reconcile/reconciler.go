//go:generate mockgen -source=reconciler.go -destination=mocks/mocks.go -package=mocks OrderStore,UserDirectory,RegistryClient,Notifier

// Package reconcile keeps stored orders in sync with the registry. A
// single engine polls the registry on a fixed interval, applies
// forward-only status transitions, and notifies owners when an order
// reaches its terminal status.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/notorious-utopia/egrn/internal/audit"
	"github.com/notorious-utopia/egrn/internal/order/models"
	"github.com/notorious-utopia/egrn/internal/reconcile/metrics"
	"github.com/notorious-utopia/egrn/internal/registry"
	"github.com/notorious-utopia/egrn/internal/user"
)

// OrderStore is the slice of the order store the engine writes through.
type OrderStore interface {
	ListOpenByUser(ctx context.Context, username string) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, externalID string, status models.Status, trackingID string) error
}

// UserDirectory enumerates the users whose orders get reconciled.
type UserDirectory interface {
	List(ctx context.Context) ([]*user.User, error)
}

// RegistryClient is the slice of the registry client the engine polls.
type RegistryClient interface {
	CheckStatus(ctx context.Context, externalID string) (registry.StatusReport, error)
}

// Notifier delivers the one completion notification per order.
type Notifier interface {
	Notify(ctx context.Context, u *user.User, order *models.Order) error
}

const (
	defaultInterval = time.Minute
	defaultWorkers  = 4
)

// Engine runs reconciliation passes. One engine per process; the
// in-process mutex keeps ticks from overlapping and the lease keeps
// replicas from racing.
type Engine struct {
	orders    OrderStore
	users     UserDirectory
	registry  RegistryClient
	notifier  Notifier
	publisher *audit.Publisher
	lease     Lease
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	interval  time.Duration
	workers   int

	mu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval overrides the tick interval.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithWorkers bounds the per-user fan-out.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLease installs a cross-replica lease.
func WithLease(l Lease) Option {
	return func(e *Engine) {
		if l != nil {
			e.lease = l
		}
	}
}

// WithPublisher attaches an audit publisher for transition events.
func WithPublisher(p *audit.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics attaches prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New constructs a reconciliation engine.
func New(orders OrderStore, users UserDirectory, client RegistryClient, notifier Notifier, opts ...Option) (*Engine, error) {
	if orders == nil {
		return nil, errors.New("order store is required")
	}
	if users == nil {
		return nil, errors.New("user directory is required")
	}
	if client == nil {
		return nil, errors.New("registry client is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}

	e := &Engine{
		orders:   orders,
		users:    users,
		registry: client,
		notifier: notifier,
		lease:    NoopLease{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("internal/reconcile"),
		interval: defaultInterval,
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Run drives the tick loop until ctx is cancelled. Each tick attempts
// one pass; a tick that finds the previous pass still running is
// skipped rather than queued.
func (e *Engine) Run(ctx context.Context) {
	e.logger.InfoContext(ctx, "reconciliation loop started",
		slog.Duration("interval", e.interval),
		slog.Int("workers", e.workers))

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.InfoContext(ctx, "reconciliation loop stopped")
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// ErrPassInFlight reports that a pass is already running, either in
// this process or in another replica holding the lease.
var ErrPassInFlight = errors.New("reconciliation pass already running")

// TriggerPass runs one pass immediately, under the same guards as the
// scheduler loop. Used by the operational HTTP endpoint.
func (e *Engine) TriggerPass(ctx context.Context) error {
	if !e.mu.TryLock() {
		return ErrPassInFlight
	}
	defer e.mu.Unlock()

	held, err := e.lease.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring lease: %w", err)
	}
	if !held {
		return ErrPassInFlight
	}
	defer func() {
		if err := e.lease.Release(ctx); err != nil {
			e.logger.WarnContext(ctx, "lease release failed", slog.String("error", err.Error()))
		}
	}()

	return e.Pass(ctx)
}

func (e *Engine) tick(ctx context.Context) {
	if !e.mu.TryLock() {
		e.metrics.IncrementSkippedTick()
		e.logger.WarnContext(ctx, "previous pass still running, skipping tick")
		return
	}
	defer e.mu.Unlock()

	held, err := e.lease.Acquire(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "lease acquisition failed", slog.String("error", err.Error()))
		return
	}
	if !held {
		e.metrics.IncrementSkippedTick()
		e.logger.DebugContext(ctx, "lease held by another replica, skipping tick")
		return
	}
	defer func() {
		if err := e.lease.Release(ctx); err != nil {
			e.logger.WarnContext(ctx, "lease release failed", slog.String("error", err.Error()))
		}
	}()

	if err := e.Pass(ctx); err != nil {
		e.logger.ErrorContext(ctx, "reconciliation pass failed", slog.String("error", err.Error()))
	}
}

// Pass performs one full poll-compare-update-notify cycle over every
// user's open orders. Per-order failures are logged and counted but do
// not abort the pass; only a failure to enumerate users does.
func (e *Engine) Pass(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "reconcile.pass")
	defer span.End()

	start := time.Now()

	users, err := e.users.List(ctx)
	if err != nil {
		e.metrics.IncrementPass("error")
		span.SetStatus(codes.Error, "list users")
		span.RecordError(err)
		return fmt.Errorf("listing users: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, u := range users {
		g.Go(func() error {
			e.reconcileUser(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	e.metrics.IncrementPass("ok")
	e.metrics.ObservePassDuration(time.Since(start))
	return nil
}

func (e *Engine) reconcileUser(ctx context.Context, u *user.User) {
	orders, err := e.orders.ListOpenByUser(ctx, u.Username)
	if err != nil {
		e.logger.ErrorContext(ctx, "listing open orders failed",
			slog.String("username", u.Username),
			slog.String("error", err.Error()))
		return
	}

	for _, order := range orders {
		if err := e.reconcileOrder(ctx, u, order); err != nil {
			if registry.IsUpstream(err) {
				e.metrics.IncrementUpstreamError(string(registry.CategoryOf(err)))
			}
			e.logger.ErrorContext(ctx, "order reconciliation failed",
				slog.String("username", u.Username),
				slog.String("external_id", order.ExternalID),
				slog.String("error", err.Error()))
		}
	}
}

func (e *Engine) reconcileOrder(ctx context.Context, u *user.User, order *models.Order) error {
	report, err := e.registry.CheckStatus(ctx, order.ExternalID)
	if err != nil {
		return err
	}

	upstream := models.StatusFromRaw(report.Status)
	action := Decide(order.Status, upstream)
	if action == ActionNone {
		return nil
	}

	// The durable write comes first. Everything after it observes the
	// transition; nothing after it can undo it.
	if err := e.orders.UpdateStatus(ctx, order.ExternalID, upstream, report.TrackingID); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	e.metrics.IncrementTransition(action.String())

	updated := *order
	updated.Status = upstream
	if report.TrackingID != "" {
		updated.TrackingID = report.TrackingID
	}

	e.logger.InfoContext(ctx, "order status updated",
		slog.String("username", u.Username),
		slog.String("external_id", order.ExternalID),
		slog.String("old_status", order.Status.Raw()),
		slog.String("new_status", upstream.Raw()))

	auditAction := audit.ActionStatusUpdated
	if action == ActionComplete {
		auditAction = audit.ActionOrderCompleted
	}
	e.emit(ctx, audit.Event{
		OrderID:    order.ID,
		ExternalID: order.ExternalID,
		Username:   u.Username,
		Action:     auditAction,
		OldStatus:  order.Status.Raw(),
		NewStatus:  upstream.Raw(),
	})

	if action != ActionComplete {
		return nil
	}

	// A failed notification is not retried: the status row is already
	// terminal, so the next pass will not see this order again.
	if err := e.notifier.Notify(ctx, u, &updated); err != nil {
		e.metrics.IncrementNotification("error")
		e.logger.ErrorContext(ctx, "completion notification failed",
			slog.String("username", u.Username),
			slog.String("external_id", order.ExternalID),
			slog.String("error", err.Error()))
		e.emit(ctx, audit.Event{
			OrderID:    order.ID,
			ExternalID: order.ExternalID,
			Username:   u.Username,
			Action:     audit.ActionNotificationError,
			NewStatus:  upstream.Raw(),
		})
		return nil
	}

	e.metrics.IncrementNotification("sent")
	e.emit(ctx, audit.Event{
		OrderID:    order.ID,
		ExternalID: order.ExternalID,
		Username:   u.Username,
		Action:     audit.ActionNotificationSent,
		NewStatus:  upstream.Raw(),
	})
	return nil
}

func (e *Engine) emit(ctx context.Context, event audit.Event) {
	if e.publisher != nil {
		e.publisher.Emit(ctx, event)
	}
}
