//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/notorious-utopia/egrn/internal/order/models"
	"github.com/notorious-utopia/egrn/internal/order/store"
	id "github.com/notorious-utopia/egrn/pkg/domain"
	"github.com/notorious-utopia/egrn/pkg/platform/sentinel"
	"github.com/notorious-utopia/egrn/pkg/testutil/containers"
)

type PostgresOrderStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresOrderStore
}

func TestPostgresOrderStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresOrderStoreSuite))
}

func (s *PostgresOrderStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresOrderStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "orders"))
}

func newTestOrder(username, externalID string, status models.Status) *models.Order {
	return &models.Order{
		ID:              id.NewOrderID(),
		Username:        username,
		CadastralNumber: "77:01:0001075:1361",
		ExternalID:      externalID,
		TrackingID:      models.TrackingPending,
		Status:          status,
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresOrderStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	order := newTestOrder("alice", "EXT-rt", models.StatusCreated)
	s.Require().NoError(s.store.Create(ctx, order))

	found, err := s.store.FindByExternalID(ctx, "EXT-rt")
	s.Require().NoError(err)
	s.Equal(order.ID, found.ID)
	s.Equal(order.Username, found.Username)
	s.Equal(order.CadastralNumber, found.CadastralNumber)
	s.Equal(order.TrackingID, found.TrackingID)
	s.True(found.Status.Equal(models.StatusCreated))
	s.WithinDuration(order.CreatedAt, found.CreatedAt, time.Millisecond)
}

// TestConcurrentDuplicateExternalID verifies the one-row-per-external-id
// invariant under concurrent submission attempts.
func (s *PostgresOrderStoreSuite) TestConcurrentDuplicateExternalID() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newTestOrder("alice", "EXT-race", models.StatusCreated))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresOrderStoreSuite) TestListOpenByUser() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, newTestOrder("alice", "EXT-a", models.StatusCreated)))
	s.Require().NoError(s.store.Create(ctx, newTestOrder("alice", "EXT-b", models.StatusInProgress)))
	s.Require().NoError(s.store.Create(ctx, newTestOrder("alice", "EXT-c", models.StatusCompleted)))
	s.Require().NoError(s.store.Create(ctx, newTestOrder("alice", "EXT-d", models.StatusFromRaw("Отменен"))))
	s.Require().NoError(s.store.Create(ctx, newTestOrder("bob", "EXT-e", models.StatusCreated)))

	open, err := s.store.ListOpenByUser(ctx, "alice")
	s.Require().NoError(err)

	ids := make([]string, 0, len(open))
	for _, o := range open {
		ids = append(ids, o.ExternalID)
	}
	s.ElementsMatch([]string{"EXT-a", "EXT-b", "EXT-d"}, ids)
}

func (s *PostgresOrderStoreSuite) TestUpdateStatus() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, newTestOrder("alice", "EXT-u", models.StatusCreated)))

	s.Require().NoError(s.store.UpdateStatus(ctx, "EXT-u", models.StatusInProgress, "50-123"))
	found, err := s.store.FindByExternalID(ctx, "EXT-u")
	s.Require().NoError(err)
	s.True(found.Status.Equal(models.StatusInProgress))
	s.Equal("50-123", found.TrackingID)

	// Empty tracking id preserves the stored one.
	s.Require().NoError(s.store.UpdateStatus(ctx, "EXT-u", models.StatusCompleted, ""))
	found, err = s.store.FindByExternalID(ctx, "EXT-u")
	s.Require().NoError(err)
	s.True(found.Status.Equal(models.StatusCompleted))
	s.Equal("50-123", found.TrackingID)

	s.ErrorIs(s.store.UpdateStatus(ctx, "EXT-missing", models.StatusCompleted, ""), sentinel.ErrNotFound)
}
