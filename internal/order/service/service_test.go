package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/notorious-utopia/egrn/internal/order/models"
	"github.com/notorious-utopia/egrn/internal/order/store"
	"github.com/notorious-utopia/egrn/internal/registry"
	"github.com/notorious-utopia/egrn/pkg/domain"
	dErrors "github.com/notorious-utopia/egrn/pkg/domain-errors"
)

// fakeRegistry hands out sequential external ids and canned download
// bodies without touching the network.
type fakeRegistry struct {
	submitErr   error
	downloadErr error
	submitted   []string
	nextID      int
}

func (f *fakeRegistry) Submit(_ context.Context, cadastralNumber string) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.nextID++
	f.submitted = append(f.submitted, cadastralNumber)
	return fmt.Sprintf("EXT-%04d", f.nextID), nil
}

func (f *fakeRegistry) Download(_ context.Context, externalID string) (io.ReadCloser, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return io.NopCloser(strings.NewReader("zip:" + externalID)), nil
}

type ServiceSuite struct {
	suite.Suite
	orders   *store.InMemoryOrderStore
	registry *fakeRegistry
	svc      *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.orders = store.NewMemory()
	s.registry = &fakeRegistry{}

	svc, err := New(s.orders, s.registry)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) TestNew() {
	s.Run("rejects nil order store", func() {
		_, err := New(nil, s.registry)
		s.Error(err)
	})

	s.Run("rejects nil registry client", func() {
		_, err := New(s.orders, nil)
		s.Error(err)
	})
}

func (s *ServiceSuite) TestSubmit() {
	ctx := context.Background()

	s.Run("persists a valid order", func() {
		order, err := s.svc.Submit(ctx, "alice", "77:01:0001075:1361")
		s.Require().NoError(err)

		s.False(order.ID.IsNil())
		s.Equal("alice", order.Username)
		s.Equal("77:01:0001075:1361", order.CadastralNumber)
		s.NotEmpty(order.ExternalID)
		s.Equal(models.TrackingPending, order.TrackingID)
		s.Equal(models.StatusCreated, order.Status)
		s.WithinDuration(time.Now().UTC(), order.CreatedAt, time.Minute)

		stored, err := s.orders.FindByExternalID(ctx, order.ExternalID)
		s.Require().NoError(err)
		s.Equal(order.ID, stored.ID)
	})

	s.Run("rejects malformed cadastral numbers", func() {
		for _, bad := range []string{
			"",
			"not a number",
			"77:01:1361",
			"7:01:0001075:1361",
			"77:01:00010:1361",
			"77:01:0001075:",
		} {
			_, err := s.svc.Submit(ctx, "alice", bad)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "expected validation error for %q", bad)
		}
		s.Empty(s.registry.submitted, "registry must not see invalid numbers")
	})

	s.Run("rejects missing username", func() {
		_, err := s.svc.Submit(ctx, "", "77:01:0001075:1361")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("maps registry failure to upstream error", func() {
		s.registry.submitErr = &registry.UpstreamError{Category: registry.ErrorOutage, Op: "submit", Message: "status 503"}
		defer func() { s.registry.submitErr = nil }()

		_, err := s.svc.Submit(ctx, "alice", "77:01:0001075:1361")
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
		s.True(registry.IsUpstream(err), "original upstream error must stay unwrappable")
	})
}

func (s *ServiceSuite) TestList() {
	ctx := context.Background()

	first, err := s.svc.Submit(ctx, "alice", "77:01:0001075:1361")
	s.Require().NoError(err)
	time.Sleep(5 * time.Millisecond)
	second, err := s.svc.Submit(ctx, "alice", "50:21:0110501:42")
	s.Require().NoError(err)
	_, err = s.svc.Submit(ctx, "bob", "66:41:0204001:7")
	s.Require().NoError(err)

	views, err := s.svc.List(ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(views, 2)

	s.Equal(second.ID, views[0].ID, "newest first")
	s.Equal(first.ID, views[1].ID)
	s.Equal("Заявка только что создана", views[0].Status)
	s.False(views[0].Completed)
	s.Equal(models.FormatDisplayTime(second.CreatedAt), views[0].CreatedAt)

	views, err = s.svc.List(ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(views)
}

func (s *ServiceSuite) TestDownload() {
	ctx := context.Background()

	order, err := s.svc.Submit(ctx, "alice", "77:01:0001075:1361")
	s.Require().NoError(err)

	s.Run("refuses while the order is open", func() {
		_, err := s.svc.Download(ctx, "alice", order.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("streams a completed order", func() {
		s.Require().NoError(s.orders.UpdateStatus(ctx, order.ExternalID, models.StatusCompleted, "50-1/2024"))

		body, err := s.svc.Download(ctx, "alice", order.ID)
		s.Require().NoError(err)
		defer body.Close()

		data, err := io.ReadAll(body)
		s.Require().NoError(err)
		s.Equal("zip:"+order.ExternalID, string(data))
	})

	s.Run("hides other users' orders", func() {
		_, err := s.svc.Download(ctx, "bob", order.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown order id", func() {
		_, err := s.svc.Download(ctx, "alice", domain.NewOrderID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("maps registry failure to upstream error", func() {
		s.registry.downloadErr = errors.New("connection refused")
		defer func() { s.registry.downloadErr = nil }()

		_, err := s.svc.Download(ctx, "alice", order.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
	})
}
