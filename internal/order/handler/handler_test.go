package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notorious-utopia/egrn/internal/order/models"
	"github.com/notorious-utopia/egrn/internal/order/service"
	"github.com/notorious-utopia/egrn/internal/order/store"
	"github.com/notorious-utopia/egrn/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type stubRegistry struct {
	externalID string
}

func (s *stubRegistry) Submit(context.Context, string) (string, error) {
	return s.externalID, nil
}

func (s *stubRegistry) Download(_ context.Context, externalID string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("zip:" + externalID)), nil
}

type fixture struct {
	t        *testing.T
	username string
	orders   *store.InMemoryOrderStore
	router   *chi.Mux
}

// newFixture builds the routes against a real service and memory store;
// the auth middleware is bypassed by stamping identity per request.
func newFixture(t *testing.T, username string) *fixture {
	t.Helper()

	orders := store.NewMemory()
	svc, err := service.New(orders, &stubRegistry{externalID: "EXT-100"})
	require.NoError(t, err)

	router := chi.NewRouter()
	New(svc, discardLogger()).Register(router)

	return &fixture{t: t, username: username, orders: orders, router: router}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	req := testutil.NewRequestWithBody(f.t, method, target, body)
	return testutil.DoRequest(f.router, testutil.WithUsername(req, f.username))
}

func TestHandleSubmit(t *testing.T) {
	t.Run("creates an order", func(t *testing.T) {
		f := newFixture(t, "alice")

		rec := f.do(http.MethodPost, "/orders", `{"cadastral_number":"77:01:0001075:1361"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "EXT-100", resp["external_id"])
		assert.Equal(t, "Заявка только что создана", resp["status"])
		assert.Equal(t, models.TrackingPending, resp["tracking_id"])
		assert.NotEmpty(t, resp["id"])
		assert.NotEmpty(t, resp["created_at"])
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		f := newFixture(t, "alice")

		rec := f.do(http.MethodPost, "/orders", `{"cadastral_number":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an invalid cadastral number", func(t *testing.T) {
		f := newFixture(t, "alice")

		rec := f.do(http.MethodPost, "/orders", `{"cadastral_number":"garbage"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "validation")
	})
}

func TestHandleList(t *testing.T) {
	f := newFixture(t, "alice")

	rec := f.do(http.MethodPost, "/orders", `{"cadastral_number":"77:01:0001075:1361"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Orders []service.OrderView `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "77:01:0001075:1361", resp.Orders[0].CadastralNumber)
	assert.False(t, resp.Orders[0].Completed)
}

func TestHandleDownload(t *testing.T) {
	f := newFixture(t, "alice")

	rec := f.do(http.MethodPost, "/orders", `{"cadastral_number":"77:01:0001075:1361"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	orderID := created["id"]

	t.Run("open order has nothing to download", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/orders/"+orderID+"/download", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("completed order streams the archive", func(t *testing.T) {
		err := f.orders.UpdateStatus(context.Background(), "EXT-100", models.StatusCompleted, "50-1/2024")
		require.NoError(t, err)

		rec := f.do(http.MethodGet, "/orders/"+orderID+"/download", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), orderID)
		assert.Equal(t, "zip:EXT-100", rec.Body.String())
	})

	t.Run("malformed order id", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/orders/not-a-uuid/download", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("another user's order reads as missing", func(t *testing.T) {
		other := newFixture(t, "bob")
		// bob's empty store: same id resolves to nothing for him.
		rec := other.do(http.MethodGet, "/orders/"+orderID+"/download", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
