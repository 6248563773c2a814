package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"landledger/internal/ledger"
	"landledger/internal/ledger/handler"
	"landledger/internal/ledger/mocks"
	"landledger/internal/ledger/reconcile"
	"landledger/pkg/testutil"
)

type fakeStats struct {
	cached, fresh reconcile.AggregateStats
	refreshed     int
}

func (f *fakeStats) Stats(context.Context) reconcile.AggregateStats { return f.cached }

func (f *fakeStats) RefreshStats(context.Context) reconcile.AggregateStats {
	f.refreshed++
	return f.fresh
}

func newRouter(t *testing.T) (http.Handler, *mocks.MockChainClient, *fakeStats) {
	t.Helper()
	ctrl := gomock.NewController(t)
	chain := mocks.NewMockChainClient(ctrl)
	stats := &fakeStats{
		cached: reconcile.AggregateStats{TotalLands: 10, VerifiedLands: 4, PendingLands: 6, DataFreshness: reconcile.FreshnessFresh},
		fresh: reconcile.AggregateStats{
			TotalLands: 10, VerifiedLands: 4, PendingLands: 6,
			DataFreshness: reconcile.FreshnessStale,
			StaleFields:   []reconcile.Field{reconcile.FieldTotalUsers},
		},
	}
	validator := testutil.Tokens{}
	validator.Add("admin", "admin")
	validator.Add("citizen", "citizen")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	handler.New(stats, chain, logger, nil, validator).Register(r)
	return r, chain, stats
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	return testutil.DoRequest(router, testutil.WithBearer(req, token))
}

func TestStatsRequiresAdmin(t *testing.T) {
	router, _, _ := newRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/admin/ledger/stats", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(t, router, http.MethodGet, "/admin/ledger/stats", "citizen", nil).Code)
}

func TestStats(t *testing.T) {
	router, _, stats := newRouter(t)

	rec := do(t, router, http.MethodGet, "/admin/ledger/stats", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body handler.StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, uint64(6), body.PendingLands)
	assert.Equal(t, reconcile.PendingLandsBasis, body.PendingLandsBasis)
	assert.Equal(t, "Fresh", body.DataFreshness)
	assert.Empty(t, body.StaleFields)
	assert.Zero(t, stats.refreshed)

	rec = do(t, router, http.MethodGet, "/admin/ledger/stats?refresh=true", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Stale", body.DataFreshness)
	assert.Equal(t, []string{"totalUsers"}, body.StaleFields)
	assert.Equal(t, 1, stats.refreshed)
}

func TestRegisterLand(t *testing.T) {
	router, chain, _ := newRouter(t)

	chain.EXPECT().RegisterLand(gomock.Any(), "Bole, Addis Ababa", uint64(500)).
		Return(ledger.Receipt{TxHash: "0xabc"}, nil)

	rec := do(t, router, http.MethodPost, "/admin/ledger/lands", "admin", map[string]any{"location": "Bole, Addis Ababa", "size": 500})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tx_hash":"0xabc"`)

	rec = do(t, router, http.MethodPost, "/admin/ledger/lands", "admin", map[string]any{"location": " ", "size": 500})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferLand(t *testing.T) {
	router, chain, _ := newRouter(t)
	to := "0x" + strings.Repeat("ab", 20)

	chain.EXPECT().TransferLand(gomock.Any(), to, uint64(7)).Return(ledger.Receipt{TxHash: "0xdef"}, nil)
	rec := do(t, router, http.MethodPost, "/admin/ledger/lands/7/transfer", "admin", map[string]string{"to_address": to})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, router, http.MethodPost, "/admin/ledger/lands/7/transfer", "admin", map[string]string{"to_address": "not-an-address"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/admin/ledger/lands/seven/transfer", "admin", map[string]string{"to_address": to})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLedgerFailuresMapToStatus(t *testing.T) {
	router, chain, _ := newRouter(t)

	chain.EXPECT().GrantBuildingPermission(gomock.Any(), uint64(3)).
		Return(ledger.Receipt{}, ledger.NewUnavailable(ledger.KindUnavailable, "grant_building_permission", errors.New("connection refused")))
	rec := do(t, router, http.MethodPost, "/admin/ledger/lands/3/building-permission", "admin", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	chain.EXPECT().GrantBuildingPermission(gomock.Any(), uint64(4)).
		Return(ledger.Receipt{}, ledger.NewUnavailable(ledger.KindTimeout, "grant_building_permission", context.DeadlineExceeded))
	rec = do(t, router, http.MethodPost, "/admin/ledger/lands/4/building-permission", "admin", nil)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	chain.EXPECT().RegisterUser(gomock.Any(), "Hana", "inspector").
		Return(ledger.Receipt{}, &ledger.ChainRejectedError{Op: "register_user", Status: 409, Message: "already registered"})
	rec = do(t, router, http.MethodPost, "/admin/ledger/users", "admin", map[string]string{"name": "Hana", "role": "Inspector"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsResponseKeepsRefreshTime(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	resp := handler.NewStatsResponse(reconcile.AggregateStats{RefreshedAt: at})
	assert.Equal(t, at, resp.RefreshedAt)
	assert.NotNil(t, resp.StaleFields)
}
