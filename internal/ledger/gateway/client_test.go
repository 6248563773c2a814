package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landledger/internal/ledger"
	dErrors "landledger/pkg/domain-errors"
)

func newGateway(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "gw-key", time.Second)
}

func TestCounts(t *testing.T) {
	client := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gw-key", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/stats/users":
			_, _ = w.Write([]byte(`{"count": 12}`))
		case "/stats/lands":
			_, _ = w.Write([]byte(`{"count": 40}`))
		case "/stats/lands/verified":
			_, _ = w.Write([]byte(`{"count": 31}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	users, err := client.TotalUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), users)
	lands, err := client.TotalLands(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), lands)
	verified, err := client.VerifiedLands(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(31), verified)
}

func TestWrites(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"tx_hash":"0xabc"}`))
	})
	ctx := context.Background()

	receipt, err := client.TransferLand(ctx, "0x00000000000000000000000000000000000000aa", 7)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", receipt.TxHash)
	assert.Equal(t, "/lands/7/transfer", gotPath)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", gotBody["to_address"])

	_, err = client.RegisterLand(ctx, "Bole", 500)
	require.NoError(t, err)
	assert.Equal(t, "/lands", gotPath)
	assert.EqualValues(t, 500, gotBody["size"])

	_, err = client.GrantBuildingPermission(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "/lands/9/building-permission", gotPath)

	_, err = client.RegisterUser(ctx, "Hana", ledger.RoleCitizen)
	require.NoError(t, err)
	assert.Equal(t, "/users", gotPath)
}

func TestFailureClassification(t *testing.T) {
	t.Run("server error is unavailable and retryable", func(t *testing.T) {
		client := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := client.TotalLands(context.Background())
		assert.True(t, ledger.IsUnavailable(err))
		assert.True(t, ledger.IsRetryable(err))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("client error is a rejection", func(t *testing.T) {
		client := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"land 7 does not exist"}`))
		})
		_, err := client.GrantBuildingPermission(context.Background(), 7)
		var rejected *ledger.ChainRejectedError
		require.True(t, errors.As(err, &rejected))
		assert.Equal(t, "land 7 does not exist", rejected.Message)
		assert.False(t, ledger.IsRetryable(err))
	})

	t.Run("timeout is classified", func(t *testing.T) {
		client := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := client.TotalUsers(ctx)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	t.Run("caller cancellation is not unavailability", func(t *testing.T) {
		entered := make(chan struct{})
		client := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			close(entered)
			<-r.Context().Done()
		})
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-entered
			cancel()
		}()
		_, err := client.TransferLand(ctx, "0xabc", 9)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ledger.IsUnavailable(err))
	})

	t.Run("unreachable gateway", func(t *testing.T) {
		client := New("http://127.0.0.1:1", "", 200*time.Millisecond)
		_, err := client.TotalUsers(context.Background())
		assert.True(t, ledger.IsUnavailable(err))
	})
}

func TestParseCountResponse(t *testing.T) {
	_, err := parseCountResponse("total_lands", http.StatusOK, []byte(`{invalid`))
	assert.True(t, ledger.IsUnavailable(err))
	assert.False(t, ledger.IsRetryable(err))

	_, err = parseCountResponse("total_lands", http.StatusOK, []byte(`{}`))
	assert.Error(t, err)

	n, err := parseCountResponse("total_lands", http.StatusOK, []byte(`{"count":0}`))
	require.NoError(t, err)
	assert.Zero(t, n)
}
