package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

func TestMemoryEngineLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := NewMemoryEngine().WithClock(func() time.Time { return now })
	ctx := context.Background()

	status, err := engine.Status(ctx, "asset-ong")
	require.NoError(t, err)
	require.False(t, status.Listed)

	receipt, err := engine.ListAsset(ctx, contracts.CallContext{Network: "mainnet"}, "asset-ong", contracts.RiskParams{
		LTV: 7000, LiquidationThreshold: 7500, SupplyCap: 100,
	})
	require.NoError(t, err)
	require.Equal(t, "asset-ong", receipt.SubjectID)
	require.NotEmpty(t, receipt.PoolTokenID)
	require.NotEmpty(t, receipt.DebtTokenID)
	require.Equal(t, now, receipt.ListedAt)

	_, err = engine.ListAsset(ctx, contracts.CallContext{}, "asset-ong", contracts.RiskParams{})
	require.Error(t, err, "double listing must fail")

	status, err = engine.Status(ctx, "asset-ong")
	require.NoError(t, err)
	require.True(t, status.Listed)
	require.False(t, status.Frozen)
	require.Equal(t, receipt.PoolTokenID, status.Receipt.PoolTokenID)

	require.NoError(t, engine.SetFrozen(ctx, "asset-ong", true))
	status, _ = engine.Status(ctx, "asset-ong")
	require.True(t, status.Frozen)
}

func TestMemoryEngineZeroCapKeepsCurrent(t *testing.T) {
	engine := NewMemoryEngine()
	ctx := context.Background()

	_, err := engine.ListAsset(ctx, contracts.CallContext{}, "asset-x", contracts.RiskParams{
		LTV: 7000, LiquidationThreshold: 7500, SupplyCap: 500, BorrowCap: 200,
	})
	require.NoError(t, err)

	require.NoError(t, engine.UpdateRiskParams(ctx, "asset-x", contracts.RiskParams{
		LTV: 6000, LiquidationThreshold: 7000,
	}))

	params, ok := engine.Params("asset-x")
	require.True(t, ok)
	require.Equal(t, uint64(6000), params.LTV)
	require.Equal(t, uint64(500), params.SupplyCap, "zero cap must keep current")
	require.Equal(t, uint64(200), params.BorrowCap)
}

func TestMemoryEngineFreezeUnlisted(t *testing.T) {
	engine := NewMemoryEngine()
	require.Error(t, engine.SetFrozen(context.Background(), "ghost", true))
}

func TestHTTPEngineListAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/assets/asset-1/list", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"subject_id":"asset-1","pool_token_id":"pool-9","debt_token_id":"debt-9"}`))
	}))
	defer server.Close()

	engine, err := NewHTTPEngine(server.URL, nil)
	require.NoError(t, err)

	receipt, err := engine.ListAsset(context.Background(), contracts.CallContext{}, "asset-1", contracts.RiskParams{LTV: 7000, LiquidationThreshold: 7500})
	require.NoError(t, err)
	require.Equal(t, "pool-9", receipt.PoolTokenID)
}

func TestHTTPEngineStatusNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	engine, err := NewHTTPEngine(server.URL, nil)
	require.NoError(t, err)

	status, err := engine.Status(context.Background(), "ghost")
	require.NoError(t, err)
	require.False(t, status.Listed)
}

func TestHTTPEngineErrorSurface(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pool is at capacity", http.StatusConflict)
	}))
	defer server.Close()

	engine, err := NewHTTPEngine(server.URL, nil)
	require.NoError(t, err)

	_, err = engine.ListAsset(context.Background(), contracts.CallContext{}, "asset-1", contracts.RiskParams{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "409")
}
