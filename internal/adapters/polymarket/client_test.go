package polymarket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/polyscore/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyscore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(dataSrv, gammaSrv *httptest.Server) *polymarket.Client {
	dataURL := ""
	gammaURL := ""
	if dataSrv != nil {
		dataURL = dataSrv.URL
	}
	if gammaSrv != nil {
		gammaURL = gammaSrv.URL
	}
	return polymarket.NewClient(dataURL, gammaURL, polymarket.WithPaging(2, 5))
}

func serveJSON(t *testing.T, path, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestFetchPositions_MixedNumericTypes(t *testing.T) {
	fixture := `[{
		"proxyWallet": "0xabc", "conditionId": "0xc1",
		"title": "Will Trump win?", "slug": "trump-win", "outcome": "Yes",
		"size": "120.5", "avgPrice": 0.42, "curPrice": "0.55",
		"initialValue": 50.61, "currentValue": "66.275", "cashPnl": "oops"
	}]`
	srv := serveJSON(t, "/positions", fixture)
	defer srv.Close()

	positions, err := newTestClient(srv, nil).FetchPositions(context.Background(), "0xABC")
	require.NoError(t, err)
	require.Len(t, positions, 1)

	p := positions[0]
	assert.Equal(t, "0xABC", p.TraderID)
	assert.Equal(t, "0xc1", p.MarketID)
	assert.Equal(t, "Will Trump win?", p.MarketTitle)
	assert.InDelta(t, 120.5, p.Size, 1e-9)
	assert.InDelta(t, 0.42, p.AveragePrice, 1e-9)
	assert.InDelta(t, 0.55, p.CurrentPrice, 1e-9)
	assert.InDelta(t, 50.61, p.InitialValue, 1e-9)
	assert.Equal(t, 0.0, p.UnrealizedPnL, "texto no numérico se convierte en 0")
}

func TestFetchPositions_Paginates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "0xabc", r.URL.Query().Get("user"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		n := 2
		if offset >= 4 {
			n = 1
		}
		items := make([]map[string]any, n)
		for i := range items {
			items[i] = map[string]any{"conditionId": "c" + strconv.Itoa(offset+i), "initialValue": 10}
		}
		json.NewEncoder(w).Encode(items)
	}))
	defer srv.Close()

	positions, err := newTestClient(srv, nil).FetchPositions(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Len(t, positions, 5)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "c4", positions[4].MarketID)
}

func TestFetchClosedPositions(t *testing.T) {
	fixture := `[
		{"conditionId": "0xc1", "title": "BTC above 100k", "slug": "btc-100k", "outcome": "No",
		 "avgPrice": "0.3", "totalBought": 200, "curPrice": 1, "realizedPnl": "140",
		 "timestamp": 1736510400000},
		{"conditionId": "0xc2", "title": "Fed cut", "slug": "fed-cut",
		 "avgPrice": 0.6, "size": 50, "realizedPnl": -30, "endDate": "2025-03-19T18:00:00Z"}
	]`
	srv := serveJSON(t, "/closed-positions", fixture)
	defer srv.Close()

	closed, err := newTestClient(srv, nil).FetchClosedPositions(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, closed, 2)

	assert.InDelta(t, 200, closed[0].TotalBought, 1e-9)
	assert.InDelta(t, 140, closed[0].RealizedPnL, 1e-9)
	assert.Equal(t, time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC), closed[0].ClosedAt)
	assert.InDelta(t, 60, domain.ClosedCapital(closed[0]), 1e-9)

	assert.Equal(t, time.Date(2025, 3, 19, 18, 0, 0, 0, time.UTC), closed[1].ClosedAt, "sin timestamp usa endDate")
	assert.InDelta(t, -30, closed[1].RealizedPnL, 1e-9)
}

func TestFetchActivity_KeepsKnownTypes(t *testing.T) {
	fixture := `[
		{"type": "TRADE", "side": "buy", "price": "0.4", "size": 10, "usdcSize": "4", "transactionHash": "0xt1", "timestamp": 1736510400},
		{"type": "REWARD", "usdcSize": 1.25},
		{"type": "SPLIT", "usdcSize": 100},
		{"type": "redeem", "usdcSize": 20}
	]`
	srv := serveJSON(t, "/activity", fixture)
	defer srv.Close()

	acts, err := newTestClient(srv, nil).FetchActivity(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, acts, 3)

	assert.Equal(t, domain.ActivityTrade, acts[0].Type)
	assert.Equal(t, domain.SideBuy, acts[0].Side)
	assert.InDelta(t, 4, acts[0].USDCValue, 1e-9)
	assert.Equal(t, "0xt1", acts[0].TransactionID)
	assert.Equal(t, domain.ActivityReward, acts[1].Type)
	assert.Equal(t, domain.ActivityRedeem, acts[2].Type)
}

func TestFetchMarketOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trades", r.URL.Path)
		assert.Equal(t, "0xcond", r.URL.Query().Get("market"))
		w.Write([]byte(`[
			{"proxyWallet": "0xAAA", "side": "BUY", "outcome": "Yes", "price": 0.62, "size": "100", "name": "whale", "transactionHash": "0x1"},
			{"proxyWallet": "0xBBB", "side": "SELL", "outcome": "No", "price": "0.3", "size": 40, "pseudonym": "Quiet-Fox"}
		]`))
	}))
	defer srv.Close()

	orders, err := newTestClient(srv, nil).FetchMarketOrders(context.Background(), "0xcond")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "0xaaa", orders[0].TraderID)
	assert.Equal(t, "whale", orders[0].TraderName)
	assert.Equal(t, domain.SideBuy, orders[0].Side)
	assert.InDelta(t, 100, orders[0].Shares, 1e-9)
	assert.Equal(t, "Quiet-Fox", orders[1].TraderName)
	assert.Equal(t, domain.SideSell, orders[1].Side)
}

func TestResolveMarket(t *testing.T) {
	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		if r.URL.Query().Get("slug") == "fed-cut" {
			w.Write([]byte(`[{"conditionId": "0xfed", "question": "Fed cuts in March?", "slug": "fed-cut"}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer gamma.Close()

	c := newTestClient(nil, gamma)
	m, err := c.ResolveMarket(context.Background(), "fed-cut")
	require.NoError(t, err)
	assert.Equal(t, "0xfed", m.ConditionID)
	assert.Equal(t, "Fed cuts in March?", m.Title)

	_, err = c.ResolveMarket(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrMarketNotFound)

	_, err = c.ResolveMarket(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrMarketNotFound)
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad wallet", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).FetchPositions(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client error 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).FetchActivity(context.Background(), "0xabc")
	assert.Error(t, err)
}
