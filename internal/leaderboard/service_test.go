package leaderboard_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alejandrodnm/polyscore/internal/domain"
	"github.com/alejandrodnm/polyscore/internal/leaderboard"
	"github.com/alejandrodnm/polyscore/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

// mockTraderProvider sirve datos fijos por wallet. Solo lectura: seguro entre goroutines.
type mockTraderProvider struct {
	data map[string]domain.TraderData
	errs map[string]error // clave "wallet/source"
}

func (m *mockTraderProvider) err(wallet, source string) error {
	return m.errs[wallet+"/"+source]
}

func (m *mockTraderProvider) FetchPositions(_ context.Context, wallet string) ([]domain.Position, error) {
	if err := m.err(wallet, leaderboard.SourcePositions); err != nil {
		return nil, err
	}
	return m.data[wallet].Positions, nil
}

func (m *mockTraderProvider) FetchClosedPositions(_ context.Context, wallet string) ([]domain.ClosedPosition, error) {
	if err := m.err(wallet, leaderboard.SourceClosed); err != nil {
		return nil, err
	}
	return m.data[wallet].Closed, nil
}

func (m *mockTraderProvider) FetchActivity(_ context.Context, wallet string) ([]domain.Activity, error) {
	if err := m.err(wallet, leaderboard.SourceActivity); err != nil {
		return nil, err
	}
	return m.data[wallet].Activities, nil
}

type mockMarketProvider struct {
	market    domain.MarketRef
	orders    []domain.Order
	err       error
	ordersErr error
}

func (m *mockMarketProvider) ResolveMarket(_ context.Context, _ string) (domain.MarketRef, error) {
	return m.market, m.err
}

func (m *mockMarketProvider) FetchMarketOrders(_ context.Context, _ string) ([]domain.Order, error) {
	return m.orders, m.ordersErr
}

type mockStorage struct {
	saved  []domain.Snapshot
	pct    domain.PopulationPercentiles
	pctErr error
	before time.Time
	err    error
}

func (m *mockStorage) SaveSnapshot(_ context.Context, snap domain.Snapshot) error {
	m.saved = append(m.saved, snap)
	return m.err
}

func (m *mockStorage) LatestSnapshot(_ context.Context) (domain.Snapshot, error) {
	if len(m.saved) == 0 {
		return domain.Snapshot{}, domain.ErrNoSnapshot
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *mockStorage) LatestPercentiles(_ context.Context) (domain.PopulationPercentiles, error) {
	return m.pct, m.pctErr
}

func (m *mockStorage) PruneSnapshots(_ context.Context, before time.Time) (int, error) {
	m.before = before
	return 0, nil
}

func (m *mockStorage) Close() error { return nil }

type mockNotifier struct {
	snapshots []domain.Snapshot
	report    *domain.TraderReport
	market    domain.MarketRef
	ratings   []domain.TraderRating
}

func (m *mockNotifier) NotifyLeaderboards(_ context.Context, snap domain.Snapshot) error {
	m.snapshots = append(m.snapshots, snap)
	return nil
}

func (m *mockNotifier) NotifyTraderReport(_ context.Context, r domain.TraderReport) error {
	m.report = &r
	return nil
}

func (m *mockNotifier) NotifyMarketRatings(_ context.Context, market domain.MarketRef, ratings []domain.TraderRating) error {
	m.market, m.ratings = market, ratings
	return nil
}

// --- helpers ---

func newProvider() *mockTraderProvider {
	data := make(map[string]domain.TraderData)
	for _, d := range population() {
		data[d.TraderID] = d
	}
	return &mockTraderProvider{data: data, errs: map[string]error{}}
}

func newTestService(tp *mockTraderProvider, mp ports.MarketTradeProvider, st ports.SnapshotStorage, n *mockNotifier) *leaderboard.Service {
	cfg := leaderboard.DefaultConfig()
	cfg.Wallets = []string{"alpha", "beta", "gamma", "tiny", "ghost"}
	cfg.DryRun = true
	return leaderboard.New(cfg, domain.DefaultScoringConfig(), tp, mp, st, n)
}

// --- collector ---

func TestCollector_PartialFailure(t *testing.T) {
	tp := newProvider()
	tp.errs["alpha/"+leaderboard.SourceActivity] = errors.New("timeout")
	tp.errs["beta/"+leaderboard.SourceClosed] = errors.New("502")

	col, err := leaderboard.NewCollector(tp, 2).Collect(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, col.Traders, 2)
	require.Len(t, col.Errors, 2)

	assert.Equal(t, "alpha", col.Errors[0].Wallet)
	assert.Equal(t, leaderboard.SourceActivity, col.Errors[0].Source)
	assert.EqualError(t, col.Errors[1], "fetch closed for beta: 502")

	assert.Len(t, col.Traders[0].Closed, 6, "alpha conserva lo que sí llegó")
	assert.Empty(t, col.Traders[1].Closed)
}

func TestCollector_NormalizesWallets(t *testing.T) {
	col, err := leaderboard.NewCollector(newProvider(), 0).Collect(context.Background(), []string{" ALPHA ", "alpha", "", "beta"})
	require.NoError(t, err)
	require.Len(t, col.Traders, 2)
	assert.Equal(t, "alpha", col.Traders[0].TraderID)
	assert.Equal(t, "beta", col.Traders[1].TraderID)
}

func TestCollector_NameFromActivity(t *testing.T) {
	tp := newProvider()
	d := tp.data["alpha"]
	d.Activities = []domain.Activity{
		{Type: domain.ActivityReward, USDCValue: 1},
		{Type: domain.ActivityTrade, TraderName: "Alpha-Whale"},
	}
	tp.data["alpha"] = d

	col, err := leaderboard.NewCollector(tp, 1).Collect(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha-Whale", col.Traders[0].Name)
}

func TestCollector_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := leaderboard.NewCollector(newProvider(), 1).Collect(ctx, []string{"alpha"})
	assert.ErrorIs(t, err, context.Canceled)
}

// --- service ---

func TestService_RunOnce(t *testing.T) {
	n := &mockNotifier{}
	s := newTestService(newProvider(), nil, nil, n)

	snap, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "v1", snap.ScoringVersion)
	assert.Len(t, snap.Leaderboards, 9)
	assert.Equal(t, 3, snap.Percentiles.PopulationSize)
	assert.Empty(t, n.snapshots, "RunOnce no notifica")
}

func TestService_RunOnce_NoWallets(t *testing.T) {
	cfg := leaderboard.DefaultConfig()
	s := leaderboard.New(cfg, domain.DefaultScoringConfig(), newProvider(), nil, nil, &mockNotifier{})
	_, err := s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestService_Run_DryRunPersistsAndNotifies(t *testing.T) {
	st := &mockStorage{}
	n := &mockNotifier{}
	s := newTestService(newProvider(), nil, st, n)

	require.NoError(t, s.Run(context.Background()))
	require.Len(t, st.saved, 1)
	require.Len(t, n.snapshots, 1)
	assert.Equal(t, st.saved[0].ID, n.snapshots[0].ID)
	assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), st.before, time.Minute)
}

func TestService_Run_StorageErrorIsNotFatal(t *testing.T) {
	st := &mockStorage{err: errors.New("disk full")}
	s := newTestService(newProvider(), nil, st, &mockNotifier{})
	assert.NoError(t, s.Run(context.Background()))
}

func TestService_RateMarket(t *testing.T) {
	mp := &mockMarketProvider{
		market: domain.MarketRef{ConditionID: "0xcond", Title: "Fed cuts in March?", Slug: "fed-cuts-march"},
		orders: []domain.Order{
			{TraderID: "0xa", Side: domain.SideBuy, OutcomeLabel: "Yes", Price: 0.7, Shares: 10},
			{TraderID: "0xb", Side: domain.SideBuy, OutcomeLabel: "Yes", Price: 0.3, Shares: 10},
		},
	}
	n := &mockNotifier{}
	s := newTestService(newProvider(), mp, nil, n)

	ratings, err := s.RateMarket(context.Background(), "fed-cuts-march")
	require.NoError(t, err)
	require.Len(t, ratings, 2)
	assert.Equal(t, "0xa", ratings[0].TraderID)
	assert.Equal(t, 100.0, ratings[0].Rating)
	assert.Equal(t, "0xcond", n.market.ConditionID)
	assert.Equal(t, ratings, n.ratings)
}

func TestService_RateMarket_NotFound(t *testing.T) {
	mp := &mockMarketProvider{err: fmt.Errorf("gamma: %w", domain.ErrMarketNotFound)}
	s := newTestService(newProvider(), mp, nil, &mockNotifier{})

	_, err := s.RateMarket(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrMarketNotFound)
}

func TestService_RateMarket_NoProvider(t *testing.T) {
	s := newTestService(newProvider(), nil, nil, &mockNotifier{})
	_, err := s.RateMarket(context.Background(), "x")
	assert.Error(t, err)
}

func TestService_TraderReport_UsesStoredPercentiles(t *testing.T) {
	stored := domain.PopulationPercentiles{
		WShrunkP1: 5, WShrunkP99: 95,
		ROIShrunkP1: -50, ROIShrunkP99: 50,
		PnLShrunkP1: -500, PnLShrunkP99: 500,
		WinRateMedian: 50, ROIMedian: 0, PnLMedian: 0,
		PopulationSize: 120,
	}
	st := &mockStorage{pct: stored}
	n := &mockNotifier{}
	s := newTestService(newProvider(), nil, st, n)

	report, err := s.TraderReport(context.Background(), "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, "alpha", report.Metrics.TraderID)
	assert.Equal(t, stored, report.Percentiles)
	assert.Equal(t, 6, report.Metrics.TotalTrades)
	assert.InDelta(t, 300, report.Summary.TotalCapital, 1e-9)
	require.Len(t, report.Summary.Categories, 1)
	assert.Equal(t, domain.CategoryCrypto, report.Summary.Categories[0].Category)
	require.NotNil(t, n.report)
}

func TestService_TraderReport_NoSnapshotUsesLocal(t *testing.T) {
	st := &mockStorage{pctErr: domain.ErrNoSnapshot}
	tp := newProvider()
	tp.errs["tiny/"+leaderboard.SourcePositions] = errors.New("boom")
	s := newTestService(tp, nil, st, &mockNotifier{})

	report, err := s.TraderReport(context.Background(), "tiny")
	require.NoError(t, err)
	assert.True(t, report.Percentiles.Degraded, "un trader con 2 trades no forma población")
	assert.Equal(t, report.Metrics.ROI, report.Metrics.ROIShrunk)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, leaderboard.SourcePositions, report.Errors[0].Source)
}

func TestService_TraderReport_EmptyWallet(t *testing.T) {
	s := newTestService(newProvider(), nil, nil, &mockNotifier{})
	_, err := s.TraderReport(context.Background(), "  ")
	assert.Error(t, err)
}
