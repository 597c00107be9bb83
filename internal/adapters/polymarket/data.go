package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

// fetchPaged recorre un endpoint paginado por limit/offset de la Data API
// hasta recibir una página incompleta o llegar a maxPages.
func fetchPaged[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	var all []T
	for page := 0; page < c.maxPages; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("limit", fmt.Sprint(c.pageSize))
		q.Set("offset", fmt.Sprint(page*c.pageSize))

		var resp []T
		u := fmt.Sprintf("%s/%s?%s", c.dataBase, endpoint, q.Encode())
		if err := c.get(ctx, c.dataLimiter, endpoint, u, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp...)

		slog.Debug("fetched page",
			"endpoint", endpoint,
			"page", page,
			"count", len(resp),
			"total", len(all),
		)

		if len(resp) < c.pageSize {
			break
		}
	}
	return all, nil
}

func userQuery(wallet string) url.Values {
	return url.Values{"user": {strings.ToLower(wallet)}}
}

// FetchPositions obtiene las posiciones abiertas de una wallet.
func (c *Client) FetchPositions(ctx context.Context, wallet string) ([]domain.Position, error) {
	raw, err := fetchPaged[dataPosition](ctx, c, "positions", userQuery(wallet))
	if err != nil {
		return nil, fmt.Errorf("data-api.FetchPositions: %w", err)
	}
	out := make([]domain.Position, 0, len(raw))
	for _, r := range raw {
		out = append(out, mapPosition(wallet, r))
	}
	return out, nil
}

// FetchClosedPositions obtiene las posiciones cerradas o resueltas de una wallet.
func (c *Client) FetchClosedPositions(ctx context.Context, wallet string) ([]domain.ClosedPosition, error) {
	raw, err := fetchPaged[dataClosedPosition](ctx, c, "closed-positions", userQuery(wallet))
	if err != nil {
		return nil, fmt.Errorf("data-api.FetchClosedPositions: %w", err)
	}
	out := make([]domain.ClosedPosition, 0, len(raw))
	for _, r := range raw {
		out = append(out, mapClosedPosition(wallet, r))
	}
	return out, nil
}

// FetchActivity obtiene el feed de actividad de una wallet. Solo conserva
// TRADE, REDEEM y REWARD.
func (c *Client) FetchActivity(ctx context.Context, wallet string) ([]domain.Activity, error) {
	raw, err := fetchPaged[dataActivity](ctx, c, "activity", userQuery(wallet))
	if err != nil {
		return nil, fmt.Errorf("data-api.FetchActivity: %w", err)
	}
	out := make([]domain.Activity, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		act, ok := mapActivity(wallet, r)
		if !ok {
			skipped++
			continue
		}
		out = append(out, act)
	}
	if skipped > 0 {
		slog.Debug("activity types skipped", "wallet", wallet, "count", skipped)
	}
	return out, nil
}

// FetchMarketOrders obtiene los fills de un mercado por condition_id.
func (c *Client) FetchMarketOrders(ctx context.Context, conditionID string) ([]domain.Order, error) {
	raw, err := fetchPaged[dataTrade](ctx, c, "trades", url.Values{"market": {conditionID}})
	if err != nil {
		return nil, fmt.Errorf("data-api.FetchMarketOrders: %w", err)
	}
	out := make([]domain.Order, 0, len(raw))
	for _, r := range raw {
		out = append(out, mapTrade(r))
	}
	return out, nil
}
