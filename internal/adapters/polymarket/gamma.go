package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

const gammaMarketsPath = "/markets"

// ResolveMarket busca un mercado en Gamma por slug. Devuelve
// domain.ErrMarketNotFound si Gamma no conoce el slug.
func (c *Client) ResolveMarket(ctx context.Context, slug string) (domain.MarketRef, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.MarketRef{}, fmt.Errorf("gamma.ResolveMarket: empty slug: %w", domain.ErrMarketNotFound)
	}

	u := fmt.Sprintf("%s%s?%s", c.gammaBase, gammaMarketsPath, url.Values{"slug": {slug}}.Encode())

	var resp gammaMarketsResponse
	if err := c.get(ctx, c.gammaLimiter, "gamma_markets", u, &resp); err != nil {
		return domain.MarketRef{}, fmt.Errorf("gamma.ResolveMarket: %w", err)
	}

	for _, gm := range resp {
		if gm.ConditionID == "" {
			continue
		}
		slog.Debug("market resolved",
			"slug", slug,
			"condition_id", gm.ConditionID,
			"closed", gm.Closed,
		)
		return domain.MarketRef{ConditionID: gm.ConditionID, Title: gm.Question, Slug: gm.Slug}, nil
	}
	return domain.MarketRef{}, fmt.Errorf("gamma.ResolveMarket: %q: %w", slug, domain.ErrMarketNotFound)
}
