package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/carlmjohnson/requests"

	"pricewatch/config"
	"pricewatch/lib/models"
)

// xpathFetcher retrieves a platform's live page for a product and extracts the
// price through a configured xpath.
type xpathFetcher struct {
	base
	target config.Target
}

func (f *xpathFetcher) Fetch(ctx context.Context, productName string) (*models.Quote, error) {
	endpoint := fmt.Sprintf(f.target.URLTemplate, url.QueryEscape(productName))

	var page string
	err := requests.URL(endpoint).
		Transport(f.transport).
		ToString(&page).
		Fetch(ctx)
	if err != nil {
		f.log.Sugar().Warnw("Fetch failed", "platform", f.target.Platform, "endpoint", endpoint, "err", err)
		return nil, nil
	}

	doc, err := htmlquery.Parse(strings.NewReader(page))
	if err != nil {
		f.log.Sugar().Warnw("Parse failed", "platform", f.target.Platform, "endpoint", endpoint, "err", err)
		return nil, nil
	}

	text := selectText(doc, f.target.XPath)
	price, ok := parsePrice(text)
	if !ok {
		return nil, nil
	}
	return &models.Quote{Platform: f.target.Platform, Price: price, URL: endpoint}, nil
}
