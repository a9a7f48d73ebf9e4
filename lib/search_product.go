package lib

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pricewatch/lib/aggregator"
	"pricewatch/lib/errs"
	"pricewatch/lib/poller"
	"pricewatch/lib/store"
)

type searchProducts struct {
	log       *zap.Logger
	catalog   *store.Catalog
	agg       *aggregator.Aggregator
	fetchJobs *poller.Poller
}

// SearchOutcome carries either priced matches or, when nothing priced matched,
// a pending envelope for the product whose fetch was just submitted.
type SearchOutcome struct {
	Matches []aggregator.Match
	Pending *PendingSearch
}

type PendingSearch struct {
	ProductID uint
	Query     string
	JobID     uuid.UUID
}

// SearchProducts resolves the query to a product (creating one on first
// sight), submits a background fetch so prices stay warm, and answers from
// whatever observations already exist. A query matching nothing priced gets an
// in-progress envelope instead of an arbitrary substitute product.
func (svc *searchProducts) SearchProducts(ctx context.Context, query string) (*SearchOutcome, error) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < 2 {
		return nil, errs.Validationf("query must be at least 2 characters")
	}

	product, err := svc.catalog.ResolveOrCreate(ctx, query, "")
	if err != nil {
		return nil, err
	}
	job := svc.fetchJobs.Submit(*product)
	svc.log.Sugar().Infof("Submitted fetch job %s for product %v (%s)", job.ID, product.ID, product.Name)

	matches, err := svc.agg.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	priced := make([]aggregator.Match, 0, len(matches))
	for _, match := range matches {
		if match.Best != nil {
			priced = append(priced, match)
		}
	}
	if len(priced) == 0 {
		return &SearchOutcome{Pending: &PendingSearch{ProductID: product.ID, Query: query, JobID: job.ID}}, nil
	}
	return &SearchOutcome{Matches: priced}, nil
}
