// Package poller runs the fetch-then-store sequence off the request path. A
// search submits an explicit Job and returns immediately; the poller fans the
// job out over every configured platform fetcher, appends whatever succeeds to
// the observation store, and evaluates price alerts against the new best price.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"pricewatch/config"
	"pricewatch/lib/aggregator"
	"pricewatch/lib/fetcher"
	"pricewatch/lib/models"
	"pricewatch/lib/store"
)

// Result summarizes one finished job. Delivered exactly once on Job.Done.
type Result struct {
	Recorded int
	Failed   int
	Err      error
}

// Job is the handle to one detached fetch of a single product. A job that
// outlives its triggering request still completes and writes its observations.
type Job struct {
	ID      uuid.UUID
	Product models.Product
	Done    <-chan Result

	done chan Result
}

func newJob(product models.Product) *Job {
	done := make(chan Result, 1)
	return &Job{ID: uuid.New(), Product: product, Done: done, done: done}
}

type Poller struct {
	log      *zap.Logger
	fetchers fetcher.Registry

	observations *store.ObservationStore
	catalog      *store.Catalog
	alerts       *store.AlertRegistry
	agg          *aggregator.Aggregator

	mu         sync.Mutex
	alarmClock *alarmClock

	fetchTimeout    time.Duration
	refreshInterval time.Duration // products whose newest observation is older than this get re-fetched
}

func NewPoller(
	lc fx.Lifecycle,
	log *zap.Logger,
	cfg *config.Config,
	fetchers fetcher.Registry,
	observations *store.ObservationStore,
	catalog *store.Catalog,
	alerts *store.AlertRegistry,
	agg *aggregator.Aggregator,
) *Poller {
	p := newPoller(log, fetchers, observations, catalog, alerts, agg, cfg.FetchTimeout(), cfg.RefreshInterval())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop poller")
			p.Stop()
			return nil
		},
	})

	return p
}

func newPoller(
	log *zap.Logger,
	fetchers fetcher.Registry,
	observations *store.ObservationStore,
	catalog *store.Catalog,
	alerts *store.AlertRegistry,
	agg *aggregator.Aggregator,
	fetchTimeout, refreshInterval time.Duration,
) *Poller {
	return &Poller{
		log:             log,
		fetchers:        fetchers,
		observations:    observations,
		catalog:         catalog,
		alerts:          alerts,
		agg:             agg,
		alarmClock:      newAlarmClock(refreshInterval),
		fetchTimeout:    fetchTimeout,
		refreshInterval: refreshInterval,
	}
}

func (p *Poller) Start(ctx context.Context) {
	c := p.alarmClock.Start(ctx)

	go func() {
		for evt := range c {
			p.handleEvent(evt)
		}
	}()
}

func (p *Poller) Stop() {
	// Locking here waits for the in-flight batch to finish.
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alarmClock.Stop()
	p.log.Sugar().Info("Poller stopped")
}

// Submit queues a detached fetch of the product and returns its Job handle.
// The caller is never blocked on network calls.
func (p *Poller) Submit(product models.Product) *Job {
	job := newJob(product)

	select {
	case p.alarmClock.jobC <- jobEvent{event{time.Now().UTC()}, job}:
	default:
		// Queue saturated; run detached so the caller still gets a result.
		// Taking the lock keeps alert evaluation serialized with whatever
		// batch is in flight, so an alert cannot fire twice.
		go func() {
			p.mu.Lock()
			defer p.mu.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), p.fetchTimeout)
			defer cancel()
			p.runJob(ctx, job)
		}()
	}
	return job
}

func (p *Poller) handleEvent(evt Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.fetchTimeout)
	defer cancel()

	switch evt := evt.(type) {
	case refreshWakeupEvent:
		p.refreshStaleProducts(ctx, evt.Timestamp())
	case jobEvent:
		p.runJob(ctx, evt.job)
	}
}

func (p *Poller) runJob(ctx context.Context, job *Job) {
	m := p.collectQuotes(ctx, job.Product)

	if m.recorded > 0 {
		p.evaluateAlerts(ctx, job.Product)
	}

	result := Result{Recorded: m.recorded, Failed: m.errored}
	if m.recorded == 0 && m.errored > 0 {
		result.Err = fmt.Errorf("all %d platform fetches failed for %s", m.errored, job.Product.Name)
	}
	job.done <- result

	p.log.Sugar().Infow("Fetch job finished",
		"job_id", job.ID, "product", job.Product.Name,
		"recorded", m.recorded, "absent", m.absent, "errored", m.errored,
	)
}

// collectQuotes fans out over every platform concurrently. Platforms have no
// ordering dependency on each other; per platform, observations land in write
// order because each fetcher contributes at most one.
func (p *Poller) collectQuotes(ctx context.Context, product models.Product) *fetchMetrics {
	var wg sync.WaitGroup
	var mu sync.Mutex
	metrics := &fetchMetrics{}

	for _, f := range p.fetchers {
		f := f
		wg.Add(1)

		go func() {
			defer wg.Done()
			m := p.collectQuote(ctx, f, product)

			mu.Lock()
			defer mu.Unlock()
			metrics.Add(m)
		}()
	}

	wg.Wait()
	return metrics
}

func (p *Poller) collectQuote(ctx context.Context, f fetcher.Fetcher, product models.Product) *fetchMetrics {
	quote, err := f.Fetch(ctx, product.Name)
	switch {
	case err != nil:
		return &fetchMetrics{errored: 1}
	case quote == nil:
		return &fetchMetrics{absent: 1}
	}

	if _, err := p.observations.Record(ctx, product.ID, quote.Platform, quote.Price, quote.URL); err != nil {
		p.log.Sugar().Errorw("Failed to record observation", "product", product.Name, "platform", quote.Platform, "err", err)
		return &fetchMetrics{errored: 1}
	}
	return &fetchMetrics{recorded: 1}
}

// evaluateAlerts reports which alerts the new best price satisfies and marks
// them so they fire only once. Delivery is out of scope; a notifier would hook
// in here.
func (p *Poller) evaluateAlerts(ctx context.Context, product models.Product) {
	best, err := p.agg.BestPrice(ctx, product.ID)
	if err != nil {
		p.log.Sugar().Errorw("Failed to load best price for alert check", "product", product.Name, "err", err)
		return
	}
	if best == nil {
		return
	}

	due, err := p.alerts.Due(ctx, product.ID, best.Price)
	if err != nil {
		p.log.Sugar().Errorw("Failed to load due alerts", "product", product.Name, "err", err)
		return
	}
	if len(due) == 0 {
		return
	}

	ids := make([]uint, len(due))
	for i, alert := range due {
		ids[i] = alert.ID
		p.log.Sugar().Infow("Price alert due",
			"alert_id", alert.ID, "product", product.Name, "user_email", alert.UserEmail,
			"target_price", alert.TargetPrice, "current_price", best.Price,
		)
	}

	if err := p.alerts.MarkNotified(ctx, ids, time.Now().UTC()); err != nil {
		p.log.Sugar().Errorw("Failed to mark alerts notified", "product", product.Name, "err", err)
	}
}

func (p *Poller) refreshStaleProducts(ctx context.Context, wakeupTime time.Time) {
	cutoff := wakeupTime.Add(-p.refreshInterval)

	products, err := p.catalog.ListStale(ctx, cutoff)
	if err != nil {
		p.log.Sugar().Errorw("Failed to list stale products", "err", err)
		return
	}
	if len(products) == 0 {
		return
	}

	metrics := &fetchMetrics{}
	for _, product := range products {
		m := p.collectQuotes(ctx, product)
		if m.recorded > 0 {
			p.evaluateAlerts(ctx, product)
		}
		metrics.Add(m)
	}

	elapsed := time.Now().UTC().Sub(wakeupTime)
	p.log.Sugar().Infow(
		fmt.Sprintf("Refreshed %d products", len(products)),
		"recorded", metrics.recorded, "absent", metrics.absent, "errored", metrics.errored,
		"elapsed_msecs", int(elapsed.Milliseconds()),
	)
}
