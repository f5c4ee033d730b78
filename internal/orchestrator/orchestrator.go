// Package orchestrator coordinates per-tracker feed fetches under a
// bounded concurrency ceiling, merging cached and fresh results into a
// single time-ordered batch.
package orchestrator

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/WasatchCloudBase/livetrack/internal/cache"
	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// Fetcher retrieves the raw feed body for one tracker.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, cutoff time.Time) ([]byte, error)
}

// Parser converts a raw feed body into track points.
type Parser interface {
	Parse(body []byte, trackerName string) []core.TrackPoint
}

// Clock supplies the current time.
type Clock func() time.Time

// Orchestrator fans out bounded fetches and fans in results.
type Orchestrator struct {
	fetcher     Fetcher
	parser      Parser
	cache       *cache.TrackCache
	now         Clock
	concurrency int
	log         *slog.Logger

	inFlight atomic.Int64

	fetchCounter    metric.Int64Counter
	cacheHitCounter metric.Int64Counter
	errorCounter    metric.Int64Counter
}

// New creates an orchestrator. concurrency bounds the number of
// simultaneous in-flight fetches.
func New(fetcher Fetcher, parser Parser, trackCache *cache.TrackCache, concurrency int, log *slog.Logger, now Clock) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		fetcher:     fetcher,
		parser:      parser,
		cache:       trackCache,
		now:         now,
		concurrency: concurrency,
		log:         log,
	}
}

// RegisterMetrics attaches OTel instruments to the orchestrator.
func (o *Orchestrator) RegisterMetrics(meter metric.Meter) error {
	var err error

	o.fetchCounter, err = meter.Int64Counter("livetrack.fetch.count",
		metric.WithDescription("Number of tracker feed fetches issued"))
	if err != nil {
		return err
	}
	o.cacheHitCounter, err = meter.Int64Counter("livetrack.cache.hits",
		metric.WithDescription("Number of tracker cache hits"))
	if err != nil {
		return err
	}
	o.errorCounter, err = meter.Int64Counter("livetrack.fetch.errors",
		metric.WithDescription("Number of failed tracker feed fetches"))
	if err != nil {
		return err
	}
	_, err = meter.Int64ObservableGauge("livetrack.fetch.inflight",
		metric.WithDescription("Feed fetches currently in flight"),
		metric.WithInt64Callback(func(_ context.Context, obs metric.Int64Observer) error {
			obs.Observe(o.inFlight.Load())
			return nil
		}))
	return err
}

// FetchTracks returns the merged, time-sorted track points for the
// given trackers over the last dayWindow days. Individual tracker
// failures degrade to an empty list for that tracker only.
func (o *Orchestrator) FetchTracks(ctx context.Context, trackers []core.Tracker, dayWindow int) []core.TrackPoint {
	now := o.now()

	// Day rollover must run before the partition step so yesterday's
	// entries never satisfy today's lookups.
	if o.cache.Rollover(now) {
		o.log.Info("Cache cleared on calendar day rollover")
	}

	var reused []core.TrackPoint
	var toFetch []core.Tracker

	for _, tr := range trackers {
		if points, ok := o.cache.Lookup(tr.Name, dayWindow, now); ok {
			reused = append(reused, points...)
			o.addCount(ctx, o.cacheHitCounter, 1)
			continue
		}
		toFetch = append(toFetch, tr)
	}

	fetched := o.fetchAll(ctx, toFetch, dayWindow)

	merged := make([]core.TrackPoint, 0, len(reused)+len(fetched))
	merged = append(merged, reused...)
	merged = append(merged, fetched...)

	// Completion order of the underlying fetches is racy and must not
	// leak into the output ordering.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time.Before(merged[j].Time)
	})
	return merged
}

// fetchAll runs one bounded task per tracker and fans in the results.
func (o *Orchestrator) fetchAll(ctx context.Context, trackers []core.Tracker, dayWindow int) []core.TrackPoint {
	if len(trackers) == 0 {
		return nil
	}

	cutoff := o.now().UTC().AddDate(0, 0, -dayWindow)
	sem := make(chan struct{}, o.concurrency)
	results := make([][]core.TrackPoint, len(trackers))

	var wg sync.WaitGroup
	for i, tr := range trackers {
		wg.Add(1)
		go func(i int, tr core.Tracker) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = o.fetchOne(ctx, tr, cutoff)
		}(i, tr)
	}
	wg.Wait()

	fetchedAt := o.now()
	var all []core.TrackPoint
	for i, tr := range trackers {
		// Empty results are cached too, so a tracker with no recent
		// points is not re-fetched on every refresh.
		o.cache.Store(tr.Name, dayWindow, results[i], fetchedAt)
		all = append(all, results[i]...)
	}
	return all
}

// fetchOne fetches and parses a single tracker feed. Any failure is
// logged and yields an empty list.
func (o *Orchestrator) fetchOne(ctx context.Context, tr core.Tracker, cutoff time.Time) []core.TrackPoint {
	o.inFlight.Add(1)
	defer o.inFlight.Add(-1)
	o.addCount(ctx, o.fetchCounter, 1)

	feedURL := tr.FeedURL()
	if feedURL == "" {
		o.log.Warn("Tracker has no feed URL", "tracker", tr.Name)
		return []core.TrackPoint{}
	}

	body, err := o.fetcher.Fetch(ctx, feedURL, cutoff)
	if err != nil {
		o.addCount(ctx, o.errorCounter, 1)
		o.log.Warn("Feed fetch failed", "tracker", tr.Name, "error", err)
		return []core.TrackPoint{}
	}

	points := o.parser.Parse(body, tr.Name)
	if points == nil {
		points = []core.TrackPoint{}
	}
	return points
}

func (o *Orchestrator) addCount(ctx context.Context, counter metric.Int64Counter, n int64) {
	if counter != nil {
		counter.Add(ctx, n)
	}
}
