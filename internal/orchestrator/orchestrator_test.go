package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WasatchCloudBase/livetrack/internal/cache"
	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// stubFetcher returns canned bodies per URL and records call counts.
type stubFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
	calls  int

	delay time.Duration

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (f *stubFetcher) Fetch(_ context.Context, feedURL string, _ time.Time) ([]byte, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if cur <= max || f.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[feedURL]; ok {
		return nil, err
	}
	return f.bodies[feedURL], nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// stubParser emits one point per byte-distinct body, timestamped from
// the body content so completion jitter is observable in ordering.
type stubParser struct {
	points map[string][]core.TrackPoint
}

func (p *stubParser) Parse(body []byte, trackerName string) []core.TrackPoint {
	return p.points[string(body)]
}

func tracker(name string) core.Tracker {
	return core.Tracker{Name: name, ShareURL: "https://share.garmin.com/" + name}
}

func point(tracker string, at time.Time) core.TrackPoint {
	return core.TrackPoint{TrackerName: tracker, Time: at}
}

func TestFetchTracks_CacheHitIssuesNoNetworkCalls(t *testing.T) {
	now := time.Now()
	c := cache.New(5 * time.Minute)
	cached := []core.TrackPoint{point("JohnDoe", now.Add(-time.Hour))}
	c.Store("JohnDoe", 1, cached, now)

	fetcher := &stubFetcher{}
	o := New(fetcher, &stubParser{}, c, 8, nil, func() time.Time { return now })

	got := o.FetchTracks(t.Context(), []core.Tracker{tracker("JohnDoe")}, 1)

	assert.Equal(t, 0, fetcher.callCount(), "cache hit must not touch the network")
	assert.Equal(t, cached, got)
}

func TestFetchTracks_SortedByTimestampUnderJitter(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	fetcher := &stubFetcher{
		bodies: map[string][]byte{},
		delay:  2 * time.Millisecond,
	}
	parser := &stubParser{points: map[string][]core.TrackPoint{}}

	var trackers []core.Tracker
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("Pilot%02d", i)
		tr := tracker(name)
		body := name + "-body"
		fetcher.bodies[tr.FeedURL()] = []byte(body)
		// Later trackers carry earlier timestamps so completion order
		// alone would produce a descending result.
		parser.points[body] = []core.TrackPoint{point(name, base.Add(-time.Duration(i) * time.Minute))}
		trackers = append(trackers, tr)
	}

	o := New(fetcher, parser, cache.New(5*time.Minute), 4, nil, nil)
	got := o.FetchTracks(t.Context(), trackers, 1)

	require.Len(t, got, 12)
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
		return got[i].Time.Before(got[j].Time)
	}), "output must be ascending by timestamp")
}

func TestFetchTracks_FailureDegradesToEmpty(t *testing.T) {
	ok := tracker("Good")
	bad := tracker("Bad")

	fetcher := &stubFetcher{
		bodies: map[string][]byte{ok.FeedURL(): []byte("good-body")},
		errs:   map[string]error{bad.FeedURL(): errors.New("connection refused")},
	}
	parser := &stubParser{points: map[string][]core.TrackPoint{
		"good-body": {point("Good", time.Now())},
	}}

	c := cache.New(5 * time.Minute)
	o := New(fetcher, parser, c, 8, nil, nil)

	got := o.FetchTracks(t.Context(), []core.Tracker{ok, bad}, 1)

	require.Len(t, got, 1)
	assert.Equal(t, "Good", got[0].TrackerName)

	// The failure is cached as an explicit empty result.
	points, hit := c.Lookup("Bad", 1, time.Now())
	require.True(t, hit)
	assert.Empty(t, points)
}

func TestFetchTracks_EmptyResultCachedPreventsRefetch(t *testing.T) {
	tr := tracker("Quiet")
	fetcher := &stubFetcher{bodies: map[string][]byte{tr.FeedURL(): []byte("empty")}}
	parser := &stubParser{points: map[string][]core.TrackPoint{}}

	o := New(fetcher, parser, cache.New(5*time.Minute), 8, nil, nil)

	o.FetchTracks(t.Context(), []core.Tracker{tr}, 1)
	o.FetchTracks(t.Context(), []core.Tracker{tr}, 1)

	assert.Equal(t, 1, fetcher.callCount(), "second batch must reuse the cached empty result")
}

func TestFetchTracks_DayWindowChangeForcesRefetch(t *testing.T) {
	tr := tracker("JohnDoe")
	fetcher := &stubFetcher{bodies: map[string][]byte{tr.FeedURL(): []byte("body")}}
	parser := &stubParser{points: map[string][]core.TrackPoint{}}

	o := New(fetcher, parser, cache.New(5*time.Minute), 8, nil, nil)

	o.FetchTracks(t.Context(), []core.Tracker{tr}, 1)
	o.FetchTracks(t.Context(), []core.Tracker{tr}, 3)

	assert.Equal(t, 2, fetcher.callCount())
}

func TestFetchTracks_RolloverRunsBeforePartition(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1)
	c := cache.New(24 * 365 * time.Hour)
	c.Rollover(yesterday)
	c.Store("JohnDoe", 1, []core.TrackPoint{point("JohnDoe", yesterday)}, yesterday)

	tr := tracker("JohnDoe")
	fetcher := &stubFetcher{bodies: map[string][]byte{tr.FeedURL(): []byte("fresh")}}
	fresh := point("JohnDoe", time.Now())
	parser := &stubParser{points: map[string][]core.TrackPoint{
		"fresh": {fresh},
	}}

	o := New(fetcher, parser, c, 8, nil, nil)
	got := o.FetchTracks(t.Context(), []core.Tracker{tr}, 1)

	assert.Equal(t, 1, fetcher.callCount(), "stale day must not satisfy the lookup")
	require.Len(t, got, 1)
	assert.Equal(t, fresh.Time, got[0].Time)
}

func TestFetchTracks_ConcurrencyCeiling(t *testing.T) {
	fetcher := &stubFetcher{
		bodies: map[string][]byte{},
		delay:  5 * time.Millisecond,
	}
	parser := &stubParser{points: map[string][]core.TrackPoint{}}

	var trackers []core.Tracker
	for i := 0; i < 20; i++ {
		tr := tracker(fmt.Sprintf("Pilot%02d", i))
		fetcher.bodies[tr.FeedURL()] = []byte("x")
		trackers = append(trackers, tr)
	}

	o := New(fetcher, parser, cache.New(5*time.Minute), 8, nil, nil)
	o.FetchTracks(t.Context(), trackers, 1)

	assert.Equal(t, 20, fetcher.callCount())
	assert.LessOrEqual(t, fetcher.maxInFlight.Load(), int64(8),
		"no more than 8 fetches may be in flight at once")
}
