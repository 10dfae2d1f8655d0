// Package datadog implements a Datadog backend for internal/metrics.
//
// Observations are buffered in memory and submitted on Flush. A background
// loop flushes periodically (default once per minute) so long scrapes show up
// as a time series, and Close performs a final flush at shutdown.
//
// Counters are submitted as COUNT series. Histograms are reduced to
// p50/p90/p95/p99/max/samples GAUGE series per flush window.
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"cardscrape/internal/metrics"
)

// seriesNames maps facade metric names to Datadog series names. Metrics not
// listed here are dropped.
var seriesNames = map[string]string{
	metrics.HTTPRequestsTotal:   "cardscrape.http.requests.total",
	metrics.HTTPErrorsTotal:     "cardscrape.http.errors.total",
	metrics.HTTPRequestDuration: "cardscrape.http.request_duration_seconds",
	metrics.HTTPDownloadBytes:   "cardscrape.http.download_bytes",
	metrics.StepTotal:           "cardscrape.step.total",
	metrics.StepDuration:        "cardscrape.step.duration_seconds",
	metrics.RecordsTotal:        "cardscrape.records.total",
}

// Options controls Datadog backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every series. Defaults to "cardscrape".
	JobName string

	// Tags are extra Datadog tags, e.g. []string{"service:cardscrape"}.
	Tags []string

	// FlushEvery controls the periodic flush. Defaults to 60s when <= 0.
	FlushEvery time.Duration

	// Test seams; production leaves them nil.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the subset of *datadogV2.MetricsApi the backend uses.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

type counterBucket struct {
	metric string
	tags   []string
	value  float64
}

type sampleBucket struct {
	metric  string
	tags    []string
	samples []float64
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api metricsSubmitter
	ctx context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	baseTags  []string
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu       sync.Mutex
	counters map[string]*counterBucket
	samples  map[string]*sampleBucket
}

// NewBackend constructs a Datadog backend and starts its flush loop.
//
// Credentials and site come from the standard DD_API_KEY / DD_SITE
// environment variables read by the Datadog client context. The env tag is
// taken from ENV, then DD_ENV, else "env:unknown".
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "cardscrape"
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	b := &Backend{
		api:        opts.submitter,
		ctx:        dd.NewDefaultContext(parent),
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseTags:   baseTags,
		now:        opts.now,
		newTicker:  opts.newTicker,
		counters:   make(map[string]*counterBucket),
		samples:    make(map[string]*sampleBucket),
	}
	if b.api == nil {
		b.api = datadogV2.NewMetricsApi(dd.NewAPIClient(dd.NewConfiguration()))
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.newTicker == nil {
		b.newTicker = time.NewTicker
	}

	go b.loop()
	return b, nil
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the flush loop and performs one final Flush. Call it once.
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	metric, ok := seriesNames[name]
	if !ok || delta <= 0 {
		return
	}
	tags := labelTags(labels)
	key := seriesKey(metric, tags)

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.counters[key]
	if c == nil {
		c = &counterBucket{metric: metric, tags: tags}
		b.counters[key] = c
	}
	c.value += delta
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	metric, ok := seriesNames[name]
	if !ok || value < 0 {
		return
	}
	tags := labelTags(labels)
	key := seriesKey(metric, tags)

	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.samples[key]
	if s == nil {
		s = &sampleBucket{metric: metric, tags: tags}
		b.samples[key] = s
	}
	s.samples = append(s.samples, value)
}

// snapshotAndReset detaches the buffered state so submission happens out of lock.
func (b *Backend) snapshotAndReset() (map[string]*counterBucket, map[string]*sampleBucket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counters, samples := b.counters, b.samples
	b.counters = make(map[string]*counterBucket)
	b.samples = make(map[string]*sampleBucket)
	return counters, samples
}

// Flush submits buffered metrics and resets the buffers, even when submission
// fails. It returns nil without calling Datadog when nothing is buffered.
func (b *Backend) Flush() error {
	counters, samples := b.snapshotAndReset()
	if len(counters) == 0 && len(samples) == 0 {
		return nil
	}

	payload := datadogV2.MetricPayload{
		Series: b.buildSeries(counters, samples, b.now().Unix()),
	}
	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries is pure: same input, same series, sorted by metric then tags.
func (b *Backend) buildSeries(counters map[string]*counterBucket, samples map[string]*sampleBucket, nowUnix int64) []datadogV2.MetricSeries {
	series := make([]datadogV2.MetricSeries, 0, len(counters)+6*len(samples))

	for _, k := range sortedKeys(counters) {
		c := counters[k]
		series = append(series, point(c.metric, datadogV2.METRICINTAKETYPE_COUNT, c.value, withTags(b.baseTags, c.tags...), nowUnix))
	}

	for _, k := range sortedKeys(samples) {
		s := samples[k]
		if len(s.samples) == 0 {
			continue
		}
		cp := append([]float64(nil), s.samples...)
		sort.Float64s(cp)

		tags := withTags(b.baseTags, s.tags...)
		gauge := func(suffix string, v float64) {
			series = append(series, point(s.metric+"."+suffix, datadogV2.METRICINTAKETYPE_GAUGE, v, tags, nowUnix))
		}
		gauge("p50", percentileNearestRank(cp, 0.50))
		gauge("p90", percentileNearestRank(cp, 0.90))
		gauge("p95", percentileNearestRank(cp, 0.95))
		gauge("p99", percentileNearestRank(cp, 0.99))
		gauge("max", cp[len(cp)-1])
		gauge("samples", float64(len(cp)))
	}

	return series
}

func point(metric string, typ datadogV2.MetricIntakeType, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   typ.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

// labelTags turns labels into sorted "key:value" tags.
func labelTags(labels metrics.Labels) []string {
	tags := make([]string, 0, len(labels))
	for k, v := range labels {
		if v == "" {
			v = "unknown"
		}
		tags = append(tags, k+":"+v)
	}
	sort.Strings(tags)
	return tags
}

func seriesKey(metric string, tags []string) string {
	return metric + "\x00" + strings.Join(tags, ",")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func withTags(base []string, extras ...string) []string {
	out := make([]string, 0, len(base)+len(extras))
	out = append(out, base...)
	return append(out, extras...)
}

func percentileNearestRank(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[n-1]
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx >= n {
		idx = n - 1
	}
	return s[idx]
}

var _ metrics.Backend = (*Backend)(nil)

// ParseTagsCSV parses comma-separated tags like "env:prod,service:cardscrape".
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
