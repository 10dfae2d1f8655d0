// Package metrics is the backend-agnostic metrics facade used by the scraper.
//
// Core code records through the package-level helpers; a command picks the
// backend once at startup with SetBackend. The default backend drops
// everything, so tests and library callers never need to configure metrics.
package metrics

import (
	"strconv"
	"sync"
	"time"
)

// Metric names understood by backends.
const (
	HTTPRequestsTotal   = "scrape_http_requests_total"
	HTTPErrorsTotal     = "scrape_http_errors_total"
	HTTPRequestDuration = "scrape_http_request_duration_seconds"
	HTTPDownloadBytes   = "scrape_http_download_bytes"
	StepTotal           = "scrape_step_total"
	StepDuration        = "scrape_step_duration_seconds"
	RecordsTotal        = "scrape_records_total"
)

// Labels are metric dimensions such as {"status": "200"}.
type Labels map[string]string

// Backend receives metric observations. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

type flusher interface {
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. A nil b restores the nop backend.
func SetBackend(b Backend) {
	if b == nil {
		b = nopBackend{}
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush flushes the backend if it buffers.
func Flush() error {
	if f, ok := current().(flusher); ok {
		return f.Flush()
	}
	return nil
}

// IncCounter forwards to the current backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram forwards to the current backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// RecordHTTP records one HTTP request. status is 0 when no response arrived.
func RecordHTTP(status int, err error, dur time.Duration, size int64) {
	l := Labels{"status": statusLabel(status)}

	IncCounter(HTTPRequestsTotal, 1, l)
	if err != nil || status < 200 || status >= 300 {
		IncCounter(HTTPErrorsTotal, 1, l)
	}
	ObserveHistogram(HTTPRequestDuration, dur.Seconds(), l)
	if size >= 0 {
		ObserveHistogram(HTTPDownloadBytes, float64(size), l)
	}
}

// RecordStep records one pipeline step ("catalog", "cards", "persist", ...).
func RecordStep(step string, err error, dur time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	l := Labels{"step": step, "status": status}
	IncCounter(StepTotal, 1, l)
	ObserveHistogram(StepDuration, dur.Seconds(), l)
}

// RecordRecords counts n extracted records of kind ("set", "card", "block_rule").
func RecordRecords(kind string, n int) {
	if n <= 0 {
		return
	}
	IncCounter(RecordsTotal, float64(n), Labels{"kind": kind})
}

func statusLabel(status int) string {
	if status <= 0 {
		return "none"
	}
	return strconv.Itoa(status)
}
