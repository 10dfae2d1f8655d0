package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type observation struct {
	name   string
	value  float64
	labels Labels
}

// recordingBackend captures every call. It also implements Flush so the
// facade's flusher detection is exercised.
type recordingBackend struct {
	mu       sync.Mutex
	counters []observation
	hists    []observation
	flushes  int
}

func (r *recordingBackend) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, observation{name, delta, labels})
}

func (r *recordingBackend) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hists = append(r.hists, observation{name, value, labels})
}

func (r *recordingBackend) Flush() error {
	r.flushes++
	return nil
}

func (r *recordingBackend) counter(name string) (float64, Labels) {
	var total float64
	var labels Labels
	for _, o := range r.counters {
		if o.name == name {
			total += o.value
			labels = o.labels
		}
	}
	return total, labels
}

// These tests swap the process-wide backend, so they do not run in parallel.

func TestRecordHTTP(t *testing.T) {
	rec := &recordingBackend{}
	SetBackend(rec)
	t.Cleanup(func() { SetBackend(nil) })

	RecordHTTP(200, nil, 150*time.Millisecond, 2048)
	RecordHTTP(503, nil, time.Second, 10)
	RecordHTTP(0, errors.New("dial tcp: refused"), time.Second, -1)

	if total, _ := rec.counter(HTTPRequestsTotal); total != 3 {
		t.Fatalf("requests: got %v", total)
	}
	if total, labels := rec.counter(HTTPErrorsTotal); total != 2 || labels["status"] != "none" {
		t.Fatalf("errors: got %v labels=%v", total, labels)
	}

	var downloads int
	for _, h := range rec.hists {
		if h.name == HTTPDownloadBytes {
			downloads++
		}
	}
	if downloads != 2 {
		t.Fatalf("download observations: got %d, want 2 (unknown size skipped)", downloads)
	}
}

func TestRecordStepAndRecords(t *testing.T) {
	rec := &recordingBackend{}
	SetBackend(rec)
	t.Cleanup(func() { SetBackend(nil) })

	RecordStep("cards", errors.New("boom"), time.Second)
	RecordRecords("card", 12)
	RecordRecords("set", 0)

	if _, labels := rec.counter(StepTotal); labels["step"] != "cards" || labels["status"] != "error" {
		t.Fatalf("step labels: %v", labels)
	}
	if total, labels := rec.counter(RecordsTotal); total != 12 || labels["kind"] != "card" {
		t.Fatalf("records: got %v labels=%v", total, labels)
	}

	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if rec.flushes != 1 {
		t.Fatalf("flushes: %d", rec.flushes)
	}
}

// TestNopBackend verifies the default backend accepts calls and flushes cleanly.
func TestNopBackend(t *testing.T) {
	SetBackend(nil)

	RecordHTTP(200, nil, time.Millisecond, 1)
	if err := Flush(); err != nil {
		t.Fatalf("Flush on nop backend: %v", err)
	}
}
