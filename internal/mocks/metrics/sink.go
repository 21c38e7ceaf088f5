package metrics

// Package metrics contains a hand-written statsd.Sink that records emits
// for assertions.

import (
	"sync"
	"time"

	"github.com/kec/eventhub/internal/observability/statsd"
)

var _ statsd.Sink = (*RecordingSink)(nil)

// Emit is one recorded metric.
type Emit struct {
	Kind  string // count, gauge, timing
	Name  string
	Value float64
	Tags  map[string]string
}

// RecordingSink stores every emit in order. Safe for concurrent use.
type RecordingSink struct {
	mu    sync.Mutex
	emits []Emit
}

func (s *RecordingSink) Count(name string, value int64, tags map[string]string) {
	s.add(Emit{Kind: "count", Name: name, Value: float64(value), Tags: tags})
}

func (s *RecordingSink) Gauge(name string, value float64, tags map[string]string) {
	s.add(Emit{Kind: "gauge", Name: name, Value: value, Tags: tags})
}

func (s *RecordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	s.add(Emit{Kind: "timing", Name: name, Value: float64(value), Tags: tags})
}

// Named returns the recorded emits with the given name.
func (s *RecordingSink) Named(name string) []Emit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Emit
	for _, e := range s.emits {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (s *RecordingSink) add(e Emit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emits = append(s.emits, e)
}
