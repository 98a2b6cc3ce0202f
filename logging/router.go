package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"time"
)

// Sink receives routed events.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

// NamedSink pairs a sink with a diagnostic name.
type NamedSink struct {
	Name string
	Sink Sink
}

// Config controls routing behavior.
type Config struct {
	MinimumSeverity Severity
	Fields          map[string]any
}

// Router fans events out to the configured sinks, stamping time and
// attaching ambient fields. Writes are synchronous; the simulation emits
// a bounded number of events per tick and sinks are expected to buffer
// internally if they need to.
type Router struct {
	mu          sync.Mutex
	sinks       []NamedSink
	minSeverity Severity
	fields      map[string]any
	fallback    *log.Logger
	now         func() time.Time
}

// NewRouter builds a router over the given sinks.
func NewRouter(cfg Config, sinks []NamedSink) *Router {
	kept := make([]NamedSink, 0, len(sinks))
	for _, named := range sinks {
		if named.Sink != nil {
			kept = append(kept, named)
		}
	}
	return &Router{
		sinks:       kept,
		minSeverity: cfg.MinimumSeverity,
		fields:      cfg.Fields,
		fallback:    log.New(os.Stderr, "[logging] ", log.LstdFlags),
		now:         time.Now,
	}
}

// Publish implements Publisher.
func (r *Router) Publish(_ context.Context, event Event) {
	if r == nil || event.Severity < r.minSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.now()
	}
	if len(r.fields) > 0 {
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(r.fields))
		}
		for k, v := range r.fields {
			if _, exists := event.Extra[k]; !exists {
				event.Extra[k] = v
			}
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, named := range r.sinks {
		if err := named.Sink.Write(event); err != nil {
			r.fallback.Printf("sink %s write failed: %v", named.Name, err)
		}
	}
}

// Close shuts down every sink.
func (r *Router) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, named := range r.sinks {
		if err := named.Sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
