package sinks

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Builder creates a Sink from a config entry.
type Builder func(cfg SinkConfig) (Sink, error)

// Registry maps sink types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	SinkFor(cfg SinkConfig) (Sink, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{
		builders: make(map[string]Builder),
	}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a sink type.
func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// SinkFor returns the sink built for the provided config.
func (r *registry) SinkFor(cfg SinkConfig) (Sink, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("sink %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no sink registered for type %q", cfg.Type)
	}
	return builder(cfg)
}

// DefaultRegistry wires up known sinks. The context and logger are captured
// for builders that need them at construction time (AWS config loading).
func DefaultRegistry(ctx context.Context, log Logger) Registry {
	log = ensureLogger(log)
	builders := map[string]Builder{
		TypeHTTP: newHTTPSink,
		TypeSQS: func(cfg SinkConfig) (Sink, error) {
			return newSQSSink(ctx, cfg, log)
		},
		TypeLog: func(cfg SinkConfig) (Sink, error) {
			return newLogSink(cfg, log)
		},
	}
	return NewRegistry(builders)
}

// BuildAll instantiates sinks for configs using the registry.
func BuildAll(reg Registry, cfgs []SinkConfig) ([]Sink, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	var built []Sink
	for _, cfg := range cfgs {
		s, err := reg.SinkFor(cfg)
		if err != nil {
			return nil, err
		}
		built = append(built, s)
	}
	return built, nil
}
