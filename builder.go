package panelAuth

import "errors"

// Builder assembles a [Manager]. Construction is allocation-only; no
// provider or cache I/O happens until the Manager's own methods run.
//
// Builder instances are intended to be configured during initialization and
// then treated as immutable.
type Builder struct {
	config    Config
	cache     CacheStore
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithCache sets the snapshot persistence store. When omitted, Build wires
// an in-process [MemoryStore], which persists for the process lifetime only.
func (b *Builder) WithCache(store CacheStore) *Builder {
	b.cache = store
	return b
}

// WithAuditSink sets the sink audit events are dispatched to. Ignored
// unless [AuditConfig.Enabled] is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Initialize latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready-to-initialize
// Manager in the canonical logged-out state. A Builder can build once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache := b.cache
	if cache == nil {
		cache = NewMemoryStore()
	}

	m := &Manager{
		config:      cfg,
		cache:       cache,
		state:       canonicalSnapshot(),
		subscribers: make(map[string]func(Snapshot)),
		audit:       newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:     NewMetrics(cfg.Metrics),
	}

	b.built = true

	return m, nil
}
