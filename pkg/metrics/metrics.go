// Package metrics defines the contract for self-contained derived metrics
// computed over finished activity aggregates.
//
// Each metric is a pure computation unit that declares its input, produces
// a typed output, and carries metadata used by report renderers and the
// CLI catalog. Metrics never mutate their input; aggregation state is
// owned elsewhere.
package metrics

// Metric is the interface every derived metric implements.
type Metric[In, Out any] interface {
	// Name returns the machine-readable identifier (snake_case, unique).
	Name() string

	// DisplayName returns a human-readable name for report headings.
	DisplayName() string

	// Description documents what the metric measures and how to read it.
	Description() string

	// Compute calculates the metric value. Compute must be pure: equal
	// inputs yield equal outputs regardless of call order.
	Compute(input In) Out
}

// MetricMeta holds the common metadata for a metric. Embed it in metric
// implementations to satisfy the metadata methods.
type MetricMeta struct {
	MetricName        string
	MetricDisplayName string
	MetricDescription string
}

// Name returns the machine-readable identifier.
func (m MetricMeta) Name() string { return m.MetricName }

// DisplayName returns a human-readable name for report headings.
func (m MetricMeta) DisplayName() string { return m.MetricDisplayName }

// Description documents what the metric measures.
func (m MetricMeta) Description() string { return m.MetricDescription }

// CatalogEntry describes one registered metric for listings.
type CatalogEntry struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// describable is the metadata subset every metric satisfies via MetricMeta.
type describable interface {
	Name() string
	DisplayName() string
	Description() string
}

// Registry holds the catalog of metrics available to renderers and the CLI.
type Registry struct {
	entries map[string]CatalogEntry
	order   []string
}

// NewRegistry creates an empty metric registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]CatalogEntry)}
}

// Register adds a metric's catalog entry. Registering the same name twice
// replaces the entry but keeps its original position.
func Register[In, Out any](r *Registry, m Metric[In, Out]) {
	r.register(m)
}

func (r *Registry) register(m describable) {
	name := m.Name()

	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}

	r.entries[name] = CatalogEntry{
		Name:        name,
		DisplayName: m.DisplayName(),
		Description: m.Description(),
	}
}

// Get retrieves a catalog entry by name.
func (r *Registry) Get(name string) (CatalogEntry, bool) {
	entry, ok := r.entries[name]

	return entry, ok
}

// Catalog returns all entries in registration order.
func (r *Registry) Catalog() []CatalogEntry {
	result := make([]CatalogEntry, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.entries[name])
	}

	return result
}

// Names returns all registered metric names in registration order.
func (r *Registry) Names() []string {
	result := make([]string, len(r.order))
	copy(result, r.order)

	return result
}
