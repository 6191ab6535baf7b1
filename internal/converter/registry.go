package converter

import (
	"sort"
	"sync"
)

// Registry holds the registered converters in priority order: lookups
// return the first registered match. Registration is identity-based;
// registering the same instance twice is a no-op, as is unregistering
// an absent one. Construct one registry per process and register at
// startup; lookups are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	converters []Converter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a converter unless the same instance is already
// present.
func (r *Registry) Register(c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.converters {
		if existing == c {
			return
		}
	}
	r.converters = append(r.converters, c)
}

// Unregister removes a converter instance if present.
func (r *Registry) Unregister(c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.converters {
		if existing == c {
			r.converters = append(r.converters[:i], r.converters[i+1:]...)
			return
		}
	}
}

// Clear removes all converters.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters = nil
}

// Len returns the number of registered converters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.converters)
}

// Converters returns all registered converters in registration order.
func (r *Registry) Converters() []Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Converter, len(r.converters))
	copy(out, r.converters)
	return out
}

// ConvertersFor returns the converters of one category, in
// registration order.
func (r *Registry) ConvertersFor(category Category) []Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Converter
	for _, c := range r.converters {
		if c.Category() == category {
			out = append(out, c)
		}
	}
	return out
}

// FindConverter returns the first registered converter accepting the
// format pair, or nil when the conversion is unsupported.
func (r *Registry) FindConverter(inputFormat, outputFormat string) Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.converters {
		if CanConvert(c, inputFormat, outputFormat) {
			return c
		}
	}
	return nil
}

// FindForFile returns the first registered converter whose input set
// contains the file's extension, or nil.
func (r *Registry) FindForFile(path string) Converter {
	ext := FileFormat(path)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.converters {
		if containsFormat(c.InputFormats(), ext) {
			return c
		}
	}
	return nil
}

// InputFormats returns the sorted union of input formats across all
// converters.
func (r *Registry) InputFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{})
	for _, c := range r.converters {
		for _, f := range c.InputFormats() {
			set[f] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// OutputFormatsFor returns the sorted union of output formats
// reachable from the given input format, across every converter that
// accepts that input.
func (r *Registry) OutputFormatsFor(inputFormat string) []string {
	inputFormat = NormalizeFormat(inputFormat)
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{})
	for _, c := range r.converters {
		if !containsFormat(c.InputFormats(), inputFormat) {
			continue
		}
		for _, f := range c.OutputFormats() {
			set[f] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Conversions returns the full input-to-outputs graph.
func (r *Registry) Conversions() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sets := make(map[string]map[string]struct{})
	for _, c := range r.converters {
		for _, in := range c.InputFormats() {
			if sets[in] == nil {
				sets[in] = make(map[string]struct{})
			}
			for _, out := range c.OutputFormats() {
				sets[in][out] = struct{}{}
			}
		}
	}
	graph := make(map[string][]string, len(sets))
	for in, outs := range sets {
		graph[in] = sortedKeys(outs)
	}
	return graph
}

// DependencyStatus is the outcome of one converter's dependency check.
type DependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ValidateAll runs every converter's dependency check, keyed by
// converter name.
func (r *Registry) ValidateAll() map[string]DependencyStatus {
	out := make(map[string]DependencyStatus)
	for _, c := range r.Converters() {
		ok, msg := c.ValidateDependencies()
		out[c.Name()] = DependencyStatus{OK: ok, Message: msg}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
