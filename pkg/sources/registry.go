package sources

import (
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Source)
)

// Register registers a plan source. Typically called from an init() function
// in each source package.
func Register(s Source) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if s == nil {
		panic("sources: Register source is nil")
	}
	if _, dup := registry[s.Key()]; dup {
		panic("sources: Register called twice for source " + s.Key())
	}
	registry[s.Key()] = s
}

// Get returns a source by key.
func Get(key string) (Source, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[key]
	return s, ok
}

// List returns a sorted list of registered source keys.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var keys []string
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetAll returns all registered sources.
func GetAll() []Source {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var all []Source
	for _, s := range registry {
		all = append(all, s)
	}
	return all
}
