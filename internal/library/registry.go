package library

import (
	"slices"
	"sync"

	"github.com/OCAP2/cutscene/pkg/core"
)

// Entry is a registered definition and the file it came from. Source is
// empty for definitions authored at runtime.
type Entry struct {
	Definition core.Definition
	Source     string
}

// Registry caches definitions by name so playback never touches the disk.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

func (r *Registry) Get(name string) (core.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.Definition, ok
}

// Entry returns the definition together with its source file.
func (r *Registry) Entry(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Put stores def, replacing any definition with the same name.
func (r *Registry) Put(def core.Definition, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[def.Name] = Entry{Definition: def, Source: source}
}

func (r *Registry) Delete(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[name]
	delete(r.entries, name)
	return ok
}

// DeleteSource removes every definition loaded from path and returns their names.
func (r *Registry) DeleteSource(path string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for name, e := range r.entries {
		if path != "" && e.Source == path {
			delete(r.entries, name)
			removed = append(removed, name)
		}
	}
	slices.Sort(removed)
	return removed
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]Entry)
}
