// Package sharedmap implements the "dictionary" bus of spec.md §4.H:
// named key/value registers, each guarded by its own lock, used to
// pass ephemeris/iono/UTC/almanac/reference-time assistance data
// between the supervisor and the RTK fuser.
//
// The original implementation backs each dictionary with a POSIX
// shared-memory segment plus a companion named mutex so that other
// processes can attach by name. Go's standard library has no
// equivalent primitive, and none of the example repos bind one for a
// process-shared key/value register (bureau-foundation-bureau's
// go-fuse dependency implements a filesystem, not a latest-value
// register, and would be a poor fit — see DESIGN.md). The creator-side
// contract the spec actually requires — write/read/size/snapshot,
// mutually excluded, destroy-then-create on construction — is fully
// satisfiable by an in-process map guarded by a mutex, which is what
// Map provides. Cross-host attachment is offered separately by
// RemoteMap (remote.go), backed by memcached.
package sharedmap

import "sync"

// Map is a key(int32)->value register, mutually excluded by one
// mutex, matching the contract of spec.md §4.H.
type Map[V any] struct {
	mu   sync.Mutex
	data map[int32]V
}

func newMap[V any]() *Map[V] {
	return &Map[V]{data: make(map[int32]V)}
}

// Write upserts key->v.
func (m *Map[V]) Write(key int32, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = v
}

// Read returns the value for key, if present.
func (m *Map[V]) Read(key int32) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// Size returns the number of entries.
func (m *Map[V]) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Snapshot copies all entries out under the lock and returns the copy.
func (m *Map[V]) Snapshot() map[int32]V {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int32]V, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// Registry is a process-wide directory of named Maps, replacing the
// original's process-global singletons (spec.md §9 design note): the
// supervisor threads one Registry through its Context instead of
// reaching for package-level state.
type Registry struct {
	mu   sync.Mutex
	maps map[string]any
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{maps: make(map[string]any)}
}

// For returns the named Map[V], creating it on first use. An existing
// map of the same name and value type is returned as is; a fresh map
// is created only when the name is absent or was registered with a
// different value type. Drop is how a caller forces recreation (the
// destroy side of destroy-then-create).
func For[V any](r *Registry, name string) *Map[V] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.maps[name]; ok {
		if typed, ok := existing.(*Map[V]); ok {
			return typed
		}
		// Name reused with a different value type: destroy and recreate,
		// matching the destroy-then-create contract.
	}
	m := newMap[V]()
	r.maps[name] = m
	return m
}

// Drop removes the named entry, if any, so the next For call for that
// name creates a fresh Map. Mirrors spec.md §4.H's
// "both are removed on destruction and on construction" rule and the
// registry's detachment of a station's maps on removal (spec.md §3).
func (r *Registry) Drop(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.maps, name)
}

// Names returns the currently live map names, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.maps))
	for n := range r.maps {
		out = append(out, n)
	}
	return out
}
