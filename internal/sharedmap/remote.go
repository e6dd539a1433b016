package sharedmap

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// RemoteMap offers the same write/read/size/snapshot contract as Map,
// but backed by a memcached server so the dictionary is genuinely
// reachable by name from another host — the case spec.md §4.H
// describes as "another process may still be attached" but leaves
// unimplemented on the creator side. Genesis itself never needs this
// (each station's assistance data is only ever consumed in-process by
// the RTK fuser), so nothing in the core pipeline constructs one; it
// exists for an operator who wants to mirror a base station's
// assistance data to a second Genesis instance over the network.
type RemoteMap[V any] struct {
	client *memcache.Client
	prefix string
	ttl    int32

	// size is tracked locally: memcached has no "list keys" operation,
	// so Size/Snapshot can only report what this process has written.
	keys map[int32]struct{}
}

// NewRemoteMap constructs a RemoteMap addressed by name against the
// given memcached servers. ttl is the per-entry expiry; 0 means no
// expiry.
func NewRemoteMap[V any](name string, ttl time.Duration, servers ...string) *RemoteMap[V] {
	return &RemoteMap[V]{
		client: memcache.New(servers...),
		prefix: "genesis:" + name + ":",
		ttl:    int32(ttl / time.Second),
		keys:   make(map[int32]struct{}),
	}
}

func (m *RemoteMap[V]) memcacheKey(key int32) string {
	return fmt.Sprintf("%s%d", m.prefix, key)
}

// Write upserts key->v on the memcached server.
func (m *RemoteMap[V]) Write(key int32, v V) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	item := &memcache.Item{
		Key:        m.memcacheKey(key),
		Value:      buf.Bytes(),
		Expiration: m.ttl,
	}
	if err := m.client.Set(item); err != nil {
		return err
	}
	m.keys[key] = struct{}{}
	return nil
}

// Read fetches the value for key, if present and not expired.
func (m *RemoteMap[V]) Read(key int32) (V, bool) {
	var v V
	item, err := m.client.Get(m.memcacheKey(key))
	if err != nil {
		delete(m.keys, key)
		return v, false
	}
	if derr := gob.NewDecoder(bytes.NewReader(item.Value)).Decode(&v); derr != nil {
		return v, false
	}
	return v, true
}

// Size returns the number of keys this process has written and not
// yet observed as missing.
func (m *RemoteMap[V]) Size() int {
	return len(m.keys)
}

// Snapshot fetches every locally-known key. Entries that have expired
// on the server are silently dropped, matching Read's behavior.
func (m *RemoteMap[V]) Snapshot() map[int32]V {
	out := make(map[int32]V, len(m.keys))
	for k := range m.keys {
		if v, ok := m.Read(k); ok {
			out[k] = v
		}
	}
	return out
}
