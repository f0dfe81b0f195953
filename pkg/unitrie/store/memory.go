// Package store provides RawStore implementations: a map-backed store for
// tests and tools, a goleveldb-backed store for standalone persistence, and
// an adapter over go-ethereum database backends.
package store

import (
	"github.com/fedejinich/unitrie-go/pkg/core/types"
	"github.com/fedejinich/unitrie-go/pkg/unitrie"
)

// Memory is an in-memory RawStore keeping node and value blobs in separate
// maps.
type Memory struct {
	nodes  map[types.Hash][]byte
	values map[types.Hash][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nodes:  make(map[types.Hash][]byte),
		values: make(map[types.Hash][]byte),
	}
}

// LoadRawNode implements unitrie.RawStore.
func (s *Memory) LoadRawNode(hash types.Hash) ([]byte, bool) {
	data, ok := s.nodes[hash]
	return data, ok
}

// LoadRawValue implements unitrie.RawStore.
func (s *Memory) LoadRawValue(hash types.Hash) ([]byte, bool) {
	data, ok := s.values[hash]
	return data, ok
}

// SaveRawNode implements unitrie.RawStore.
func (s *Memory) SaveRawNode(hash types.Hash, serialized []byte) {
	s.nodes[hash] = append([]byte(nil), serialized...)
}

// SaveRawValue implements unitrie.RawStore.
func (s *Memory) SaveRawValue(hash types.Hash, value []byte) {
	s.values[hash] = append([]byte(nil), value...)
}

// NodeCount returns the number of stored node blobs.
func (s *Memory) NodeCount() int { return len(s.nodes) }

// ValueCount returns the number of stored value blobs.
func (s *Memory) ValueCount() int { return len(s.values) }

var _ unitrie.RawStore = (*Memory)(nil)
