// Package unitrie implements the unified binary radix trie used as the
// authenticated key-value state store of the execution engine. Mutations
// land in a flat ordered entries map; the canonical bit trie is
// materialized from it on demand, persisted to a RawStore as
// content-addressed blobs, and rebuilt from any persisted root.
package unitrie

import (
	"bytes"
	"math"

	"github.com/tidwall/btree"

	"github.com/fedejinich/unitrie-go/pkg/core/types"
	"github.com/fedejinich/unitrie-go/pkg/crypto"
)

// CollectAllKeys is the CollectKeys sentinel that selects every key
// regardless of size. The value mirrors the Java-side Integer.MAX_VALUE
// contract.
const CollectAllKeys = math.MaxInt32

type entry struct {
	key   []byte
	value []byte
}

func entryLess(a, b entry) bool {
	return bytes.Compare(a.key, b.key) < 0
}

func newEntriesMap() *btree.BTreeG[entry] {
	return btree.NewBTreeG(entryLess)
}

// materializedTrie memoizes the canonical tree built from the entries map.
// rootNode is nil for the empty trie.
type materializedTrie struct {
	rootNode *trieNode
	rootHash types.Hash
}

// Unitrie is the mutable trie engine. The ordered entries map is the single
// source of truth; root hash, serialized bytes and storage-key lists are
// pure functions of it plus the reachable store graph.
//
// A Unitrie has one logical owner at a time; it is not safe for concurrent
// mutation.
type Unitrie struct {
	entries      *btree.BTreeG[entry]
	materialized *materializedTrie

	// Deduplication baselines: content hashes already present in the store,
	// accumulated across saves and seeded by rehydration.
	persistedNodes  map[types.Hash]struct{}
	persistedValues map[types.Hash]struct{}
}

// New creates an empty trie.
func New() *Unitrie {
	return &Unitrie{
		entries:         newEntriesMap(),
		persistedNodes:  make(map[types.Hash]struct{}),
		persistedValues: make(map[types.Hash]struct{}),
	}
}

// Get returns a copy of the value stored under key.
func (t *Unitrie) Get(key []byte) ([]byte, bool) {
	stored, ok := t.GetRef(key)
	if !ok {
		return nil, false
	}
	value := make([]byte, len(stored))
	copy(value, stored)
	return value, true
}

// GetRef returns the stored value slice without copying. The caller must
// not mutate it.
func (t *Unitrie) GetRef(key []byte) ([]byte, bool) {
	item, ok := t.entries.Get(entry{key: key})
	if !ok {
		return nil, false
	}
	return item.value, true
}

// Put stores value under key. An empty value is equivalent to Delete.
func (t *Unitrie) Put(key, value []byte) {
	if len(value) == 0 {
		t.entries.Delete(entry{key: key})
	} else {
		k := make([]byte, len(key))
		copy(k, key)
		v := make([]byte, len(value))
		copy(v, value)
		t.entries.Set(entry{key: k, value: v})
	}
	t.materialized = nil
}

// Delete removes the mapping for key if present.
func (t *Unitrie) Delete(key []byte) {
	t.entries.Delete(entry{key: key})
	t.materialized = nil
}

// DeleteRecursive removes every key that starts with prefix. An empty
// prefix clears the whole map. Materialization is invalidated only when at
// least one key was removed.
func (t *Unitrie) DeleteRecursive(prefix []byte) {
	if t.entries.Len() == 0 {
		return
	}

	if len(prefix) == 0 {
		t.entries = newEntriesMap()
		t.materialized = nil
		return
	}

	// The matching keys form the lexicographic window [prefix, upper): every
	// key >= prefix and < the byte-wise upper bound starts with prefix. A
	// prefix of all 0xff bytes has no finite upper bound and the window runs
	// to the end.
	upper, bounded := prefixUpperBound(prefix)
	var doomed [][]byte
	t.entries.Ascend(entry{key: prefix}, func(item entry) bool {
		if bounded && bytes.Compare(item.key, upper) >= 0 {
			return false
		}
		doomed = append(doomed, item.key)
		return true
	})
	if len(doomed) == 0 {
		return
	}

	for _, key := range doomed {
		t.entries.Delete(entry{key: key})
	}
	t.materialized = nil
}

// GetValueLength returns the length of the value stored under key.
func (t *Unitrie) GetValueLength(key []byte) (int, bool) {
	stored, ok := t.GetRef(key)
	if !ok {
		return 0, false
	}
	return len(stored), true
}

// GetValueHash returns the Keccak-256 of the value stored under key.
func (t *Unitrie) GetValueHash(key []byte) (types.Hash, bool) {
	stored, ok := t.GetRef(key)
	if !ok {
		return types.Hash{}, false
	}
	return crypto.Keccak256Hash(stored), true
}

// CollectKeys returns every key whose byte length equals byteSize, in
// ascending lexicographic order. The CollectAllKeys sentinel selects all
// keys.
func (t *Unitrie) CollectKeys(byteSize int) [][]byte {
	collectAll := byteSize == CollectAllKeys
	var keys [][]byte
	t.entries.Scan(func(item entry) bool {
		if collectAll || len(item.key) == byteSize {
			key := make([]byte, len(item.key))
			copy(key, item.key)
			keys = append(keys, key)
		}
		return true
	})
	return keys
}

// KeyCount returns the number of stored keys.
func (t *Unitrie) KeyCount() int {
	return t.entries.Len()
}

// RootHash materializes (if needed) and returns the canonical root hash.
func (t *Unitrie) RootHash() types.Hash {
	return t.materialize().rootHash
}

// CurrentRootHash is an alias for RootHash matching the engine interface.
func (t *Unitrie) CurrentRootHash() types.Hash {
	return t.RootHash()
}

// Snapshot returns the current root hash and entry count.
func (t *Unitrie) Snapshot() Snapshot {
	return Snapshot{Root: t.CurrentRootHash(), KeyCount: t.KeyCount()}
}

// prefixUpperBound returns the shortest byte sequence strictly greater than
// every key starting with prefix, and whether such a bound exists. It does
// not exist when prefix consists entirely of 0xff bytes.
func prefixUpperBound(prefix []byte) ([]byte, bool) {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] != 0xff {
			upper := make([]byte, i+1)
			copy(upper, prefix[:i+1])
			upper[i]++
			return upper, true
		}
	}
	return nil, false
}
