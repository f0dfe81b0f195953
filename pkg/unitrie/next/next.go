// Package next layers advisory accelerators over the unitrie engine: a
// memoized root hash, a mutation-generation counter, a dirty-key tracker
// and a per-account storage-key cache. Every lookup falls back to the
// authoritative entries map; none of the overlays change observable
// behavior.
package next

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/fedejinich/unitrie-go/pkg/core/types"
	"github.com/fedejinich/unitrie-go/pkg/unitrie"
)

func init() {
	unitrie.RegisterEngine(unitrie.ImplementationNext, factory{})
}

type factory struct{}

func (factory) New() unitrie.Engine {
	return NewUnitrie()
}

func (factory) FromPersistedRoot(rootHash []byte, store unitrie.RawStore) (unitrie.Engine, error) {
	return FromPersistedRoot(rootHash, store)
}

// Unitrie wraps the flat-map engine with the accelerator overlays.
type Unitrie struct {
	inner *unitrie.Unitrie

	rootMemo     rootMemo
	generation   uint64
	dirty        dirtyTracker
	storageCache *storageKeyCache

	lastSaveStats unitrie.SaveStats
}

// NewUnitrie creates an empty accelerated trie.
func NewUnitrie() *Unitrie {
	return &Unitrie{
		inner:        unitrie.New(),
		storageCache: newStorageKeyCache(storageCacheCapacity),
	}
}

// FromPersistedRoot rehydrates an accelerated trie from a persisted root.
func FromPersistedRoot(rootHash []byte, store unitrie.RawStore) (*Unitrie, error) {
	inner, err := unitrie.FromPersistedRoot(rootHash, store)
	if err != nil {
		return nil, err
	}
	t := &Unitrie{
		inner:        inner,
		storageCache: newStorageKeyCache(storageCacheCapacity),
	}
	t.rootMemo.update(inner.CurrentRootHash())
	return t, nil
}

// Get returns a copy of the value stored under key.
func (t *Unitrie) Get(key []byte) ([]byte, bool) {
	return t.inner.Get(key)
}

// GetRef returns the stored value slice without copying.
func (t *Unitrie) GetRef(key []byte) ([]byte, bool) {
	return t.inner.GetRef(key)
}

// Put stores value under key. An empty value deletes.
func (t *Unitrie) Put(key, value []byte) {
	t.mutate(key)
	t.inner.Put(key, value)
}

// Delete removes the mapping for key if present.
func (t *Unitrie) Delete(key []byte) {
	t.mutate(key)
	t.inner.Delete(key)
}

// DeleteRecursive removes every key starting with prefix.
func (t *Unitrie) DeleteRecursive(prefix []byte) {
	t.mutate(prefix)
	t.inner.DeleteRecursive(prefix)
}

// GetValueLength returns the length of the value stored under key.
func (t *Unitrie) GetValueLength(key []byte) (int, bool) {
	return t.inner.GetValueLength(key)
}

// GetValueHash returns the Keccak-256 of the value stored under key.
func (t *Unitrie) GetValueHash(key []byte) (types.Hash, bool) {
	return t.inner.GetValueHash(key)
}

// CollectKeys returns keys of exactly byteSize bytes, or all keys for the
// CollectAllKeys sentinel.
func (t *Unitrie) CollectKeys(byteSize int) [][]byte {
	return t.inner.CollectKeys(byteSize)
}

// GetStorageKeys returns the account's storage keys, serving repeat calls
// for an unchanged trie from the cache.
func (t *Unitrie) GetStorageKeys(accountAddress []byte) [][]byte {
	keys, _ := t.storageKeysBundle(accountAddress)
	return keys
}

// GetStorageKeysPacked returns the account's storage keys in the packed
// varint framing.
func (t *Unitrie) GetStorageKeysPacked(accountAddress []byte) []byte {
	_, packed := t.storageKeysBundle(accountAddress)
	return packed
}

// CurrentRootHash returns the memoized root hash, recomputing it only after
// a mutation.
func (t *Unitrie) CurrentRootHash() types.Hash {
	if cached, ok := t.rootMemo.rootHash(); ok {
		return cached
	}
	root := t.inner.CurrentRootHash()
	t.rootMemo.update(root)
	return root
}

// Snapshot returns the current root hash and entry count.
func (t *Unitrie) Snapshot() unitrie.Snapshot {
	return unitrie.Snapshot{Root: t.CurrentRootHash(), KeyCount: t.inner.KeyCount()}
}

// SaveToStore persists the trie, discarding statistics.
func (t *Unitrie) SaveToStore(store unitrie.RawStore) {
	t.SaveToStoreWithStats(store)
}

// SaveToStoreWithStats persists the trie and refreshes the overlays.
func (t *Unitrie) SaveToStoreWithStats(store unitrie.RawStore) unitrie.SaveStats {
	if dirty := t.dirty.count(); dirty > 0 {
		log.Debug("Saving unitrie with pending mutations", "dirty", dirty)
	}
	stats := t.inner.SaveToStoreWithStats(store)
	t.lastSaveStats = stats
	t.dirty.clear()
	t.rootMemo.update(t.inner.CurrentRootHash())
	return stats
}

// LastSaveStats returns the statistics of the most recent save.
func (t *Unitrie) LastSaveStats() unitrie.SaveStats {
	return t.lastSaveStats
}

func (t *Unitrie) storageKeysBundle(accountAddress []byte) ([][]byte, []byte) {
	if keys, packed, ok := t.storageCache.get(accountAddress, t.generation); ok {
		return keys, packed
	}
	keys := t.inner.GetStorageKeys(accountAddress)
	packed := unitrie.PackStorageKeys(keys)
	t.storageCache.add(accountAddress, t.generation, keys, packed)
	return keys, packed
}

func (t *Unitrie) mutate(key []byte) {
	t.generation++
	t.dirty.markKey(key)
	t.rootMemo.invalidate()
}

var _ unitrie.Engine = (*Unitrie)(nil)

// rootMemo caches the root hash between mutations.
type rootMemo struct {
	root  types.Hash
	valid bool
}

func (m *rootMemo) invalidate() {
	m.valid = false
}

func (m *rootMemo) update(root types.Hash) {
	m.root = root
	m.valid = true
}

func (m *rootMemo) rootHash() (types.Hash, bool) {
	return m.root, m.valid
}
