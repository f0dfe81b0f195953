package unitrie

import "github.com/fedejinich/unitrie-go/pkg/core/types"

// Core is the configuration-driven façade over the trie engines: callers
// pick an implementation by name and talk to a single surface regardless of
// which engine backs it.
type Core struct {
	impl   Implementation
	engine Engine
}

// NewCore creates an empty trie for the given implementation.
func NewCore(impl Implementation) (*Core, error) {
	engine, err := NewEngine(impl)
	if err != nil {
		return nil, err
	}
	return &Core{impl: impl, engine: engine}, nil
}

// CoreFromPersistedRoot rehydrates a trie for the given implementation.
func CoreFromPersistedRoot(impl Implementation, rootHash []byte, store RawStore) (*Core, error) {
	engine, err := NewEngineFromPersistedRoot(impl, rootHash, store)
	if err != nil {
		return nil, err
	}
	return &Core{impl: impl, engine: engine}, nil
}

// Implementation returns the configured implementation.
func (c *Core) Implementation() Implementation {
	return c.impl
}

// Get returns a copy of the value stored under key.
func (c *Core) Get(key []byte) ([]byte, bool) {
	return c.engine.Get(key)
}

// Put stores value under key; an empty value deletes.
func (c *Core) Put(key, value []byte) {
	c.engine.Put(key, value)
}

// Delete removes the mapping for key if present.
func (c *Core) Delete(key []byte) {
	c.engine.Delete(key)
}

// DeleteRecursive removes every key starting with prefix.
func (c *Core) DeleteRecursive(prefix []byte) {
	c.engine.DeleteRecursive(prefix)
}

// GetValueLength returns the length of the value stored under key.
func (c *Core) GetValueLength(key []byte) (int, bool) {
	return c.engine.GetValueLength(key)
}

// GetValueHash returns the Keccak-256 of the value stored under key.
func (c *Core) GetValueHash(key []byte) (types.Hash, bool) {
	return c.engine.GetValueHash(key)
}

// CollectKeys returns keys of exactly byteSize bytes, or all keys for the
// CollectAllKeys sentinel.
func (c *Core) CollectKeys(byteSize int) [][]byte {
	return c.engine.CollectKeys(byteSize)
}

// GetStorageKeys returns the storage keys stored under an account.
func (c *Core) GetStorageKeys(accountAddress []byte) [][]byte {
	return c.engine.GetStorageKeys(accountAddress)
}

// CurrentRootHash returns the canonical root hash.
func (c *Core) CurrentRootHash() types.Hash {
	return c.engine.CurrentRootHash()
}

// Snapshot returns the current root hash and entry count.
func (c *Core) Snapshot() Snapshot {
	return c.engine.Snapshot()
}

// SaveToStore persists the trie, discarding statistics.
func (c *Core) SaveToStore(store RawStore) {
	c.engine.SaveToStore(store)
}

// SaveToStoreWithStats persists the trie and reports what was written.
func (c *Core) SaveToStoreWithStats(store RawStore) SaveStats {
	return c.engine.SaveToStoreWithStats(store)
}
