package next

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// storageCacheCapacity bounds the number of accounts whose storage-key
// listings are kept.
const storageCacheCapacity = 256

type storageCacheEntry struct {
	generation uint64
	keys       [][]byte
	packed     []byte
}

// storageKeyCache memoizes per-account storage-key listings. Entries carry
// the mutation generation they were computed at; a stale generation is a
// miss, so the cache can never serve results older than the last mutation.
type storageKeyCache struct {
	entries *lru.Cache[string, storageCacheEntry]
}

func newStorageKeyCache(capacity int) *storageKeyCache {
	entries, err := lru.New[string, storageCacheEntry](capacity)
	if err != nil {
		panic("unitrie: bad storage cache capacity: " + err.Error())
	}
	return &storageKeyCache{entries: entries}
}

func (c *storageKeyCache) get(accountAddress []byte, generation uint64) ([][]byte, []byte, bool) {
	cached, ok := c.entries.Get(string(accountAddress))
	if !ok || cached.generation != generation {
		return nil, nil, false
	}
	return cached.keys, cached.packed, true
}

func (c *storageKeyCache) add(accountAddress []byte, generation uint64, keys [][]byte, packed []byte) {
	c.entries.Add(string(accountAddress), storageCacheEntry{
		generation: generation,
		keys:       keys,
		packed:     packed,
	})
}
