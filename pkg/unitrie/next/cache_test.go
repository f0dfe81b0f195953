package next

import (
	"bytes"
	"testing"
)

func TestCacheRequiresMatchingGeneration(t *testing.T) {
	cache := newStorageKeyCache(16)
	account := []byte{0xaa}
	keys := [][]byte{{0x01}, {0x02}}
	packed := []byte{0xfd, 0x01}
	cache.add(account, 3, keys, packed)

	gotKeys, gotPacked, ok := cache.get(account, 3)
	if !ok || len(gotKeys) != 2 || !bytes.Equal(gotPacked, packed) {
		t.Fatalf("get = (%x, %x, %v)", gotKeys, gotPacked, ok)
	}
	if _, _, ok := cache.get(account, 4); ok {
		t.Fatal("stale generation must miss")
	}
}

func TestCacheEvictsOldestAccount(t *testing.T) {
	cache := newStorageKeyCache(2)
	cache.add([]byte{0x01}, 0, [][]byte{{0xa1}}, []byte{0x01})
	cache.add([]byte{0x02}, 0, [][]byte{{0xa2}}, []byte{0x02})
	cache.add([]byte{0x03}, 0, [][]byte{{0xa3}}, []byte{0x03})

	if _, _, ok := cache.get([]byte{0x01}, 0); ok {
		t.Fatal("oldest account should be evicted")
	}
	if _, _, ok := cache.get([]byte{0x02}, 0); !ok {
		t.Fatal("recent account should survive")
	}
	if _, _, ok := cache.get([]byte{0x03}, 0); !ok {
		t.Fatal("newest account should survive")
	}
}

func TestCacheRefreshKeepsAccountWarm(t *testing.T) {
	cache := newStorageKeyCache(2)
	cache.add([]byte{0x01}, 0, [][]byte{{0xa1}}, []byte{0x01})
	cache.add([]byte{0x02}, 0, [][]byte{{0xa2}}, []byte{0x02})
	cache.add([]byte{0x01}, 1, [][]byte{{0xb1}}, []byte{0x11})
	cache.add([]byte{0x03}, 1, [][]byte{{0xc3}}, []byte{0x03})

	if _, _, ok := cache.get([]byte{0x02}, 1); ok {
		t.Fatal("least recently touched account should be evicted")
	}
	keys, packed, ok := cache.get([]byte{0x01}, 1)
	if !ok || !bytes.Equal(keys[0], []byte{0xb1}) || !bytes.Equal(packed, []byte{0x11}) {
		t.Fatalf("refreshed entry = (%x, %x, %v)", keys, packed, ok)
	}
}

func TestDirtyTracker(t *testing.T) {
	var tracker dirtyTracker
	if tracker.count() != 0 {
		t.Fatalf("fresh tracker count = %d", tracker.count())
	}
	tracker.markKey([]byte("a"))
	tracker.markKey([]byte("b"))
	tracker.markKey([]byte("a"))
	if tracker.count() != 2 {
		t.Fatalf("count = %d, want 2", tracker.count())
	}
	tracker.clear()
	if tracker.count() != 0 {
		t.Fatalf("count after clear = %d, want 0", tracker.count())
	}
	// Identifiers stay stable across clears.
	tracker.markKey([]byte("a"))
	if tracker.count() != 1 {
		t.Fatalf("count = %d, want 1", tracker.count())
	}
}
