package unitrie

import (
	"bytes"
	"fmt"
	"reflect"
	"testing"

	"github.com/fedejinich/unitrie-go/pkg/crypto"
)

func TestSaveEmptyTrieWritesCanonicalNode(t *testing.T) {
	trie := New()
	store := newMemStore()
	stats := trie.SaveToStoreWithStats(store)

	if stats.NodesVisited != 1 || stats.NodesWritten != 1 || stats.ValuesWritten != 0 {
		t.Fatalf("stats = %+v, want {1 1 0}", stats)
	}
	if len(store.nodes) != 1 {
		t.Fatalf("store holds %d nodes, want 1", len(store.nodes))
	}
	payload, ok := store.nodes[crypto.EmptyTrieHash()]
	if !ok {
		t.Fatal("empty node must be stored under the constant empty-trie hash")
	}
	if !bytes.Equal(payload, []byte{versionFlag}) {
		t.Fatalf("empty node payload = %x, want 40", payload)
	}
}

func TestSaveReloadRoundTrip(t *testing.T) {
	trie := New()
	trie.Put([]byte{0xaa}, []byte{0x01, 0x02, 0x03})
	trie.Put([]byte{0xab}, bytes.Repeat([]byte{0x09}, 40))
	trie.Put([]byte("some/longer/key"), []byte("payload"))

	root := trie.RootHash()
	store := newMemStore()
	trie.SaveToStore(store)

	loaded, err := FromPersistedRoot(root.Bytes(), store)
	if err != nil {
		t.Fatalf("FromPersistedRoot: %v", err)
	}
	if got, _ := loaded.Get([]byte{0xaa}); !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("Get(aa) = %x", got)
	}
	if got, _ := loaded.Get([]byte{0xab}); !bytes.Equal(got, bytes.Repeat([]byte{0x09}, 40)) {
		t.Fatalf("Get(ab) = %x", got)
	}
	if got, _ := loaded.Get([]byte("some/longer/key")); string(got) != "payload" {
		t.Fatalf("Get(some/longer/key) = %q", got)
	}
	if loaded.RootHash() != root {
		t.Fatalf("reloaded root = %s, want %s", loaded.RootHash(), root)
	}
	if loaded.KeyCount() != 3 {
		t.Fatalf("KeyCount = %d, want 3", loaded.KeyCount())
	}
}

func TestSaveIdempotenceOnUnchangedState(t *testing.T) {
	trie := New()
	for i := 0; i < 64; i++ {
		trie.Put([]byte(fmt.Sprintf("key-%02d", i)), bytes.Repeat([]byte{byte(i)}, 20+i))
	}
	store := newMemStore()
	trie.SaveToStore(store)

	nodesBefore := len(store.nodes)
	valuesBefore := len(store.values)

	stats := trie.SaveToStoreWithStats(store)
	if stats.NodesWritten != 1 {
		t.Fatalf("second save wrote %d nodes, want 1 (forced root)", stats.NodesWritten)
	}
	if stats.ValuesWritten != 0 {
		t.Fatalf("second save wrote %d values, want 0", stats.ValuesWritten)
	}
	if len(store.nodes) != nodesBefore || len(store.values) != valuesBefore {
		t.Fatal("second save must not grow the store")
	}
}

func TestLongValueSeparation(t *testing.T) {
	longValue := bytes.Repeat([]byte{0x42}, 33)
	trie := New()
	trie.Put([]byte("k"), longValue)

	store := newMemStore()
	root := trie.RootHash()
	stats := trie.SaveToStoreWithStats(store)
	if stats.ValuesWritten != 1 {
		t.Fatalf("ValuesWritten = %d, want 1", stats.ValuesWritten)
	}

	valueHash := crypto.Keccak256Hash(longValue)
	blob, ok := store.values[valueHash]
	if !ok || !bytes.Equal(blob, longValue) {
		t.Fatal("value blob must be stored under its content hash")
	}

	nodeBlob := store.nodes[root]
	if bytes.Contains(nodeBlob, longValue) {
		t.Fatal("node blob must not contain the long value verbatim")
	}
	if !bytes.Contains(nodeBlob, valueHash.Bytes()) {
		t.Fatal("node blob must reference the value hash")
	}
	if !bytes.HasSuffix(nodeBlob, []byte{0x00, 0x00, 0x21}) {
		t.Fatalf("node blob should end with length 0x000021, got %x", nodeBlob[len(nodeBlob)-3:])
	}
}

func TestLongValueBoundaryInlineAt32(t *testing.T) {
	inline := bytes.Repeat([]byte{0x42}, 32)
	trie := New()
	trie.Put([]byte("k"), inline)

	store := newMemStore()
	stats := trie.SaveToStoreWithStats(store)
	if stats.ValuesWritten != 0 {
		t.Fatalf("ValuesWritten = %d, want 0 for a 32-byte value", stats.ValuesWritten)
	}
	if len(store.values) != 0 {
		t.Fatal("no value blob expected for a 32-byte value")
	}
	root := trie.RootHash()
	if !bytes.Contains(store.nodes[root], inline) {
		t.Fatal("32-byte value should ride inline in the node blob")
	}
}

func TestDeterministicStoresAcrossInsertionOrders(t *testing.T) {
	first := New()
	first.Put([]byte("k1"), []byte("v1"))
	first.Put([]byte("k2"), []byte("v2"))
	firstStore := newMemStore()
	first.SaveToStore(firstStore)

	second := New()
	second.Put([]byte("k2"), []byte("v2"))
	second.Put([]byte("k1"), []byte("v1"))
	secondStore := newMemStore()
	second.SaveToStore(secondStore)

	if first.RootHash() != second.RootHash() {
		t.Fatalf("roots differ: %s vs %s", first.RootHash(), second.RootHash())
	}
	if !reflect.DeepEqual(firstStore.nodes, secondStore.nodes) {
		t.Fatal("node blobs differ across insertion orders")
	}
	if !reflect.DeepEqual(firstStore.values, secondStore.values) {
		t.Fatal("value blobs differ across insertion orders")
	}
}

func TestEmbeddingBoundary(t *testing.T) {
	// Two keys differing only in their first bit give each leaf a 79-bit
	// shared path: one flag byte, a two-byte path header, ten packed path
	// bytes, then the inline value. A 31-byte value lands the leaf exactly
	// on the 44-byte embedding threshold; one more byte pushes it over.
	keyLow := make([]byte, 10)
	keyHigh := make([]byte, 10)
	keyHigh[0] = 0x80

	atThreshold := New()
	atThreshold.Put(keyLow, bytes.Repeat([]byte{0xaa}, 31))
	atThreshold.Put(keyHigh, bytes.Repeat([]byte{0xbb}, 31))
	embeddedStore := newMemStore()
	atThreshold.SaveToStore(embeddedStore)
	if len(embeddedStore.nodes) != 1 {
		t.Fatalf("44-byte leaves: store holds %d nodes, want 1 (children embedded)", len(embeddedStore.nodes))
	}

	overThreshold := New()
	overThreshold.Put(keyLow, bytes.Repeat([]byte{0xaa}, 32))
	overThreshold.Put(keyHigh, bytes.Repeat([]byte{0xbb}, 32))
	hashedStore := newMemStore()
	overThreshold.SaveToStore(hashedStore)
	if len(hashedStore.nodes) != 3 {
		t.Fatalf("45-byte leaves: store holds %d nodes, want 3 (root + two hashed leaves)", len(hashedStore.nodes))
	}
}

func TestSaveSeedsDedupAcrossInstances(t *testing.T) {
	trie := New()
	trie.Put([]byte("shared"), bytes.Repeat([]byte{0x11}, 40))
	store := newMemStore()
	trie.SaveToStore(store)

	// A rehydrated instance inherits the persisted baseline: saving it again
	// rewrites only the root.
	loaded, err := FromPersistedRoot(trie.RootHash().Bytes(), store)
	if err != nil {
		t.Fatalf("FromPersistedRoot: %v", err)
	}
	stats := loaded.SaveToStoreWithStats(store)
	if stats.NodesWritten != 1 || stats.ValuesWritten != 0 {
		t.Fatalf("post-rehydration save stats = %+v, want {_, 1, 0}", stats)
	}
}

func TestReferenceSizeAccounting(t *testing.T) {
	// A branch with two embedded leaves: the root's footprint must be its
	// own serialized length plus both children's footprints, and the
	// children_size varint must sit in the canonical encoding.
	trie := New()
	trie.Put([]byte{0x00}, []byte("aa"))
	trie.Put([]byte{0x80}, []byte("bb"))

	root := trie.materialize().rootNode
	rootMeta, err := computeNodeMetadata(root)
	if err != nil {
		t.Fatalf("computeNodeMetadata: %v", err)
	}
	leftMeta, err := computeNodeMetadata(root.left.embedded)
	if err != nil {
		t.Fatalf("left metadata: %v", err)
	}
	rightMeta, err := computeNodeMetadata(root.right.embedded)
	if err != nil {
		t.Fatalf("right metadata: %v", err)
	}

	want := leftMeta.referenceSize + rightMeta.referenceSize + uint64(len(rootMeta.serialized))
	if rootMeta.referenceSize != want {
		t.Fatalf("root footprint = %d, want %d", rootMeta.referenceSize, want)
	}
}

func TestComputeMetadataRejectsHashedReference(t *testing.T) {
	node := &trieNode{left: hashedRef(crypto.Keccak256Hash([]byte("x")))}
	if _, err := computeNodeMetadata(node); err != ErrUnresolvedHash {
		t.Fatalf("err = %v, want ErrUnresolvedHash", err)
	}
}

func TestSaveVisitsEveryNode(t *testing.T) {
	trie := New()
	trie.Put([]byte{0x00}, []byte("a"))
	trie.Put([]byte{0x80}, []byte("b"))
	store := newMemStore()
	stats := trie.SaveToStoreWithStats(store)
	if stats.NodesVisited != 3 {
		t.Fatalf("NodesVisited = %d, want 3", stats.NodesVisited)
	}
}
