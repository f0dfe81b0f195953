package unitrie

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/fedejinich/unitrie-go/pkg/core/types"
	"github.com/fedejinich/unitrie-go/pkg/crypto"
)

// SaveStats reports what a save actually did against the store.
type SaveStats struct {
	NodesVisited  uint64
	NodesWritten  uint64
	ValuesWritten uint64
}

func (s *SaveStats) add(other SaveStats) {
	s.NodesVisited += other.NodesVisited
	s.NodesWritten += other.NodesWritten
	s.ValuesWritten += other.ValuesWritten
}

// nodeMetadata is the per-node result of the canonical encoding pass.
// referenceSize is the node's recursive on-disk footprint: serialized bytes
// plus external long-value bytes plus the children's own footprints.
type nodeMetadata struct {
	hash          types.Hash
	serialized    []byte
	referenceSize uint64
	embeddable    bool
}

// SaveToStore persists the current root and everything it references,
// discarding statistics.
func (t *Unitrie) SaveToStore(store RawStore) {
	t.SaveToStoreWithStats(store)
}

// SaveToStoreWithStats persists the current root and all transitively
// referenced nodes and long values. Repeated saves of an unchanged trie
// perform no writes beyond the forced root re-write. The empty trie writes
// exactly one node, the canonical empty node, under the constant empty-trie
// hash.
func (t *Unitrie) SaveToStoreWithStats(store RawStore) SaveStats {
	if t.entries.Len() == 0 {
		serialized, err := encodeRSKIP107Node(emptyTrieNode(), childAbsent(), childAbsent(), childrenSizeNone)
		if err != nil {
			panic("unitrie: empty node encoding failed: " + err.Error())
		}
		emptyHash := crypto.EmptyTrieHash()
		store.SaveRawNode(emptyHash, serialized)
		t.persistedNodes[emptyHash] = struct{}{}
		t.materialized = &materializedTrie{rootNode: nil, rootHash: emptyHash}
		return SaveStats{NodesVisited: 1, NodesWritten: 1}
	}

	rootNode := t.materialize().rootNode
	meta, stats, err := t.persistNode(rootNode, store, true)
	if err != nil {
		// The materialized tree holds only embedded references and values
		// bounded by the entries map; persistence cannot fail on it.
		panic("unitrie: persisting materialized trie failed: " + err.Error())
	}
	t.materialized = &materializedTrie{rootNode: rootNode, rootHash: meta.hash}

	log.Debug("Persisted unitrie", "root", meta.hash, "visited", stats.NodesVisited,
		"nodes", stats.NodesWritten, "values", stats.ValuesWritten)
	return stats
}

// persistNode walks post-order: children first, so their encoding choice
// and footprints are known before this node is serialized and written.
func (t *Unitrie) persistNode(n *trieNode, store RawStore, isRoot bool) (nodeMetadata, SaveStats, error) {
	leftEncoding, leftSize, leftStats, err := t.persistChild(n.left, store)
	if err != nil {
		return nodeMetadata{}, SaveStats{}, err
	}
	rightEncoding, rightSize, rightStats, err := t.persistChild(n.right, store)
	if err != nil {
		return nodeMetadata{}, SaveStats{}, err
	}

	childrenSize := childrenSizeNone
	if !n.isTerminal() {
		childrenSize = int64(leftSize + rightSize)
	}
	serialized, err := encodeRSKIP107Node(n, leftEncoding, rightEncoding, childrenSize)
	if err != nil {
		return nodeMetadata{}, SaveStats{}, err
	}
	hash := crypto.Keccak256Hash(serialized)

	stats := SaveStats{NodesVisited: 1}
	stats.add(leftStats)
	stats.add(rightStats)

	// Long inline values are separated into the value namespace, once per
	// content hash.
	if inline := n.value.inline; len(inline) > longValueThreshold {
		valueHash := crypto.Keccak256Hash(inline)
		if _, seen := t.persistedValues[valueHash]; !seen {
			t.persistedValues[valueHash] = struct{}{}
			store.SaveRawValue(valueHash, inline)
			stats.ValuesWritten++
		}
	}

	embeddable := n.isTerminal() && len(serialized) <= maxEmbeddedNodeSize
	if isRoot || !embeddable {
		shouldWrite := isRoot
		if !isRoot {
			if _, seen := t.persistedNodes[hash]; !seen {
				t.persistedNodes[hash] = struct{}{}
				shouldWrite = true
			}
		}
		if shouldWrite {
			store.SaveRawNode(hash, serialized)
			stats.NodesWritten++
		}
		if isRoot {
			t.persistedNodes[hash] = struct{}{}
		}
	}

	var footprint uint64
	if childrenSize > 0 {
		footprint = uint64(childrenSize)
	}
	footprint += n.externalValueSize() + uint64(len(serialized))

	return nodeMetadata{
		hash:          hash,
		serialized:    serialized,
		referenceSize: footprint,
		embeddable:    embeddable,
	}, stats, nil
}

// persistChild persists a child subtree and reports how the parent should
// reference it: embedded bytes for embeddable terminals, a hash otherwise.
func (t *Unitrie) persistChild(ref nodeRef, store RawStore) (childEncoding, uint64, SaveStats, error) {
	switch {
	case ref.isEmpty():
		return childAbsent(), 0, SaveStats{}, nil
	case ref.embedded != nil:
		meta, stats, err := t.persistNode(ref.embedded, store, false)
		if err != nil {
			return childEncoding{}, 0, SaveStats{}, err
		}
		if meta.embeddable {
			return childEmbedded(meta.serialized), meta.referenceSize, stats, nil
		}
		return childHashed(meta.hash), meta.referenceSize, stats, nil
	default:
		// Already persisted under its hash; nothing to write, zero footprint
		// contribution (the size lives with whoever wrote it).
		t.persistedNodes[ref.hash] = struct{}{}
		return childHashed(ref.hash), 0, SaveStats{}, nil
	}
}

// computeNodeMetadata canonicalizes a node without touching any store. It
// fails with ErrUnresolvedHash on hashed references: only fully in-memory
// trees can be encoded from scratch.
func computeNodeMetadata(n *trieNode) (nodeMetadata, error) {
	leftEncoding, leftSize, err := computeChildEncoding(n.left)
	if err != nil {
		return nodeMetadata{}, err
	}
	rightEncoding, rightSize, err := computeChildEncoding(n.right)
	if err != nil {
		return nodeMetadata{}, err
	}

	childrenSize := childrenSizeNone
	if !n.isTerminal() {
		childrenSize = int64(leftSize + rightSize)
	}
	serialized, err := encodeRSKIP107Node(n, leftEncoding, rightEncoding, childrenSize)
	if err != nil {
		return nodeMetadata{}, err
	}

	var footprint uint64
	if childrenSize > 0 {
		footprint = uint64(childrenSize)
	}
	footprint += n.externalValueSize() + uint64(len(serialized))

	return nodeMetadata{
		hash:          crypto.Keccak256Hash(serialized),
		serialized:    serialized,
		referenceSize: footprint,
		embeddable:    n.isTerminal() && len(serialized) <= maxEmbeddedNodeSize,
	}, nil
}

func computeChildEncoding(ref nodeRef) (childEncoding, uint64, error) {
	switch {
	case ref.isEmpty():
		return childAbsent(), 0, nil
	case ref.embedded != nil:
		meta, err := computeNodeMetadata(ref.embedded)
		if err != nil {
			return childEncoding{}, 0, err
		}
		if meta.embeddable {
			return childEmbedded(meta.serialized), meta.referenceSize, nil
		}
		return childHashed(meta.hash), meta.referenceSize, nil
	default:
		return childEncoding{}, 0, ErrUnresolvedHash
	}
}
