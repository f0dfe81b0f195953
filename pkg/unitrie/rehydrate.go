package unitrie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/fedejinich/unitrie-go/pkg/core/types"
	"github.com/fedejinich/unitrie-go/pkg/crypto"
)

// FromPersistedRoot rebuilds the entries map from a previously persisted
// root hash. Every node and value hash it touches seeds the deduplication
// baselines, so a following save only writes what changed. On any failure
// the partially built trie is discarded.
func FromPersistedRoot(rootHash []byte, store RawStore) (*Unitrie, error) {
	if len(rootHash) != types.HashLength {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRootLength, len(rootHash))
	}

	root := types.BytesToHash(rootHash)
	if root == crypto.EmptyTrieHash() {
		return New(), nil
	}

	payload, ok := store.LoadRawNode(root)
	if !ok {
		return nil, fmt.Errorf("%w: root %s", ErrMissingStoreEntry, root)
	}
	rootNode, err := decodePersistedNode(payload)
	if err != nil {
		return nil, err
	}

	t := New()
	t.persistedNodes[root] = struct{}{}
	walk := &rehydration{
		trie:      t,
		store:     store,
		nodeCache: make(map[types.Hash]*trieNode),
	}
	if err := walk.collectEntries(rootNode, nil); err != nil {
		return nil, err
	}

	log.Debug("Rehydrated unitrie", "root", root, "keys", t.KeyCount())
	return t, nil
}

// rehydration carries the state of one persisted-graph walk. Node loads are
// memoized by hash so shared subtrees decode once.
type rehydration struct {
	trie      *Unitrie
	store     RawStore
	nodeCache map[types.Hash]*trieNode
}

// collectEntries walks a node, accumulating the bit path. A value-bearing
// node's accumulated path is always a whole number of bytes; it packs back
// into the original key.
func (r *rehydration) collectEntries(n *trieNode, prefixBits []byte) error {
	fullBits := make([]byte, 0, len(prefixBits)+len(n.sharedPath))
	fullBits = append(fullBits, prefixBits...)
	fullBits = append(fullBits, n.sharedPath...)

	if n.hasValue() {
		if n.value.hashed {
			r.trie.persistedValues[n.value.hash] = struct{}{}
		}
		value, err := r.resolveValue(n.value)
		if err != nil {
			return err
		}
		r.trie.entries.Set(entry{key: packBits(fullBits), value: value})
	}

	if err := r.collectChild(n.left, 0, fullBits); err != nil {
		return err
	}
	return r.collectChild(n.right, 1, fullBits)
}

func (r *rehydration) collectChild(ref nodeRef, implicitBit byte, parentBits []byte) error {
	var child *trieNode
	switch {
	case ref.isEmpty():
		return nil
	case ref.embedded != nil:
		child = ref.embedded
	default:
		r.trie.persistedNodes[ref.hash] = struct{}{}
		loaded, err := r.loadNode(ref.hash)
		if err != nil {
			return err
		}
		child = loaded
	}

	childBits := make([]byte, 0, len(parentBits)+1)
	childBits = append(childBits, parentBits...)
	childBits = append(childBits, implicitBit)
	return r.collectEntries(child, childBits)
}

func (r *rehydration) loadNode(hash types.Hash) (*trieNode, error) {
	if cached, ok := r.nodeCache[hash]; ok {
		return cached, nil
	}

	payload, ok := r.store.LoadRawNode(hash)
	if !ok {
		return nil, fmt.Errorf("%w: node %s", ErrMissingStoreEntry, hash)
	}
	node, err := decodePersistedNode(payload)
	if err != nil {
		return nil, err
	}
	r.nodeCache[hash] = node
	return node, nil
}

func (r *rehydration) resolveValue(v valueRef) ([]byte, error) {
	if !v.hashed {
		value := make([]byte, len(v.inline))
		copy(value, v.inline)
		return value, nil
	}
	value, ok := r.store.LoadRawValue(v.hash)
	if !ok {
		return nil, fmt.Errorf("%w: value %s", ErrMissingStoreEntry, v.hash)
	}
	return value, nil
}
