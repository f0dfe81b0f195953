package unitrie

import (
	"github.com/fedejinich/unitrie-go/pkg/core/types"
	"github.com/fedejinich/unitrie-go/pkg/crypto"
)

const (
	// longValueThreshold is the largest value length carried inline in a
	// node's encoding; longer values live in the value store keyed by their
	// content hash. Protocol constant.
	longValueThreshold = 32

	// maxEmbeddedNodeSize is the largest serialized form a terminal node may
	// have and still ride inline in its parent's encoding. Protocol constant.
	maxEmbeddedNodeSize = 44

	// lengthUnknown marks a hashed value whose byte length was not carried
	// on the wire (orchid encodings omit it).
	lengthUnknown = -1
)

// valueRef describes how a node's value is carried: absent, inline in the
// node encoding, or out of line in the value store.
type valueRef struct {
	inline []byte     // inline payload; nil when empty or hashed
	hash   types.Hash // content hash when carried out of line
	hashed bool
	length int // known byte length of a hashed value, or lengthUnknown
}

func emptyValue() valueRef {
	return valueRef{}
}

// inlineValue wraps bytes as an inline value; an empty slice is the absent
// value.
func inlineValue(b []byte) valueRef {
	if len(b) == 0 {
		return valueRef{}
	}
	return valueRef{inline: b}
}

// hashedValue references an out-of-line value. length is the true byte
// length when known, lengthUnknown otherwise.
func hashedValue(hash types.Hash, length int) valueRef {
	return valueRef{hash: hash, hashed: true, length: length}
}

func (v valueRef) hasValue() bool {
	return v.hashed || len(v.inline) > 0
}

// valueLength returns the value's byte length and whether it is known.
func (v valueRef) valueLength() (int, bool) {
	if v.hashed {
		if v.length == lengthUnknown {
			return 0, false
		}
		return v.length, true
	}
	return len(v.inline), true
}

// isLong reports whether the value exceeds the inline threshold. A hashed
// value of unknown length is long: short values are never separated.
func (v valueRef) isLong() bool {
	length, known := v.valueLength()
	if !known {
		return true
	}
	return length > longValueThreshold
}

// valueHash returns the value's content hash, computing it for inline
// values. The second return is false for the absent value.
func (v valueRef) valueHash() (types.Hash, bool) {
	switch {
	case v.hashed:
		return v.hash, true
	case len(v.inline) > 0:
		return crypto.Keccak256Hash(v.inline), true
	default:
		return types.Hash{}, false
	}
}

// nodeRef points at a child: absent, a whole node carried inline in the
// parent's encoding, or a 32-byte digest of a node in the store.
type nodeRef struct {
	embedded *trieNode
	hash     types.Hash
	hashed   bool
}

func emptyRef() nodeRef {
	return nodeRef{}
}

func embeddedRef(n *trieNode) nodeRef {
	return nodeRef{embedded: n}
}

func hashedRef(hash types.Hash) nodeRef {
	return nodeRef{hash: hash, hashed: true}
}

func (r nodeRef) isEmpty() bool {
	return r.embedded == nil && !r.hashed
}

// trieNode is one node of the materialized bit trie. sharedPath holds the
// bits common to every key routed through this node below its parent's
// branch point; the left child continues with an implicit 0 bit, the right
// with 1.
type trieNode struct {
	sharedPath []byte // 0/1 bits
	value      valueRef
	left       nodeRef
	right      nodeRef
}

// newTrieNode validates the shared path bits and assembles a node.
func newTrieNode(sharedPath []byte, value valueRef, left, right nodeRef) (*trieNode, error) {
	for _, bit := range sharedPath {
		if bit > 1 {
			return nil, ErrDecodeInvalidHeader
		}
	}
	return &trieNode{sharedPath: sharedPath, value: value, left: left, right: right}, nil
}

// emptyTrieNode is the distinguished encoding of an empty trie's root.
func emptyTrieNode() *trieNode {
	return &trieNode{}
}

// isTerminal reports whether the node has no children.
func (n *trieNode) isTerminal() bool {
	return n.left.isEmpty() && n.right.isEmpty()
}

func (n *trieNode) hasValue() bool {
	return n.value.hasValue()
}

func (n *trieNode) hasLongValue() bool {
	return n.value.hasValue() && n.value.isLong()
}

// externalValueSize is the number of bytes the node's value occupies outside
// its own encoding.
func (n *trieNode) externalValueSize() uint64 {
	if !n.hasLongValue() {
		return 0
	}
	length, _ := n.value.valueLength()
	return uint64(length)
}
