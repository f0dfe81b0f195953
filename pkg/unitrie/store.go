package unitrie

import "github.com/fedejinich/unitrie-go/pkg/core/types"

// RawStore is the external blob store the trie persists into. Node and
// value blobs live in two logical namespaces, both keyed by 32-byte Keccak
// digests; implementations may back them with a single physical table.
//
// Saves are expected to be idempotent per (hash, bytes) pair: the trie
// never writes a differing payload under a previously used hash.
type RawStore interface {
	// LoadRawNode returns the serialized node stored under hash, or false.
	LoadRawNode(hash types.Hash) ([]byte, bool)

	// LoadRawValue returns the long-value payload stored under hash, or
	// false. Stores with a single namespace delegate to LoadRawNode.
	LoadRawValue(hash types.Hash) ([]byte, bool)

	// SaveRawNode stores a serialized node under its hash.
	SaveRawNode(hash types.Hash, serialized []byte)

	// SaveRawValue stores a long-value payload under its content hash.
	SaveRawValue(hash types.Hash, value []byte)
}
