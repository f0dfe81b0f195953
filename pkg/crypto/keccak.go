// Package crypto provides the hash primitives used by the unitrie.
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/fedejinich/unitrie-go/pkg/core/types"
)

// emptyTrieRLP is the canonical serialization of an absent trie: the RLP
// encoding of the empty byte string, a single 0x80 byte.
var emptyTrieRLP = []byte{0x80}

// Keccak256 calculates the Keccak-256 hash of the given data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates Keccak-256 and returns it as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}

// EmptyTrieHash returns the well-known root hash of an empty trie,
// Keccak256(0x80).
func EmptyTrieHash() types.Hash {
	return Keccak256Hash(emptyTrieRLP)
}
