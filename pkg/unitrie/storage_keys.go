package unitrie

import (
	"bytes"

	"github.com/holiman/uint256"

	"github.com/fedejinich/unitrie-go/pkg/crypto"
	"github.com/fedejinich/unitrie-go/pkg/varint"
)

const (
	// secureKeySize is the length of the keccak prefix guarding trie keys
	// against unbalanced layouts.
	secureKeySize = 10

	domainPrefix  = 0x00
	storagePrefix = 0x00
)

// accountStoragePrefixKey builds the trie prefix under which an account's
// storage cells live: domain byte, ten-byte secure prefix of the address,
// the address itself, and the storage subdomain byte.
func accountStoragePrefixKey(accountAddress []byte) []byte {
	key := make([]byte, 0, 1+secureKeySize+len(accountAddress)+1)
	key = append(key, domainPrefix)
	key = append(key, secureKeyPrefix(accountAddress)...)
	key = append(key, accountAddress...)
	key = append(key, storagePrefix)
	return key
}

// secureKeyPrefix returns the first ten bytes of Keccak-256 of key.
func secureKeyPrefix(key []byte) []byte {
	return crypto.Keccak256(key)[:secureKeySize]
}

// GetStorageKeys returns the logical storage keys stored under an account.
// Each full trie key under the account's storage prefix carries a ten-byte
// secure prefix of the storage key before the key itself; tails shorter
// than that are not storage cells.
func (t *Unitrie) GetStorageKeys(accountAddress []byte) [][]byte {
	prefix := accountStoragePrefixKey(accountAddress)

	var storageKeys [][]byte
	t.entries.Ascend(entry{key: prefix}, func(item entry) bool {
		if !bytes.HasPrefix(item.key, prefix) {
			return false
		}
		payload := item.key[len(prefix):]
		if len(payload) < secureKeySize {
			return true
		}
		storageKey := make([]byte, len(payload)-secureKeySize)
		copy(storageKey, payload[secureKeySize:])
		storageKeys = append(storageKeys, storageKey)
		return true
	})
	return storageKeys
}

// GetStorageSlots returns the account's storage keys as 256-bit words, the
// shape EVM storage slots take.
func (t *Unitrie) GetStorageSlots(accountAddress []byte) []*uint256.Int {
	keys := t.GetStorageKeys(accountAddress)
	slots := make([]*uint256.Int, len(keys))
	for i, key := range keys {
		slots[i] = new(uint256.Int).SetBytes(key)
	}
	return slots
}

// PackStorageKeys frames a storage-key list as a varint count followed by
// varint-length-prefixed keys, the compact form handed across the engine
// boundary.
func PackStorageKeys(keys [][]byte) []byte {
	size := varint.Size(uint64(len(keys)))
	for _, key := range keys {
		size += varint.Size(uint64(len(key))) + len(key)
	}

	packed := make([]byte, 0, size)
	packed = varint.Append(packed, uint64(len(keys)))
	for _, key := range keys {
		packed = varint.Append(packed, uint64(len(key)))
		packed = append(packed, key...)
	}
	return packed
}
