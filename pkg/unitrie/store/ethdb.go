package store

import (
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"

	"github.com/fedejinich/unitrie-go/pkg/core/types"
	"github.com/fedejinich/unitrie-go/pkg/unitrie"
)

// KeyValue adapts any go-ethereum key-value database to the RawStore
// interface, using the same namespace prefixes as the LevelDB store.
type KeyValue struct {
	db ethdb.KeyValueStore
}

// NewKeyValue wraps an ethdb key-value store.
func NewKeyValue(db ethdb.KeyValueStore) *KeyValue {
	return &KeyValue{db: db}
}

// LoadRawNode implements unitrie.RawStore.
func (s *KeyValue) LoadRawNode(hash types.Hash) ([]byte, bool) {
	data, err := s.db.Get(storeKey(nodeKeyPrefix, hash))
	if err != nil {
		return nil, false
	}
	return data, true
}

// LoadRawValue implements unitrie.RawStore.
func (s *KeyValue) LoadRawValue(hash types.Hash) ([]byte, bool) {
	data, err := s.db.Get(storeKey(valueKeyPrefix, hash))
	if err != nil {
		return nil, false
	}
	return data, true
}

// SaveRawNode implements unitrie.RawStore.
func (s *KeyValue) SaveRawNode(hash types.Hash, serialized []byte) {
	if err := s.db.Put(storeKey(nodeKeyPrefix, hash), serialized); err != nil {
		log.Error("Unitrie ethdb node write failed", "hash", hash, "err", err)
	}
}

// SaveRawValue implements unitrie.RawStore.
func (s *KeyValue) SaveRawValue(hash types.Hash, value []byte) {
	if err := s.db.Put(storeKey(valueKeyPrefix, hash), value); err != nil {
		log.Error("Unitrie ethdb value write failed", "hash", hash, "err", err)
	}
}

var _ unitrie.RawStore = (*KeyValue)(nil)
