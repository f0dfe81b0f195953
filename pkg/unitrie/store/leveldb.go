package store

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/fedejinich/unitrie-go/pkg/core/types"
	"github.com/fedejinich/unitrie-go/pkg/unitrie"
)

// Key prefixes separating the two logical namespaces inside one LevelDB
// table.
var (
	nodeKeyPrefix  = []byte("n")
	valueKeyPrefix = []byte("v")
)

// LevelDB is a RawStore backed by a goleveldb database.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if necessary) a LevelDB store at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

// Close releases the underlying database.
func (s *LevelDB) Close() error {
	return s.db.Close()
}

// LoadRawNode implements unitrie.RawStore.
func (s *LevelDB) LoadRawNode(hash types.Hash) ([]byte, bool) {
	return s.load(nodeKeyPrefix, hash)
}

// LoadRawValue implements unitrie.RawStore.
func (s *LevelDB) LoadRawValue(hash types.Hash) ([]byte, bool) {
	return s.load(valueKeyPrefix, hash)
}

// SaveRawNode implements unitrie.RawStore.
func (s *LevelDB) SaveRawNode(hash types.Hash, serialized []byte) {
	s.save(nodeKeyPrefix, hash, serialized)
}

// SaveRawValue implements unitrie.RawStore.
func (s *LevelDB) SaveRawValue(hash types.Hash, value []byte) {
	s.save(valueKeyPrefix, hash, value)
}

func (s *LevelDB) load(prefix []byte, hash types.Hash) ([]byte, bool) {
	data, err := s.db.Get(storeKey(prefix, hash), nil)
	if err == leveldb.ErrNotFound {
		return nil, false
	}
	if err != nil {
		log.Error("Unitrie store read failed", "hash", hash, "err", err)
		return nil, false
	}
	return data, true
}

func (s *LevelDB) save(prefix []byte, hash types.Hash, data []byte) {
	if err := s.db.Put(storeKey(prefix, hash), data, nil); err != nil {
		log.Error("Unitrie store write failed", "hash", hash, "err", err)
	}
}

func storeKey(prefix []byte, hash types.Hash) []byte {
	key := make([]byte, 0, len(prefix)+types.HashLength)
	key = append(key, prefix...)
	return append(key, hash.Bytes()...)
}

var _ unitrie.RawStore = (*LevelDB)(nil)
