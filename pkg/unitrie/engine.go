package unitrie

import (
	"fmt"
	"strings"

	"github.com/fedejinich/unitrie-go/pkg/core/types"
)

// Snapshot is copy-on-return root metadata: the root hash and entry count
// at the moment of the call.
type Snapshot struct {
	Root     types.Hash
	KeyCount int
}

// Engine is the operation surface shared by the trie implementations.
type Engine interface {
	Get(key []byte) ([]byte, bool)
	Put(key, value []byte)
	Delete(key []byte)
	DeleteRecursive(prefix []byte)
	GetValueLength(key []byte) (int, bool)
	GetValueHash(key []byte) (types.Hash, bool)
	CollectKeys(byteSize int) [][]byte
	GetStorageKeys(accountAddress []byte) [][]byte
	CurrentRootHash() types.Hash
	Snapshot() Snapshot
	SaveToStore(store RawStore)
	SaveToStoreWithStats(store RawStore) SaveStats
}

var _ Engine = (*Unitrie)(nil)

// Implementation selects which engine backs the public surface.
type Implementation int

const (
	// ImplementationLegacyV1 is the flat-map engine that rebuilds the
	// canonical tree on demand.
	ImplementationLegacyV1 Implementation = iota

	// ImplementationNext layers advisory accelerators over the legacy
	// engine without changing any observable output.
	ImplementationNext
)

// ImplementationFromConfig parses a configuration string.
func ImplementationFromConfig(value string) (Implementation, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "legacy-v1":
		return ImplementationLegacyV1, nil
	case "next":
		return ImplementationNext, nil
	default:
		return 0, fmt.Errorf("unitrie: unsupported implementation %q, expected one of: legacy-v1, next", value)
	}
}

// String returns the configuration name.
func (impl Implementation) String() string {
	switch impl {
	case ImplementationLegacyV1:
		return "legacy-v1"
	case ImplementationNext:
		return "next"
	default:
		return fmt.Sprintf("implementation(%d)", int(impl))
	}
}

// engineFactories maps implementations to constructors. The legacy engine
// registers here; the next engine registers itself on import.
var engineFactories = map[Implementation]EngineFactory{
	ImplementationLegacyV1: legacyFactory{},
}

// EngineFactory builds engines fresh or from a persisted root.
type EngineFactory interface {
	New() Engine
	FromPersistedRoot(rootHash []byte, store RawStore) (Engine, error)
}

type legacyFactory struct{}

func (legacyFactory) New() Engine {
	return New()
}

func (legacyFactory) FromPersistedRoot(rootHash []byte, store RawStore) (Engine, error) {
	return FromPersistedRoot(rootHash, store)
}

// RegisterEngine installs a factory for an implementation. Later
// registrations win, matching the latest imported package.
func RegisterEngine(impl Implementation, factory EngineFactory) {
	engineFactories[impl] = factory
}

// NewEngine constructs an empty engine for the given implementation.
func NewEngine(impl Implementation) (Engine, error) {
	factory, ok := engineFactories[impl]
	if !ok {
		return nil, fmt.Errorf("unitrie: implementation %s is not registered", impl)
	}
	return factory.New(), nil
}

// NewEngineFromPersistedRoot rehydrates an engine from a persisted root.
func NewEngineFromPersistedRoot(impl Implementation, rootHash []byte, store RawStore) (Engine, error) {
	factory, ok := engineFactories[impl]
	if !ok {
		return nil, fmt.Errorf("unitrie: implementation %s is not registered", impl)
	}
	return factory.FromPersistedRoot(rootHash, store)
}
