package unitrie

import (
	"github.com/fedejinich/unitrie-go/pkg/crypto"
)

// materialize builds the canonical node tree from the entries map, caching
// the result until the next mutation. The construction is a pure function
// of the key/value set; insertion order never matters.
func (t *Unitrie) materialize() *materializedTrie {
	if t.materialized != nil {
		return t.materialized
	}

	rootNode := t.buildRootNode()
	rootHash := crypto.EmptyTrieHash()
	if rootNode != nil {
		meta, err := computeNodeMetadata(rootNode)
		if err != nil {
			// Nodes generated from in-memory entries contain only embedded
			// references and bounded values; encoding cannot fail.
			panic("unitrie: materialized node not encodable: " + err.Error())
		}
		rootHash = meta.hash
	}

	t.materialized = &materializedTrie{rootNode: rootNode, rootHash: rootHash}
	return t.materialized
}

type bitEntry struct {
	bits  []byte
	value []byte
}

func (t *Unitrie) buildRootNode() *trieNode {
	if t.entries.Len() == 0 {
		return nil
	}

	bitEntries := make([]bitEntry, 0, t.entries.Len())
	t.entries.Scan(func(item entry) bool {
		bitEntries = append(bitEntries, bitEntry{bits: keyToBits(item.key), value: item.value})
		return true
	})
	return buildNode(bitEntries, 0)
}

// buildNode constructs the node covering entries from bit depth onwards.
// The shared path absorbs the longest common bit prefix; the remaining
// entries split on the next bit (0 left, 1 right), with the entry ending
// exactly at the branch point becoming this node's value. Single-child
// chains cannot arise: the common prefix is absorbed before branching.
func buildNode(entries []bitEntry, depth int) *trieNode {
	sharedLen := longestCommonBitPrefix(entries, depth)
	nodeDepth := depth + sharedLen
	sharedPath := entries[0].bits[depth:nodeDepth]

	value := emptyValue()
	var leftEntries, rightEntries []bitEntry
	for _, e := range entries {
		if len(e.bits) == nodeDepth {
			value = inlineValue(e.value)
			continue
		}
		if e.bits[nodeDepth] == 0 {
			leftEntries = append(leftEntries, e)
		} else {
			rightEntries = append(rightEntries, e)
		}
	}

	left := emptyRef()
	if len(leftEntries) > 0 {
		left = embeddedRef(buildNode(leftEntries, nodeDepth+1))
	}
	right := emptyRef()
	if len(rightEntries) > 0 {
		right = embeddedRef(buildNode(rightEntries, nodeDepth+1))
	}

	return &trieNode{sharedPath: sharedPath, value: value, left: left, right: right}
}

// longestCommonBitPrefix returns the number of bits from depth onwards that
// every entry agrees on, bounded by the shortest remaining suffix.
func longestCommonBitPrefix(entries []bitEntry, depth int) int {
	if len(entries) == 0 {
		return 0
	}

	first := entries[0].bits
	if depth >= len(first) {
		return 0
	}

	maxCommon := len(first) - depth
	for _, e := range entries[1:] {
		if remaining := len(e.bits) - depth; remaining < maxCommon {
			maxCommon = remaining
		}
	}

	for i := 0; i < maxCommon; i++ {
		bit := first[depth+i]
		for _, e := range entries[1:] {
			if e.bits[depth+i] != bit {
				return i
			}
		}
	}
	return maxCommon
}
