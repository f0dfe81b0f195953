package unitrie

import (
	"github.com/fedejinich/unitrie-go/pkg/core/types"
	"github.com/fedejinich/unitrie-go/pkg/varint"
)

// RSKIP107 wire form: one flag byte, then optional shared path, children,
// children-size varint and value tail. The top two flag bits carry the
// format version and double as the dispatch marker.
const (
	versionFlag       = 0b0100_0000
	versionMask       = 0b1100_0000
	longValueFlag     = 0b0010_0000
	sharedPrefixFlag  = 0b0001_0000
	leftPresentFlag   = 0b0000_1000
	rightPresentFlag  = 0b0000_0100
	leftEmbeddedFlag  = 0b0000_0010
	rightEmbeddedFlag = 0b0000_0001
)

// childrenSizeNone marks the encode of a terminal node, which carries no
// children-size field.
const childrenSizeNone = int64(-1)

// childEncoding is the on-wire choice for one child slot: absent, a whole
// serialized child, or a 32-byte digest.
type childEncoding struct {
	serialized []byte // embedded form; nil unless embedded
	hash       types.Hash
	present    bool
	embedded   bool
}

func childAbsent() childEncoding {
	return childEncoding{}
}

func childEmbedded(serialized []byte) childEncoding {
	return childEncoding{serialized: serialized, present: true, embedded: true}
}

func childHashed(hash types.Hash) childEncoding {
	return childEncoding{hash: hash, present: true}
}

// isRSKIP107Payload reports whether payload starts with the version marker.
func isRSKIP107Payload(payload []byte) bool {
	return len(payload) > 0 && payload[0]&versionMask == versionFlag
}

// decodeRSKIP107Node parses a flag-prefixed node encoding. Embedded children
// are decoded recursively; hashed children stay as references for the caller
// to resolve against a store.
func decodeRSKIP107Node(payload []byte) (*trieNode, error) {
	if len(payload) == 0 {
		return nil, ErrDecodeTruncated
	}

	flags := payload[0]
	if flags&versionMask != versionFlag {
		return nil, ErrDecodeInvalidHeader
	}
	hasLongValue := flags&longValueFlag != 0
	sharedPrefixPresent := flags&sharedPrefixFlag != 0
	leftPresent := flags&leftPresentFlag != 0
	rightPresent := flags&rightPresentFlag != 0
	leftEmbedded := flags&leftEmbeddedFlag != 0
	rightEmbedded := flags&rightEmbeddedFlag != 0

	offset := 1
	sharedPath, err := readPath(payload, &offset, sharedPrefixPresent)
	if err != nil {
		return nil, err
	}

	left := emptyRef()
	if leftPresent {
		if left, err = decodeChildRef(payload, &offset, leftEmbedded); err != nil {
			return nil, err
		}
	}
	right := emptyRef()
	if rightPresent {
		if right, err = decodeChildRef(payload, &offset, rightEmbedded); err != nil {
			return nil, err
		}
	}

	if leftPresent || rightPresent {
		// children_size is advisory; its value is not used on decode.
		_, n, err := varint.Decode(payload[offset:])
		if err != nil {
			return nil, ErrDecodeTruncated
		}
		offset += n
	}

	var value valueRef
	switch {
	case hasLongValue:
		hash, err := readHash(payload, &offset)
		if err != nil {
			return nil, err
		}
		length, err := readUint24(payload, &offset)
		if err != nil {
			return nil, err
		}
		value = hashedValue(hash, length)
	case offset < len(payload):
		inline := make([]byte, len(payload)-offset)
		copy(inline, payload[offset:])
		offset = len(payload)
		value = inlineValue(inline)
	default:
		value = emptyValue()
	}

	if offset != len(payload) {
		return nil, ErrDecodeTrailingData
	}

	return &trieNode{sharedPath: sharedPath, value: value, left: left, right: right}, nil
}

// encodeRSKIP107Node serializes a node given the encoding choice for each
// child. childrenSize must be childrenSizeNone exactly when both children
// are absent.
func encodeRSKIP107Node(n *trieNode, left, right childEncoding, childrenSize int64) ([]byte, error) {
	hasLongValue := n.hasLongValue()

	if (left.present || right.present) && childrenSize < 0 {
		return nil, ErrUnresolvedHash
	}

	flags := byte(versionFlag)
	if hasLongValue {
		flags |= longValueFlag
	}
	if len(n.sharedPath) > 0 {
		flags |= sharedPrefixFlag
	}
	if left.present {
		flags |= leftPresentFlag
	}
	if right.present {
		flags |= rightPresentFlag
	}
	if left.embedded {
		flags |= leftEmbeddedFlag
	}
	if right.embedded {
		flags |= rightEmbeddedFlag
	}

	encoded := make([]byte, 0, 1+pathSerializedLen(n.sharedPath))
	encoded = append(encoded, flags)
	encoded = appendPath(encoded, n.sharedPath)

	var err error
	if encoded, err = appendChildRef(encoded, left); err != nil {
		return nil, err
	}
	if encoded, err = appendChildRef(encoded, right); err != nil {
		return nil, err
	}

	if left.present || right.present {
		encoded = varint.Append(encoded, uint64(childrenSize))
	}

	if hasLongValue {
		hash, ok := n.value.valueHash()
		if !ok {
			return nil, ErrUnresolvedHash
		}
		length, known := n.value.valueLength()
		if !known {
			return nil, ErrUnresolvedHash
		}
		encoded = append(encoded, hash.Bytes()...)
		if encoded, err = appendUint24(encoded, length); err != nil {
			return nil, err
		}
	} else if len(n.value.inline) > 0 {
		encoded = append(encoded, n.value.inline...)
	}

	return encoded, nil
}

func decodeChildRef(payload []byte, offset *int, embedded bool) (nodeRef, error) {
	if !embedded {
		hash, err := readHash(payload, offset)
		if err != nil {
			return nodeRef{}, err
		}
		return hashedRef(hash), nil
	}

	if *offset >= len(payload) {
		return nodeRef{}, ErrDecodeTruncated
	}
	length := int(payload[*offset])
	*offset++

	end := *offset + length
	if end > len(payload) {
		return nodeRef{}, ErrDecodeTruncated
	}
	child, err := decodeRSKIP107Node(payload[*offset:end])
	if err != nil {
		return nodeRef{}, err
	}
	*offset = end
	return embeddedRef(child), nil
}

func appendChildRef(dst []byte, child childEncoding) ([]byte, error) {
	switch {
	case !child.present:
		return dst, nil
	case child.embedded:
		if len(child.serialized) > 0xff {
			return nil, ErrEmbeddedTooLarge
		}
		dst = append(dst, byte(len(child.serialized)))
		return append(dst, child.serialized...), nil
	default:
		return append(dst, child.hash.Bytes()...), nil
	}
}

func readHash(payload []byte, offset *int) (types.Hash, error) {
	end := *offset + types.HashLength
	if end > len(payload) {
		return types.Hash{}, ErrDecodeTruncated
	}
	hash := types.BytesToHash(payload[*offset:end])
	*offset = end
	return hash, nil
}

func readUint24(payload []byte, offset *int) (int, error) {
	end := *offset + 3
	if end > len(payload) {
		return 0, ErrDecodeTruncated
	}
	value := int(payload[*offset])<<16 | int(payload[*offset+1])<<8 | int(payload[*offset+2])
	*offset = end
	return value, nil
}

func appendUint24(dst []byte, value int) ([]byte, error) {
	if value < 0 || value > 0xffffff {
		return nil, ErrValueTooLarge
	}
	return append(dst, byte(value>>16), byte(value>>8), byte(value)), nil
}
