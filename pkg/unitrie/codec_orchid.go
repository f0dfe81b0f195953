package unitrie

import (
	"encoding/binary"

	"github.com/fedejinich/unitrie-go/pkg/core/types"
)

// Orchid wire form: the pre-RSKIP107 encoding with a fixed six-byte header.
// It survives only to read externally produced historic state; all new
// writes use the RSKIP107 form. Orchid encodings never embed children.
const (
	orchidArity        = 2
	orchidHeaderLength = 6

	orchidSecureFlag    = 0x01
	orchidLongValueFlag = 0x02

	orchidLeftPresentBit  = 0b01
	orchidRightPresentBit = 0b10
)

// isOrchidPayload reports whether payload starts with the orchid arity
// marker.
func isOrchidPayload(payload []byte) bool {
	return len(payload) > 0 && payload[0] == orchidArity
}

// decodeOrchidNode parses a fixed-header node encoding. The secure flag is
// informational and does not affect the decoded node.
func decodeOrchidNode(payload []byte) (*trieNode, error) {
	if len(payload) < orchidHeaderLength {
		return nil, ErrDecodeTruncated
	}

	offset := 0
	if payload[offset] != orchidArity {
		return nil, ErrDecodeInvalidHeader
	}
	offset++

	flags := payload[offset]
	offset++
	hasLongValue := flags&orchidLongValueFlag != 0

	bhashes := binary.BigEndian.Uint16(payload[offset : offset+2])
	offset += 2
	sharedPathBitLength := int(binary.BigEndian.Uint16(payload[offset : offset+2]))
	offset += 2

	var sharedPath []byte
	if encodedLength := packedLen(sharedPathBitLength); encodedLength > 0 {
		end := offset + encodedLength
		if end > len(payload) {
			return nil, ErrDecodeTruncated
		}
		sharedPath = unpackBits(payload[offset:end], sharedPathBitLength)
		offset = end
	}

	left := emptyRef()
	if bhashes&orchidLeftPresentBit != 0 {
		hash, err := readHash(payload, &offset)
		if err != nil {
			return nil, err
		}
		left = hashedRef(hash)
	}
	right := emptyRef()
	if bhashes&orchidRightPresentBit != 0 {
		hash, err := readHash(payload, &offset)
		if err != nil {
			return nil, err
		}
		right = hashedRef(hash)
	}

	var value valueRef
	switch {
	case hasLongValue:
		hash, err := readHash(payload, &offset)
		if err != nil {
			return nil, err
		}
		value = hashedValue(hash, lengthUnknown)
	case offset < len(payload):
		inline := make([]byte, len(payload)-offset)
		copy(inline, payload[offset:])
		value = inlineValue(inline)
	default:
		value = emptyValue()
	}

	return &trieNode{sharedPath: sharedPath, value: value, left: left, right: right}, nil
}

// encodeOrchidNode serializes a node in the historic form. Child hashes are
// passed explicitly (nil for an absent child) because orchid never embeds.
// secure is carried as an informational flag bit only.
func encodeOrchidNode(n *trieNode, leftHash, rightHash *types.Hash, secure bool) ([]byte, error) {
	hasLongValue := n.hasLongValue()

	var flags byte
	if secure {
		flags |= orchidSecureFlag
	}
	if hasLongValue {
		flags |= orchidLongValueFlag
	}

	var bhashes uint16
	if leftHash != nil {
		bhashes |= orchidLeftPresentBit
	}
	if rightHash != nil {
		bhashes |= orchidRightPresentBit
	}

	sharedPathLength := len(n.sharedPath)
	if sharedPathLength > 0xffff {
		return nil, ErrValueTooLarge
	}

	encoded := make([]byte, 0, orchidHeaderLength+packedLen(sharedPathLength))
	encoded = append(encoded, orchidArity, flags)
	encoded = binary.BigEndian.AppendUint16(encoded, bhashes)
	encoded = binary.BigEndian.AppendUint16(encoded, uint16(sharedPathLength))
	if sharedPathLength > 0 {
		encoded = append(encoded, packBits(n.sharedPath)...)
	}

	if leftHash != nil {
		encoded = append(encoded, leftHash.Bytes()...)
	}
	if rightHash != nil {
		encoded = append(encoded, rightHash.Bytes()...)
	}

	if hasLongValue {
		hash, ok := n.value.valueHash()
		if !ok {
			return nil, ErrUnresolvedHash
		}
		encoded = append(encoded, hash.Bytes()...)
	} else if len(n.value.inline) > 0 {
		encoded = append(encoded, n.value.inline...)
	}

	return encoded, nil
}

// decodePersistedNode dispatches a raw store payload to the matching codec:
// first byte 2 is orchid, version bits 01 are RSKIP107, anything else is a
// decode failure.
func decodePersistedNode(payload []byte) (*trieNode, error) {
	if isOrchidPayload(payload) {
		return decodeOrchidNode(payload)
	}
	return decodeRSKIP107Node(payload)
}
