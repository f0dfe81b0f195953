package unitrie

import (
	"github.com/fedejinich/unitrie-go/pkg/varint"
)

// Bit paths are sequences of 0/1 bytes walked MSB-first: a byte key of
// length L expands to 8*L bits, and packing reverses the expansion. The
// serialized form of a non-empty path is a compact length header followed
// by the packed bits:
//
//	bit length 1..32    -> one byte, length-1
//	bit length 160..382 -> one byte, length-128
//	otherwise           -> 0xff, then a varint of the length

// packedLen returns the number of bytes needed to pack bitLength bits.
func packedLen(bitLength int) int {
	return (bitLength + 7) / 8
}

// packBits packs 0/1 bits MSB-first into bytes. Unused trailing bits in the
// final byte are zero.
func packBits(bits []byte) []byte {
	packed := make([]byte, packedLen(len(bits)))
	for i, bit := range bits {
		if bit == 0 {
			continue
		}
		packed[i/8] |= 0x80 >> (i % 8)
	}
	return packed
}

// unpackBits expands bitLength bits from their MSB-first packed form.
func unpackBits(packed []byte, bitLength int) []byte {
	bits := make([]byte, bitLength)
	for i := range bits {
		if (packed[i/8]>>(7-i%8))&1 != 0 {
			bits[i] = 1
		}
	}
	return bits
}

// keyToBits expands a byte key into its MSB-first bit sequence.
func keyToBits(key []byte) []byte {
	return unpackBits(key, len(key)*8)
}

// pathHeaderLen returns the serialized length of the path length header.
func pathHeaderLen(bitLength int) int {
	if (bitLength >= 1 && bitLength <= 32) || (bitLength >= 160 && bitLength <= 382) {
		return 1
	}
	return 1 + varint.Size(uint64(bitLength))
}

// pathSerializedLen returns the total serialized length of a path: header
// plus packed bits. A zero-length path serializes to nothing.
func pathSerializedLen(bits []byte) int {
	if len(bits) == 0 {
		return 0
	}
	return pathHeaderLen(len(bits)) + packedLen(len(bits))
}

// appendPath appends the header and packed bits of a non-empty path to dst.
// Empty paths append nothing; their absence is signaled by the node flags.
func appendPath(dst []byte, bits []byte) []byte {
	if len(bits) == 0 {
		return dst
	}
	bitLength := len(bits)
	switch {
	case bitLength >= 1 && bitLength <= 32:
		dst = append(dst, byte(bitLength-1))
	case bitLength >= 160 && bitLength <= 382:
		dst = append(dst, byte(bitLength-128))
	default:
		dst = append(dst, 0xff)
		dst = varint.Append(dst, uint64(bitLength))
	}
	return append(dst, packBits(bits)...)
}

// readPathBitLength consumes a path length header from payload[*offset:].
func readPathBitLength(payload []byte, offset *int) (int, error) {
	if *offset >= len(payload) {
		return 0, ErrDecodeTruncated
	}
	first := payload[*offset]
	*offset++

	switch {
	case first <= 31:
		return int(first) + 1, nil
	case first <= 254:
		return int(first) + 128, nil
	default:
		length, n, err := varint.Decode(payload[*offset:])
		if err != nil {
			return 0, ErrDecodeTruncated
		}
		*offset += n
		return int(length), nil
	}
}

// readPath consumes a serialized shared path when the node flags announced
// one; otherwise it returns an empty path without consuming input.
func readPath(payload []byte, offset *int, present bool) ([]byte, error) {
	if !present {
		return nil, nil
	}
	bitLength, err := readPathBitLength(payload, offset)
	if err != nil {
		return nil, err
	}
	end := *offset + packedLen(bitLength)
	if end > len(payload) {
		return nil, ErrDecodeTruncated
	}
	bits := unpackBits(payload[*offset:end], bitLength)
	*offset = end
	return bits, nil
}
