// Package varint implements the variable-length integer encoding used by the
// unitrie wire formats: a single byte below 0xfd, or a 0xfd/0xfe/0xff marker
// followed by a 2/4/8-byte little-endian value.
package varint

import (
	"encoding/binary"
	"errors"
)

var ErrTruncated = errors.New("varint: truncated input")

// Size returns the encoded length in bytes of value.
func Size(value uint64) int {
	switch {
	case value < 0xfd:
		return 1
	case value <= 0xffff:
		return 3
	case value <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// Append appends the encoding of value to dst and returns the extended slice.
func Append(dst []byte, value uint64) []byte {
	switch {
	case value < 0xfd:
		return append(dst, byte(value))
	case value <= 0xffff:
		dst = append(dst, 0xfd)
		return binary.LittleEndian.AppendUint16(dst, uint16(value))
	case value <= 0xffffffff:
		dst = append(dst, 0xfe)
		return binary.LittleEndian.AppendUint32(dst, uint32(value))
	default:
		dst = append(dst, 0xff)
		return binary.LittleEndian.AppendUint64(dst, value)
	}
}

// Encode returns the encoding of value as a fresh slice.
func Encode(value uint64) []byte {
	return Append(make([]byte, 0, Size(value)), value)
}

// Decode reads a varint from the front of input. It returns the value and
// the number of bytes consumed.
func Decode(input []byte) (uint64, int, error) {
	if len(input) == 0 {
		return 0, 0, ErrTruncated
	}
	switch first := input[0]; first {
	case 0xfd:
		if len(input) < 3 {
			return 0, 0, ErrTruncated
		}
		return uint64(binary.LittleEndian.Uint16(input[1:3])), 3, nil
	case 0xfe:
		if len(input) < 5 {
			return 0, 0, ErrTruncated
		}
		return uint64(binary.LittleEndian.Uint32(input[1:5])), 5, nil
	case 0xff:
		if len(input) < 9 {
			return 0, 0, ErrTruncated
		}
		return binary.LittleEndian.Uint64(input[1:9]), 9, nil
	default:
		return uint64(first), 1, nil
	}
}
