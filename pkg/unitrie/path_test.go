package unitrie

import (
	"bytes"
	"testing"
)

func TestPackBitsRoundTrip(t *testing.T) {
	paths := [][]byte{
		{},
		{1},
		{1, 0, 1, 1, 0, 0, 1, 0, 1},
		{0, 0, 0, 0, 0, 0, 0, 0},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	}
	for _, path := range paths {
		packed := packBits(path)
		if len(packed) != packedLen(len(path)) {
			t.Fatalf("len(packBits(%v)) = %d, want %d", path, len(packed), packedLen(len(path)))
		}
		unpacked := unpackBits(packed, len(path))
		if !bytes.Equal(unpacked, path) {
			t.Fatalf("unpackBits(packBits(%v)) = %v", path, unpacked)
		}
	}
}

func TestPackBitsIsMSBFirst(t *testing.T) {
	packed := packBits([]byte{1, 0, 1})
	if len(packed) != 1 || packed[0] != 0xa0 {
		t.Fatalf("packBits(101) = %x, want a0", packed)
	}
}

func TestKeyToBitsExpandsWholeBytes(t *testing.T) {
	bits := keyToBits([]byte{0x6b}) // 0110 1011
	want := []byte{0, 1, 1, 0, 1, 0, 1, 1}
	if !bytes.Equal(bits, want) {
		t.Fatalf("keyToBits(6b) = %v, want %v", bits, want)
	}
}

func TestAppendPathCompactHeaderShort(t *testing.T) {
	// Lengths 1..32 encode as length-1 in a single byte.
	path := bytes.Repeat([]byte{1}, 8)
	encoded := appendPath(nil, path)
	if encoded[0] != 7 {
		t.Fatalf("header = %d, want 7", encoded[0])
	}
	offset := 0
	length, err := readPathBitLength(encoded, &offset)
	if err != nil || length != 8 {
		t.Fatalf("readPathBitLength = (%d, %v), want (8, nil)", length, err)
	}
}

func TestAppendPathCompactHeaderHighRange(t *testing.T) {
	// Lengths 160..382 encode as length-128 in a single byte.
	for _, bitLength := range []int{160, 254, 382} {
		path := bytes.Repeat([]byte{0}, bitLength)
		encoded := appendPath(nil, path)
		if int(encoded[0])+128 != bitLength {
			t.Fatalf("header for %d bits = %d", bitLength, encoded[0])
		}
		offset := 0
		length, err := readPathBitLength(encoded, &offset)
		if err != nil || length != bitLength {
			t.Fatalf("readPathBitLength = (%d, %v), want (%d, nil)", length, err, bitLength)
		}
	}
}

func TestAppendPathVarintEscapeForGapLengths(t *testing.T) {
	// 33..159 and 383+ fall outside both compact ranges.
	for _, bitLength := range []int{33, 120, 159, 383, 1000} {
		path := bytes.Repeat([]byte{1}, bitLength)
		encoded := appendPath(nil, path)
		if encoded[0] != 0xff {
			t.Fatalf("header for %d bits = %x, want ff", bitLength, encoded[0])
		}
		offset := 0
		length, err := readPathBitLength(encoded, &offset)
		if err != nil || length != bitLength {
			t.Fatalf("readPathBitLength = (%d, %v), want (%d, nil)", length, err, bitLength)
		}
	}
}

func TestPathSerializedLenMatchesOutput(t *testing.T) {
	for _, bitLength := range []int{0, 1, 8, 32, 33, 159, 160, 382, 383} {
		path := bytes.Repeat([]byte{1}, bitLength)
		encoded := appendPath(nil, path)
		if len(encoded) != pathSerializedLen(path) {
			t.Fatalf("pathSerializedLen(%d bits) = %d, encoded %d", bitLength, pathSerializedLen(path), len(encoded))
		}
	}
}

func TestReadPathAbsent(t *testing.T) {
	offset := 0
	bits, err := readPath(nil, &offset, false)
	if err != nil || len(bits) != 0 || offset != 0 {
		t.Fatalf("readPath(absent) = (%v, %v), offset %d", bits, err, offset)
	}
}

func TestReadPathTruncated(t *testing.T) {
	// Header promises 16 bits but only one payload byte follows.
	payload := []byte{15, 0xaa}
	offset := 0
	if _, err := readPath(payload, &offset, true); err != ErrDecodeTruncated {
		t.Fatalf("err = %v, want ErrDecodeTruncated", err)
	}
}
