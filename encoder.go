package cowbloom

import "encoding/binary"

// Encoder appends the canonical byte representation of elem to dst and
// returns the extended slice.
//
// The bytes must depend only on the element's value: the same element must
// encode identically on every call, otherwise the filter can report false
// negatives.
type Encoder[T any] func(dst []byte, elem T) []byte

// BytesEncoder encodes a byte slice as itself.
func BytesEncoder(dst []byte, elem []byte) []byte {
	return append(dst, elem...)
}

// StringEncoder encodes a string as its UTF-8 bytes.
func StringEncoder(dst []byte, elem string) []byte {
	return append(dst, elem...)
}

// Uint64Encoder encodes a uint64 as 8 little-endian bytes.
func Uint64Encoder(dst []byte, elem uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, elem)
}

// Int64Encoder encodes an int64 as 8 little-endian bytes (two's complement).
func Int64Encoder(dst []byte, elem int64) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(elem))
}
