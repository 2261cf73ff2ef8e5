// Package wire holds the byte-level helpers shared by the value codec and the
// fixed-size log records: big-endian integers, zigzag, nibble packing and
// float tail truncation.
package wire

import (
	"encoding/binary"
	"math/bits"
)

// ZigZag maps a signed integer onto an unsigned one so that small magnitudes
// of either sign stay small
func ZigZag(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63)
}

// UnZigZag is the inverse of ZigZag
func UnZigZag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// Pack joins a high and a low nibble into one byte. Only the low four bits of
// each argument are used.
func Pack(high, low byte) byte {
	return high<<4 | low&0x0f
}

// Unpack splits a byte into its high and low nibbles
func Unpack(b byte) (high, low byte) {
	return b >> 4, b & 0x0f
}

// TrailingZeroBytes counts zero bytes at the least significant end of the
// big-endian form of v. An all-zero pattern has 8.
func TrailingZeroBytes(v uint64) int {
	return bits.TrailingZeros64(v) / 8
}

// AppendFloatBits appends the leading non-zero bytes of the big-endian form of
// bits and reports how many were written.
func AppendFloatBits(b []byte, v uint64) ([]byte, int) {
	n := 8 - TrailingZeroBytes(v)
	var full [8]byte
	binary.BigEndian.PutUint64(full[:], v)
	return append(b, full[:n]...), n
}

// FloatBits re-pads a truncated float payload with zero bytes. Payloads longer
// than 8 bytes are rejected.
func FloatBits(p []byte) (uint64, bool) {
	if len(p) > 8 {
		return 0, false
	}
	var full [8]byte
	copy(full[:], p)
	return binary.BigEndian.Uint64(full[:]), true
}

// AppendUint16 appends v in big-endian order
func AppendUint16(b []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(b, v)
}

// AppendUint32 appends v in big-endian order
func AppendUint32(b []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(b, v)
}

// AppendUint64 appends v in big-endian order
func AppendUint64(b []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(b, v)
}
