package solana

import (
	"fmt"
)

// Transaction wire-format helpers. A serialized transaction is a compact-u16
// signature count, the signatures (64 bytes each), and the message. The
// message starts with an optional version byte (high bit set), a 3-byte
// header, a compact-u16 array of 32-byte account keys, and then the 32-byte
// recent blockhash.

const (
	signatureLen = 64
	accountLen   = 32
	blockhashLen = 32
)

// decodeCompactU16 reads a compact-u16 (shortvec) value and returns it with
// the number of bytes consumed.
func decodeCompactU16(data []byte) (int, int, error) {
	var value, shift int
	for i := 0; i < 3; i++ {
		if i >= len(data) {
			return 0, 0, fmt.Errorf("truncated compact-u16")
		}
		b := int(data[i])
		value |= (b & 0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("compact-u16 too long")
}

// splitTransaction separates the signature section from the message and
// returns (signature count, message offset).
func splitTransaction(tx []byte) (int, int, error) {
	numSigs, prefix, err := decodeCompactU16(tx)
	if err != nil {
		return 0, 0, fmt.Errorf("signature count: %w", err)
	}
	if numSigs == 0 {
		return 0, 0, fmt.Errorf("transaction carries no signature slots")
	}
	msgStart := prefix + numSigs*signatureLen
	if msgStart >= len(tx) {
		return 0, 0, fmt.Errorf("transaction shorter than its signature section")
	}
	return numSigs, msgStart, nil
}

// blockhashOffset locates the recent-blockhash field within a message,
// handling both legacy and versioned (v0) encodings.
func blockhashOffset(msg []byte) (int, error) {
	off := 0
	if len(msg) > 0 && msg[0]&0x80 != 0 {
		off = 1 // versioned message prefix
	}
	off += 3 // header: required sigs, readonly signed, readonly unsigned
	if off > len(msg) {
		return 0, fmt.Errorf("truncated message header")
	}

	numKeys, n, err := decodeCompactU16(msg[off:])
	if err != nil {
		return 0, fmt.Errorf("account key count: %w", err)
	}
	off += n + numKeys*accountLen
	if off+blockhashLen > len(msg) {
		return 0, fmt.Errorf("message shorter than its account table")
	}
	return off, nil
}
