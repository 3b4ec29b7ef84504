package solana

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyBytes(t *testing.T) []byte {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return ed25519.NewKeyFromSeed(seed)
}

func TestParseKeypairFormats(t *testing.T) {
	raw := testKeyBytes(t)

	var csv strings.Builder
	for i, b := range raw {
		if i > 0 {
			csv.WriteString(",")
		}
		fmt.Fprintf(&csv, "%d", b)
	}

	cases := map[string]string{
		"base58":     base58.Encode(raw),
		"json array": "[" + csv.String() + "]",
		"hex":        hex.EncodeToString(raw),
		"0x hex":     "0x" + hex.EncodeToString(raw),
		"csv bytes":  csv.String(),
	}

	var pubkeys []string
	for name, input := range cases {
		kp, err := ParseKeypair(input)
		require.NoError(t, err, name)
		pubkeys = append(pubkeys, kp.PublicKey())
	}
	for _, pk := range pubkeys {
		assert.Equal(t, pubkeys[0], pk, "all formats must yield the same wallet")
	}
}

func TestParseKeypairRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "not-a-key", "[1,2,3]", "0xdeadbeef"} {
		_, err := ParseKeypair(input)
		assert.Error(t, err, "input %q", input)
	}
}

// buildLegacyTx assembles a minimal serialized transaction: one empty
// signature slot, a legacy message with numKeys accounts, a blockhash, and no
// instructions.
func buildLegacyTx(numKeys int, blockhash []byte) []byte {
	tx := []byte{1}                              // one signature slot
	tx = append(tx, make([]byte, signatureLen)...) // placeholder signature
	msg := []byte{1, 0, byte(numKeys - 1)}       // header
	msg = append(msg, byte(numKeys))             // compact-u16 key count (small)
	msg = append(msg, make([]byte, numKeys*accountLen)...)
	msg = append(msg, blockhash...)
	msg = append(msg, 0) // no instructions
	return append(tx, msg...)
}

func TestResignReplacesBlockhashAndSigns(t *testing.T) {
	kp, err := ParseKeypair(base58.Encode(testKeyBytes(t)))
	require.NoError(t, err)

	oldHash := make([]byte, blockhashLen)
	tx := buildLegacyTx(3, oldHash)

	newHash := make([]byte, blockhashLen)
	for i := range newHash {
		newHash[i] = byte(255 - i)
	}
	signed, err := kp.Resign(tx, base58.Encode(newHash))
	require.NoError(t, err)
	require.Len(t, signed, len(tx), "resigning must not change the layout")

	msgStart := 1 + signatureLen
	msg := signed[msgStart:]
	off, err := blockhashOffset(msg)
	require.NoError(t, err)
	assert.Equal(t, newHash, msg[off:off+blockhashLen])

	pub, err := base58.Decode(kp.PublicKey())
	require.NoError(t, err)
	sig := signed[1 : 1+signatureLen]
	assert.True(t, ed25519.Verify(ed25519.PublicKey(pub), msg, sig))

	// The original buffer stays untouched.
	assert.Equal(t, oldHash, tx[msgStart+off:msgStart+off+blockhashLen])
}

func TestResignVersionedMessage(t *testing.T) {
	kp, err := ParseKeypair(base58.Encode(testKeyBytes(t)))
	require.NoError(t, err)

	hash := make([]byte, blockhashLen)
	tx := []byte{1}
	tx = append(tx, make([]byte, signatureLen)...)
	msg := []byte{0x80, 1, 0, 1} // v0 prefix + header
	msg = append(msg, 2)         // two account keys
	msg = append(msg, make([]byte, 2*accountLen)...)
	msg = append(msg, hash...)
	msg = append(msg, 0, 0) // no instructions, no address table lookups
	tx = append(tx, msg...)

	next := make([]byte, blockhashLen)
	next[0] = 7
	signed, err := kp.Resign(tx, base58.Encode(next))
	require.NoError(t, err)

	off, err := blockhashOffset(signed[1+signatureLen:])
	require.NoError(t, err)
	assert.Equal(t, byte(7), signed[1+signatureLen+off])
}

func TestResignRejectsBadInput(t *testing.T) {
	kp, err := ParseKeypair(base58.Encode(testKeyBytes(t)))
	require.NoError(t, err)

	goodHash := base58.Encode(make([]byte, blockhashLen))

	_, err = kp.Resign([]byte{0}, goodHash)
	assert.Error(t, err, "zero signature slots")

	_, err = kp.Resign(buildLegacyTx(2, make([]byte, blockhashLen)), "!!!not-base58!!!")
	assert.Error(t, err, "bad blockhash")

	_, err = kp.Resign([]byte{1, 2, 3}, goodHash)
	assert.Error(t, err, "truncated transaction")
}
