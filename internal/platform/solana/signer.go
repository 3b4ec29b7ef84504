package solana

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	"memetrader/internal/domain"
)

// Keypair is an ed25519 wallet key implementing the Signer contract.
type Keypair struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// ParseKeypair accepts the private-key formats wallets commonly export:
// a base58 string, a JSON byte array, a hex string (with or without 0x),
// or comma-separated bytes. All must decode to the 64-byte ed25519 form.
func ParseKeypair(privateKey string) (*Keypair, error) {
	trimmed := strings.TrimSpace(privateKey)

	if raw, err := base58.Decode(trimmed); err == nil && len(raw) == ed25519.PrivateKeySize {
		return newKeypair(raw)
	}

	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		var bytes []byte
		if err := json.Unmarshal([]byte(trimmed), &bytes); err == nil && len(bytes) == ed25519.PrivateKeySize {
			return newKeypair(bytes)
		}
	}

	hexStr := strings.TrimPrefix(trimmed, "0x")
	if len(hexStr) == 2*ed25519.PrivateKeySize {
		if raw, err := hex.DecodeString(hexStr); err == nil {
			return newKeypair(raw)
		}
	}

	if strings.Contains(trimmed, ",") {
		parts := strings.Split(trimmed, ",")
		raw := make([]byte, 0, len(parts))
		ok := true
		for _, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				ok = false
				break
			}
			raw = append(raw, byte(n))
		}
		if ok && len(raw) == ed25519.PrivateKeySize {
			return newKeypair(raw)
		}
	}

	return nil, fmt.Errorf("solana: unrecognized private key format (%d chars); expected base58, JSON array, hex, or comma-separated bytes", len(trimmed))
}

func newKeypair(raw []byte) (*Keypair, error) {
	priv := ed25519.PrivateKey(raw)
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("solana: invalid ed25519 private key")
	}
	return &Keypair{
		priv:   priv,
		pubkey: base58.Encode(pub),
	}, nil
}

// PublicKey returns the wallet address in base58.
func (k *Keypair) PublicKey() string {
	return k.pubkey
}

// Resign stamps the given blockhash into the transaction's message and writes
// a fresh signature into the fee payer's slot. Venues return transactions
// with placeholder signatures; every broadcast retry must re-sign against a
// new blockhash because a stale one is guaranteed to be rejected.
func (k *Keypair) Resign(tx []byte, blockhash string) ([]byte, error) {
	hash, err := base58.Decode(blockhash)
	if err != nil {
		return nil, &domain.SigningError{Err: fmt.Errorf("decode blockhash: %w", err)}
	}
	if len(hash) != blockhashLen {
		return nil, &domain.SigningError{Err: fmt.Errorf("blockhash is %d bytes, want %d", len(hash), blockhashLen)}
	}

	_, msgStart, err := splitTransaction(tx)
	if err != nil {
		return nil, &domain.SigningError{Err: err}
	}

	out := make([]byte, len(tx))
	copy(out, tx)
	msg := out[msgStart:]

	off, err := blockhashOffset(msg)
	if err != nil {
		return nil, &domain.SigningError{Err: err}
	}
	copy(msg[off:off+blockhashLen], hash)

	// The fee payer is the first required signer, so its signature occupies
	// the first slot, right after the compact-u16 count.
	sig := ed25519.Sign(k.priv, msg)
	_, prefix, _ := decodeCompactU16(out)
	copy(out[prefix:prefix+signatureLen], sig)

	return out, nil
}
