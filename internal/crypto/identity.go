// Package crypto provides the wallet stand-in: secp256k1 signing and
// recovery of caller addresses for authenticated marketplace requests.
package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AuthMessage builds the canonical message a caller signs to authenticate a
// request. The timestamp bounds replayability; the server rejects stale
// ones.
func AuthMessage(timestamp int64) string {
	return "tunemarket:" + strconv.FormatInt(timestamp, 10)
}

// hashMessage applies the EIP-191 personal-message envelope before hashing,
// matching what browser wallets produce with personal_sign.
func hashMessage(message string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return ethcrypto.Keccak256([]byte(prefixed))
}

// RecoverAddress recovers the signer address from a personal_sign signature
// over message. sigHex is the 65-byte r||s||v signature in hex, with or
// without a 0x prefix; v may be 0/1 or the legacy 27/28.
func RecoverAddress(message, sigHex string) (common.Address, error) {
	sig, err := hexutil.Decode(ensureHexPrefix(sigHex))
	if err != nil {
		return common.Address{}, fmt.Errorf("crypto: decode signature: %w", err)
	}
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("crypto: signature must be 65 bytes, got %d", len(sig))
	}

	// Normalise the recovery id.
	if sig[64] >= 27 {
		sig = append(append([]byte{}, sig[:64]...), sig[64]-27)
	}
	if sig[64] > 1 {
		return common.Address{}, fmt.Errorf("crypto: invalid recovery id %d", sig[64])
	}

	pub, err := ethcrypto.SigToPub(hashMessage(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("crypto: recover public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}

// Signer signs authentication messages with a secp256k1 private key. Used
// by clients and tests; the server itself never holds keys.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewSigner creates a Signer from a hex-encoded secp256k1 private key.
func NewSigner(privateKeyHex string) (*Signer, error) {
	keyHex := strings.TrimPrefix(privateKeyHex, "0x")
	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid private key: %w", err)
	}
	return &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
	}, nil
}

// Address returns the address derived from the signer's private key.
func (s *Signer) Address() common.Address {
	return s.address
}

// Sign produces a personal_sign-compatible hex signature over message, with
// the legacy 27/28 recovery id browser wallets emit.
func (s *Signer) Sign(message string) (string, error) {
	sig, err := ethcrypto.Sign(hashMessage(message), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("crypto: sign: %w", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

func ensureHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}
