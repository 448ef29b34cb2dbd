// Package signature provides helper functions for handling the blockchain
// signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// HashLength is the length of a hex encoded hash including the 0x prefix.
const HashLength = 66

// addressVersion is the base58check version byte for addresses.
const addressVersion byte = 0

// =============================================================================

// Hash returns the 0x prefixed hex encoded SHA-256 digest of the data.
func Hash(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hexutil.Encode(hash[:])
}

// IsHash validates the value looks like a hash produced by Hash.
func IsHash(hash string) bool {
	if len(hash) != HashLength || !strings.HasPrefix(hash, "0x") {
		return false
	}

	_, err := hexutil.Decode(hash)
	return err == nil
}

// Sign uses the specified private key to sign the hash. The signature is
// returned hex encoded in the [R|S|V] format.
func Sign(hash string, privateKey *ecdsa.PrivateKey) (string, error) {
	digest, err := digestBytes(hash)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(sig), nil
}

// Verify checks the signature was produced for the hash by the private key
// behind the specified address.
func Verify(hash string, sig string, address string) bool {
	digest, err := digestBytes(hash)
	if err != nil {
		return false
	}

	sigBytes, err := hexutil.Decode(sig)
	if err != nil || len(sigBytes) != crypto.SignatureLength {
		return false
	}

	publicKey, err := AddressToPublicKey(address)
	if err != nil {
		return false
	}

	// The recovery id is not part of the verification.
	rs := sigBytes[:crypto.RecoveryIDOffset]

	return crypto.VerifySignature(crypto.CompressPubkey(publicKey), digest, rs)
}

// =============================================================================

// PublicKeyToAddress converts the public key to an address. The address is
// the base58check encoding of the compressed public key.
func PublicKeyToAddress(pk ecdsa.PublicKey) string {
	return base58.CheckEncode(crypto.CompressPubkey(&pk), addressVersion)
}

// AddressToPublicKey decodes the address back into the public key.
func AddressToPublicKey(address string) (*ecdsa.PublicKey, error) {
	data, version, err := base58.CheckDecode(address)
	if err != nil {
		return nil, err
	}

	if version != addressVersion {
		return nil, errors.New("invalid address version")
	}

	if len(data) != 33 {
		return nil, errors.New("invalid address length")
	}

	return crypto.DecompressPubkey(data)
}

// IsAddress verifies whether the value is a properly encoded address.
func IsAddress(address string) bool {
	_, err := AddressToPublicKey(address)
	return err == nil
}

// =============================================================================

// digestBytes converts a hash into the 32 bytes required for signing.
func digestBytes(hash string) ([]byte, error) {
	if !IsHash(hash) {
		return nil, errors.New("invalid hash format")
	}

	return hexutil.Decode(hash)
}
