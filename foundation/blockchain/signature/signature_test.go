package signature_test

import (
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey      = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	otherPKHexKey = "aed31b6b5a5ac4e7d1ab1e3c0b3e3c3b0c4f0ad2bd1cd6b49d2ef7b4ab5aa0c1"
)

// =============================================================================

func Test_Hash(t *testing.T) {
	hash := "0xba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	h := signature.Hash("abc")
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	h = signature.Hash("abc")
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the same hash twice.")
	}

	if !signature.IsHash(h) {
		t.Fatalf("Should recognize a hash produced by Hash.")
	}

	if signature.IsHash("0x1234") || signature.IsHash(signature.ZeroHash[2:]) {
		t.Fatalf("Should reject malformed hashes.")
	}
}

func Test_Signing(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	address := signature.PublicKeyToAddress(pk.PublicKey)
	if !signature.IsAddress(address) {
		t.Fatalf("Should produce a valid address: %s", address)
	}

	hash := signature.Hash("Bill")

	sig, err := signature.Sign(hash, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if !signature.Verify(hash, sig, address) {
		t.Fatalf("Should be able to verify the signature.")
	}

	if signature.Verify(signature.Hash("Jill"), sig, address) {
		t.Fatalf("Should not verify the signature for different data.")
	}

	other, err := crypto.HexToECDSA(otherPKHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	if signature.Verify(hash, sig, signature.PublicKeyToAddress(other.PublicKey)) {
		t.Fatalf("Should not verify the signature against another address.")
	}

	if signature.Verify(hash, "0xdeadbeef", address) {
		t.Fatalf("Should not verify a malformed signature.")
	}
}

func Test_Address(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	address := signature.PublicKeyToAddress(pk.PublicKey)

	publicKey, err := signature.AddressToPublicKey(address)
	if err != nil {
		t.Fatalf("Should be able to decode the address: %s", err)
	}

	if !publicKey.Equal(&pk.PublicKey) {
		t.Fatalf("Should get back the same public key.")
	}

	for _, bad := range []string{"", "root", "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4", address[:len(address)-1]} {
		if signature.IsAddress(bad) {
			t.Fatalf("Should reject %q as an address.", bad)
		}
	}
}
