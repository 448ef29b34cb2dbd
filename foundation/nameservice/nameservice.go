// Package nameservice reads a folder of private key files and creates a name
// service lookup for the addresses those keys own.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// keyExt is the extension of the private key files.
const keyExt = ".ecdsa"

// NameService maintains a map of addresses for name lookup.
type NameService struct {
	names     map[string]string
	addresses map[string]string
}

// New constructs a name service with the addresses of the key files found
// under the root folder. The name is the file name without its extension.
func New(root string) (*NameService, error) {
	ns := NameService{
		names:     make(map[string]string),
		addresses: make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != keyExt {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}

		address := signature.PublicKeyToAddress(privateKey.PublicKey)
		name := strings.TrimSuffix(filepath.Base(fileName), keyExt)

		ns.names[address] = name
		ns.addresses[name] = address

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address. An unknown address is
// returned as is.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.names[address]
	if !exists {
		return address
	}
	return name
}

// Address resolves a name to its address. A value that is already an
// address is returned as is.
func (ns *NameService) Address(name string) (string, error) {
	if address, exists := ns.addresses[name]; exists {
		return address, nil
	}

	if signature.IsAddress(name) {
		return name, nil
	}

	return "", fmt.Errorf("unknown name or address %q", name)
}

// Copy returns a copy of the map of addresses and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.names))
	for address, name := range ns.names {
		cpy[address] = name
	}
	return cpy
}
