package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// BIP-44 constants for Cosmos-SDK chains.
const (
	BIP44Purpose        uint32 = 44
	CosmosCoinType      uint32 = 118
	DefaultAccount      uint32 = 0
	ExternalChain       uint32 = 0
	DefaultAddressIndex uint32 = 0
)

const hardenedOffset = hdkeychain.HardenedKeyStart

// DerivationPath is a BIP-44 path m/purpose'/coin'/account'/change/index.
type DerivationPath struct {
	Purpose      uint32
	CoinType     uint32
	Account      uint32
	Change       uint32
	AddressIndex uint32
}

// DefaultDerivationPath returns m/44'/118'/0'/0/0.
func DefaultDerivationPath() DerivationPath {
	return DerivationPath{
		Purpose:      BIP44Purpose,
		CoinType:     CosmosCoinType,
		Account:      DefaultAccount,
		Change:       ExternalChain,
		AddressIndex: DefaultAddressIndex,
	}
}

// ParseDerivationPath parses "m/44'/118'/0'/0/0". The first three levels
// must be hardened, the last two must not.
func ParseDerivationPath(path string) (DerivationPath, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) != 6 || parts[0] != "m" {
		return DerivationPath{}, fmt.Errorf("invalid derivation path %q", path)
	}

	var values [5]uint32
	for i, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened != (i < 3) {
			return DerivationPath{}, fmt.Errorf("invalid derivation path %q: level %d hardening", path, i+1)
		}

		n, err := strconv.ParseUint(strings.TrimRight(part, "'h"), 10, 31)
		if err != nil {
			return DerivationPath{}, fmt.Errorf("invalid derivation path %q: %w", path, err)
		}
		values[i] = uint32(n)
	}

	return DerivationPath{
		Purpose:      values[0],
		CoinType:     values[1],
		Account:      values[2],
		Change:       values[3],
		AddressIndex: values[4],
	}, nil
}

func (p DerivationPath) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", p.Purpose, p.CoinType, p.Account, p.Change, p.AddressIndex)
}

// Indexes returns the child indexes for hdkeychain, hardened where required.
func (p DerivationPath) Indexes() []uint32 {
	return []uint32{
		p.Purpose + hardenedOffset,
		p.CoinType + hardenedOffset,
		p.Account + hardenedOffset,
		p.Change,
		p.AddressIndex,
	}
}
