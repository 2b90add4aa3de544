// Package wallet derives the sender's signing identity from a BIP-39
// recovery phrase.
package wallet

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // address format requires RIPEMD-160

	"github.com/iho/gosend/internal/domain"
)

// Provider implements usecase.IdentityProvider.
type Provider struct {
	path DerivationPath
}

// NewProvider creates a Provider deriving the default Cosmos account
// m/44'/118'/0'/0/0.
func NewProvider() *Provider {
	return &Provider{path: DefaultDerivationPath()}
}

// NewProviderWithPath creates a Provider using a custom derivation path.
func NewProviderWithPath(path DerivationPath) *Provider {
	return &Provider{path: path}
}

// DeriveIdentity derives the secp256k1 key at the provider's path and its
// bech32 address under prefix.
func (p *Provider) DeriveIdentity(ctx context.Context, phrase, prefix string) (*domain.SenderIdentity, error) {
	phrase = strings.Join(strings.Fields(phrase), " ")
	if phrase == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrDerivation, domain.ErrNoSecret)
	}

	seed, err := bip39.NewSeedWithErrorChecking(phrase, "")
	if err != nil {
		return nil, fmt.Errorf("%w: mnemonic: %v", domain.ErrDerivation, err)
	}

	// The network params only select the extended key version bytes.
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: master key: %v", domain.ErrDerivation, err)
	}

	for _, index := range p.path.Indexes() {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("%w: derive %s: %v", domain.ErrDerivation, p.path, err)
		}
	}

	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", domain.ErrDerivation, err)
	}

	signer := &secp256k1Signer{key: privKey}

	addr, err := domain.NewAddress(prefix, hash160(signer.PubKey()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDerivation, err)
	}

	return &domain.SenderIdentity{Signer: signer, Address: addr}, nil
}

// secp256k1Signer keeps the private key unexported; callers only get
// signatures and the public key.
type secp256k1Signer struct {
	key *btcec.PrivateKey
}

func (s *secp256k1Signer) PubKey() []byte {
	return s.key.PubKey().SerializeCompressed()
}

// Sign returns the 64-byte r||s signature of sha256(msg), with low S.
func (s *secp256k1Signer) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)

	// header byte + r + s
	compact := ecdsa.SignCompact(s.key, digest[:], true)
	if len(compact) != 65 {
		return nil, fmt.Errorf("unexpected compact signature length %d", len(compact))
	}

	return compact[1:], nil
}

func hash160(pubKey []byte) []byte {
	sha := sha256.Sum256(pubKey)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}
