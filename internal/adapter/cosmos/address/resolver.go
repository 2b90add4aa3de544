// Package address resolves user-typed bech32 addresses.
package address

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/iho/gosend/internal/domain"
)

// Accepted payload lengths: 20 bytes for key accounts, 32 for module and
// contract accounts.
const (
	accountPayloadLen  = 20
	contractPayloadLen = 32
)

// Resolver validates bech32 addresses of a single human-readable prefix.
type Resolver struct {
	prefix string
}

// NewResolver creates a Resolver for the given prefix, e.g. "osmo".
func NewResolver(prefix string) *Resolver {
	return &Resolver{prefix: strings.ToLower(prefix)}
}

// Resolve checks the bech32 checksum, prefix and payload length of text and
// returns its canonical lowercase form.
func (r *Resolver) Resolve(text string) (domain.Address, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Address{}, fmt.Errorf("%w: empty address", domain.ErrInvalidAddress)
	}

	hrp, payload, err := bech32.DecodeToBase256(text)
	if err != nil {
		return domain.Address{}, fmt.Errorf("%w: %q: %v", domain.ErrInvalidAddress, text, err)
	}

	if hrp != r.prefix {
		return domain.Address{}, fmt.Errorf("%w: %q has prefix %q, want %q", domain.ErrInvalidAddress, text, hrp, r.prefix)
	}

	if len(payload) != accountPayloadLen && len(payload) != contractPayloadLen {
		return domain.Address{}, fmt.Errorf("%w: %q has a %d byte payload", domain.ErrInvalidAddress, text, len(payload))
	}

	return domain.NewAddress(hrp, payload)
}
