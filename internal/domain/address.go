package domain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Address is a validated bech32 ledger address. The zero value is not a
// valid address. Addresses are comparable with ==.
type Address struct {
	prefix  string
	payload string
	text    string
}

// NewAddress encodes payload under the given human-readable prefix.
func NewAddress(prefix string, payload []byte) (Address, error) {
	if prefix == "" || len(payload) == 0 {
		return Address{}, fmt.Errorf("%w: empty prefix or payload", ErrInvalidAddress)
	}

	text, err := bech32.EncodeFromBase256(prefix, payload)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	return Address{prefix: prefix, payload: string(payload), text: text}, nil
}

// Prefix returns the human-readable part.
func (a Address) Prefix() string {
	return a.prefix
}

// Bytes returns a copy of the decoded payload.
func (a Address) Bytes() []byte {
	return []byte(a.payload)
}

// IsZero reports whether a is the zero value.
func (a Address) IsZero() bool {
	return a.text == ""
}

func (a Address) String() string {
	return a.text
}
