package domain

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// TransferRequest is one parsed transfer instruction.
type TransferRequest struct {
	RecipientAddressText string
	Amount               uint64
	Denom                string
}

// NewTransferRequest builds a request from a parsed instruction and the raw
// recipient text as typed by the user.
func NewTransferRequest(instr Instruction, recipient string) TransferRequest {
	return TransferRequest{
		RecipientAddressText: recipient,
		Amount:               instr.Amount,
		Denom:                instr.Denom,
	}
}

// Coin returns the single coin the request moves.
func (r TransferRequest) Coin() Coin {
	return Coin{Denom: r.Denom, Amount: strconv.FormatUint(r.Amount, 10)}
}

// Coin is a ledger amount of one denomination. Amount is a base-10 integer
// string since ledger quantities may exceed 64 bits.
type Coin struct {
	Denom  string
	Amount string
}

func (c Coin) String() string {
	return c.Amount + c.Denom
}

// BalanceSnapshot is a single fresh balance read.
type BalanceSnapshot struct {
	Owner  Address
	Denom  string
	Amount string
}

// Decimal returns the snapshot amount as a decimal.
func (b BalanceSnapshot) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(b.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance of %s: %w", b.Owner, err)
	}
	return d, nil
}

// Signer authorizes transfers without exposing key material.
type Signer interface {
	// PubKey returns the compressed public key.
	PubKey() []byte
	// Sign signs the SHA-256 digest of msg.
	Sign(msg []byte) ([]byte, error)
}

// SenderIdentity is the signing capability plus its ledger address.
type SenderIdentity struct {
	Signer  Signer
	Address Address
}

// AccountInfo carries the on-chain signing metadata of an account.
type AccountInfo struct {
	Address       Address
	AccountNumber uint64
	Sequence      uint64
}

// TxReceipt is the ledger's answer to a submitted transfer.
type TxReceipt struct {
	TxHash    string
	Height    int64
	Code      uint32
	GasWanted int64
	GasUsed   int64
	RawLog    string
}

// TransferReport summarizes one orchestrated transfer.
type TransferReport struct {
	RunID     string
	Request   TransferRequest
	Sender    Address
	Recipient Address
	Before    [2]BalanceSnapshot
	After     [2]BalanceSnapshot
	Receipt   *TxReceipt
}
