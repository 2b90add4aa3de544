package domain

import "errors"

var (
	// Instruction errors
	ErrInvalidInstruction = errors.New("invalid transfer instruction")
	ErrAmountOverflow     = errors.New("amount does not fit in 64 bits")

	// Address errors
	ErrInvalidAddress = errors.New("invalid address")

	// Identity errors
	ErrDerivation = errors.New("sender identity derivation failed")
	ErrNoSecret   = errors.New("no recovery phrase available")

	// Ledger errors
	ErrConnection          = errors.New("cannot reach ledger")
	ErrBalanceQuery        = errors.New("balance query failed")
	ErrExecution           = errors.New("transfer execution failed")
	ErrInvalidCoin         = errors.New("invalid coin")
	ErrTxRejected          = errors.New("transaction rejected by ledger")
	ErrTxNotFound          = errors.New("transaction not found")
	ErrConfirmationTimeout = errors.New("transaction not confirmed in time")

	// Network errors
	ErrUnknownNetwork = errors.New("unknown network")
)
