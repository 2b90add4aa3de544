package usecase

import (
	"context"

	"github.com/iho/gosend/internal/domain"
)

// Connector opens the ledger connection used by a whole run.
type Connector interface {
	Connect(ctx context.Context) (Connection, error)
}

// Connection is an open handle to the remote ledger. Every balance query and
// the transfer submission of a run go through the same handle.
type Connection interface {
	ChainID() string
	// AllBalances returns every balance held by addr, in ledger order.
	AllBalances(ctx context.Context, addr domain.Address) ([]domain.Coin, error)
	Account(ctx context.Context, addr domain.Address) (*domain.AccountInfo, error)
	Broadcast(ctx context.Context, txBytes []byte) (*domain.TxReceipt, error)
	// GetTx returns domain.ErrTxNotFound until the transaction is indexed.
	GetTx(ctx context.Context, hash string) (*domain.TxReceipt, error)
	Close() error
}

// AddressResolver validates and normalizes recipient addresses.
type AddressResolver interface {
	Resolve(text string) (domain.Address, error)
}

// IdentityProvider derives the sender's signing identity from a recovery phrase.
type IdentityProvider interface {
	DeriveIdentity(ctx context.Context, phrase, prefix string) (*domain.SenderIdentity, error)
}

// TransferExecutor submits a signed single-coin transfer.
type TransferExecutor interface {
	Submit(ctx context.Context, conn Connection, sender *domain.SenderIdentity, recipient domain.Address, coin domain.Coin) (*domain.TxReceipt, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
