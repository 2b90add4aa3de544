// Package instrumented wraps ledger collaborators with Prometheus metrics.
package instrumented

import (
	"context"
	"time"

	"github.com/iho/gosend/internal/domain"
	"github.com/iho/gosend/internal/infrastructure/metrics"
	"github.com/iho/gosend/internal/usecase"
)

// Operation label values.
const (
	OpConnect     = "connect"
	OpBalances    = "balances"
	OpAccount     = "account"
	OpBroadcast   = "broadcast"
	OpGetTx       = "get_tx"
	OpCloseLedger = "close"
)

// Connector records connection attempts and instruments every connection
// it opens.
type Connector struct {
	next    usecase.Connector
	metrics *metrics.Metrics
}

// NewConnector wraps next.
func NewConnector(next usecase.Connector, m *metrics.Metrics) *Connector {
	return &Connector{next: next, metrics: m}
}

func (c *Connector) Connect(ctx context.Context) (usecase.Connection, error) {
	start := time.Now()
	conn, err := c.next.Connect(ctx)
	c.metrics.ObserveLedgerCall(OpConnect, start, err)
	if err != nil {
		return nil, err
	}
	return &Connection{next: conn, metrics: c.metrics}, nil
}

// Connection records every remote call.
type Connection struct {
	next    usecase.Connection
	metrics *metrics.Metrics
}

func (c *Connection) ChainID() string {
	return c.next.ChainID()
}

func (c *Connection) AllBalances(ctx context.Context, addr domain.Address) ([]domain.Coin, error) {
	start := time.Now()
	coins, err := c.next.AllBalances(ctx, addr)
	c.metrics.ObserveLedgerCall(OpBalances, start, err)
	return coins, err
}

func (c *Connection) Account(ctx context.Context, addr domain.Address) (*domain.AccountInfo, error) {
	start := time.Now()
	info, err := c.next.Account(ctx, addr)
	c.metrics.ObserveLedgerCall(OpAccount, start, err)
	return info, err
}

func (c *Connection) Broadcast(ctx context.Context, txBytes []byte) (*domain.TxReceipt, error) {
	start := time.Now()
	receipt, err := c.next.Broadcast(ctx, txBytes)
	c.metrics.ObserveLedgerCall(OpBroadcast, start, err)
	return receipt, err
}

func (c *Connection) GetTx(ctx context.Context, hash string) (*domain.TxReceipt, error) {
	start := time.Now()
	receipt, err := c.next.GetTx(ctx, hash)
	c.metrics.ObserveLedgerCall(OpGetTx, start, err)
	return receipt, err
}

func (c *Connection) Close() error {
	start := time.Now()
	err := c.next.Close()
	c.metrics.ObserveLedgerCall(OpCloseLedger, start, err)
	return err
}

// Executor records transfer submissions.
type Executor struct {
	next    usecase.TransferExecutor
	metrics *metrics.Metrics
}

// NewExecutor wraps next.
func NewExecutor(next usecase.TransferExecutor, m *metrics.Metrics) *Executor {
	return &Executor{next: next, metrics: m}
}

func (e *Executor) Submit(
	ctx context.Context,
	conn usecase.Connection,
	sender *domain.SenderIdentity,
	recipient domain.Address,
	coin domain.Coin,
) (*domain.TxReceipt, error) {
	start := time.Now()
	receipt, err := e.next.Submit(ctx, conn, sender, recipient, coin)
	e.metrics.ObserveTransfer(start, err)
	return receipt, err
}
