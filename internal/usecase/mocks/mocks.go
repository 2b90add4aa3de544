package mocks

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/iho/gosend/internal/domain"
	"github.com/iho/gosend/internal/usecase"
)

// MemoryLedger is an in-memory Connector and Connection. Balances are kept
// per address in insertion order, like a bank module would return them.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string][]domain.Coin
	txs      map[string]*domain.TxReceipt
	height   int64
	closed   bool

	ChainIDValue    string
	ConnectFunc     func(ctx context.Context) (usecase.Connection, error)
	AllBalancesFunc func(ctx context.Context, addr domain.Address) ([]domain.Coin, error)
	BroadcastFunc   func(ctx context.Context, txBytes []byte) (*domain.TxReceipt, error)

	// Queries records every AllBalances call in order.
	Queries []domain.Address
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances:     make(map[string][]domain.Coin),
		txs:          make(map[string]*domain.TxReceipt),
		ChainIDValue: "memory-1",
	}
}

// Fund sets the balance of addr for coin.Denom.
func (m *MemoryLedger) Fund(addr domain.Address, coin domain.Coin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(addr.String(), coin.Denom, coin.Amount)
}

// Move transfers coin from one address to another and records a receipt.
func (m *MemoryLedger) Move(from, to domain.Address, coin domain.Coin) (*domain.TxReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	amount, ok := new(big.Int).SetString(coin.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCoin, coin)
	}

	fromBal := m.amountLocked(from.String(), coin.Denom)
	if fromBal.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: insufficient funds: %s%s is smaller than %s", domain.ErrTxRejected, fromBal, coin.Denom, coin)
	}
	toBal := m.amountLocked(to.String(), coin.Denom)

	m.setLocked(from.String(), coin.Denom, new(big.Int).Sub(fromBal, amount).String())
	m.setLocked(to.String(), coin.Denom, new(big.Int).Add(toBal, amount).String())

	m.height++
	receipt := &domain.TxReceipt{
		TxHash: fmt.Sprintf("MEMTX%04d", m.height),
		Height: m.height,
	}
	m.txs[receipt.TxHash] = receipt

	return receipt, nil
}

func (m *MemoryLedger) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MemoryLedger) Connect(ctx context.Context) (usecase.Connection, error) {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx)
	}
	return m, nil
}

func (m *MemoryLedger) ChainID() string {
	return m.ChainIDValue
}

func (m *MemoryLedger) AllBalances(ctx context.Context, addr domain.Address) ([]domain.Coin, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, addr)
	m.mu.Unlock()

	if m.AllBalancesFunc != nil {
		return m.AllBalancesFunc(ctx, addr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	coins := m.balances[addr.String()]
	out := make([]domain.Coin, len(coins))
	copy(out, coins)
	return out, nil
}

func (m *MemoryLedger) Account(ctx context.Context, addr domain.Address) (*domain.AccountInfo, error) {
	return &domain.AccountInfo{Address: addr}, nil
}

func (m *MemoryLedger) Broadcast(ctx context.Context, txBytes []byte) (*domain.TxReceipt, error) {
	if m.BroadcastFunc != nil {
		return m.BroadcastFunc(ctx, txBytes)
	}
	return nil, fmt.Errorf("%w: memory ledger does not decode transactions", domain.ErrTxRejected)
}

func (m *MemoryLedger) GetTx(ctx context.Context, hash string) (*domain.TxReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	receipt, ok := m.txs[hash]
	if !ok {
		return nil, domain.ErrTxNotFound
	}
	return receipt, nil
}

func (m *MemoryLedger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryLedger) amountLocked(addr, denom string) *big.Int {
	for _, c := range m.balances[addr] {
		if c.Denom == denom {
			n, ok := new(big.Int).SetString(c.Amount, 10)
			if ok {
				return n
			}
		}
	}
	return new(big.Int)
}

func (m *MemoryLedger) setLocked(addr, denom, amount string) {
	coins := m.balances[addr]
	for i := range coins {
		if coins[i].Denom == denom {
			coins[i].Amount = amount
			return
		}
	}
	m.balances[addr] = append(coins, domain.Coin{Denom: denom, Amount: amount})
}

// LedgerExecutor is a TransferExecutor that moves funds on a MemoryLedger.
type LedgerExecutor struct {
	Ledger     *MemoryLedger
	SubmitFunc func(ctx context.Context, conn usecase.Connection, sender *domain.SenderIdentity, recipient domain.Address, coin domain.Coin) (*domain.TxReceipt, error)

	mu    sync.Mutex
	calls int
}

func NewLedgerExecutor(ledger *MemoryLedger) *LedgerExecutor {
	return &LedgerExecutor{Ledger: ledger}
}

func (e *LedgerExecutor) Submit(ctx context.Context, conn usecase.Connection, sender *domain.SenderIdentity, recipient domain.Address, coin domain.Coin) (*domain.TxReceipt, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.SubmitFunc != nil {
		return e.SubmitFunc(ctx, conn, sender, recipient, coin)
	}
	return e.Ledger.Move(sender.Address, recipient, coin)
}

// Calls returns how many times Submit was invoked.
func (e *LedgerExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}
