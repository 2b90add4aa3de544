// Package tx builds, signs and submits bank transfers on Cosmos-SDK ledgers.
package tx

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gosend/internal/domain"
	"github.com/iho/gosend/internal/usecase"
)

// denomPattern is the Cosmos-SDK coin denomination grammar.
var denomPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9/:._-]{2,127}$`)

const (
	defaultPollInterval = time.Second
	maxPollInterval     = 5 * time.Second
)

// Config holds transaction parameters.
type Config struct {
	ChainID   string
	FeeDenom  string
	FeeAmount uint64
	GasLimit  uint64
	Memo      string
	// ConfirmTimeout bounds the wait for block inclusion. Zero returns the
	// broadcast receipt without waiting.
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// Executor implements usecase.TransferExecutor with SIGN_MODE_DIRECT
// transactions carrying a single MsgSend.
type Executor struct {
	cfg    Config
	logger zerolog.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(cfg Config, logger zerolog.Logger) *Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Executor{cfg: cfg, logger: logger.With().Str("component", "tx").Logger()}
}

// Submit moves coin from sender to recipient. The transaction is broadcast
// exactly once; only the inclusion lookup is repeated.
func (e *Executor) Submit(
	ctx context.Context,
	conn usecase.Connection,
	sender *domain.SenderIdentity,
	recipient domain.Address,
	coin domain.Coin,
) (*domain.TxReceipt, error) {
	if err := ValidateCoin(coin); err != nil {
		return nil, err
	}

	account, err := conn.Account(ctx, sender.Address)
	if err != nil {
		return nil, fmt.Errorf("load signer account: %w", err)
	}

	chainID := e.cfg.ChainID
	if chainID == "" {
		chainID = conn.ChainID()
	}

	raw, err := e.sign(sender, recipient, coin, account, chainID)
	if err != nil {
		return nil, err
	}

	hash := Hash(raw)
	e.logger.Debug().
		Str("tx_hash", hash).
		Uint64("account_number", account.AccountNumber).
		Uint64("sequence", account.Sequence).
		Int("tx_bytes", len(raw)).
		Msg("transaction signed")

	receipt, err := conn.Broadcast(ctx, raw)
	if err != nil {
		return receipt, err
	}
	if receipt.TxHash != "" && receipt.TxHash != hash {
		e.logger.Warn().
			Str("expected", hash).
			Str("reported", receipt.TxHash).
			Msg("ledger reported a different transaction hash")
		hash = receipt.TxHash
	}

	if e.cfg.ConfirmTimeout <= 0 {
		return receipt, nil
	}
	return e.awaitInclusion(ctx, conn, hash)
}

func (e *Executor) sign(
	sender *domain.SenderIdentity,
	recipient domain.Address,
	coin domain.Coin,
	account *domain.AccountInfo,
	chainID string,
) ([]byte, error) {
	var feeCoins []domain.Coin
	if e.cfg.FeeAmount > 0 {
		feeCoins = append(feeCoins, domain.Coin{
			Denom:  e.cfg.FeeDenom,
			Amount: strconv.FormatUint(e.cfg.FeeAmount, 10),
		})
	}

	unsigned := BuildUnsigned(
		[][]byte{BuildMsgSend(sender.Address, recipient, []domain.Coin{coin})},
		e.cfg.Memo,
		sender.Signer.PubKey(),
		account.Sequence,
		Fee{Amount: feeCoins, GasLimit: e.cfg.GasLimit},
	)

	sig, err := sender.Signer.Sign(unsigned.SignDoc(chainID, account.AccountNumber))
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if len(sig) != 64 {
		return nil, fmt.Errorf("sign transaction: unexpected signature length %d", len(sig))
	}

	return unsigned.Raw(sig), nil
}

func (e *Executor) awaitInclusion(ctx context.Context, conn usecase.Connection, hash string) (*domain.TxReceipt, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.PollInterval
	b.MaxInterval = max(maxPollInterval, e.cfg.PollInterval)
	b.MaxElapsedTime = e.cfg.ConfirmTimeout

	var (
		attempts int
		last     *domain.TxReceipt
	)

	receipt, err := backoff.RetryWithData(func() (*domain.TxReceipt, error) {
		attempts++
		r, err := conn.GetTx(ctx, hash)
		switch {
		case err == nil:
			return r, nil
		case errors.Is(err, domain.ErrTxRejected):
			last = r
			return nil, backoff.Permanent(err)
		case errors.Is(err, domain.ErrTxNotFound):
			return nil, err
		}

		e.logger.Warn().Err(err).Int("attempt", attempts).Msg("inclusion lookup failed, retrying")
		return nil, err
	}, backoff.WithContext(b, ctx))

	if err != nil {
		if errors.Is(err, domain.ErrTxRejected) {
			return last, err
		}
		return nil, fmt.Errorf("%w: %s after %d lookups: %w", domain.ErrConfirmationTimeout, hash, attempts, err)
	}

	e.logger.Debug().
		Str("tx_hash", hash).
		Int64("height", receipt.Height).
		Int("lookups", attempts).
		Msg("transaction included")

	return receipt, nil
}

// ValidateCoin checks coin against the denomination grammar and requires a
// positive integral amount.
func ValidateCoin(coin domain.Coin) error {
	if !denomPattern.MatchString(coin.Denom) {
		return fmt.Errorf("%w: denomination %q", domain.ErrInvalidCoin, coin.Denom)
	}

	amount, err := decimal.NewFromString(coin.Amount)
	if err != nil {
		return fmt.Errorf("%w: amount %q: %v", domain.ErrInvalidCoin, coin.Amount, err)
	}
	if !amount.IsInteger() || !amount.IsPositive() {
		return fmt.Errorf("%w: amount %s must be a positive integer", domain.ErrInvalidCoin, coin.Amount)
	}

	return nil
}
