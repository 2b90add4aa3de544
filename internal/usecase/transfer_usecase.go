package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/gosend/internal/domain"
)

// TransferConfig holds the per-process inputs of a transfer run.
type TransferConfig struct {
	// Phrase is the sender's recovery phrase, resolved once at startup.
	Phrase        string
	AddressPrefix string
}

// TransferUseCase orchestrates one transfer: connect, resolve both parties,
// report balances, execute, report balances again.
type TransferUseCase struct {
	connector  Connector
	resolver   AddressResolver
	identities IdentityProvider
	executor   TransferExecutor
	idGen      IDGenerator
	logger     zerolog.Logger
	cfg        TransferConfig
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	connector Connector,
	resolver AddressResolver,
	identities IdentityProvider,
	executor TransferExecutor,
	idGen IDGenerator,
	logger zerolog.Logger,
	cfg TransferConfig,
) *TransferUseCase {
	return &TransferUseCase{
		connector:  connector,
		resolver:   resolver,
		identities: identities,
		executor:   executor,
		idGen:      idGen,
		logger:     logger,
		cfg:        cfg,
	}
}

// ParseRequest parses the operation string and pairs it with the raw
// recipient text.
func ParseRequest(operation, recipient string) (domain.TransferRequest, error) {
	instr, err := domain.ParseInstruction(operation)
	if err != nil {
		return domain.TransferRequest{}, &StepError{Step: StepParsed, Err: err}
	}

	return domain.NewTransferRequest(instr, recipient), nil
}

// Run executes the transfer workflow. Steps run strictly in order and the
// first failure ends the run; a submitted transfer is never retried or
// reversed. When only the post-transfer balance report fails, the returned
// report still carries the receipt alongside the error.
func (uc *TransferUseCase) Run(ctx context.Context, req domain.TransferRequest) (*domain.TransferReport, error) {
	report := &domain.TransferReport{
		RunID:   uc.idGen.Generate(),
		Request: req,
	}
	log := uc.logger.With().Str("run_id", report.RunID).Logger()

	log.Debug().
		Uint64("amount", req.Amount).
		Str("denom", req.Denom).
		Str("recipient", req.RecipientAddressText).
		Msg("starting transfer")

	conn, err := uc.connector.Connect(ctx)
	if err != nil {
		return nil, fail(StepConnectionEstablished, domain.ErrConnection, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ledger connection")
		}
	}()
	log.Debug().Str("chain_id", conn.ChainID()).Msg("connected to ledger")

	sender, err := uc.identities.DeriveIdentity(ctx, uc.cfg.Phrase, uc.cfg.AddressPrefix)
	if err != nil {
		return nil, fail(StepIdentitiesResolved, domain.ErrDerivation, err)
	}

	recipient, err := uc.resolver.Resolve(req.RecipientAddressText)
	if err != nil {
		return nil, fail(StepIdentitiesResolved, domain.ErrInvalidAddress, err)
	}

	report.Sender = sender.Address
	report.Recipient = recipient
	log.Debug().
		Stringer("sender", sender.Address).
		Stringer("recipient", recipient).
		Msg("identities resolved")

	report.Before, err = uc.reportBalances(ctx, log, conn, StagePre, sender.Address, recipient, req.Denom, nil)
	if err != nil {
		return nil, fail(StepPreBalancesReported, domain.ErrBalanceQuery, err)
	}

	receipt, err := uc.executor.Submit(ctx, conn, sender, recipient, req.Coin())
	if err != nil {
		return nil, fail(StepExecuted, domain.ErrExecution, err)
	}
	report.Receipt = receipt

	log.Info().
		Str("tx_hash", receipt.TxHash).
		Int64("height", receipt.Height).
		Int64("gas_used", receipt.GasUsed).
		Str("coin", req.Coin().String()).
		Msg("transfer executed")

	report.After, err = uc.reportBalances(ctx, log, conn, StagePost, sender.Address, recipient, req.Denom, &report.Before)
	if err != nil {
		return report, fail(StepPostBalancesReported, domain.ErrBalanceQuery, err)
	}

	return report, nil
}

// reportBalances reads and logs the sender balance, then the recipient
// balance. When before is set, each line also carries the change since then.
func (uc *TransferUseCase) reportBalances(
	ctx context.Context,
	log zerolog.Logger,
	conn Connection,
	stage string,
	sender, recipient domain.Address,
	denom string,
	before *[2]domain.BalanceSnapshot,
) ([2]domain.BalanceSnapshot, error) {
	var snapshots [2]domain.BalanceSnapshot

	parties := [2]struct {
		role string
		addr domain.Address
	}{
		{role: "sender", addr: sender},
		{role: "recipient", addr: recipient},
	}

	for i, p := range parties {
		coins, err := conn.AllBalances(ctx, p.addr)
		if err != nil {
			return snapshots, err
		}

		snap := domain.BalanceSnapshot{
			Owner:  p.addr,
			Denom:  denom,
			Amount: BalanceOf(coins, denom),
		}
		snapshots[i] = snap

		event := log.Info().
			Str("stage", stage).
			Str("role", p.role).
			Stringer("address", p.addr).
			Str("denom", denom).
			Str("amount", snap.Amount)
		if before != nil {
			if change, ok := balanceChange(before[i], snap); ok {
				event = event.Str("change", change)
			}
		}
		event.Msg(p.role + " balance")
	}

	return snapshots, nil
}

// BalanceOf scans coins for denom and returns its amount, or ZeroBalance
// when the denomination is absent.
func BalanceOf(coins []domain.Coin, denom string) string {
	for _, c := range coins {
		if c.Denom == denom {
			return c.Amount
		}
	}
	return ZeroBalance
}

func balanceChange(before, after domain.BalanceSnapshot) (string, bool) {
	b, err := before.Decimal()
	if err != nil {
		return "", false
	}
	a, err := after.Decimal()
	if err != nil {
		return "", false
	}

	change := a.Sub(b)
	if change.IsPositive() {
		return "+" + change.String(), true
	}
	return change.String(), true
}
