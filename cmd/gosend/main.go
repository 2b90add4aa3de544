package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/gosend/internal/adapter/cosmos/address"
	"github.com/iho/gosend/internal/adapter/cosmos/lcd"
	"github.com/iho/gosend/internal/adapter/cosmos/tx"
	"github.com/iho/gosend/internal/adapter/cosmos/wallet"
	"github.com/iho/gosend/internal/adapter/instrumented"
	"github.com/iho/gosend/internal/domain"
	"github.com/iho/gosend/internal/infrastructure/config"
	"github.com/iho/gosend/internal/infrastructure/idgen"
	"github.com/iho/gosend/internal/infrastructure/logger"
	"github.com/iho/gosend/internal/infrastructure/metrics"
	"github.com/iho/gosend/internal/infrastructure/secret"
	"github.com/iho/gosend/internal/usecase"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const pushTimeout = 5 * time.Second

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdin *os.File, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gosend <operation> <address>",
		Short: "Send tokens on a Cosmos-SDK ledger",
		Long: `gosend transfers a single coin from the wallet behind a recovery phrase
to a recipient address, and reports both balances before and after.

The operation is an integer amount followed by a denomination, for
example 100uosmo. Configuration is read from GOSEND_* environment
variables; the recovery phrase comes from GOSEND_MNEMONIC,
GOSEND_MNEMONIC_FILE or an interactive prompt.`,
		Example:       "  gosend 100uosmo osmo1qyqszqgpqyqszqgpqyqszqgpqyqszqgp6gjwmw",
		Version:       version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], args[1], stdin, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	return cmd
}

func run(ctx context.Context, operation, recipient string, stdin *os.File, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: stderr})

	network, err := cfg.ResolveNetwork()
	if err != nil {
		return err
	}

	m := metrics.New()
	defer pushMetrics(cfg.PushgatewayURL, network, m, log)

	req, err := usecase.ParseRequest(operation, recipient)
	if err != nil {
		return err
	}
	log.Info().
		Uint64("amount", req.Amount).
		Str("denom", req.Denom).
		Str("network", network.Name).
		Msg("instruction parsed")

	phrase, err := secret.NewProvider(log,
		secret.Env{Value: cfg.Mnemonic},
		secret.File{Path: cfg.MnemonicFile, Logger: log},
		secret.NewPrompt(stdin, stderr),
	).RecoveryPhrase(ctx)
	if err != nil {
		return fmt.Errorf("resolve recovery phrase: %w", err)
	}

	connector := instrumented.NewConnector(lcd.NewConnector(lcd.Config{
		Endpoint: network.Endpoint,
		ChainID:  network.ChainID,
		Timeout:  cfg.LedgerTimeout,
	}, log), m)

	executor := instrumented.NewExecutor(tx.NewExecutor(tx.Config{
		ChainID:        network.ChainID,
		FeeDenom:       network.FeeDenom,
		FeeAmount:      cfg.FeeAmount,
		GasLimit:       cfg.GasLimit,
		Memo:           cfg.Memo,
		ConfirmTimeout: cfg.ConfirmTimeout,
	}, log), m)

	transferUC := usecase.NewTransferUseCase(
		connector,
		address.NewResolver(network.AddressPrefix),
		wallet.NewProvider(),
		executor,
		idgen.NewULIDGenerator(),
		log,
		usecase.TransferConfig{Phrase: phrase, AddressPrefix: network.AddressPrefix},
	)

	report, err := transferUC.Run(ctx, req)
	if report != nil {
		if renderErr := renderReport(stdout, network, report); renderErr != nil {
			log.Warn().Err(renderErr).Msg("failed to render report")
		}
	}
	return err
}

// pushMetrics never changes the exit status.
func pushMetrics(gatewayURL string, network domain.Network, m *metrics.Metrics, log zerolog.Logger) {
	if gatewayURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	if err := m.Push(ctx, gatewayURL, map[string]string{"network": network.Name}); err != nil {
		log.Warn().Err(err).Msg("failed to push metrics")
	}
}
