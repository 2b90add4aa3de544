package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/iho/gosend/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Network
	Network       string `env:"GOSEND_NETWORK"        envDefault:"testnet"`
	LCDURL        string `env:"GOSEND_LCD_URL"`
	ChainID       string `env:"GOSEND_CHAIN_ID"`
	AddressPrefix string `env:"GOSEND_ADDRESS_PREFIX" envDefault:"osmo"`

	// Transaction
	FeeDenom  string `env:"GOSEND_FEE_DENOM"  envDefault:"uosmo"`
	FeeAmount uint64 `env:"GOSEND_FEE_AMOUNT" envDefault:"5000"`
	GasLimit  uint64 `env:"GOSEND_GAS_LIMIT"  envDefault:"200000"`
	Memo      string `env:"GOSEND_MEMO"       envDefault:""`

	// Timeouts
	LedgerTimeout  time.Duration `env:"GOSEND_LEDGER_TIMEOUT"  envDefault:"30s"`
	ConfirmTimeout time.Duration `env:"GOSEND_CONFIRM_TIMEOUT" envDefault:"60s"`

	// Secret sources (leave both empty to be prompted)
	Mnemonic     string `env:"GOSEND_MNEMONIC"      envDefault:""`
	MnemonicFile string `env:"GOSEND_MNEMONIC_FILE" envDefault:""`

	// Metrics (optional - leave empty to disable)
	PushgatewayURL string `env:"GOSEND_PUSHGATEWAY_URL" envDefault:""`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	if _, err := cfg.ResolveNetwork(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveNetwork applies the explicit overrides to the selected network.
func (c *Config) ResolveNetwork() (domain.Network, error) {
	network, err := domain.ResolveNetwork(c.Network, domain.NetworkOverrides{
		Endpoint:      c.LCDURL,
		ChainID:       c.ChainID,
		AddressPrefix: c.AddressPrefix,
		FeeDenom:      c.FeeDenom,
	})
	if err != nil {
		return domain.Network{}, fmt.Errorf("GOSEND_NETWORK: %w", err)
	}
	return network, nil
}
