// Package lcd talks to a Cosmos-SDK node over its REST (LCD) gateway.
package lcd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gosend/internal/domain"
	"github.com/iho/gosend/internal/usecase"
)

const (
	nodeInfoPath  = "/cosmos/base/tendermint/v1beta1/node_info"
	balancesPath  = "/cosmos/bank/v1beta1/balances/"
	accountsPath  = "/cosmos/auth/v1beta1/accounts/"
	txsPath       = "/cosmos/tx/v1beta1/txs"
	broadcastMode = "BROADCAST_MODE_SYNC"

	// maxErrorBody bounds how much of a failed response ends up in an error.
	maxErrorBody = 512
)

// Config holds LCD connection settings.
type Config struct {
	Endpoint string
	// ChainID, when set, must match the network the node reports.
	ChainID string
	Timeout time.Duration
}

// Connector implements usecase.Connector.
type Connector struct {
	cfg       Config
	transport http.RoundTripper
	logger    zerolog.Logger
}

// NewConnector creates a new Connector.
func NewConnector(cfg Config, logger zerolog.Logger) *Connector {
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Connector{cfg: cfg, logger: logger}
}

// WithTransport replaces the HTTP transport.
func (c *Connector) WithTransport(rt http.RoundTripper) *Connector {
	c.transport = rt
	return c
}

// Connect checks that the node is reachable and serves the expected chain.
func (c *Connector) Connect(ctx context.Context) (usecase.Connection, error) {
	if c.cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: empty endpoint", domain.ErrConnection)
	}

	transport := c.transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	conn := &Conn{
		endpoint: c.cfg.Endpoint,
		client:   &http.Client{Timeout: c.cfg.Timeout, Transport: transport},
		logger:   c.logger.With().Str("component", "lcd").Logger(),
	}

	var info nodeInfoResponse
	if err := conn.getJSON(ctx, nodeInfoPath, nil, &info); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}

	network := info.DefaultNodeInfo.Network
	if c.cfg.ChainID != "" && network != c.cfg.ChainID {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: node serves chain %q, expected %q", domain.ErrConnection, network, c.cfg.ChainID)
	}
	conn.chainID = network

	conn.logger.Debug().
		Str("endpoint", conn.endpoint).
		Str("chain_id", network).
		Str("app_version", info.ApplicationVersion.Version).
		Msg("lcd connection established")

	return conn, nil
}

// Conn is an open LCD connection. It implements usecase.Connection.
type Conn struct {
	endpoint string
	chainID  string
	client   *http.Client
	logger   zerolog.Logger
}

// ChainID returns the network identifier reported by the node.
func (c *Conn) ChainID() string {
	return c.chainID
}

// AllBalances returns every balance of addr, following pagination.
func (c *Conn) AllBalances(ctx context.Context, addr domain.Address) ([]domain.Coin, error) {
	var (
		coins []domain.Coin
		key   string
	)

	for {
		query := url.Values{}
		if key != "" {
			query.Set("pagination.key", key)
		}

		var resp balancesResponse
		if err := c.getJSON(ctx, balancesPath+url.PathEscape(addr.String()), query, &resp); err != nil {
			return nil, fmt.Errorf("balances of %s: %w", addr, err)
		}

		for _, b := range resp.Balances {
			coins = append(coins, domain.Coin{Denom: b.Denom, Amount: b.Amount})
		}

		next := resp.nextKey()
		if next == "" || next == key {
			return coins, nil
		}
		key = next
	}
}

// Account returns the account number and sequence of addr.
func (c *Conn) Account(ctx context.Context, addr domain.Address) (*domain.AccountInfo, error) {
	var resp accountResponse
	if err := c.getJSON(ctx, accountsPath+url.PathEscape(addr.String()), nil, &resp); err != nil {
		return nil, fmt.Errorf("account %s: %w", addr, err)
	}

	acc := resp.Account.base()

	number, err := strconv.ParseUint(acc.AccountNumber, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("account %s: account_number %q: %w", addr, acc.AccountNumber, err)
	}

	sequence, err := parseOptionalUint(acc.Sequence)
	if err != nil {
		return nil, fmt.Errorf("account %s: sequence %q: %w", addr, acc.Sequence, err)
	}

	return &domain.AccountInfo{
		Address:       addr,
		AccountNumber: number,
		Sequence:      sequence,
	}, nil
}

// Broadcast submits signed TxRaw bytes in sync mode. A non-zero check code
// is returned as ErrTxRejected together with the receipt.
func (c *Conn) Broadcast(ctx context.Context, txBytes []byte) (*domain.TxReceipt, error) {
	body, err := json.Marshal(broadcastRequest{TxBytes: txBytes, Mode: broadcastMode})
	if err != nil {
		return nil, fmt.Errorf("encode broadcast request: %w", err)
	}

	var resp txEnvelope
	if err := c.doJSON(ctx, http.MethodPost, txsPath, nil, bytes.NewReader(body), &resp); err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}

	receipt := resp.TxResponse.toDomain()
	c.logger.Debug().
		Str("tx_hash", receipt.TxHash).
		Uint32("code", receipt.Code).
		Msg("transaction broadcast")

	if receipt.Code != 0 {
		return receipt, rejected(resp.TxResponse)
	}
	return receipt, nil
}

// GetTx returns the committed transaction, or ErrTxNotFound while it is
// not yet indexed.
func (c *Conn) GetTx(ctx context.Context, hash string) (*domain.TxReceipt, error) {
	var resp txEnvelope
	err := c.getJSON(ctx, txsPath+"/"+url.PathEscape(hash), nil, &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.notFound() {
			return nil, fmt.Errorf("%w: %s", domain.ErrTxNotFound, hash)
		}
		return nil, fmt.Errorf("tx %s: %w", hash, err)
	}

	receipt := resp.TxResponse.toDomain()
	if receipt.Code != 0 {
		return receipt, rejected(resp.TxResponse)
	}
	return receipt, nil
}

// Close releases idle keep-alive connections.
func (c *Conn) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Conn) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Conn) doJSON(ctx context.Context, method, path string, query url.Values, body io.Reader, out any) error {
	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("lcd request")

	if resp.StatusCode != http.StatusOK {
		return newStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// statusError is a non-200 LCD response.
type statusError struct {
	Status  int
	Code    int
	Message string
}

func newStatusError(resp *http.Response) *statusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	se := &statusError{Status: resp.StatusCode}
	var body errorResponse
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		se.Code = body.Code
		se.Message = body.Message
	} else {
		se.Message = strings.TrimSpace(string(raw))
	}
	return se
}

func (e *statusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("lcd status %d", e.Status)
	}
	return fmt.Sprintf("lcd status %d: %s", e.Status, e.Message)
}

// gRPC code 5 is NotFound.
func (e *statusError) notFound() bool {
	return e.Status == http.StatusNotFound || e.Code == 5
}

func rejected(r txResponseDTO) error {
	return fmt.Errorf("%w: tx %s code %d (%s): %s", domain.ErrTxRejected, r.TxHash, r.Code, r.Codespace, r.RawLog)
}

func parseOptionalUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
