package lcd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gosend/internal/domain"
)

const testChainID = "osmo-test-5"

// fakeNode is an in-process LCD gateway.
type fakeNode struct {
	chainID   string
	balances  map[string][][]coinDTO
	accounts  map[string]string
	txs       map[string]txResponseDTO
	broadcast func(req broadcastRequest) (int, any)

	mu       sync.Mutex
	requests []string
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		chainID:  testChainID,
		balances: map[string][][]coinDTO{},
		accounts: map[string]string{},
		txs:      map[string]txResponseDTO{},
	}
}

func (n *fakeNode) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			n.mu.Lock()
			n.requests = append(n.requests, req.Method+" "+req.URL.RequestURI())
			n.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})

	r.Get(nodeInfoPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"default_node_info":   map[string]any{"network": n.chainID, "version": "0.38.17"},
			"application_version": map[string]any{"name": "osmosis", "version": "28.0.0"},
		})
	})

	r.Get("/cosmos/bank/v1beta1/balances/{address}", func(w http.ResponseWriter, req *http.Request) {
		pages, ok := n.balances[chi.URLParam(req, "address")]
		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{"balances": []coinDTO{}, "pagination": map[string]any{"next_key": nil, "total": "0"}})
			return
		}

		page := 0
		if key := req.URL.Query().Get("pagination.key"); len(key) == 1 {
			page = int(key[0] - 'a')
		}

		var next any
		if page+1 < len(pages) {
			next = string(rune('a' + page + 1))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"balances":   pages[page],
			"pagination": map[string]any{"next_key": next, "total": "0"},
		})
	})

	r.Get("/cosmos/auth/v1beta1/accounts/{address}", func(w http.ResponseWriter, req *http.Request) {
		body, ok := n.accounts[chi.URLParam(req, "address")]
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Code: 5, Message: "account not found"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})

	r.Post(txsPath, func(w http.ResponseWriter, req *http.Request) {
		var body broadcastRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Code: 3, Message: err.Error()})
			return
		}
		status, resp := n.broadcast(body)
		writeJSON(w, status, resp)
	})

	r.Get(txsPath+"/{hash}", func(w http.ResponseWriter, req *http.Request) {
		tx, ok := n.txs[chi.URLParam(req, "hash")]
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Code: 5, Message: "tx not found"})
			return
		}
		writeJSON(w, http.StatusOK, txEnvelope{TxResponse: tx})
	})

	return r
}

func (n *fakeNode) seen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.requests...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func startNode(t *testing.T, node *fakeNode) *Conn {
	t.Helper()

	srv := httptest.NewServer(node.router())
	t.Cleanup(srv.Close)

	conn, err := NewConnector(Config{Endpoint: srv.URL + "/", ChainID: testChainID, Timeout: 5 * time.Second}, zerolog.Nop()).
		Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn.(*Conn)
}

func testAddress(t *testing.T, fill byte) domain.Address {
	t.Helper()
	addr, err := domain.NewAddress("osmo", bytes.Repeat([]byte{fill}, 20))
	require.NoError(t, err)
	return addr
}

func TestConnector_Connect(t *testing.T) {
	node := newFakeNode()
	conn := startNode(t, node)

	assert.Equal(t, testChainID, conn.ChainID())
	assert.Equal(t, []string{"GET " + nodeInfoPath}, node.seen())
}

func TestConnector_Connect_Errors(t *testing.T) {
	t.Run("chain mismatch", func(t *testing.T) {
		node := newFakeNode()
		node.chainID = "osmosis-1"
		srv := httptest.NewServer(node.router())
		defer srv.Close()

		_, err := NewConnector(Config{Endpoint: srv.URL, ChainID: testChainID}, zerolog.Nop()).Connect(context.Background())
		if !errors.Is(err, domain.ErrConnection) {
			t.Fatalf("expected ErrConnection, got %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewConnector(Config{Endpoint: srv.URL}, zerolog.Nop()).Connect(context.Background())
		if !errors.Is(err, domain.ErrConnection) {
			t.Fatalf("expected ErrConnection, got %v", err)
		}
		assert.Contains(t, err.Error(), "upstream down")
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		endpoint := srv.URL
		srv.Close()

		_, err := NewConnector(Config{Endpoint: endpoint, Timeout: time.Second}, zerolog.Nop()).Connect(context.Background())
		if !errors.Is(err, domain.ErrConnection) {
			t.Fatalf("expected ErrConnection, got %v", err)
		}
	})

	t.Run("empty endpoint", func(t *testing.T) {
		_, err := NewConnector(Config{}, zerolog.Nop()).Connect(context.Background())
		if !errors.Is(err, domain.ErrConnection) {
			t.Fatalf("expected ErrConnection, got %v", err)
		}
	})
}

func TestConn_AllBalances_FollowsPagination(t *testing.T) {
	addr := testAddress(t, 1)
	node := newFakeNode()
	node.balances[addr.String()] = [][]coinDTO{
		{{Denom: "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2", Amount: "7"}},
		{{Denom: "uion", Amount: "3"}, {Denom: "uosmo", Amount: "500"}},
	}
	conn := startNode(t, node)

	coins, err := conn.AllBalances(context.Background(), addr)
	require.NoError(t, err)

	require.Len(t, coins, 3)
	assert.Equal(t, "uion", coins[1].Denom)
	assert.Equal(t, domain.Coin{Denom: "uosmo", Amount: "500"}, coins[2])
	assert.Contains(t, node.seen(), "GET /cosmos/bank/v1beta1/balances/"+addr.String()+"?pagination.key=b")
}

func TestConn_AllBalances_Empty(t *testing.T) {
	conn := startNode(t, newFakeNode())

	coins, err := conn.AllBalances(context.Background(), testAddress(t, 2))
	require.NoError(t, err)
	assert.Empty(t, coins)
}

func TestConn_Account(t *testing.T) {
	base := testAddress(t, 1)
	vesting := testAddress(t, 2)

	node := newFakeNode()
	node.accounts[base.String()] = `{"account":{"@type":"/cosmos.auth.v1beta1.BaseAccount","address":"` + base.String() + `","pub_key":null,"account_number":"42","sequence":"7"}}`
	node.accounts[vesting.String()] = `{"account":{"@type":"/cosmos.vesting.v1beta1.ContinuousVestingAccount","base_vesting_account":{"base_account":{"address":"` + vesting.String() + `","account_number":"9","sequence":""}}}}`
	conn := startNode(t, node)

	tests := []struct {
		name     string
		addr     domain.Address
		number   uint64
		sequence uint64
	}{
		{name: "base account", addr: base, number: 42, sequence: 7},
		{name: "vesting account", addr: vesting, number: 9, sequence: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := conn.Account(context.Background(), tt.addr)
			require.NoError(t, err)
			assert.Equal(t, tt.number, info.AccountNumber)
			assert.Equal(t, tt.sequence, info.Sequence)
			assert.Equal(t, tt.addr, info.Address)
		})
	}

	t.Run("unknown account", func(t *testing.T) {
		_, err := conn.Account(context.Background(), testAddress(t, 3))
		var se *statusError
		require.ErrorAs(t, err, &se)
		assert.True(t, se.notFound())
		assert.Contains(t, err.Error(), "account not found")
	})
}

func TestConn_Broadcast(t *testing.T) {
	node := newFakeNode()
	var got broadcastRequest
	node.broadcast = func(req broadcastRequest) (int, any) {
		got = req
		return http.StatusOK, map[string]any{"tx_response": map[string]any{
			"height": "0", "txhash": "AB12", "code": 0, "raw_log": "", "gas_wanted": "0", "gas_used": "0",
		}}
	}
	conn := startNode(t, node)

	receipt, err := conn.Broadcast(context.Background(), []byte{0x0a, 0x01, 0xff})
	require.NoError(t, err)

	assert.Equal(t, "AB12", receipt.TxHash)
	assert.Equal(t, []byte{0x0a, 0x01, 0xff}, got.TxBytes)
	assert.Equal(t, "BROADCAST_MODE_SYNC", got.Mode)
}

func TestConn_Broadcast_Rejected(t *testing.T) {
	node := newFakeNode()
	node.broadcast = func(broadcastRequest) (int, any) {
		return http.StatusOK, map[string]any{"tx_response": map[string]any{
			"height": "0", "txhash": "CD34", "code": 5, "codespace": "sdk", "raw_log": "insufficient funds",
			"gas_wanted": "0", "gas_used": "0",
		}}
	}
	conn := startNode(t, node)

	receipt, err := conn.Broadcast(context.Background(), []byte{1})
	if !errors.Is(err, domain.ErrTxRejected) {
		t.Fatalf("expected ErrTxRejected, got %v", err)
	}
	require.NotNil(t, receipt)
	assert.Equal(t, uint32(5), receipt.Code)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestConn_Broadcast_HTTPError(t *testing.T) {
	node := newFakeNode()
	node.broadcast = func(broadcastRequest) (int, any) {
		return http.StatusBadRequest, errorResponse{Code: 3, Message: "tx parse error"}
	}
	conn := startNode(t, node)

	receipt, err := conn.Broadcast(context.Background(), []byte{1})
	require.Error(t, err)
	assert.Nil(t, receipt)
	assert.Contains(t, err.Error(), "tx parse error")
}

func TestConn_GetTx(t *testing.T) {
	node := newFakeNode()
	node.txs["OK"] = txResponseDTO{TxHash: "OK", Height: 1234, GasWanted: 200000, GasUsed: 81234}
	node.txs["FAILED"] = txResponseDTO{TxHash: "FAILED", Height: 1235, Code: 11, RawLog: "out of gas"}
	conn := startNode(t, node)

	receipt, err := conn.GetTx(context.Background(), "OK")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), receipt.Height)
	assert.Equal(t, int64(81234), receipt.GasUsed)

	receipt, err = conn.GetTx(context.Background(), "FAILED")
	if !errors.Is(err, domain.ErrTxRejected) {
		t.Fatalf("expected ErrTxRejected, got %v", err)
	}
	assert.Equal(t, uint32(11), receipt.Code)

	_, err = conn.GetTx(context.Background(), "MISSING")
	if !errors.Is(err, domain.ErrTxNotFound) {
		t.Fatalf("expected ErrTxNotFound, got %v", err)
	}
}
