package lcd

import (
	"github.com/iho/gosend/internal/domain"
)

// Cosmos REST encodes 64-bit integers as JSON strings.

type coinDTO struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type paginationDTO struct {
	NextKey *string `json:"next_key"`
	Total   string  `json:"total"`
}

type balancesResponse struct {
	Balances   []coinDTO      `json:"balances"`
	Pagination *paginationDTO `json:"pagination"`
}

func (r *balancesResponse) nextKey() string {
	if r.Pagination == nil || r.Pagination.NextKey == nil {
		return ""
	}
	return *r.Pagination.NextKey
}

// accountDTO covers BaseAccount and the vesting accounts that embed one.
type accountDTO struct {
	Type               string      `json:"@type"`
	Address            string      `json:"address"`
	AccountNumber      string      `json:"account_number"`
	Sequence           string      `json:"sequence"`
	BaseAccount        *accountDTO `json:"base_account"`
	BaseVestingAccount *accountDTO `json:"base_vesting_account"`
}

func (a *accountDTO) base() *accountDTO {
	switch {
	case a.BaseVestingAccount != nil:
		return a.BaseVestingAccount.base()
	case a.BaseAccount != nil:
		return a.BaseAccount.base()
	}
	return a
}

type accountResponse struct {
	Account accountDTO `json:"account"`
}

type nodeInfoResponse struct {
	DefaultNodeInfo struct {
		Network string `json:"network"`
		Version string `json:"version"`
		Moniker string `json:"moniker"`
	} `json:"default_node_info"`
	ApplicationVersion struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"application_version"`
}

type broadcastRequest struct {
	TxBytes []byte `json:"tx_bytes"`
	Mode    string `json:"mode"`
}

type txResponseDTO struct {
	Height    int64  `json:"height,string"`
	TxHash    string `json:"txhash"`
	Code      uint32 `json:"code"`
	Codespace string `json:"codespace"`
	RawLog    string `json:"raw_log"`
	GasWanted int64  `json:"gas_wanted,string"`
	GasUsed   int64  `json:"gas_used,string"`
}

func (r txResponseDTO) toDomain() *domain.TxReceipt {
	return &domain.TxReceipt{
		TxHash:    r.TxHash,
		Height:    r.Height,
		Code:      r.Code,
		GasWanted: r.GasWanted,
		GasUsed:   r.GasUsed,
		RawLog:    r.RawLog,
	}
}

type txEnvelope struct {
	TxResponse txResponseDTO `json:"tx_response"`
}

// errorResponse is the gRPC-gateway error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
