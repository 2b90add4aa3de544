package domain

import (
	"fmt"
	"strings"
)

// Network names accepted by ResolveNetwork.
const (
	NetworkTestnet = "testnet"
	NetworkMainnet = "mainnet"
	NetworkCustom  = "custom"
)

// Network identifies which ledger the run talks to.
type Network struct {
	Name          string
	ChainID       string
	Endpoint      string
	AddressPrefix string
	FeeDenom      string
}

var networkPresets = map[string]Network{
	NetworkTestnet: {
		Name:          NetworkTestnet,
		ChainID:       "osmo-test-5",
		Endpoint:      "https://lcd.osmotest5.osmosis.zone",
		AddressPrefix: "osmo",
		FeeDenom:      "uosmo",
	},
	NetworkMainnet: {
		Name:          NetworkMainnet,
		ChainID:       "osmosis-1",
		Endpoint:      "https://lcd.osmosis.zone",
		AddressPrefix: "osmo",
		FeeDenom:      "uosmo",
	},
}

// NetworkOverrides holds values that replace preset fields when non-empty.
type NetworkOverrides struct {
	Endpoint      string
	ChainID       string
	AddressPrefix string
	FeeDenom      string
}

// ResolveNetwork picks a preset by name and applies overrides. The custom
// network has no preset, so it requires both an endpoint and a chain ID.
func ResolveNetwork(name string, o NetworkOverrides) (Network, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	var n Network
	switch name {
	case NetworkTestnet, NetworkMainnet:
		n = networkPresets[name]
	case NetworkCustom:
		if o.Endpoint == "" || o.ChainID == "" {
			return Network{}, fmt.Errorf("%w: custom network needs an endpoint and a chain id", ErrUnknownNetwork)
		}
		n = Network{Name: NetworkCustom, AddressPrefix: "osmo", FeeDenom: "uosmo"}
	default:
		return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}

	if o.Endpoint != "" {
		n.Endpoint = strings.TrimRight(o.Endpoint, "/")
	}
	if o.ChainID != "" {
		n.ChainID = o.ChainID
	}
	if o.AddressPrefix != "" {
		n.AddressPrefix = o.AddressPrefix
	}
	if o.FeeDenom != "" {
		n.FeeDenom = o.FeeDenom
	}

	return n, nil
}
