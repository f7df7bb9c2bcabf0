// Package contracts maps chain ids to the exchange contract set deployed on them.
package contracts

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	Polygon int64 = 137
	Amoy    int64 = 80002
)

// ErrUnsupportedChain is returned for chains with no known deployment.
var ErrUnsupportedChain = errors.New("unsupported chain")

// Config is the set of contracts an order may reference on one chain.
type Config struct {
	Exchange          common.Address
	NegRiskExchange   common.Address
	Collateral        common.Address
	ConditionalTokens common.Address
}

var registry = map[int64]Config{
	Polygon: {
		Exchange:          common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"),
		NegRiskExchange:   common.HexToAddress("0xC5d563A36AE78145C45a50134d48A1215220f80a"),
		Collateral:        common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"),
		ConditionalTokens: common.HexToAddress("0x4D97DCd97eC945f40cF65F87097ACe5EA0476045"),
	},
	Amoy: {
		Exchange:          common.HexToAddress("0xdFE02Eb6733538f8Ea35D585af8DE5958AD99E40"),
		NegRiskExchange:   common.HexToAddress("0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296"),
		Collateral:        common.HexToAddress("0x9c4e1703476e875070ee25b56a58b008cfb8fa78"),
		ConditionalTokens: common.HexToAddress("0x69308FB512518e39F9b16112fA8d994F4e2Bf8bB"),
	},
}

// ForChain returns the contract set for chainID.
func ForChain(chainID int64) (Config, error) {
	cfg, ok := registry[chainID]
	if !ok {
		return Config{}, fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}
	return cfg, nil
}

// ExchangeFor picks the exchange that verifies orders for a market.
func (c Config) ExchangeFor(negRisk bool) common.Address {
	if negRisk {
		return c.NegRiskExchange
	}
	return c.Exchange
}

// SupportedChains lists every chain with a known deployment.
func SupportedChains() []int64 {
	return []int64{Polygon, Amoy}
}
