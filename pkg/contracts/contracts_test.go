package contracts

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestForChain(t *testing.T) {
	tests := []struct {
		chain    int64
		exchange string
		negRisk  string
	}{
		{Polygon, "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E", "0xC5d563A36AE78145C45a50134d48A1215220f80a"},
		{Amoy, "0xdFE02Eb6733538f8Ea35D585af8DE5958AD99E40", "0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296"},
	}
	for _, tt := range tests {
		cfg, err := ForChain(tt.chain)
		if err != nil {
			t.Fatalf("ForChain(%d): %v", tt.chain, err)
		}
		if got := cfg.ExchangeFor(false); got != common.HexToAddress(tt.exchange) {
			t.Errorf("chain %d exchange = %s, want %s", tt.chain, got.Hex(), tt.exchange)
		}
		if got := cfg.ExchangeFor(true); got != common.HexToAddress(tt.negRisk) {
			t.Errorf("chain %d neg-risk exchange = %s, want %s", tt.chain, got.Hex(), tt.negRisk)
		}
		if cfg.Collateral == (common.Address{}) || cfg.ConditionalTokens == (common.Address{}) {
			t.Errorf("chain %d has unset token contracts", tt.chain)
		}
	}
}

func TestForChainUnsupported(t *testing.T) {
	_, err := ForChain(1)
	if !errors.Is(err, ErrUnsupportedChain) {
		t.Errorf("err = %v, want ErrUnsupportedChain", err)
	}
}

func TestSupportedChainsResolve(t *testing.T) {
	for _, id := range SupportedChains() {
		if _, err := ForChain(id); err != nil {
			t.Errorf("ForChain(%d): %v", id, err)
		}
	}
}
