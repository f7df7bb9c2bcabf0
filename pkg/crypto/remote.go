package crypto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ErrSignerMismatch is returned when a remote wallet answers with a
// signature that does not recover to the address it claims.
var ErrSignerMismatch = errors.New("signature does not recover to signer address")

// WalletAgent is an external wallet able to sign eth_signTypedData_v4 payloads.
type WalletAgent interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	SignTypedDataV4(ctx context.Context, address common.Address, typedDataJSON []byte) ([]byte, error)
}

// RemoteSigner delegates signing to a WalletAgent. Every signature is
// checked by recovery before it is returned.
type RemoteSigner struct {
	address common.Address
	agent   WalletAgent
}

var _ TypedDataSigner = (*RemoteSigner)(nil)

// NewRemoteSigner binds agent to a known address.
func NewRemoteSigner(address common.Address, agent WalletAgent) *RemoteSigner {
	return &RemoteSigner{address: address, agent: agent}
}

// ResolveRemoteSigner asks agent for its accounts and binds to the first one.
func ResolveRemoteSigner(ctx context.Context, agent WalletAgent) (*RemoteSigner, error) {
	accounts, err := agent.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, errors.New("wallet exposes no accounts")
	}
	return NewRemoteSigner(accounts[0], agent), nil
}

func (r *RemoteSigner) Address() common.Address {
	return r.address
}

func (r *RemoteSigner) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode typed data: %w", err)
	}

	sig, err := r.agent.SignTypedDataV4(ctx, r.address, payload)
	if err != nil {
		return nil, fmt.Errorf("wallet signing failed: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("wallet returned %d byte signature", len(sig))
	}
	sig = append([]byte(nil), sig...)
	if sig[64] < 27 {
		sig[64] += 27
	}

	digest, err := HashTypedData(data)
	if err != nil {
		return nil, err
	}
	recovered, err := RecoverAddress(digest, sig)
	if err != nil {
		return nil, err
	}
	if recovered != r.address {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrSignerMismatch, recovered.Hex(), r.address.Hex())
	}
	return sig, nil
}

// RPCWalletAgent talks to a JSON-RPC wallet endpoint (a browser bridge,
// clef, a node with unlocked accounts).
type RPCWalletAgent struct {
	client *rpc.Client
}

// DialWalletAgent connects to a JSON-RPC wallet at rawurl.
func DialWalletAgent(ctx context.Context, rawurl string) (*RPCWalletAgent, error) {
	client, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("failed to dial wallet: %w", err)
	}
	return NewRPCWalletAgent(client), nil
}

func NewRPCWalletAgent(client *rpc.Client) *RPCWalletAgent {
	return &RPCWalletAgent{client: client}
}

func (a *RPCWalletAgent) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := a.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (a *RPCWalletAgent) SignTypedDataV4(ctx context.Context, address common.Address, typedDataJSON []byte) ([]byte, error) {
	var sig hexutil.Bytes
	if err := a.client.CallContext(ctx, &sig, "eth_signTypedData_v4", address, string(typedDataJSON)); err != nil {
		return nil, err
	}
	return sig, nil
}

// Close releases the underlying connection.
func (a *RPCWalletAgent) Close() {
	a.client.Close()
}
