package order

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/uhyunpark/clobkit/pkg/contracts"
	"github.com/uhyunpark/clobkit/pkg/crypto"
	"github.com/uhyunpark/clobkit/pkg/rounding"
)

// Builder turns intents into signed orders for one signing identity.
type Builder struct {
	signer    crypto.TypedDataSigner
	chainID   int64
	contracts contracts.Config
	sigType   SignatureType
	funder    common.Address
	newSalt   func() (*big.Int, error)
}

// NewBuilder binds a signer to a chain and custody scheme. Non-EOA schemes
// need the funder address that holds the assets.
func NewBuilder(signer crypto.TypedDataSigner, chainID int64, sigType SignatureType, funder common.Address) (*Builder, error) {
	cfg, err := contracts.ForChain(chainID)
	if err != nil {
		return nil, err
	}
	if !sigType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSignatureType, sigType)
	}
	if sigType.NeedsFunder() && funder == (common.Address{}) {
		return nil, fmt.Errorf("%w: %s", ErrFunderRequired, sigType)
	}
	return &Builder{
		signer:    signer,
		chainID:   chainID,
		contracts: cfg,
		sigType:   sigType,
		funder:    funder,
		newSalt:   crypto.GenerateSalt,
	}, nil
}

func (b *Builder) ChainID() int64 { return b.chainID }

// Maker is the address whose funds back the orders.
func (b *Builder) Maker() common.Address {
	if b.sigType.NeedsFunder() {
		return b.funder
	}
	return b.signer.Address()
}

// SignerAddress is the key that authorises the orders.
func (b *Builder) SignerAddress() common.Address {
	return b.signer.Address()
}

// Build prices, rounds and signs an intent.
func (b *Builder) Build(ctx context.Context, intent OrderIntent, tick rounding.TickSize, negRisk bool) (*SignedOrder, error) {
	data, err := BuildOrderData(intent, tick, b.Maker(), b.signer.Address(), b.sigType)
	if err != nil {
		return nil, err
	}
	return b.Sign(ctx, data, negRisk)
}

// Sign salts and signs data against the exchange chosen by negRisk.
func (b *Builder) Sign(ctx context.Context, data *OrderData, negRisk bool) (*SignedOrder, error) {
	if data.Signer != b.signer.Address() {
		return nil, fmt.Errorf("%w: order signer %s, key %s", ErrSignerMismatch, data.Signer.Hex(), b.signer.Address().Hex())
	}

	salt, err := b.newSalt()
	if err != nil {
		return nil, err
	}
	typed, err := data.ToEIP712Order(salt)
	if err != nil {
		return nil, err
	}

	sig, err := b.eip712(negRisk).SignOrder(ctx, b.signer, typed)
	if err != nil {
		return nil, err
	}

	return &SignedOrder{
		OrderData: *data,
		Salt:      salt,
		Signature: hexutil.Encode(sig),
	}, nil
}

// OrderHash is the EIP-712 digest the exchange identifies an order by.
func (b *Builder) OrderHash(o *SignedOrder, negRisk bool) (common.Hash, error) {
	typed, err := o.ToEIP712Order(o.Salt)
	if err != nil {
		return common.Hash{}, err
	}
	digest, err := b.eip712(negRisk).HashOrder(typed)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(digest), nil
}

// Verify reports whether o carries a valid signature from its Signer field.
func (b *Builder) Verify(o *SignedOrder, negRisk bool) (bool, error) {
	sig, err := DecodeSignature(o.Signature)
	if err != nil {
		return false, err
	}
	typed, err := o.ToEIP712Order(o.Salt)
	if err != nil {
		return false, err
	}
	return b.eip712(negRisk).VerifyOrderSignature(typed, sig)
}

// TypedDataJSON renders o as the JSON document a wallet would be asked to sign.
func (b *Builder) TypedDataJSON(o *SignedOrder, negRisk bool) (string, error) {
	typed, err := o.ToEIP712Order(o.Salt)
	if err != nil {
		return "", err
	}
	return b.eip712(negRisk).OrderToJSON(typed)
}

func (b *Builder) eip712(negRisk bool) *crypto.EIP712Signer {
	return crypto.NewEIP712Signer(crypto.ExchangeDomain(b.chainID, b.contracts.ExchangeFor(negRisk)))
}
