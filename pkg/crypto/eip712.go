package crypto

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	ExchangeDomainName = "Polymarket CTF Exchange"
	AuthDomainName     = "ClobAuthDomain"
	DomainVersion      = "1"

	// AuthMessage is the fixed statement signed for wallet (L1) authentication.
	AuthMessage = "This message attests that I control the given wallet"
)

// EIP712Domain represents the domain separator for EIP-712 typed data
type EIP712Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address // zero for the auth domain
}

// ExchangeDomain is the order-signing domain bound to one exchange contract.
func ExchangeDomain(chainID int64, exchange common.Address) EIP712Domain {
	return EIP712Domain{
		Name:              ExchangeDomainName,
		Version:           DomainVersion,
		ChainID:           big.NewInt(chainID),
		VerifyingContract: exchange,
	}
}

// AuthDomain is the domain used for wallet authentication messages.
func AuthDomain(chainID int64) EIP712Domain {
	return EIP712Domain{
		Name:    AuthDomainName,
		Version: DomainVersion,
		ChainID: big.NewInt(chainID),
	}
}

func (d EIP712Domain) hasContract() bool {
	return d.VerifyingContract != (common.Address{})
}

func (d EIP712Domain) types() []apitypes.Type {
	t := []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	}
	if d.hasContract() {
		t = append(t, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}
	return t
}

func (d EIP712Domain) typed() apitypes.TypedDataDomain {
	out := apitypes.TypedDataDomain{
		Name:    d.Name,
		Version: d.Version,
		ChainId: (*math.HexOrDecimal256)(d.ChainID),
	}
	if d.hasContract() {
		out.VerifyingContract = d.VerifyingContract.Hex()
	}
	return out
}

// OrderEIP712 is the exchange order exactly as the contract hashes it.
type OrderEIP712 struct {
	Salt          *big.Int
	Maker         common.Address // funds holder
	Signer        common.Address // key that authorises the order
	Taker         common.Address // zero address = public order
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          uint8 // 0 = BUY, 1 = SELL
	SignatureType uint8
}

// ClobAuthEIP712 is the wallet authentication payload.
type ClobAuthEIP712 struct {
	Address   common.Address
	Timestamp string
	Nonce     *big.Int
	Message   string
}

var orderType = []apitypes.Type{
	{Name: "salt", Type: "uint256"},
	{Name: "maker", Type: "address"},
	{Name: "signer", Type: "address"},
	{Name: "taker", Type: "address"},
	{Name: "tokenId", Type: "uint256"},
	{Name: "makerAmount", Type: "uint256"},
	{Name: "takerAmount", Type: "uint256"},
	{Name: "expiration", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "feeRateBps", Type: "uint256"},
	{Name: "side", Type: "uint8"},
	{Name: "signatureType", Type: "uint8"},
}

var clobAuthType = []apitypes.Type{
	{Name: "address", Type: "address"},
	{Name: "timestamp", Type: "string"},
	{Name: "nonce", Type: "uint256"},
	{Name: "message", Type: "string"},
}

// EIP712Signer builds, hashes and signs orders for one domain
type EIP712Signer struct {
	domain EIP712Domain
}

// NewEIP712Signer creates a new EIP-712 signer with given domain
func NewEIP712Signer(domain EIP712Domain) *EIP712Signer {
	return &EIP712Signer{domain: domain}
}

// Domain returns the domain this signer is bound to.
func (e *EIP712Signer) Domain() EIP712Domain {
	return e.domain
}

// OrderTypedData builds the typed-data document for an order.
func (e *EIP712Signer) OrderTypedData(order *OrderEIP712) (apitypes.TypedData, error) {
	if err := order.validate(); err != nil {
		return apitypes.TypedData{}, err
	}
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": e.domain.types(),
			"Order":        orderType,
		},
		PrimaryType: "Order",
		Domain:      e.domain.typed(),
		Message: apitypes.TypedDataMessage{
			"salt":          order.Salt.String(),
			"maker":         order.Maker.Hex(),
			"signer":        order.Signer.Hex(),
			"taker":         order.Taker.Hex(),
			"tokenId":       order.TokenID.String(),
			"makerAmount":   order.MakerAmount.String(),
			"takerAmount":   order.TakerAmount.String(),
			"expiration":    order.Expiration.String(),
			"nonce":         order.Nonce.String(),
			"feeRateBps":    order.FeeRateBps.String(),
			"side":          fmt.Sprintf("%d", order.Side),
			"signatureType": fmt.Sprintf("%d", order.SignatureType),
		},
	}, nil
}

// ClobAuthTypedData builds the typed-data document for wallet authentication.
func (e *EIP712Signer) ClobAuthTypedData(msg *ClobAuthEIP712) apitypes.TypedData {
	nonce := msg.Nonce
	if nonce == nil {
		nonce = new(big.Int)
	}
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": e.domain.types(),
			"ClobAuth":     clobAuthType,
		},
		PrimaryType: "ClobAuth",
		Domain:      e.domain.typed(),
		Message: apitypes.TypedDataMessage{
			"address":   msg.Address.Hex(),
			"timestamp": msg.Timestamp,
			"nonce":     nonce.String(),
			"message":   msg.Message,
		},
	}
}

// HashTypedData returns keccak256("\x19\x01" || domainSeparator || hashStruct(message)).
func HashTypedData(typedData apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	return crypto.Keccak256Hash(rawData).Bytes(), nil
}

// HashOrder returns the EIP-712 digest of order.
// Returns the digest that should be signed
func (e *EIP712Signer) HashOrder(order *OrderEIP712) ([]byte, error) {
	typedData, err := e.OrderTypedData(order)
	if err != nil {
		return nil, err
	}
	return HashTypedData(typedData)
}

// SignOrder asks signer for a signature over the order.
func (e *EIP712Signer) SignOrder(ctx context.Context, signer TypedDataSigner, order *OrderEIP712) ([]byte, error) {
	typedData, err := e.OrderTypedData(order)
	if err != nil {
		return nil, fmt.Errorf("failed to build order: %w", err)
	}

	signature, err := signer.SignTypedData(ctx, typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to sign order: %w", err)
	}

	return signature, nil
}

// VerifyOrderSignature reports whether signature was produced by order.Signer.
func (e *EIP712Signer) VerifyOrderSignature(order *OrderEIP712, signature []byte) (bool, error) {
	recoveredAddr, err := e.RecoverOrderSigner(order, signature)
	if err != nil {
		return false, err
	}
	return recoveredAddr == order.Signer, nil
}

// RecoverOrderSigner recovers the address that signed an order
func (e *EIP712Signer) RecoverOrderSigner(order *OrderEIP712, signature []byte) (common.Address, error) {
	hash, err := e.HashOrder(order)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash order: %w", err)
	}

	return RecoverAddress(hash, signature)
}

// OrderToJSON renders the typed data in the eth_signTypedData_v4 JSON format
// wallets expect.
func (e *EIP712Signer) OrderToJSON(order *OrderEIP712) (string, error) {
	typedData, err := e.OrderTypedData(order)
	if err != nil {
		return "", err
	}

	jsonBytes, err := json.MarshalIndent(typedData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return string(jsonBytes), nil
}

func (o *OrderEIP712) validate() error {
	fields := map[string]*big.Int{
		"salt":        o.Salt,
		"tokenId":     o.TokenID,
		"makerAmount": o.MakerAmount,
		"takerAmount": o.TakerAmount,
		"expiration":  o.Expiration,
		"nonce":       o.Nonce,
		"feeRateBps":  o.FeeRateBps,
	}
	for name, v := range fields {
		if v == nil {
			return fmt.Errorf("order %s is not set", name)
		}
		if v.Sign() < 0 {
			return fmt.Errorf("order %s is negative", name)
		}
	}
	if o.Side > 1 {
		return fmt.Errorf("invalid order side %d", o.Side)
	}
	return nil
}
