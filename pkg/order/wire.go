package order

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/clobkit/pkg/crypto"
)

// signedOrderJSON is the order as the venue receives it: integers as decimal
// strings except salt and signatureType, side as text.
type signedOrderJSON struct {
	Salt          int64         `json:"salt"`
	Maker         string        `json:"maker"`
	Signer        string        `json:"signer"`
	Taker         string        `json:"taker"`
	TokenID       string        `json:"tokenId"`
	MakerAmount   string        `json:"makerAmount"`
	TakerAmount   string        `json:"takerAmount"`
	Expiration    string        `json:"expiration"`
	Nonce         string        `json:"nonce"`
	FeeRateBps    string        `json:"feeRateBps"`
	Side          Side          `json:"side"`
	SignatureType SignatureType `json:"signatureType"`
	Signature     string        `json:"signature"`
}

func (o *SignedOrder) MarshalJSON() ([]byte, error) {
	if o.Salt == nil || !o.Salt.IsInt64() {
		return nil, fmt.Errorf("salt is not a JSON-safe integer")
	}
	return json.Marshal(signedOrderJSON{
		Salt:          o.Salt.Int64(),
		Maker:         o.Maker.Hex(),
		Signer:        o.Signer.Hex(),
		Taker:         o.Taker.Hex(),
		TokenID:       o.TokenID,
		MakerAmount:   bigString(o.MakerAmount),
		TakerAmount:   bigString(o.TakerAmount),
		Expiration:    bigString(o.Expiration),
		Nonce:         bigString(o.Nonce),
		FeeRateBps:    bigString(o.FeeRateBps),
		Side:          o.Side,
		SignatureType: o.SignatureType,
		Signature:     o.Signature,
	})
}

func (o *SignedOrder) UnmarshalJSON(data []byte) error {
	var w signedOrderJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var err error
	if o.MakerAmount, err = parseBig("makerAmount", w.MakerAmount); err != nil {
		return err
	}
	if o.TakerAmount, err = parseBig("takerAmount", w.TakerAmount); err != nil {
		return err
	}
	if o.Expiration, err = parseBig("expiration", w.Expiration); err != nil {
		return err
	}
	if o.Nonce, err = parseBig("nonce", w.Nonce); err != nil {
		return err
	}
	if o.FeeRateBps, err = parseBig("feeRateBps", w.FeeRateBps); err != nil {
		return err
	}

	o.Salt = big.NewInt(w.Salt)
	o.Maker = common.HexToAddress(w.Maker)
	o.Signer = common.HexToAddress(w.Signer)
	o.Taker = common.HexToAddress(w.Taker)
	o.TokenID = w.TokenID
	o.Side = w.Side
	o.SignatureType = w.SignatureType
	o.Signature = w.Signature
	return nil
}

// ToEIP712Order converts the order into the form the exchange hashes.
func (o *OrderData) ToEIP712Order(salt *big.Int) (*crypto.OrderEIP712, error) {
	tokenID, ok := new(big.Int).SetString(o.TokenID, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTokenID, o.TokenID)
	}
	side, err := o.Side.Uint8()
	if err != nil {
		return nil, err
	}
	if !o.SignatureType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSignatureType, o.SignatureType)
	}

	return &crypto.OrderEIP712{
		Salt:          salt,
		Maker:         o.Maker,
		Signer:        o.Signer,
		Taker:         o.Taker,
		TokenID:       tokenID,
		MakerAmount:   o.MakerAmount,
		TakerAmount:   o.TakerAmount,
		Expiration:    o.Expiration,
		Nonce:         o.Nonce,
		FeeRateBps:    o.FeeRateBps,
		Side:          side,
		SignatureType: uint8(o.SignatureType),
	}, nil
}

// FromEIP712Order converts a hashed order back to OrderData.
func FromEIP712Order(order *crypto.OrderEIP712) (*OrderData, error) {
	side, err := sideFromUint8(order.Side)
	if err != nil {
		return nil, err
	}
	return &OrderData{
		Maker:         order.Maker,
		Taker:         order.Taker,
		Signer:        order.Signer,
		TokenID:       order.TokenID.String(),
		MakerAmount:   order.MakerAmount,
		TakerAmount:   order.TakerAmount,
		Side:          side,
		FeeRateBps:    order.FeeRateBps,
		Nonce:         order.Nonce,
		Expiration:    order.Expiration,
		SignatureType: SignatureType(order.SignatureType),
	}, nil
}

// DecodeSignature decodes a hex signature (with or without 0x prefix)
func DecodeSignature(sig string) ([]byte, error) {
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(sig, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if len(sigBytes) != 65 {
		return nil, fmt.Errorf("%w: must be 65 bytes, got %d", ErrInvalidSignature, len(sigBytes))
	}

	return sigBytes, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseBig(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", field, s)
	}
	return v, nil
}
