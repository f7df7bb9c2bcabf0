package order

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/clobkit/pkg/contracts"
	"github.com/uhyunpark/clobkit/pkg/crypto"
	"github.com/uhyunpark/clobkit/pkg/rounding"
)

const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testSigner(t *testing.T) *crypto.Signer {
	t.Helper()
	s, err := crypto.FromPrivateKeyHex(testKey)
	if err != nil {
		t.Fatalf("FromPrivateKeyHex: %v", err)
	}
	return s
}

func limitIntent(t *testing.T, side Side) OrderIntent {
	t.Helper()
	intent, err := ResolveOrderDefaults(UserOrder{TokenID: "71321045679252212594626385532706912750332728571942532289631379312455583992563", Price: d("0.58"), Size: d("21.04"), Side: side}, 0)
	if err != nil {
		t.Fatalf("ResolveOrderDefaults: %v", err)
	}
	return intent
}

func TestBuilderSignsVerifiableOrders(t *testing.T) {
	signer := testSigner(t)
	b, err := NewBuilder(signer, contracts.Amoy, EOA, common.Address{})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	for _, side := range []Side{Buy, Sell} {
		for _, negRisk := range []bool{false, true} {
			o, err := b.Build(context.Background(), limitIntent(t, side), rounding.Tick001, negRisk)
			if err != nil {
				t.Fatalf("Build(%s, negRisk=%v): %v", side, negRisk, err)
			}
			if o.Maker != signer.Address() || o.Signer != signer.Address() {
				t.Errorf("EOA maker/signer = %s/%s, want %s", o.Maker.Hex(), o.Signer.Hex(), signer.Address().Hex())
			}
			sig, err := DecodeSignature(o.Signature)
			if err != nil {
				t.Fatalf("DecodeSignature: %v", err)
			}
			if v := sig[64]; v != 27 && v != 28 {
				t.Errorf("v = %d, want 27 or 28", v)
			}

			ok, err := b.Verify(o, negRisk)
			if err != nil || !ok {
				t.Errorf("Verify(%s, negRisk=%v) = %v, %v", side, negRisk, ok, err)
			}
			// Signed for one exchange, rejected by the other
			ok, _ = b.Verify(o, !negRisk)
			if ok {
				t.Errorf("order signed for negRisk=%v verified against the other exchange", negRisk)
			}
		}
	}
}

func TestBuilderFreshSaltPerOrder(t *testing.T) {
	b, _ := NewBuilder(testSigner(t), contracts.Polygon, EOA, common.Address{})
	intent := limitIntent(t, Buy)

	first, err := b.Build(context.Background(), intent, rounding.Tick001, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := b.Build(context.Background(), intent, rounding.Tick001, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if first.Salt.Cmp(second.Salt) == 0 {
		t.Error("two orders share a salt")
	}
	h1, _ := b.OrderHash(first, false)
	h2, _ := b.OrderHash(second, false)
	if h1 == h2 {
		t.Error("two orders share a hash")
	}
}

func TestBuilderCustody(t *testing.T) {
	signer := testSigner(t)
	funder := common.HexToAddress("0x00000000000000000000000000000000000000f0")

	for _, st := range []SignatureType{PolyProxy, PolyGnosisSafe, Poly1271} {
		if _, err := NewBuilder(signer, contracts.Polygon, st, common.Address{}); !errors.Is(err, ErrFunderRequired) {
			t.Errorf("%s without funder: err = %v, want ErrFunderRequired", st, err)
		}

		b, err := NewBuilder(signer, contracts.Polygon, st, funder)
		if err != nil {
			t.Fatalf("NewBuilder(%s): %v", st, err)
		}
		o, err := b.Build(context.Background(), limitIntent(t, Buy), rounding.Tick001, false)
		if err != nil {
			t.Fatalf("Build(%s): %v", st, err)
		}
		if o.Maker != funder {
			t.Errorf("%s maker = %s, want funder %s", st, o.Maker.Hex(), funder.Hex())
		}
		if o.Signer != signer.Address() {
			t.Errorf("%s signer = %s, want %s", st, o.Signer.Hex(), signer.Address().Hex())
		}
		if o.SignatureType != st {
			t.Errorf("signatureType = %s, want %s", o.SignatureType, st)
		}
	}

	if _, err := NewBuilder(signer, 1, EOA, common.Address{}); !errors.Is(err, contracts.ErrUnsupportedChain) {
		t.Errorf("unknown chain err = %v, want ErrUnsupportedChain", err)
	}
	if _, err := NewBuilder(signer, contracts.Polygon, SignatureType(9), funder); !errors.Is(err, ErrInvalidSignatureType) {
		t.Errorf("bad signature type err = %v, want ErrInvalidSignatureType", err)
	}
}

func TestBuilderSignerMismatch(t *testing.T) {
	b, _ := NewBuilder(testSigner(t), contracts.Polygon, EOA, common.Address{})
	other := common.HexToAddress("0x0000000000000000000000000000000000000bad")

	data, err := BuildOrderData(limitIntent(t, Buy), rounding.Tick001, other, other, EOA)
	if err != nil {
		t.Fatalf("BuildOrderData: %v", err)
	}
	if _, err := b.Sign(context.Background(), data, false); !errors.Is(err, ErrSignerMismatch) {
		t.Errorf("err = %v, want ErrSignerMismatch", err)
	}
}

func TestSignedOrderJSON(t *testing.T) {
	b, _ := NewBuilder(testSigner(t), contracts.Polygon, EOA, common.Address{})
	b.newSalt = func() (*big.Int, error) { return big.NewInt(1234567890123), nil }

	o, err := b.Build(context.Background(), limitIntent(t, Sell), rounding.Tick001, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	body, err := json.Marshal(PostOrderRequest{Order: o, Owner: "api-key", OrderType: GTC})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{`"salt":1234567890123`, `"side":"SELL"`, `"signatureType":0`, `"makerAmount":"21040000"`, `"takerAmount":"12203200"`, `"orderType":"GTC"`, `"owner":"api-key"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}

	var decoded PostOrderRequest
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	ok, err := b.Verify(decoded.Order, false)
	if err != nil || !ok {
		t.Errorf("decoded order Verify = %v, %v", ok, err)
	}

	doc, err := b.TypedDataJSON(o, false)
	if err != nil {
		t.Fatalf("TypedDataJSON: %v", err)
	}
	if !strings.Contains(doc, "1234567890123") {
		t.Error("typed data JSON missing salt")
	}
}

func TestDecodeSignature(t *testing.T) {
	good := "0x" + strings.Repeat("ab", 65)
	if _, err := DecodeSignature(good); err != nil {
		t.Errorf("DecodeSignature(valid) = %v", err)
	}
	if _, err := DecodeSignature(strings.Repeat("ab", 65)); err != nil {
		t.Errorf("DecodeSignature(no prefix) = %v", err)
	}
	for _, bad := range []string{"0x1234", "0xzz" + strings.Repeat("ab", 64)} {
		if _, err := DecodeSignature(bad); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("DecodeSignature(%q) err = %v, want ErrInvalidSignature", bad, err)
		}
	}
}
