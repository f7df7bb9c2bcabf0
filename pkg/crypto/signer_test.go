package crypto

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"
)

// Well-known development key, never funded on a real chain.
const devKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestGenerateKey(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	// Check address is valid
	if signer.Address() == (common.Address{}) {
		t.Error("generated zero address")
	}

	// Check private key hex is 64 chars (32 bytes)
	privHex := signer.PrivateKeyHex()
	if len(privHex) != 64 {
		t.Errorf("private key hex length = %d, want 64", len(privHex))
	}

	// Check public key hex is 130 chars (04 prefix + 64 bytes uncompressed)
	pubHex := signer.PublicKeyHex()
	if len(pubHex) != 130 {
		t.Errorf("public key hex length = %d, want 130", len(pubHex))
	}
}

func TestFromPrivateKeyHex(t *testing.T) {
	signer, err := FromPrivateKeyHex(devKey)
	if err != nil {
		t.Fatalf("failed to load key: %v", err)
	}

	want := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	if signer.Address() != want {
		t.Errorf("address = %s, want %s", signer.Address().Hex(), want.Hex())
	}

	// Same key without prefix
	again, err := FromPrivateKeyHex(signer.PrivateKeyHex())
	if err != nil {
		t.Fatalf("failed to reload key: %v", err)
	}
	if again.Address() != want {
		t.Errorf("reloaded address = %s, want %s", again.Address().Hex(), want.Hex())
	}

	if _, err := FromPrivateKeyHex("0xnothex"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestSignAndVerify(t *testing.T) {
	signer, _ := GenerateKey()
	hash := eth_crypto.Keccak256Hash([]byte("Hello, exchange!")).Bytes()

	signature, err := signer.Sign(hash)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	// Signature should be 65 bytes [R || S || V]
	if len(signature) != 65 {
		t.Errorf("signature length = %d, want 65", len(signature))
	}
	if v := signature[64]; v != 27 && v != 28 {
		t.Errorf("v = %d, want 27 or 28", v)
	}

	if !VerifySignature(signer.Address(), hash, signature) {
		t.Error("signature verification failed")
	}

	// Verify with wrong address
	wrongAddr := common.HexToAddress("0x0000000000000000000000000000000000000001")
	if VerifySignature(wrongAddr, hash, signature) {
		t.Error("signature should not verify with wrong address")
	}

	if _, err := signer.Sign([]byte("short")); err == nil {
		t.Error("expected error signing a non-32-byte digest")
	}
}

func TestRecoverAddressAcceptsBothVEncodings(t *testing.T) {
	signer, _ := GenerateKey()
	hash := eth_crypto.Keccak256Hash([]byte("Test message")).Bytes()

	signature, err := signer.Sign(hash)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	raw := append([]byte(nil), signature...)
	raw[64] -= 27

	for name, sig := range map[string][]byte{"27/28": signature, "0/1": raw} {
		recovered, err := RecoverAddress(hash, sig)
		if err != nil {
			t.Fatalf("%s: failed to recover address: %v", name, err)
		}
		if recovered != signer.Address() {
			t.Errorf("%s: recovered address = %s, want %s", name, recovered.Hex(), signer.Address().Hex())
		}
	}

	if signature[64] < 27 {
		t.Error("RecoverAddress must not mutate its input")
	}
}

func TestInvalidSignature(t *testing.T) {
	signer, _ := GenerateKey()
	hash := common.BytesToHash([]byte("test")).Bytes()

	// Test invalid signature length
	invalidSig := []byte{1, 2, 3}
	if VerifySignature(signer.Address(), hash, invalidSig) {
		t.Error("invalid signature should not verify")
	}

	// Test invalid hash length
	validSig := make([]byte, 65)
	if VerifySignature(signer.Address(), []byte("short"), validSig) {
		t.Error("invalid hash should not verify")
	}
}

func TestGenerateSalt(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		salt, err := GenerateSalt()
		if err != nil {
			t.Fatalf("failed to generate salt: %v", err)
		}
		if salt.Sign() < 0 || salt.Cmp(maxSalt) >= 0 {
			t.Fatalf("salt %s out of range", salt)
		}
		seen[salt.String()] = true
	}
	if len(seen) < 2 {
		t.Error("salts should vary between calls")
	}
}

func TestSignTypedDataMatchesHash(t *testing.T) {
	signer, _ := FromPrivateKeyHex(devKey)
	e := NewEIP712Signer(ExchangeDomain(137, common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E")))

	order := testOrder(signer.Address())
	typed, err := e.OrderTypedData(order)
	if err != nil {
		t.Fatalf("OrderTypedData: %v", err)
	}
	sig, err := signer.SignTypedData(context.Background(), typed)
	if err != nil {
		t.Fatalf("SignTypedData: %v", err)
	}

	hash, _ := e.HashOrder(order)
	if !VerifySignature(signer.Address(), hash, sig) {
		t.Error("typed-data signature does not verify against order hash")
	}
}

func testOrder(signer common.Address) *OrderEIP712 {
	return &OrderEIP712{
		Salt:          big.NewInt(479249096354),
		Maker:         signer,
		Signer:        signer,
		Taker:         common.Address{},
		TokenID:       big.NewInt(1234),
		MakerAmount:   big.NewInt(100000000),
		TakerAmount:   big.NewInt(50000000),
		Expiration:    big.NewInt(0),
		Nonce:         big.NewInt(0),
		FeeRateBps:    big.NewInt(0),
		Side:          0,
		SignatureType: 0,
	}
}
