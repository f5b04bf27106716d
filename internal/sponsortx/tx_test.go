package sponsortx

import (
	"bytes"
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/model"
)

// stubSigner returns a fixed signature so serialization tests are
// deterministic. Calls are counted to assert the fail-fast property.
type stubSigner struct {
	address   common.Address
	signature []byte
	calls     int
}

func (s *stubSigner) Address() common.Address {
	return s.address
}

func (s *stubSigner) SignDigest(_ context.Context, _ [32]byte) ([]byte, error) {
	s.calls++
	return s.signature, nil
}

func fixedSignature() []byte {
	sig := make([]byte, 65)
	for i := range sig {
		sig[i] = byte(i + 1)
	}
	sig[64] = 1 // recovery id
	return sig
}

func testDraft() *model.TransactionDraft {
	to := common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1111")
	from := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	nonce := uint64(5)
	gasLimit := uint64(21000)
	return &model.TransactionDraft{
		To:        &to,
		From:      &from,
		ChainID:   uint256.NewInt(1).ToBig(),
		Nonce:     &nonce,
		GasLimit:  &gasLimit,
		GasTipCap: uint256.NewInt(1),
		GasFeeCap: uint256.NewInt(100),
		Value:     uint256.NewInt(1000000000000000),
		Data:      []byte{},
	}
}

func testParams() *model.PaymasterParams {
	return &model.PaymasterParams{
		Paymaster:      common.HexToAddress("0x0000000000000000000000000000000000007777"),
		PaymasterInput: []byte{0xde, 0xad},
	}
}

func TestFromDraft_FailsFastOnMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.TransactionDraft)
	}{
		{"missing from", func(d *model.TransactionDraft) { d.From = nil }},
		{"missing to", func(d *model.TransactionDraft) { d.To = nil }},
		{"missing chain id", func(d *model.TransactionDraft) { d.ChainID = nil }},
		{"missing nonce", func(d *model.TransactionDraft) { d.Nonce = nil }},
		{"missing gas limit", func(d *model.TransactionDraft) { d.GasLimit = nil }},
		{"missing max fee", func(d *model.TransactionDraft) { d.GasFeeCap = nil }},
		{"missing priority fee", func(d *model.TransactionDraft) { d.GasTipCap = nil }},
		{"missing value", func(d *model.TransactionDraft) { d.Value = nil }},
		{"missing data", func(d *model.TransactionDraft) { d.Data = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDraft()
			tt.mutate(d)
			tx, err := FromDraft(d, testParams(), DefaultGasPerPubdata)
			assert.Nil(t, tx)
			assert.ErrorIs(t, err, model.ErrNotReady)
		})
	}
}

func TestFromDraft_RequiresPaymasterParams(t *testing.T) {
	tx, err := FromDraft(testDraft(), nil, DefaultGasPerPubdata)
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, model.ErrNotReady)
}

func TestTx_Digest(t *testing.T) {
	tx, err := FromDraft(testDraft(), testParams(), DefaultGasPerPubdata)
	assert.NoError(t, err)

	first, err := tx.Digest()
	assert.NoError(t, err)
	second, err := tx.Digest()
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotEqual(t, [32]byte{}, first)

	// The digest is domain-separated by chain id.
	other, err := FromDraft(testDraft(), testParams(), DefaultGasPerPubdata)
	assert.NoError(t, err)
	other.ChainID.SetInt64(2)
	otherDigest, err := other.Digest()
	assert.NoError(t, err)
	assert.NotEqual(t, first, otherDigest)
}

func TestTx_Digest_CoversPaymasterTerms(t *testing.T) {
	base, err := FromDraft(testDraft(), testParams(), DefaultGasPerPubdata)
	assert.NoError(t, err)
	baseDigest, err := base.Digest()
	assert.NoError(t, err)

	// Altered sponsorship terms must invalidate the signed digest.
	altered, err := FromDraft(testDraft(), &model.PaymasterParams{
		Paymaster:      testParams().Paymaster,
		PaymasterInput: []byte{0xbe, 0xef},
	}, DefaultGasPerPubdata)
	assert.NoError(t, err)
	alteredDigest, err := altered.Digest()
	assert.NoError(t, err)

	assert.NotEqual(t, baseDigest, alteredDigest)
}

func TestTx_Sign(t *testing.T) {
	tx, err := FromDraft(testDraft(), testParams(), DefaultGasPerPubdata)
	assert.NoError(t, err)

	signer := &stubSigner{signature: fixedSignature()}
	assert.NoError(t, tx.Sign(context.Background(), signer))
	assert.Equal(t, 1, signer.calls)
	assert.Len(t, tx.Signature, 65)
	// Recovery id 1 is shifted to the 28 wire convention.
	assert.Equal(t, byte(28), tx.Signature[64])
}

func TestTx_Sign_RejectsMalformedSignature(t *testing.T) {
	tx, err := FromDraft(testDraft(), testParams(), DefaultGasPerPubdata)
	assert.NoError(t, err)

	signer := &stubSigner{signature: []byte{0x01, 0x02}}
	err = tx.Sign(context.Background(), signer)

	var signingErr *model.SigningError
	assert.ErrorAs(t, err, &signingErr)
	assert.Empty(t, tx.Signature)
}

func TestTx_Serialize(t *testing.T) {
	tx, err := FromDraft(testDraft(), testParams(), DefaultGasPerPubdata)
	assert.NoError(t, err)
	assert.NoError(t, tx.Sign(context.Background(), &stubSigner{signature: fixedSignature()}))

	raw, err := tx.Serialize()
	assert.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, byte(TxType), raw[0])
	assert.True(t, bytes.Contains(raw, testParams().Paymaster.Bytes()))
	assert.True(t, bytes.Contains(raw, testParams().PaymasterInput))
	assert.True(t, bytes.Contains(raw, tx.Signature))
}

func TestTx_Serialize_Deterministic(t *testing.T) {
	build := func() []byte {
		tx, err := FromDraft(testDraft(), testParams(), DefaultGasPerPubdata)
		assert.NoError(t, err)
		assert.NoError(t, tx.Sign(context.Background(), &stubSigner{signature: fixedSignature()}))
		raw, err := tx.Serialize()
		assert.NoError(t, err)
		return raw
	}

	assert.Equal(t, build(), build())
}

func TestTx_Serialize_RequiresSignature(t *testing.T) {
	tx, err := FromDraft(testDraft(), testParams(), DefaultGasPerPubdata)
	assert.NoError(t, err)

	raw, err := tx.Serialize()
	assert.Nil(t, raw)

	var signingErr *model.SigningError
	assert.ErrorAs(t, err, &signingErr)
}

func TestTx_Hash(t *testing.T) {
	tx, err := FromDraft(testDraft(), testParams(), DefaultGasPerPubdata)
	assert.NoError(t, err)
	assert.NoError(t, tx.Sign(context.Background(), &stubSigner{signature: fixedSignature()}))

	raw, err := tx.Serialize()
	assert.NoError(t, err)

	hash, err := tx.Hash()
	assert.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash(raw), hash)
}
