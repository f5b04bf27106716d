package model

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name           string
		in             string
		want           *uint256.Int
		wantErrMessage string
	}{
		{
			name: "one milli ether",
			in:   "0.001",
			want: uint256.NewInt(1000000000000000),
		},
		{
			name: "zero",
			in:   "0",
			want: uint256.NewInt(0),
		},
		{
			name: "blank is explicit zero",
			in:   "",
			want: uint256.NewInt(0),
		},
		{
			name: "whole ether",
			in:   "1.5",
			want: uint256.NewInt(1500000000000000000),
		},
		{
			name: "smallest unit",
			in:   "0.000000000000000001",
			want: uint256.NewInt(1),
		},
		{
			name:           "sub-wei precision",
			in:             "0.0000000000000000001",
			wantErrMessage: "invalid amount: more than 18 decimal places",
		},
		{
			name:           "negative",
			in:             "-1",
			wantErrMessage: "invalid amount: negative amount",
		},
		{
			name:           "not a number",
			in:             "abc",
			wantErrMessage: "can't convert abc to decimal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErrMessage != "" {
				assert.Error(t, err)
				assert.EqualError(t, err, tt.wantErrMessage)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func completeDraft() *TransactionDraft {
	to := common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1111")
	from := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	nonce := uint64(5)
	gasLimit := uint64(21000)
	return &TransactionDraft{
		To:        &to,
		From:      &from,
		ChainID:   big.NewInt(1),
		Nonce:     &nonce,
		GasLimit:  &gasLimit,
		GasTipCap: uint256.NewInt(1),
		GasFeeCap: uint256.NewInt(100),
		Value:     uint256.NewInt(1000000000000000),
		Data:      []byte{},
	}
}

func TestTransactionDraft_IsComplete(t *testing.T) {
	assert.True(t, completeDraft().IsComplete())

	tests := []struct {
		name   string
		mutate func(*TransactionDraft)
	}{
		{"missing to", func(d *TransactionDraft) { d.To = nil }},
		{"missing from", func(d *TransactionDraft) { d.From = nil }},
		{"missing chain id", func(d *TransactionDraft) { d.ChainID = nil }},
		{"missing nonce", func(d *TransactionDraft) { d.Nonce = nil }},
		{"missing gas limit", func(d *TransactionDraft) { d.GasLimit = nil }},
		{"missing value", func(d *TransactionDraft) { d.Value = nil }},
		{"missing data", func(d *TransactionDraft) { d.Data = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := completeDraft()
			tt.mutate(d)
			assert.False(t, d.IsComplete())
			assert.False(t, d.SubmitReady())
		})
	}
}

func TestTransactionDraft_SubmitReady(t *testing.T) {
	d := completeDraft()
	assert.True(t, d.SubmitReady())

	d.GasFeeCap = nil
	assert.False(t, d.SubmitReady())
	assert.True(t, d.IsComplete())
}

func TestDraftFromForm(t *testing.T) {
	tests := []struct {
		name  string
		in    FormInput
		check func(t *testing.T, d *TransactionDraft)
	}{
		{
			name: "full form",
			in: FormInput{
				To:                   "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1111",
				From:                 "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
				ChainID:              "1",
				Nonce:                "5",
				GasLimit:             "21000",
				MaxFeePerGas:         "100",
				MaxPriorityFeePerGas: "1",
				Data:                 "0x",
				Amount:               "0.001",
			},
			check: func(t *testing.T, d *TransactionDraft) {
				assert.True(t, d.SubmitReady())
				assert.Equal(t, uint64(5), *d.Nonce)
				assert.Equal(t, uint256.NewInt(1000000000000000), d.Value)
				assert.Empty(t, d.Data)
				assert.NoError(t, d.Validate())
			},
		},
		{
			name: "hex numerics",
			in: FormInput{
				ChainID:  "0x1",
				Nonce:    "0x5",
				GasLimit: "0x5208",
			},
			check: func(t *testing.T, d *TransactionDraft) {
				assert.Equal(t, big.NewInt(1), d.ChainID)
				assert.Equal(t, uint64(5), *d.Nonce)
				assert.Equal(t, uint64(21000), *d.GasLimit)
			},
		},
		{
			name: "empty form never fails",
			in:   FormInput{},
			check: func(t *testing.T, d *TransactionDraft) {
				assert.False(t, d.IsComplete())
				assert.Nil(t, d.To)
				assert.Nil(t, d.Nonce)
				assert.Equal(t, uint256.NewInt(0), d.Value)
				assert.NotNil(t, d.Data)
				assert.NoError(t, d.Validate())
			},
		},
		{
			name: "malformed address stays absent until submit",
			in:   FormInput{To: "0xnot-an-address"},
			check: func(t *testing.T, d *TransactionDraft) {
				assert.Nil(t, d.To)
				err := d.Validate()
				assert.Error(t, err)
				var validationErr *ValidationError
				assert.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "to", validationErr.Field)
			},
		},
		{
			name: "malformed amount rejected at submit",
			in:   FormInput{Amount: "12,5"},
			check: func(t *testing.T, d *TransactionDraft) {
				assert.Nil(t, d.Value)
				var validationErr *ValidationError
				assert.ErrorAs(t, d.Validate(), &validationErr)
				assert.Equal(t, "amount", validationErr.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, DraftFromForm(tt.in))
		})
	}
}

func TestTransactionDraft_Clone(t *testing.T) {
	d := completeDraft()
	c := d.Clone()

	bigIntComparer := cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })
	if diff := cmp.Diff(d, c, cmp.AllowUnexported(TransactionDraft{}), bigIntComparer); diff != "" {
		t.Errorf("Clone() mismatch (-want +got):\n%s", diff)
	}

	// Mutating the clone must not leak into the original.
	*c.Nonce = 99
	c.Value.SetUint64(7)
	c.ChainID.SetInt64(42)
	assert.Equal(t, uint64(5), *d.Nonce)
	assert.Equal(t, uint256.NewInt(1000000000000000), d.Value)
	assert.Equal(t, big.NewInt(1), d.ChainID)
}
