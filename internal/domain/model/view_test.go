package model

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

const testGasPerPubdata = 50000

func TestDeriveView(t *testing.T) {
	view, err := DeriveView(completeDraft(), testGasPerPubdata)
	assert.NoError(t, err)

	want := &PolicyView{
		From:              "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		To:                common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1111").Hex(),
		Nonce:             "0x5",
		ChainID:           "0x1",
		Gas:               "0x5208",
		GasPerPubdataByte: "0xc350",
		Value:             "0x38d7ea4c68000",
		Data:              "0x",
	}
	if diff := cmp.Diff(want, view); diff != "" {
		t.Errorf("DeriveView() mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveView_Deterministic(t *testing.T) {
	d := completeDraft()

	first, err := DeriveView(d, testGasPerPubdata)
	assert.NoError(t, err)
	second, err := DeriveView(d.Clone(), testGasPerPubdata)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.ContentHash(), second.ContentHash())
}

func TestDeriveView_NotReady(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TransactionDraft)
	}{
		{"nil draft", nil},
		{"missing from", func(d *TransactionDraft) { d.From = nil }},
		{"missing to", func(d *TransactionDraft) { d.To = nil }},
		{"missing nonce", func(d *TransactionDraft) { d.Nonce = nil }},
		{"missing chain id", func(d *TransactionDraft) { d.ChainID = nil }},
		{"missing gas limit", func(d *TransactionDraft) { d.GasLimit = nil }},
		{"missing value", func(d *TransactionDraft) { d.Value = nil }},
		{"missing data", func(d *TransactionDraft) { d.Data = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d *TransactionDraft
			if tt.mutate != nil {
				d = completeDraft()
				tt.mutate(d)
			}
			view, err := DeriveView(d, testGasPerPubdata)
			assert.Nil(t, view)
			assert.ErrorIs(t, err, ErrNotReady)
		})
	}
}

func TestDeriveView_ZeroValueAllowed(t *testing.T) {
	d := completeDraft()
	d.Value.Clear()

	view, err := DeriveView(d, testGasPerPubdata)
	assert.NoError(t, err)
	assert.Equal(t, "0x0", view.Value)
}

func TestDeriveViewWithFees(t *testing.T) {
	view, err := DeriveViewWithFees(completeDraft(), testGasPerPubdata)
	assert.NoError(t, err)
	assert.Equal(t, "0x64", view.MaxFee)
	assert.Equal(t, "0x1", view.MaxPriorityFee)

	// Fee fields change the content identity.
	assert.NotEqual(t, view.PolicyView.ContentHash(), view.ContentHash())
}

func TestDeriveViewWithFees_RequiresFees(t *testing.T) {
	d := completeDraft()
	d.GasFeeCap = nil
	_, err := DeriveViewWithFees(d, testGasPerPubdata)
	assert.ErrorIs(t, err, ErrNotReady)

	d = completeDraft()
	d.GasTipCap = nil
	_, err = DeriveViewWithFees(d, testGasPerPubdata)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestPolicyView_ContentHash_DiffersByContent(t *testing.T) {
	d := completeDraft()
	first, err := DeriveView(d, testGasPerPubdata)
	assert.NoError(t, err)

	*d.Nonce = 6
	second, err := DeriveView(d, testGasPerPubdata)
	assert.NoError(t, err)

	assert.NotEqual(t, first.ContentHash(), second.ContentHash())
}
