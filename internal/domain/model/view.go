package model

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// PolicyView is the normalized snapshot of a draft sent to the sponsorship
// policy service. All numbers are hex-quantity encoded. It is derived fresh
// from the draft on every change, never mutated.
type PolicyView struct {
	From              string `json:"from"`
	To                string `json:"to"`
	Nonce             string `json:"nonce"`
	ChainID           string `json:"chainId"`
	Gas               string `json:"gas"`
	GasPerPubdataByte string `json:"gasPerPubdataByte"`
	Value             string `json:"value"`
	Data              string `json:"data"`
}

// PolicyViewWithFees is the fee-inclusive variant used by the paymaster param
// request, which binds sponsorship to the exact fee values.
type PolicyViewWithFees struct {
	PolicyView
	MaxFee         string `json:"maxFee"`
	MaxPriorityFee string `json:"maxPriorityFee"`
}

// DeriveView builds the no-fee policy view. It returns ErrNotReady when any
// required field is still unresolved; missing data is never papered over with
// placeholder zeros. A zero Value is allowed because the draft stores an
// explicit zero for a blank amount.
func DeriveView(d *TransactionDraft, gasPerPubdata uint64) (*PolicyView, error) {
	switch {
	case d == nil:
		return nil, ErrNotReady
	case d.From == nil:
		return nil, NotReadyField("from")
	case d.To == nil:
		return nil, NotReadyField("to")
	case d.Nonce == nil:
		return nil, NotReadyField("nonce")
	case d.ChainID == nil:
		return nil, NotReadyField("chainId")
	case d.GasLimit == nil:
		return nil, NotReadyField("gasLimit")
	case d.Value == nil:
		return nil, NotReadyField("value")
	case d.Data == nil:
		return nil, NotReadyField("data")
	}
	return &PolicyView{
		From:              d.From.Hex(),
		To:                d.To.Hex(),
		Nonce:             hexutil.EncodeUint64(*d.Nonce),
		ChainID:           hexutil.EncodeBig(d.ChainID),
		Gas:               hexutil.EncodeUint64(*d.GasLimit),
		GasPerPubdataByte: hexutil.EncodeUint64(gasPerPubdata),
		Value:             hexutil.EncodeBig(d.Value.ToBig()),
		Data:              hexutil.Encode(d.Data),
	}, nil
}

// DeriveViewWithFees builds the fee-inclusive view. Fee caps are required on
// top of the DeriveView fields.
func DeriveViewWithFees(d *TransactionDraft, gasPerPubdata uint64) (*PolicyViewWithFees, error) {
	base, err := DeriveView(d, gasPerPubdata)
	if err != nil {
		return nil, err
	}
	if d.GasFeeCap == nil {
		return nil, NotReadyField("maxFeePerGas")
	}
	if d.GasTipCap == nil {
		return nil, NotReadyField("maxPriorityFeePerGas")
	}
	return &PolicyViewWithFees{
		PolicyView:     *base,
		MaxFee:         hexutil.EncodeBig(d.GasFeeCap.ToBig()),
		MaxPriorityFee: hexutil.EncodeBig(d.GasTipCap.ToBig()),
	}, nil
}

// ContentHash identifies the view by value. Re-trigger and staleness decisions
// compare content hashes, never pointers or timestamps.
func (v *PolicyView) ContentHash() common.Hash {
	return contentHash(v)
}

func (v *PolicyViewWithFees) ContentHash() common.Hash {
	return contentHash(v)
}

func contentHash(v any) common.Hash {
	// Struct field order makes the JSON canonical.
	b, err := json.Marshal(v)
	if err != nil {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(b)
}
