package model

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// FormInput is the raw, stringly-typed state of the send form. All parsing
// into semantic types happens once, at the form/draft boundary.
type FormInput struct {
	To                   string
	From                 string
	ChainID              string
	Nonce                string
	GasLimit             string
	MaxFeePerGas         string
	MaxPriorityFeePerGas string
	Data                 string
	Amount               string // human-entered amount in ETH
}

// TransactionDraft is a partial, progressively-filled transaction. Fields are
// nil until their source resolves; an incomplete draft is "not ready", never
// an error. The draft lives for one compose-and-send interaction.
type TransactionDraft struct {
	To        *common.Address
	From      *common.Address
	ChainID   *big.Int
	Nonce     *uint64
	GasLimit  *uint64
	GasTipCap *uint256.Int // maxPriorityFeePerGas
	GasFeeCap *uint256.Int // maxFeePerGas
	Value     *uint256.Int
	Data      []byte // nil means absent; an empty payload is []byte{}

	raw FormInput
}

// DraftFromForm parses form fields into a typed draft. Parsing is lenient:
// empty numeric fields stay absent (the resolver fills them), an empty amount
// means zero, and a malformed address leaves the field nil so that Validate
// can reject it at submit time. DraftFromForm itself never fails.
func DraftFromForm(in FormInput) *TransactionDraft {
	d := &TransactionDraft{raw: in}

	if common.IsHexAddress(in.To) {
		d.To = ptr(common.HexToAddress(in.To))
	}
	if common.IsHexAddress(in.From) {
		d.From = ptr(common.HexToAddress(in.From))
	}
	if v, ok := parseBig(in.ChainID); ok {
		d.ChainID = v
	}
	if v, ok := parseUint(in.Nonce); ok {
		d.Nonce = &v
	}
	if v, ok := parseUint(in.GasLimit); ok {
		d.GasLimit = &v
	}
	if v, ok := parseUint256(in.MaxFeePerGas); ok {
		d.GasFeeCap = v
	}
	if v, ok := parseUint256(in.MaxPriorityFeePerGas); ok {
		d.GasTipCap = v
	}
	if v, err := ParseAmount(in.Amount); err == nil {
		d.Value = v
	}
	d.Data = parseData(in.Data)

	return d
}

// IsComplete reports whether every field required for an eligibility check or
// for signing has resolved.
func (d *TransactionDraft) IsComplete() bool {
	return d.From != nil && d.To != nil && d.Nonce != nil && d.ChainID != nil &&
		d.GasLimit != nil && d.Value != nil && d.Data != nil
}

// SubmitReady additionally requires the fee caps, which only the paymaster
// param request and signing need.
func (d *TransactionDraft) SubmitReady() bool {
	return d.IsComplete() && d.GasFeeCap != nil && d.GasTipCap != nil
}

// Validate performs the submit-time check of the raw inputs. Malformed values
// that the lenient draft parser skipped become ValidationErrors here.
func (d *TransactionDraft) Validate() error {
	if d.raw.To != "" && !common.IsHexAddress(d.raw.To) {
		return &ValidationError{Field: "to", Reason: "malformed address"}
	}
	if d.raw.From != "" && !common.IsHexAddress(d.raw.From) {
		return &ValidationError{Field: "from", Reason: "malformed address"}
	}
	if d.raw.Amount != "" {
		if _, err := ParseAmount(d.raw.Amount); err != nil {
			return &ValidationError{Field: "amount", Reason: err.Error()}
		}
	}
	return nil
}

// Clone returns a snapshot of the draft. Pointer fields are reallocated so a
// later form edit cannot mutate an in-flight submit.
func (d *TransactionDraft) Clone() *TransactionDraft {
	c := &TransactionDraft{raw: d.raw}
	if d.To != nil {
		c.To = ptr(*d.To)
	}
	if d.From != nil {
		c.From = ptr(*d.From)
	}
	if d.ChainID != nil {
		c.ChainID = new(big.Int).Set(d.ChainID)
	}
	if d.Nonce != nil {
		c.Nonce = ptr(*d.Nonce)
	}
	if d.GasLimit != nil {
		c.GasLimit = ptr(*d.GasLimit)
	}
	if d.GasTipCap != nil {
		c.GasTipCap = d.GasTipCap.Clone()
	}
	if d.GasFeeCap != nil {
		c.GasFeeCap = d.GasFeeCap.Clone()
	}
	if d.Value != nil {
		c.Value = d.Value.Clone()
	}
	if d.Data != nil {
		c.Data = append([]byte{}, d.Data...)
	}
	return c
}

// ParseAmount converts a human-entered decimal ETH amount to wei using exact
// decimal arithmetic. An empty input is an explicit zero. This is the only
// place a decimal-to-minor-unit conversion happens.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uint256.NewInt(0), nil
	}
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if dec.IsNegative() {
		return nil, &ValidationError{Field: "amount", Reason: "negative amount"}
	}
	wei := dec.Shift(18)
	if !wei.IsInteger() {
		return nil, &ValidationError{Field: "amount", Reason: "more than 18 decimal places"}
	}
	v, overflow := uint256.FromBig(wei.BigInt())
	if overflow {
		return nil, &ValidationError{Field: "amount", Reason: "amount overflows 256 bits"}
	}
	return v, nil
}

func parseBig(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if strings.HasPrefix(s, "0x") {
		v, err := hexutil.DecodeBig(s)
		if err != nil {
			return nil, false
		}
		return v, true
	}
	v, ok := new(big.Int).SetString(s, 10)
	return v, ok
}

func parseUint(s string) (uint64, bool) {
	v, ok := parseBig(s)
	if !ok || !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}

func parseUint256(s string) (*uint256.Int, bool) {
	v, ok := parseBig(s)
	if !ok {
		return nil, false
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, false
	}
	return u, true
}

func parseData(s string) []byte {
	s = strings.TrimSpace(s)
	if s == "" || s == "0x" {
		return []byte{}
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return []byte{}
	}
	return b
}

func ptr[T any](v T) *T {
	return &v
}
