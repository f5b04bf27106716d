// Package sponsortx builds, signs, and serializes the network's typed
// sponsored transaction (EIP-712 type 0x71 with a paymaster extension).
package sponsortx

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/model"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/repository"
)

// TxType is the network's typed-transaction tag for EIP-712 transactions.
const TxType = 0x71

// DefaultGasPerPubdata is the default gasPerPubdataByteLimit attached to a
// sponsored transaction when no override is configured.
const DefaultGasPerPubdata = 50000

const (
	domainName    = "zkSync"
	domainVersion = "2"

	signatureLength = 65
)

// Tx is the fully-resolved sponsored transaction. Unlike the draft, every
// field is required; construction goes through FromDraft which fails fast on
// anything missing.
type Tx struct {
	ChainID   *big.Int
	Nonce     uint64
	GasTipCap *big.Int
	GasFeeCap *big.Int
	Gas       uint64
	To        common.Address
	From      common.Address
	Value     *big.Int
	Data      []byte

	GasPerPubdata *big.Int
	FactoryDeps   [][]byte
	Paymaster     *model.PaymasterParams

	// Signature is r||s||v with v in {27,28}; set by Sign.
	Signature []byte
}

// FromDraft assembles the transaction from a complete draft and the paymaster
// params bound to it. Every missing field is reported as not-ready: the
// caller gates on readiness, and a signature must never be produced over an
// incomplete transaction.
func FromDraft(d *model.TransactionDraft, params *model.PaymasterParams, gasPerPubdata uint64) (*Tx, error) {
	switch {
	case d == nil:
		return nil, model.ErrNotReady
	case d.From == nil:
		return nil, model.NotReadyField("from")
	case d.To == nil:
		return nil, model.NotReadyField("to")
	case d.ChainID == nil:
		return nil, model.NotReadyField("chainId")
	case d.Nonce == nil:
		return nil, model.NotReadyField("nonce")
	case d.GasLimit == nil:
		return nil, model.NotReadyField("gasLimit")
	case d.GasFeeCap == nil:
		return nil, model.NotReadyField("maxFeePerGas")
	case d.GasTipCap == nil:
		return nil, model.NotReadyField("maxPriorityFeePerGas")
	case d.Value == nil:
		return nil, model.NotReadyField("value")
	case d.Data == nil:
		return nil, model.NotReadyField("data")
	case params == nil:
		return nil, model.NotReadyField("paymasterParams")
	}

	return &Tx{
		ChainID:       new(big.Int).Set(d.ChainID),
		Nonce:         *d.Nonce,
		GasTipCap:     d.GasTipCap.ToBig(),
		GasFeeCap:     d.GasFeeCap.ToBig(),
		Gas:           *d.GasLimit,
		To:            *d.To,
		From:          *d.From,
		Value:         d.Value.ToBig(),
		Data:          append([]byte{}, d.Data...),
		GasPerPubdata: new(big.Int).SetUint64(gasPerPubdata),
		Paymaster: &model.PaymasterParams{
			Paymaster:      params.Paymaster,
			PaymasterInput: append([]byte{}, params.PaymasterInput...),
		},
	}, nil
}

// TypedData is the structured signing payload. The paymaster fields are part
// of the signed struct: a relayer that altered sponsorship terms after
// signing would invalidate the signature.
func (tx *Tx) TypedData() apitypes.TypedData {
	factoryDeps := make([]interface{}, len(tx.FactoryDeps))
	for i, dep := range tx.FactoryDeps {
		factoryDeps[i] = hexutil.Encode(crypto.Keccak256(dep))
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"Transaction": {
				{Name: "txType", Type: "uint256"},
				{Name: "from", Type: "uint256"},
				{Name: "to", Type: "uint256"},
				{Name: "gasLimit", Type: "uint256"},
				{Name: "gasPerPubdataByteLimit", Type: "uint256"},
				{Name: "maxFeePerGas", Type: "uint256"},
				{Name: "maxPriorityFeePerGas", Type: "uint256"},
				{Name: "paymaster", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "value", Type: "uint256"},
				{Name: "data", Type: "bytes"},
				{Name: "factoryDeps", Type: "bytes32[]"},
				{Name: "paymasterInput", Type: "bytes"},
			},
		},
		PrimaryType: "Transaction",
		Domain: apitypes.TypedDataDomain{
			Name:    domainName,
			Version: domainVersion,
			ChainId: (*gethmath.HexOrDecimal256)(tx.ChainID),
		},
		Message: apitypes.TypedDataMessage{
			"txType":                 new(big.Int).SetInt64(TxType).String(),
			"from":                   addressAsInt(tx.From),
			"to":                     addressAsInt(tx.To),
			"gasLimit":               new(big.Int).SetUint64(tx.Gas).String(),
			"gasPerPubdataByteLimit": tx.GasPerPubdata.String(),
			"maxFeePerGas":           tx.GasFeeCap.String(),
			"maxPriorityFeePerGas":   tx.GasTipCap.String(),
			"paymaster":              addressAsInt(tx.Paymaster.Paymaster),
			"nonce":                  new(big.Int).SetUint64(tx.Nonce).String(),
			"value":                  tx.Value.String(),
			"data":                   hexutil.Encode(tx.Data),
			"factoryDeps":            factoryDeps,
			"paymasterInput":         hexutil.Encode(tx.Paymaster.PaymasterInput),
		},
	}
}

// addressAsInt renders an address the way the typed-data struct wants it:
// as a uint256.
func addressAsInt(addr common.Address) string {
	return new(big.Int).SetBytes(addr.Bytes()).String()
}

// Digest computes the EIP-712 signing digest for the transaction.
func (tx *Tx) Digest() ([32]byte, error) {
	var digest [32]byte
	hash, _, err := apitypes.TypedDataAndHash(tx.TypedData())
	if err != nil {
		return digest, &model.SigningError{Err: fmt.Errorf("failed to hash typed data: %w", err)}
	}
	copy(digest[:], hash)
	return digest, nil
}

// Sign obtains a signature over the typed-data digest from the signer
// capability and stores it in the transaction. The signer's recovery id
// (0 or 1) is shifted to the 27/28 convention the wire format uses.
func (tx *Tx) Sign(ctx context.Context, signer repository.Signer) error {
	digest, err := tx.Digest()
	if err != nil {
		return err
	}

	signature, err := signer.SignDigest(ctx, digest)
	if err != nil {
		return &model.SigningError{Err: err}
	}
	if len(signature) != signatureLength {
		return &model.SigningError{Err: fmt.Errorf("unexpected signature length: %d", len(signature))}
	}

	tx.Signature = append([]byte{}, signature...)
	if tx.Signature[64] < 27 {
		tx.Signature[64] += 27
	}
	return nil
}
