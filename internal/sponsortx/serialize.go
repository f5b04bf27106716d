package sponsortx

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/model"
)

var errUnsigned = errors.New("transaction is not signed")

// paymasterRLP encodes as the two-element [paymaster, paymasterInput] list
// the wire format expects. A nil pointer encodes as an empty list.
type paymasterRLP struct {
	Paymaster      common.Address
	PaymasterInput []byte
}

// txRLP mirrors the field order of the 0x71 payload. The chain id appears
// twice: once in the legacy signature slot triple (with two empty
// placeholders, since the signature travels in CustomSignature) and once in
// the extension block.
type txRLP struct {
	Nonce           uint64
	GasTipCap       *big.Int
	GasFeeCap       *big.Int
	Gas             uint64
	To              common.Address
	Value           *big.Int
	Data            []byte
	ChainID         *big.Int
	ReservedV       []byte
	ReservedR       []byte
	ChainID2        *big.Int
	From            common.Address
	GasPerPubdata   *big.Int
	FactoryDeps     [][]byte
	CustomSignature []byte
	Paymaster       *paymasterRLP
}

// Serialize produces the canonical wire bytes: the 0x71 type tag followed by
// the RLP payload. Identical inputs serialize to byte-identical output.
func (tx *Tx) Serialize() ([]byte, error) {
	if len(tx.Signature) != signatureLength {
		return nil, &model.SigningError{Err: errUnsigned}
	}

	var paymaster *paymasterRLP
	if tx.Paymaster != nil {
		paymaster = &paymasterRLP{
			Paymaster:      tx.Paymaster.Paymaster,
			PaymasterInput: tx.Paymaster.PaymasterInput,
		}
	}

	payload, err := rlp.EncodeToBytes(&txRLP{
		Nonce:           tx.Nonce,
		GasTipCap:       tx.GasTipCap,
		GasFeeCap:       tx.GasFeeCap,
		Gas:             tx.Gas,
		To:              tx.To,
		Value:           tx.Value,
		Data:            tx.Data,
		ChainID:         tx.ChainID,
		ReservedV:       []byte{},
		ReservedR:       []byte{},
		ChainID2:        tx.ChainID,
		From:            tx.From,
		GasPerPubdata:   tx.GasPerPubdata,
		FactoryDeps:     tx.FactoryDeps,
		CustomSignature: tx.Signature,
		Paymaster:       paymaster,
	})
	if err != nil {
		return nil, err
	}

	return append([]byte{TxType}, payload...), nil
}

// Hash is the transaction hash of the serialized payload, usable for local
// bookkeeping before the node confirms its own.
func (tx *Tx) Hash() (common.Hash, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(raw), nil
}
