package repository

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EstimateGasRequest carries the fields a gas estimation simulates with.
// All four must be known; the resolver gates on their presence.
type EstimateGasRequest struct {
	From  common.Address
	To    common.Address
	Value *big.Int // wei amount
	Data  []byte   // contract invocation input data
}
