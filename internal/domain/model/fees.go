package model

import "github.com/holiman/uint256"

// Fee tier names as used by the gas-price service.
const (
	FeeTierAverage = "average"
	FeeTierFast    = "fast"
)

// EIP1559Price is a recommended fee triple in minor units (wei).
type EIP1559Price struct {
	MaxFee      uint64
	PriorityFee uint64
	BaseFee     uint64
}

// SpeedGasPrice is one urgency tier of a gas-price quote. Legacy chains carry
// only Classic, EIP-1559 chains only EIP1559.
type SpeedGasPrice struct {
	Classic *uint64
	EIP1559 *EIP1559Price
	Eta     *int64
}

// ChainGasPrice is a full quote from the remote gas-price oracle.
type ChainGasPrice struct {
	Average *SpeedGasPrice
	Fast    *SpeedGasPrice
}

// FeeQuote is the pair of fee caps merged into a draft.
type FeeQuote struct {
	MaxFee      *uint256.Int
	PriorityFee *uint256.Int
}

// FastQuote extracts the EIP-1559 quote of the fast tier. The sponsored
// transaction type always prices like EIP-1559, so a quote without the
// triple is unusable.
func (p *ChainGasPrice) FastQuote() (*FeeQuote, error) {
	if p == nil || p.Fast == nil || p.Fast.EIP1559 == nil {
		return nil, NotReadyField("fast eip1559 quote")
	}
	return &FeeQuote{
		MaxFee:      uint256.NewInt(p.Fast.EIP1559.MaxFee),
		PriorityFee: uint256.NewInt(p.Fast.EIP1559.PriorityFee),
	}, nil
}
