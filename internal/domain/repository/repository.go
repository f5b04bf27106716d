package repository

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/model"
)

// NodeRepository covers the read and write operations against the network
// node. Reads feed the field resolver; the single write broadcasts a signed
// transaction and returns its hash without waiting for confirmation.
type NodeRepository interface {
	ChainID(ctx context.Context) (*big.Int, error)
	// NonceAt returns the transaction count at the latest confirmed block.
	NonceAt(ctx context.Context, address common.Address) (uint64, error)
	EstimateGas(ctx context.Context, req EstimateGasRequest) (uint64, error)
	SendRawTransaction(ctx context.Context, rawTx []byte) (common.Hash, error)
}

// PolicyRepository talks to the remote sponsorship policy service.
type PolicyRepository interface {
	GetGasPrices(ctx context.Context, chain string) (*model.ChainGasPrice, error)
	// CheckEligibility is advisory; the authoritative gate is GetPaymasterParams.
	CheckEligibility(ctx context.Context, view *model.PolicyView) (*model.Eligibility, error)
	GetPaymasterParams(ctx context.Context, view *model.PolicyViewWithFees) (*model.PaymasterResult, error)
}

// Signer is the opaque signing capability. Implementations may hold a local
// key, a hardware module, or a remote HSM; the pipeline only sees a digest
// going in and a 65-byte r||s||v (v in {0,1}) signature coming out.
type Signer interface {
	Address() common.Address
	SignDigest(ctx context.Context, digest [32]byte) ([]byte, error)
}
