package sendflow

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/model"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/repository"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/util"
)

const packageName = "sendflow"

// Resolver exposes the independent asynchronous lookups that fill a draft.
// It never touches the draft itself; the session merges results back and
// decides whether they are still current.
type Resolver struct {
	node   repository.NodeRepository
	policy repository.PolicyRepository
	chain  string

	mu      sync.Mutex
	chainID *big.Int
}

func NewResolver(node repository.NodeRepository, policy repository.PolicyRepository, chain string) *Resolver {
	return &Resolver{
		node:   node,
		policy: policy,
		chain:  chain,
	}
}

// ChainID is queried once per session and cached; the target network does
// not change underneath a compose-and-send interaction.
func (r *Resolver) ChainID(ctx context.Context) (*big.Int, error) {
	r.mu.Lock()
	if r.chainID != nil {
		cached := new(big.Int).Set(r.chainID)
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	chainID, err := r.node.ChainID(ctx)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("failed to get chain id: %w", err))
	}

	r.mu.Lock()
	r.chainID = new(big.Int).Set(chainID)
	r.mu.Unlock()

	return chainID, nil
}

func (r *Resolver) Nonce(ctx context.Context, address common.Address) (uint64, error) {
	nonce, err := r.node.NonceAt(ctx, address)
	if err != nil {
		return 0, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("failed to get nonce: %w", err))
	}
	return nonce, nil
}

// FeeTier fetches the "fast" urgency quote from the gas-price oracle.
func (r *Resolver) FeeTier(ctx context.Context) (*model.FeeQuote, error) {
	prices, err := r.policy.GetGasPrices(ctx, r.chain)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("failed to get gas prices: %w", err))
	}
	quote, err := prices.FastQuote()
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), err)
	}
	return quote, nil
}

// GasLimit estimates execution gas via network simulation. It refuses to run
// with a partial draft: estimating against defaults would produce a number
// that looks current but describes a different transaction.
func (r *Resolver) GasLimit(ctx context.Context, d *model.TransactionDraft) (uint64, error) {
	if d == nil || d.From == nil || d.To == nil || d.Value == nil || d.Data == nil {
		return 0, model.ErrNotReady
	}
	gas, err := r.node.EstimateGas(ctx, repository.EstimateGasRequest{
		From:  *d.From,
		To:    *d.To,
		Value: d.Value.ToBig(),
		Data:  d.Data,
	})
	if err != nil {
		return 0, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("failed to estimate gas: %w", err))
	}
	return gas, nil
}
