package node

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/model"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/repository"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/util"
)

const packageName = "node"

type client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// New wraps an RPC connection as a NodeRepository. The raw rpc.Client is kept
// next to the ethclient because the network's typed transaction payload does
// not fit go-ethereum's types.Transaction, so broadcast goes through a raw
// eth_sendRawTransaction call.
func New(rpcClient *rpc.Client) repository.NodeRepository {
	return &client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}
}

func (c *client) ChainID(ctx context.Context) (*big.Int, error) {
	chainID, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), &model.NetworkError{Op: "eth_chainId", Err: err})
	}
	return chainID, nil
}

func (c *client) NonceAt(ctx context.Context, address common.Address) (uint64, error) {
	// Latest block, not pending: a nonce the form shows must match what the
	// policy service will see for the same account.
	nonce, err := c.ethClient.NonceAt(ctx, address, nil)
	if err != nil {
		return 0, util.WrapErrorForLog(packageName, util.FuncName(), &model.NetworkError{Op: "eth_getTransactionCount", Err: err})
	}
	return nonce, nil
}

func (c *client) EstimateGas(ctx context.Context, req repository.EstimateGasRequest) (uint64, error) {
	gas, err := c.ethClient.EstimateGas(ctx, ethereum.CallMsg{
		From:  req.From,
		To:    util.Pointer(req.To),
		Value: req.Value,
		Data:  req.Data,
	})
	if err != nil {
		return 0, util.WrapErrorForLog(packageName, util.FuncName(), &model.NetworkError{Op: "eth_estimateGas", Err: err})
	}
	return gas, nil
}

func (c *client) SendRawTransaction(ctx context.Context, rawTx []byte) (common.Hash, error) {
	funcName := util.FuncName()

	if len(rawTx) == 0 {
		return common.Hash{}, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("empty raw transaction"))
	}

	var txHash common.Hash
	if err := c.rpcClient.CallContext(ctx, &txHash, "eth_sendRawTransaction", hexutil.Encode(rawTx)); err != nil {
		return common.Hash{}, util.WrapErrorForLog(packageName, funcName, &model.NetworkError{Op: "eth_sendRawTransaction", Err: err})
	}

	return txHash, nil
}
