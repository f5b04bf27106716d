package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/repository"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/util"
)

const packageName = "signer"

type localSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocal builds a signer from a hex-encoded secp256k1 private key. Meant
// for development; production setups use the KMS signer.
func NewLocal(hexKey string) (repository.Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("failed to parse private key: %w", err))
	}
	return &localSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *localSigner) Address() common.Address {
	return s.address
}

func (s *localSigner) SignDigest(_ context.Context, digest [32]byte) ([]byte, error) {
	signature, err := crypto.Sign(digest[:], s.key)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("failed to sign digest: %w", err))
	}
	return signature, nil
}
