package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	kms "cloud.google.com/go/kms/apiv1"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/config"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/model"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/repository"
	appHttp "github.com/zeronet-labs/paymaster-wallet-poc/internal/infrastructure/http"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/infrastructure/node"
	appSigner "github.com/zeronet-labs/paymaster-wallet-poc/internal/infrastructure/signer"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/sendflow"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/util"
)

const packageName = "main"

func main() {
	const funcName = "main"

	ctx := context.Background()

	rpcClient, err := rpc.DialContext(ctx, config.MustGetRPCEndpoint())
	if err != nil {
		log.Error().Msg(util.WrapLogMessage(packageName, funcName, fmt.Sprintf("failed to dial node: %v", err)))
		return
	}
	defer rpcClient.Close()

	nodeClient := node.New(rpcClient)
	policyClient := appHttp.NewPolicyClient(&http.Client{}, config.GetPolicyAPIURL())

	txSigner, closeSigner, err := buildSigner(ctx)
	if err != nil {
		log.Error().Msg(util.WrapLogMessage(packageName, funcName, fmt.Sprintf("failed to build signer: %v", err)))
		return
	}
	defer closeSigner()

	session := sendflow.NewSession(nodeClient, policyClient, txSigner, config.GetChainSlug(), config.GetGasPerPubdata())

	session.UpdateForm(model.FormInput{
		To:     os.Getenv("TO_ADDRESS"),
		Amount: os.Getenv("AMOUNT_ETH"),
		Data:   "0x",
	})

	// Fields arrive asynchronously; two passes let the gas estimate run once
	// the first pass has filled its prerequisites.
	session.RefreshFields(ctx)
	session.RefreshFields(ctx)

	eligibility, err := session.CheckEligibility(ctx)
	switch {
	case err != nil:
		log.Warn().Msg(util.WrapLogMessage(packageName, funcName, fmt.Sprintf("eligibility not known: %v", err)))
	case eligibility.Eligible:
		log.Info().Msg(util.WrapLogMessage(packageName, funcName, "paymaster eligible"))
	default:
		log.Info().Msg(util.WrapLogMessage(packageName, funcName, "paymaster not eligible"))
	}

	handle, err := session.Submit(ctx)
	if err != nil {
		log.Error().Msg(util.WrapLogMessage(packageName, funcName, fmt.Sprintf("failed to submit: %v", err)))
		return
	}

	log.Info().Str("txHash", handle.Hash.Hex()).Msg(util.WrapLogMessage(packageName, funcName, "success"))
}

func buildSigner(ctx context.Context) (repository.Signer, func(), error) {
	if keyVersion := config.GetKMSKeyVersion(); keyVersion != "" {
		var opts []option.ClientOption
		if credentials := config.GetCredentialFilePath(); credentials != "" {
			opts = append(opts, option.WithCredentialsFile(credentials))
		}
		kmsClient, err := kms.NewKeyManagementClient(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create kms client: %w", err)
		}
		s, err := appSigner.NewKMS(ctx, kmsClient, keyVersion)
		if err != nil {
			kmsClient.Close()
			return nil, nil, err
		}
		return s, func() { kmsClient.Close() }, nil
	}

	s, err := appSigner.NewLocal(config.GetSignerPrivateKey())
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}
