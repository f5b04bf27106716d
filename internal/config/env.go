package config

import (
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

const (
	DefaultPolicyAPIURL  = "https://zpi.zerion.io/"
	DefaultChainSlug     = "zero"
	DefaultGasPerPubdata = 50000
)

func GetEnvironment() string {
	return os.Getenv("APP_ENV")
}

func IsLocal() bool {
	return GetEnvironment() == "local"
}

func IsDevelopment() bool {
	return GetEnvironment() == "local" || GetEnvironment() == "development"
}

func IsStaging() bool {
	return GetEnvironment() == "staging"
}

func IsProduction() bool {
	return GetEnvironment() == "production"
}

func MustGetRPCEndpoint() string {
	rpcEndpoint := os.Getenv("RPC_ENDPOINT")
	if rpcEndpoint == "" {
		panic("RPC_ENDPOINT is not set")
	}

	return rpcEndpoint
}

func GetPolicyAPIURL() string {
	if url := os.Getenv("POLICY_API_URL"); url != "" {
		return url
	}
	return DefaultPolicyAPIURL
}

func GetChainSlug() string {
	if chain := os.Getenv("CHAIN_SLUG"); chain != "" {
		return chain
	}
	return DefaultChainSlug
}

// GetGasPerPubdata returns the gasPerPubdataByte limit attached to every
// sponsored transaction. The network accepts any value at or above its
// current requirement, so a fixed default is fine.
func GetGasPerPubdata() uint64 {
	gasPerPubdataStr := os.Getenv("GAS_PER_PUBDATA")
	if gasPerPubdataStr == "" {
		return DefaultGasPerPubdata
	}
	gasPerPubdata, err := strconv.ParseUint(gasPerPubdataStr, 10, 64)
	if err != nil {
		log.Error().Msgf("config.GetGasPerPubdata: failed to parse gas per pubdata: %v", err.Error())
		return DefaultGasPerPubdata
	}
	return gasPerPubdata
}

func GetSignerPrivateKey() string {
	return os.Getenv("SIGNER_PRIVATE_KEY")
}

func GetKMSKeyVersion() string {
	return os.Getenv("KMS_KEY_VERSION")
}

func MustGetGCPProjectID() string {
	gcpProjectID := os.Getenv("GCP_PROJECT_ID")
	if gcpProjectID == "" {
		panic("GCP_PROJECT_ID is not set")
	}

	return gcpProjectID
}

func GetCredentialFilePath() string {
	return os.Getenv("GCP_CREDENTIAL_FILE_PATH")
}
