package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"hash/crc32"
	"math/big"

	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/repository"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/util"
)

var (
	secp256k1N, _  = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
	secp256k1halfN = new(big.Int).Div(secp256k1N, big.NewInt(2))
)

type kmsSigner struct {
	kmsClient  *kms.KeyManagementClient
	keyVersion string
	publicKey  *ecdsa.PublicKey
	address    common.Address
}

// NewKMS builds a signer backed by a Cloud KMS EC_SIGN_SECP256K1_SHA256 key
// version. The public key is fetched once so Address never hits the network.
func NewKMS(ctx context.Context, kmsClient *kms.KeyManagementClient, keyVersion string) (repository.Signer, error) {
	funcName := util.FuncName()

	s := &kmsSigner{
		kmsClient:  kmsClient,
		keyVersion: keyVersion,
	}

	publicKey, err := s.fetchPublicKey(ctx)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: %w", err))
	}
	s.publicKey = publicKey
	s.address = crypto.PubkeyToAddress(*publicKey)

	return s, nil
}

func (s *kmsSigner) Address() common.Address {
	return s.address
}

// SignDigest asks KMS for an ASN.1 signature over the digest, normalizes S to
// the lower half-order, and recovers the recovery id by trial against the key.
func (s *kmsSigner) SignDigest(ctx context.Context, digest [32]byte) ([]byte, error) {
	funcName := util.FuncName()

	digestCRC32C := crc32c(digest[:])

	signResponse, err := s.kmsClient.AsymmetricSign(ctx, &kmspb.AsymmetricSignRequest{
		Name: s.keyVersion,
		Digest: &kmspb.Digest{
			Digest: &kmspb.Digest_Sha256{
				Sha256: digest[:],
			},
		},
		DigestCrc32C: wrapperspb.Int64(int64(digestCRC32C)),
	})
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign digest: %w", err))
	}

	if len(signResponse.Signature) == 0 {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign digest: empty signature"))
	}

	if int64(crc32c(signResponse.Signature)) != signResponse.SignatureCrc32C.Value {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("AsymmetricSign: response corrupted in-transit"))
	}

	r, sVal, err := parseSignature(signResponse.Signature)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to parse signature: %w", err))
	}

	for _, v := range []int{0, 1} {
		candidateSignature := make([]byte, 65)
		r.FillBytes(candidateSignature[:32])
		sVal.FillBytes(candidateSignature[32:64])
		candidateSignature[64] = byte(v)

		candidateRawPublicKey, err := crypto.Ecrecover(digest[:], candidateSignature)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to recover public key: %w", err))
		}

		candidatePublicKey, err := crypto.UnmarshalPubkey(candidateRawPublicKey)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to parse public key: %w", err))
		}

		if candidatePublicKey.Equal(s.publicKey) {
			return candidateSignature, nil
		}
	}

	return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign digest: invalid signature"))
}

func (s *kmsSigner) fetchPublicKey(ctx context.Context) (*ecdsa.PublicKey, error) {
	funcName := util.FuncName()

	publicKeyResponse, err := s.kmsClient.GetPublicKey(ctx, &kmspb.GetPublicKeyRequest{
		Name: s.keyVersion,
	})
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: %w", err))
	}
	if publicKeyResponse.Name != s.keyVersion {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: invalid key name"))
	}
	publicKeyPEM := publicKeyResponse.Pem
	if publicKeyPEM == "" {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: empty PEM"))
	}
	if int64(crc32c([]byte(publicKeyPEM))) != publicKeyResponse.GetPemCrc32C().GetValue() {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: invalid CRC32"))
	}

	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to decode public key"))
	}
	publicKey, err := publicKeyFromDecodedPEM(block)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: %w", err))
	}

	return publicKey, nil
}

func crc32c(data []byte) uint32 {
	t := crc32.MakeTable(crc32.Castagnoli)
	return crc32.Checksum(data, t)
}

func publicKeyFromDecodedPEM(block *pem.Block) (*ecdsa.PublicKey, error) {
	funcName := util.FuncName()

	var pki struct {
		Raw       asn1.RawContent
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}

	_, err := asn1.Unmarshal(block.Bytes, &pki)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to unmarshal public key: %w", err))
	}
	asn1Data := pki.PublicKey.RightAlign()
	if len(asn1Data) != 65 {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("unexpected public key length: %d", len(asn1Data)))
	}
	x := new(big.Int).SetBytes(asn1Data[1:33])
	y := new(big.Int).SetBytes(asn1Data[33:])

	return &ecdsa.PublicKey{Curve: crypto.S256(), X: x, Y: y}, nil
}

func parseSignature(signature []byte) (r *big.Int, s *big.Int, err error) {
	funcName := util.FuncName()

	sig := new(struct {
		R *big.Int
		S *big.Int
	})

	_, err = asn1.Unmarshal(signature, sig)
	if err != nil {
		return nil, nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to unmarshal signature: %w", err))
	}

	if sig.S.Cmp(secp256k1halfN) > 0 {
		sig.S = new(big.Int).Sub(secp256k1N, sig.S)
	}

	return sig.R, sig.S, nil
}
