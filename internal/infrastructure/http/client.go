package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/model"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/repository"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/util"
)

const packageName = "http"

const (
	gasPricesEndpoint   = "chain/get-gas-prices/v1"
	eligibilityEndpoint = "paymaster/check-eligibility/v2"
	paramsEndpoint      = "paymaster/get-params/v2"

	clientType    = "go-poc"
	clientVersion = "0.0.1"
)

type client struct {
	httpClient *http.Client
	baseURL    string
}

func NewPolicyClient(httpClient *http.Client, baseURL string) repository.PolicyRepository {
	return &client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// responseBody is the service's envelope. A non-empty Errors slice means the
// request was understood but rejected; the first detail is surfaced.
type responseBody[T any] struct {
	Data   T              `json:"data"`
	Errors []serviceError `json:"errors"`
}

type serviceError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type eip1559Quote struct {
	MaxFee      uint64 `json:"maxFee"`
	PriorityFee uint64 `json:"priorityFee"`
	BaseFee     uint64 `json:"baseFee"`
}

type speedGasPrice struct {
	Classic *uint64       `json:"classic"`
	EIP1559 *eip1559Quote `json:"eip1559"`
	Eta     *int64        `json:"eta"`
}

type chainGasPrice struct {
	Average *speedGasPrice `json:"average"`
	Fast    *speedGasPrice `json:"fast"`
}

func (c *client) GetGasPrices(ctx context.Context, chain string) (*model.ChainGasPrice, error) {
	funcName := util.FuncName()

	endpoint := fmt.Sprintf("%s?%s", gasPricesEndpoint, url.Values{"chain": {chain}}.Encode())

	var body responseBody[chainGasPrice]
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &body); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}
	if err := firstError(body.Errors); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}

	prices := model.ChainGasPrice{
		Average: convertSpeed(body.Data.Average),
		Fast:    convertSpeed(body.Data.Fast),
	}
	if prices.Average == nil && prices.Fast == nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("error decoding response body: gas price tiers are not set"))
	}

	return &prices, nil
}

type eligibilityRequest struct {
	Transaction *model.PolicyView `json:"transaction"`
}

type eligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Eta      *int64 `json:"eta"`
}

func (c *client) CheckEligibility(ctx context.Context, view *model.PolicyView) (*model.Eligibility, error) {
	funcName := util.FuncName()

	var body responseBody[eligibilityResponse]
	if err := c.doRequest(ctx, http.MethodPost, eligibilityEndpoint, eligibilityRequest{Transaction: view}, &body); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}
	if err := firstError(body.Errors); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}

	return &model.Eligibility{
		Eligible: body.Data.Eligible,
		Eta:      body.Data.Eta,
	}, nil
}

type paramsRequest struct {
	Transaction *model.PolicyViewWithFees `json:"transaction"`
}

type paramsResponse struct {
	Eligible        bool `json:"eligible"`
	PaymasterParams *struct {
		Paymaster      string `json:"paymaster"`
		PaymasterInput string `json:"paymasterInput"`
	} `json:"paymasterParams"`
}

func (c *client) GetPaymasterParams(ctx context.Context, view *model.PolicyViewWithFees) (*model.PaymasterResult, error) {
	funcName := util.FuncName()

	var body responseBody[paramsResponse]
	if err := c.doRequest(ctx, http.MethodPost, paramsEndpoint, paramsRequest{Transaction: view}, &body); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}
	if err := firstError(body.Errors); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}

	result := model.PaymasterResult{Eligible: body.Data.Eligible}
	if body.Data.Eligible {
		raw := body.Data.PaymasterParams
		if raw == nil {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("error decoding response body: paymaster params are not set"))
		}
		if !common.IsHexAddress(raw.Paymaster) {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("error decoding response body: malformed paymaster address: %q", raw.Paymaster))
		}
		input, err := hexutil.Decode(raw.PaymasterInput)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("error decoding response body: malformed paymaster input: %w", err))
		}
		result.Params = &model.PaymasterParams{
			Paymaster:      common.HexToAddress(raw.Paymaster),
			PaymasterInput: input,
		}
	}

	return &result, nil
}

func (c *client) doRequest(ctx context.Context, method, endpoint string, reqBody, resBody any) error {
	funcName := util.FuncName()

	var payload io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("error encoding request body: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, payload)
	if err != nil {
		return util.WrapErrorForLog(packageName, funcName, fmt.Errorf("error creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	req.Header.Set("X-Client-Type", clientType)
	req.Header.Set("X-Client-Version", clientVersion)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &model.NetworkError{Op: fmt.Sprintf("%s %s", method, endpoint), Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("status code not 200: %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(resBody); err != nil {
		return fmt.Errorf("error decoding response body: %w", err)
	}

	return nil
}

func firstError(errs []serviceError) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("service error: %s: %s", errs[0].Title, errs[0].Detail)
}

func convertSpeed(s *speedGasPrice) *model.SpeedGasPrice {
	if s == nil {
		return nil
	}
	out := model.SpeedGasPrice{
		Classic: s.Classic,
		Eta:     s.Eta,
	}
	if s.EIP1559 != nil {
		out.EIP1559 = &model.EIP1559Price{
			MaxFee:      s.EIP1559.MaxFee,
			PriorityFee: s.EIP1559.PriorityFee,
			BaseFee:     s.EIP1559.BaseFee,
		}
	}
	return &out
}
