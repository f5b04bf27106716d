package model

import "github.com/ethereum/go-ethereum/common"

// PaymasterParams is the sponsorship commitment returned by the policy
// service. It binds to one exact transaction body; params obtained for one
// set of field values must never be reused for another.
type PaymasterParams struct {
	Paymaster      common.Address
	PaymasterInput []byte
}

// Eligibility is the advisory answer of the eligibility check. Eta, when
// present, estimates how long until the sender becomes eligible.
type Eligibility struct {
	Eligible bool
	Eta      *int64
}

// PaymasterResult is the authoritative answer of the param request.
type PaymasterResult struct {
	Eligible bool
	Params   *PaymasterParams
}
