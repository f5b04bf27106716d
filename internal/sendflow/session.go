package sendflow

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"

	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/model"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/domain/repository"
	"github.com/zeronet-labs/paymaster-wallet-poc/internal/sponsortx"
)

// ErrSubmitInFlight rejects a duplicate submit while a previous one has not
// finished. Submission is a one-shot mutation per user action.
var ErrSubmitInFlight = errors.New("a submit is already in flight")

// TxHandle is what the broadcaster hands back: the transaction hash, returned
// immediately without waiting for confirmation.
type TxHandle struct {
	Hash common.Hash
}

// Session owns one transaction draft for one compose-and-send interaction.
// All collaborators are injected; nothing here is process-global.
type Session struct {
	resolver      *Resolver
	policy        repository.PolicyRepository
	node          repository.NodeRepository
	signer        repository.Signer
	gasPerPubdata uint64

	mu         sync.Mutex
	draft      *model.TransactionDraft
	submitting bool

	// eligibility result cache, keyed by view content hash
	eligHash   common.Hash
	eligResult *model.Eligibility
}

func NewSession(node repository.NodeRepository, policy repository.PolicyRepository, signer repository.Signer, chain string, gasPerPubdata uint64) *Session {
	return &Session{
		resolver:      NewResolver(node, policy, chain),
		policy:        policy,
		node:          node,
		signer:        signer,
		gasPerPubdata: gasPerPubdata,
	}
}

// UpdateForm replaces the draft with a fresh parse of the form. Resolved
// fields whose inputs did not change are carried over; a gas estimate is
// carried only when the estimation inputs are content-identical, so an edit
// can never show a stale estimate as current.
func (s *Session) UpdateForm(in model.FormInput) {
	next := model.DraftFromForm(in)
	if next.From == nil && s.signer != nil {
		addr := s.signer.Address()
		next.From = &addr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := s.draft; prev != nil {
		if next.ChainID == nil {
			next.ChainID = prev.ChainID
		}
		if next.GasFeeCap == nil {
			next.GasFeeCap = prev.GasFeeCap
		}
		if next.GasTipCap == nil {
			next.GasTipCap = prev.GasTipCap
		}
		if next.Nonce == nil && prev.Nonce != nil && addressEqual(next.From, prev.From) {
			next.Nonce = prev.Nonce
		}
		if next.GasLimit == nil && prev.GasLimit != nil {
			key := estimateKey(next)
			if key != (common.Hash{}) && key == estimateKey(prev) {
				next.GasLimit = prev.GasLimit
			}
		}
	}
	s.draft = next
}

// Draft returns a snapshot of the current draft, or nil before the first
// form update.
func (s *Session) Draft() *model.TransactionDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return nil
	}
	return s.draft.Clone()
}

// RefreshFields runs the four field lookups concurrently and merges results
// into the draft. Each result is keyed by the content of its inputs; a
// response whose inputs no longer match the current draft is discarded
// (last-writer-by-content, not last-writer-by-time). Lookup failures degrade
// to "not ready" and are only logged.
func (s *Session) RefreshFields(ctx context.Context) {
	s.mu.Lock()
	if s.draft == nil {
		s.mu.Unlock()
		return
	}
	snapshot := s.draft.Clone()
	gasKey := estimateKey(snapshot)
	s.mu.Unlock()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		chainID, err := s.resolver.ChainID(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("chain id not resolved")
			return
		}
		s.mu.Lock()
		if s.draft != nil {
			s.draft.ChainID = chainID
		}
		s.mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		quote, err := s.resolver.FeeTier(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("fee tier not resolved")
			return
		}
		s.mu.Lock()
		if s.draft != nil {
			s.draft.GasFeeCap = quote.MaxFee
			s.draft.GasTipCap = quote.PriorityFee
		}
		s.mu.Unlock()
	}()

	if snapshot.From != nil {
		address := *snapshot.From
		wg.Add(1)
		go func() {
			defer wg.Done()
			nonce, err := s.resolver.Nonce(ctx, address)
			if err != nil {
				log.Debug().Err(err).Msg("nonce not resolved")
				return
			}
			s.mu.Lock()
			if s.draft != nil && s.draft.From != nil && *s.draft.From == address {
				s.draft.Nonce = &nonce
			}
			s.mu.Unlock()
		}()
	}

	if gasKey != (common.Hash{}) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gas, err := s.resolver.GasLimit(ctx, snapshot)
			if err != nil {
				log.Debug().Err(err).Msg("gas limit not resolved")
				return
			}
			s.mu.Lock()
			if s.draft != nil && estimateKey(s.draft) == gasKey {
				s.draft.GasLimit = &gas
			}
			s.mu.Unlock()
		}()
	}

	wg.Wait()
}

// CheckEligibility derives the no-fee policy view and asks the policy
// service whether the draft would be sponsored. The answer is advisory and
// display-only. Identical view content returns the cached answer without a
// network call.
func (s *Session) CheckEligibility(ctx context.Context) (*model.Eligibility, error) {
	s.mu.Lock()
	draft := s.draft
	if draft != nil {
		draft = draft.Clone()
	}
	s.mu.Unlock()

	view, err := model.DeriveView(draft, s.gasPerPubdata)
	if err != nil {
		return nil, err
	}

	hash := view.ContentHash()
	s.mu.Lock()
	if s.eligResult != nil && s.eligHash == hash {
		cached := s.eligResult
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	result, err := s.policy.CheckEligibility(ctx, view)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.eligHash = hash
	s.eligResult = result
	s.mu.Unlock()

	return result, nil
}

// Submit runs the one-shot submit pipeline: validate, request binding
// paymaster params, sign, broadcast. Each attempt starts fresh; params are
// never reused across attempts. A second call while one is in flight fails
// with ErrSubmitInFlight.
func (s *Session) Submit(ctx context.Context) (*TxHandle, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if s.draft == nil {
		s.mu.Unlock()
		return nil, model.ErrNotReady
	}
	s.submitting = true
	draft := s.draft.Clone()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	view, err := model.DeriveViewWithFees(draft, s.gasPerPubdata)
	if err != nil {
		return nil, err
	}

	result, err := s.policy.GetPaymasterParams(ctx, view)
	if err != nil {
		return nil, err
	}
	if !result.Eligible {
		return nil, &model.IneligibleError{}
	}

	tx, err := sponsortx.FromDraft(draft, result.Params, s.gasPerPubdata)
	if err != nil {
		return nil, err
	}
	if err := tx.Sign(ctx, s.signer); err != nil {
		return nil, err
	}

	raw, err := tx.Serialize()
	if err != nil {
		return nil, err
	}

	hash, err := s.node.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, err
	}
	log.Info().Str("txHash", hash.Hex()).Msg("transaction broadcast")

	return &TxHandle{Hash: hash}, nil
}

// estimateKey hashes the inputs a gas estimate depends on. The zero hash
// means "not estimable yet" and never matches a real key.
func estimateKey(d *model.TransactionDraft) common.Hash {
	if d == nil || d.From == nil || d.To == nil || d.Value == nil || d.Data == nil {
		return common.Hash{}
	}
	value := d.Value.Bytes32()
	b := make([]byte, 0, 72+len(d.Data))
	b = append(b, d.From.Bytes()...)
	b = append(b, d.To.Bytes()...)
	b = append(b, value[:]...)
	b = append(b, d.Data...)
	return crypto.Keccak256Hash(b)
}

func addressEqual(a, b *common.Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
