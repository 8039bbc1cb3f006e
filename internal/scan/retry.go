package scan

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"flipscout/internal/pricing"
	"flipscout/internal/vision"
)

// Phase is the retry lifecycle state for one item.
type Phase string

const (
	PhaseNotStarted           Phase = "not_started"
	PhaseFetchingAlternatives Phase = "fetching_alternatives"
	PhaseTryingCandidate      Phase = "trying_candidate"
	PhaseSucceeded            Phase = "succeeded"
	PhaseExhausted            Phase = "exhausted"
)

// ErrRetryInFlight is returned when a retry is triggered for an item whose
// previous trigger has not finished yet.
var ErrRetryInFlight = errors.New("retry already in flight for item")

// RetryState tracks one item's retry lifecycle across triggers.
type RetryState struct {
	Phase          Phase
	Candidates     []string
	CandidateIndex int
	// WinningQuery and Result are set only in PhaseSucceeded.
	WinningQuery string
	Result       *pricing.QueryResult

	inFlight bool
}

// RetryOrchestrator recovers items whose original query found nothing by
// asking the vision model for alternative queries and re-pricing each one
// until success or exhaustion. State is per item, keyed by item ID, and
// survives across triggers: a new trigger after exhaustion starts a fresh
// cycle (the suggester is non-deterministic and may offer new candidates).
// Retries are never started by the orchestrator itself, only by the caller.
type RetryOrchestrator struct {
	pricer    Pricer
	suggester vision.QuerySuggester

	mu     sync.Mutex
	states map[string]*RetryState
}

// NewRetryOrchestrator creates an orchestrator for one session.
func NewRetryOrchestrator(pricer Pricer, suggester vision.QuerySuggester) *RetryOrchestrator {
	return &RetryOrchestrator{
		pricer:    pricer,
		suggester: suggester,
		states:    make(map[string]*RetryState),
	}
}

// State returns a snapshot of the retry state for an item. Items that were
// never retried report PhaseNotStarted.
func (o *RetryOrchestrator) State(itemID string) RetryState {
	o.mu.Lock()
	defer o.mu.Unlock()

	if state, ok := o.states[itemID]; ok {
		snapshot := *state
		return snapshot
	}
	return RetryState{Phase: PhaseNotStarted}
}

// Retry runs one full retry cycle for the item and returns the final state.
// Candidate queries identical to the failed query are skipped, a candidate
// that prices successfully ends the cycle immediately, and suggester or
// search failures only fail the current step, never the whole cycle. At
// most one cycle runs per item at a time.
func (o *RetryOrchestrator) Retry(ctx context.Context, itemID, failedQuery string, imageData []byte, mimeType string) (RetryState, error) {
	state, err := o.begin(itemID)
	if err != nil {
		return RetryState{}, err
	}

	defer func() {
		o.mu.Lock()
		state.inFlight = false
		o.mu.Unlock()
	}()

	candidates, err := o.suggester.SuggestQueries(ctx, imageData, mimeType, failedQuery)
	if err != nil {
		log.Warn().Err(err).Str("itemId", itemID).Msg("alternative query suggestion failed")
		return o.finish(state, PhaseExhausted), nil
	}
	if len(candidates) > vision.MaxSuggestions {
		candidates = candidates[:vision.MaxSuggestions]
	}

	o.mu.Lock()
	state.Candidates = candidates
	o.mu.Unlock()

	if len(candidates) == 0 {
		log.Info().Str("itemId", itemID).Msg("no alternative queries suggested")
		return o.finish(state, PhaseExhausted), nil
	}

	original := strings.TrimSpace(failedQuery)
	for i, candidate := range candidates {
		if strings.TrimSpace(candidate) == original {
			log.Debug().Str("candidate", candidate).Msg("skipping candidate identical to failed query")
			continue
		}

		o.mu.Lock()
		state.Phase = PhaseTryingCandidate
		state.CandidateIndex = i
		o.mu.Unlock()

		result := o.pricer.Price(ctx, candidate)
		if result.Status == pricing.StatusPriced {
			o.mu.Lock()
			state.Phase = PhaseSucceeded
			state.WinningQuery = candidate
			state.Result = &result
			snapshot := *state
			o.mu.Unlock()

			log.Info().
				Str("itemId", itemID).
				Str("winningQuery", candidate).
				Int("candidate", i).
				Msg("retry succeeded")
			return snapshot, nil
		}

		log.Debug().
			Str("itemId", itemID).
			Str("candidate", candidate).
			Str("status", string(result.Status)).
			Msg("retry candidate failed")
	}

	return o.finish(state, PhaseExhausted), nil
}

// begin installs a fresh cycle state for the item, rejecting re-entry while
// a cycle is running.
func (o *RetryOrchestrator) begin(itemID string) (*RetryState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.states[itemID]; ok && existing.inFlight {
		return nil, ErrRetryInFlight
	}

	state := &RetryState{Phase: PhaseFetchingAlternatives, inFlight: true}
	o.states[itemID] = state
	return state, nil
}

func (o *RetryOrchestrator) finish(state *RetryState, phase Phase) RetryState {
	o.mu.Lock()
	defer o.mu.Unlock()

	state.Phase = phase
	snapshot := *state
	return snapshot
}
