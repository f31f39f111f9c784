package redeemer

// bridge.go — bounded bridge between the orchestrator loop and the blocking
// settlement executor.
//
// On-chain settlement blocks for the full transaction lifecycle (nonce, gas,
// sign, send, receipt wait — tens of seconds). The bridge runs each call in
// its own goroutine behind a single slot, so the orchestrator can observe
// cancellation while exactly one settlement is ever in flight. Executor
// errors and panics both surface as ordinary submission values; nothing
// escapes into the orchestrator.

import (
	"context"
	"fmt"

	"github.com/karbbot/karb/internal/domain"
	"github.com/karbbot/karb/internal/ports"
)

// submission is the explicit result of one settlement attempt.
type submission struct {
	Result domain.RedeemResult
	Err    error
}

// submitter owns the single in-flight slot. The slot is released only when
// the blocking call returns, even if the caller gave up on it earlier.
type submitter struct {
	exec  ports.SettlementExecutor
	slots chan struct{}
}

func newSubmitter(exec ports.SettlementExecutor) *submitter {
	return &submitter{
		exec:  exec,
		slots: make(chan struct{}, 1),
	}
}

// submit executes one settlement call for the position and returns its
// outcome. It blocks until the call finishes or ctx is done; on early
// cancellation the call keeps running in the background, still holding the
// slot, so a next submit cannot start a second one alongside it.
func (s *submitter) submit(ctx context.Context, pos domain.Position) submission {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return submission{Err: ctx.Err()}
	}

	done := make(chan submission, 1)
	go func() {
		defer func() { <-s.slots }()
		defer func() {
			if r := recover(); r != nil {
				done <- submission{Err: fmt.Errorf("settlement panic: %v", r)}
			}
		}()
		res, err := s.exec.RedeemPositions(ctx, pos.ConditionID, pos.AmountVector(), pos.NegRisk)
		done <- submission{Result: res, Err: err}
	}()

	select {
	case sub := <-done:
		return sub
	case <-ctx.Done():
		return submission{Err: ctx.Err()}
	}
}
