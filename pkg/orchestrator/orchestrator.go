// Package orchestrator sequences one swap attempt through allowance check,
// approval, submission and confirmation, dispatching to the chain adapter
// matching the active ecosystem. It is the single boundary where adapter
// failures are classified into the error taxonomy.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/omnidex-labs/swapcore/pkg/amount"
	"github.com/omnidex-labs/swapcore/pkg/builder"
	"github.com/omnidex-labs/swapcore/pkg/chains"
	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/session"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// ErrSwapInProgress is returned when ExecuteSwap is called while a prior
// attempt is still non-terminal. The caller must wait for complete, error or
// Reset.
var ErrSwapInProgress = errors.New("a swap attempt is already in progress")

// TransactionBuilder is the aggregator contract the orchestrator consumes.
// Implemented by builder.Client.
type TransactionBuilder interface {
	SwapTransaction(ctx context.Context, req builder.SwapRequest) (*builder.SwapTransaction, error)
}

// Orchestrator drives one swap attempt at a time. There is no mid-flight
// cancel: Reset only clears local state, and a transaction already submitted
// to a chain cannot be recalled.
type Orchestrator struct {
	sessions *session.Manager
	txs      TransactionBuilder
	registry *chains.Registry
	logger   *slog.Logger

	onComplete func(txID string)

	mu      sync.Mutex
	attempt *types.SwapAttempt
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOnComplete installs the completion callback fired with the transaction
// id when an attempt reaches the complete state. User-visible notification
// is the callback consumer's job, not the engine's.
func WithOnComplete(fn func(txID string)) Option {
	return func(o *Orchestrator) { o.onComplete = fn }
}

// New creates an orchestrator over the session manager, the aggregator
// client and the adapter registry.
func New(sessions *session.Manager, txs TransactionBuilder, registry *chains.Registry, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		sessions: sessions,
		txs:      txs,
		registry: registry,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Attempt returns a snapshot of the current attempt, or false when none
// exists.
func (o *Orchestrator) Attempt() (types.SwapAttempt, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt == nil {
		return types.SwapAttempt{}, false
	}
	return *o.attempt, true
}

// Reset forces the orchestrator back to idle from any state. It never
// affects an already-broadcast transaction.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempt = nil
}

// ExecuteSwap runs one swap intent to a terminal state and returns the final
// attempt snapshot. A second call while a prior attempt is non-terminal is
// rejected immediately with ErrSwapInProgress and creates no attempt.
func (o *Orchestrator) ExecuteSwap(ctx context.Context, intent types.SwapIntent) (types.SwapAttempt, error) {
	o.mu.Lock()
	if o.attempt != nil && !o.attempt.Step.Terminal() {
		o.mu.Unlock()
		return types.SwapAttempt{}, ErrSwapInProgress
	}
	attempt := &types.SwapAttempt{
		ID:   uuid.NewString(),
		Step: types.StepIdle,
	}
	o.attempt = attempt
	o.mu.Unlock()

	if err := o.run(ctx, intent, attempt); err != nil {
		return o.fail(attempt, err)
	}

	o.mu.Lock()
	final := *attempt
	o.mu.Unlock()
	return final, nil
}

// run advances the attempt through the state machine. Any returned error is
// classified by the caller.
func (o *Orchestrator) run(ctx context.Context, intent types.SwapIntent, attempt *types.SwapAttempt) error {
	ecosystem, ok := intent.Ecosystem()
	if !ok {
		return swaperr.New(swaperr.UnsupportedChain, fmt.Sprintf("unknown chain index %d", intent.ChainIndex))
	}

	adapter, err := o.registry.Get(ecosystem)
	if err != nil {
		return swaperr.Wrap(swaperr.UnsupportedChain, "no adapter for active ecosystem", err)
	}

	signer := o.sessions.Signer(ecosystem)
	if signer == nil {
		return swaperr.New(swaperr.ProviderUnavailable,
			fmt.Sprintf("no %s wallet connected", ecosystem))
	}
	taker := signer.Address()
	if taker == "" {
		return swaperr.New(swaperr.ProviderUnavailable, "connected wallet has no address")
	}

	amountUnits, err := amount.ToSmallestUnit(intent.Amount, intent.FromToken.Decimals)
	if err != nil {
		return swaperr.Wrap(swaperr.Internal, "invalid swap amount", err)
	}

	// Allowance and approval apply only to EVM swaps of non-native tokens.
	if ecosystem == constants.EcosystemEVM && !intent.FromToken.IsNativeEVM() {
		if err := o.checkAndApprove(ctx, intent, amountUnits, taker, adapter, signer, attempt); err != nil {
			return err
		}
	}

	if err := o.advance(attempt, types.StepSwapping); err != nil {
		return err
	}

	built, err := o.txs.SwapTransaction(ctx, builder.SwapRequest{
		ChainIndex:       intent.ChainIndex,
		FromTokenAddress: intent.FromToken.Address,
		ToTokenAddress:   intent.ToToken.Address,
		Amount:           amountUnits,
		TakerAddress:     taker,
		Slippage:         intent.Slippage,
	})
	if err != nil {
		return err
	}

	txID, err := adapter.BuildAndSign(ctx, intent.ChainIndex, built.Payload, signer)
	if err != nil {
		return err
	}
	o.setTxID(attempt, txID)

	if err := o.advance(attempt, types.StepConfirming); err != nil {
		return err
	}
	if err := adapter.AwaitFinality(ctx, intent.ChainIndex, txID); err != nil {
		return err
	}

	if err := o.advance(attempt, types.StepComplete); err != nil {
		return err
	}

	o.logger.Info("swap complete",
		"attempt", attempt.ID, "chainIndex", intent.ChainIndex, "txID", txID,
		"explorer", constants.ExplorerTxLink(intent.ChainIndex, txID))
	if o.onComplete != nil {
		o.onComplete(txID)
	}
	return nil
}

// checkAndApprove walks the checking-allowance and (when needed) approving
// states through the EVM adapter's Approver capability.
func (o *Orchestrator) checkAndApprove(ctx context.Context, intent types.SwapIntent, amountUnits, taker string, adapter chains.Adapter, signer chains.Signer, attempt *types.SwapAttempt) error {
	approver, ok := adapter.(chains.Approver)
	if !ok {
		return swaperr.New(swaperr.UnsupportedChain, "active adapter cannot manage allowances")
	}

	if err := o.advance(attempt, types.StepCheckingAllowance); err != nil {
		return err
	}

	required, err := amount.ParseUnits(amountUnits)
	if err != nil {
		return swaperr.Wrap(swaperr.Internal, "invalid swap amount", err)
	}

	req := chains.ApprovalRequest{
		ChainIndex:   intent.ChainIndex,
		TokenAddress: intent.FromToken.Address,
		OwnerAddress: taker,
		Amount:       required,
		OnApproving: func() {
			// Allowance was short; the adapter is about to submit approval.
			_ = o.advance(attempt, types.StepApproving)
		},
	}
	if intent.ApproveAmount != "" {
		approveAmount, err := amount.ParseUnits(intent.ApproveAmount)
		if err != nil {
			return swaperr.Wrap(swaperr.Internal, "invalid approve amount", err)
		}
		req.ApproveAmount = approveAmount
	}

	return approver.CheckAndApprove(ctx, req, signer)
}

// advance moves the attempt to the next step, enforcing the transition
// table.
func (o *Orchestrator) advance(attempt *types.SwapAttempt, to types.SwapStep) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !canTransition(attempt.Step, to) {
		return swaperr.New(swaperr.Internal,
			fmt.Sprintf("invalid step transition %s -> %s", attempt.Step, to))
	}
	o.logger.Debug("swap step", "attempt", attempt.ID, "from", attempt.Step, "to", to)
	attempt.Step = to
	return nil
}

func (o *Orchestrator) setTxID(attempt *types.SwapAttempt, txID string) {
	o.mu.Lock()
	attempt.TxID = txID
	o.mu.Unlock()
}

// fail classifies the error, records the truncated display text and moves
// the attempt to the error state.
func (o *Orchestrator) fail(attempt *types.SwapAttempt, err error) (types.SwapAttempt, error) {
	se := swaperr.Classify(err)

	o.mu.Lock()
	if !attempt.Step.Terminal() {
		attempt.Step = types.StepError
	}
	attempt.ErrKind = string(se.Kind)
	attempt.ErrText = swaperr.DisplayMessage(se)
	final := *attempt
	o.mu.Unlock()

	o.logger.Warn("swap failed", "attempt", attempt.ID, "kind", se.Kind, "error", err)
	return final, se
}
