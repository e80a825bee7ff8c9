package orchestrator

import "github.com/omnidex-labs/swapcore/pkg/types"

// transitions is the exhaustive table of legal step changes. Anything not
// listed is an invalid transition; every non-terminal step may also fail to
// StepError (checked separately).
var transitions = map[types.SwapStep][]types.SwapStep{
	types.StepIdle:              {types.StepCheckingAllowance, types.StepSwapping},
	types.StepCheckingAllowance: {types.StepApproving, types.StepSwapping},
	types.StepApproving:         {types.StepSwapping},
	types.StepSwapping:          {types.StepConfirming},
	types.StepConfirming:        {types.StepComplete},
	types.StepComplete:          {},
	types.StepError:             {},
}

// canTransition reports whether from -> to is a legal step change.
func canTransition(from, to types.SwapStep) bool {
	if to == types.StepError {
		return !from.Terminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
