package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/molview/pkg/structure"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's limit.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation was overtaken
	// by a newer Evaluate call on the same engine.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	structure *structure.Structure
	errors    []EvalError
	err       error
}

// await blocks until the evaluation tagged gen reports on ch or the limit
// passes. current reports the engine's latest generation at delivery time;
// a mismatch means the result is stale.
//
// ch must be buffered so an abandoned evaluation can still finish.
func await(ch <-chan evalResult, gen uint64, limit time.Duration, current func() uint64) evalResult {
	deadline := time.NewTimer(limit)
	defer deadline.Stop()

	select {
	case <-deadline.C:
		return evalResult{err: fmt.Errorf("%w after %s", ErrTimeout, limit)}
	case res := <-ch:
		if current() != gen {
			return evalResult{err: ErrSuperseded}
		}
		return res
	}
}
