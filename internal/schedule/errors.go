package schedule

import "errors"

var (
	// ErrInvalidConfiguration reports malformed or insufficient inputs. It is
	// always returned before any scheduling work starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrSchedulingDeadlock reports that outstanding demand stopped shrinking.
	// No partial schedule accompanies it.
	ErrSchedulingDeadlock = errors.New("scheduling deadlock")

	// ErrPairExhausted reports an attempt to satisfy a pair that owes no
	// further meetings. It indicates a defect in round building.
	ErrPairExhausted = errors.New("pair already exhausted")
)
