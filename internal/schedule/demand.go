package schedule

import (
	"fmt"
	"sort"
)

// PairKey identifies an unordered pair of distinct teams. A is always the
// lexicographically smaller name.
type PairKey struct {
	A, B string
}

func NewPairKey(a, b string) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{a, b}
}

// Demand tracks how many more times every pair of teams must share a room.
type Demand struct {
	keys        []PairKey // canonical order, fixed at construction
	remaining   map[PairKey]int
	outstanding int
}

// NewDemand owes matchesPerTeam meetings to every distinct pair of teams.
func NewDemand(teams []string, matchesPerTeam int) (*Demand, error) {
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: at least 2 teams are required, got %d", ErrInvalidConfiguration, len(teams))
	}
	if matchesPerTeam < 1 {
		return nil, fmt.Errorf("%w: matches per team must be at least 1, got %d", ErrInvalidConfiguration, matchesPerTeam)
	}

	seen := make(map[string]bool, len(teams))
	for _, team := range teams {
		if seen[team] {
			return nil, fmt.Errorf("%w: team %q appears more than once", ErrInvalidConfiguration, team)
		}
		seen[team] = true
	}

	d := &Demand{remaining: make(map[PairKey]int)}
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			k := NewPairKey(teams[i], teams[j])
			d.keys = append(d.keys, k)
			d.remaining[k] = matchesPerTeam
			d.outstanding += matchesPerTeam
		}
	}
	sort.Slice(d.keys, func(i, j int) bool {
		if d.keys[i].A != d.keys[j].A {
			return d.keys[i].A < d.keys[j].A
		}
		return d.keys[i].B < d.keys[j].B
	})
	return d, nil
}

// Remaining returns the pairs that still owe at least one meeting. The slice
// is rebuilt on every call.
func (d *Demand) Remaining() []PairKey {
	var pairs []PairKey
	for _, k := range d.keys {
		if d.remaining[k] > 0 {
			pairs = append(pairs, k)
		}
	}
	return pairs
}

// RemainingCount is len(Remaining()) without the allocation.
func (d *Demand) RemainingCount() int {
	count := 0
	for _, k := range d.keys {
		if d.remaining[k] > 0 {
			count++
		}
	}
	return count
}

// Outstanding is the total number of meetings still owed across all pairs.
func (d *Demand) Outstanding() int {
	return d.outstanding
}

// Demand returns the meetings still owed by a and b. Unknown pairs owe none.
func (d *Demand) Demand(a, b string) int {
	return d.remaining[NewPairKey(a, b)]
}

// Satisfy records one meeting between a and b.
func (d *Demand) Satisfy(a, b string) error {
	k := NewPairKey(a, b)
	n, ok := d.remaining[k]
	if !ok || n <= 0 {
		return fmt.Errorf("%w: %s and %s", ErrPairExhausted, k.A, k.B)
	}
	d.remaining[k] = n - 1
	d.outstanding--
	return nil
}

// Complete reports whether every pair has met the required number of times.
func (d *Demand) Complete() bool {
	return d.outstanding == 0
}
