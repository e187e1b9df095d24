package strategy

import (
	"fmt"
	"math/rand"
)

// Strategy decides how equally loaded candidates are ranked within a round.
// Order returns a permutation of teams; a team earlier in the result wins
// every tie against a team later in it.
//
// Strategies may carry state between rounds, so a fresh value is needed for
// every generation run that must be reproducible.
type Strategy interface {
	Order(round int, teams []string) []string
}

// Names lists the strategies accepted by Get.
var Names = []string{"seeded_shuffle", "input_order", "rotate"}

// Get returns a Strategy by name. The seed is only used by seeded_shuffle.
func Get(name string, seed int64) (Strategy, error) {
	switch name {
	case "seeded_shuffle", "":
		return NewSeededShuffle(seed), nil
	case "input_order":
		return &InputOrder{}, nil
	case "rotate":
		return &Rotate{}, nil
	default:
		return nil, fmt.Errorf("unknown tie-break strategy: %q", name)
	}
}

// SeededShuffle reshuffles the teams every round from a fixed seed, so that
// no team is systematically favoured while a seed still reproduces a run.
type SeededShuffle struct {
	Seed int64
	rng  *rand.Rand
}

func NewSeededShuffle(seed int64) *SeededShuffle {
	return &SeededShuffle{Seed: seed, rng: rand.New(rand.NewSource(seed))}
}

func (s *SeededShuffle) Order(round int, teams []string) []string {
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.Seed))
	}
	shuffled := make([]string, len(teams))
	copy(shuffled, teams)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// InputOrder always prefers teams in the order they were supplied.
type InputOrder struct{}

func (s *InputOrder) Order(round int, teams []string) []string {
	ordered := make([]string, len(teams))
	copy(ordered, teams)
	return ordered
}

// Rotate shifts the input order by one position per round.
type Rotate struct{}

func (s *Rotate) Order(round int, teams []string) []string {
	n := len(teams)
	rotated := make([]string, n)
	if n == 0 {
		return rotated
	}
	shift := (round - 1) % n
	if shift < 0 {
		shift += n
	}
	for i := range teams {
		rotated[i] = teams[(i+shift)%n]
	}
	return rotated
}
