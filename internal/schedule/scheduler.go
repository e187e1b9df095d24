package schedule

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/derekprior/roomdraw/internal/strategy"
)

// DefaultSeed seeds the tie-break shuffle when no strategy is supplied.
const DefaultSeed int64 = 42

// stallLimit is how many consecutive empty, non-progressing rounds are
// tolerated before generation gives up.
const stallLimit = 2

// Options controls a generation run.
type Options struct {
	MatchesPerTeam int

	// MaxTeamsPerMatch caps every match below its room capacity. Zero
	// leaves room capacity in charge.
	MaxTeamsPerMatch int

	// Strategy breaks ties between equally loaded candidates. Nil means a
	// seeded shuffle with DefaultSeed.
	Strategy strategy.Strategy

	// Logger receives progress at debug and trace level. Nil means the
	// logrus standard logger.
	Logger logrus.FieldLogger
}

// TeamMetrics holds per-team schedule statistics.
type TeamMetrics struct {
	Matches int
	Byes    int
}

// Result is the output of the scheduling process.
type Result struct {
	Rounds      []Round
	Warnings    []string
	TeamMetrics map[string]*TeamMetrics
}

// Generate builds rounds until every pair of teams has shared a room
// opts.MatchesPerTeam times. Teams and rooms are never modified. The same
// inputs and the same strategy state always yield the same schedule.
func Generate(teams []string, rooms []Room, opts Options) (*Result, error) {
	if err := validateInputs(teams, rooms, opts); err != nil {
		return nil, err
	}

	s, err := newScheduler(teams, rooms, opts)
	if err != nil {
		return nil, err
	}
	if err := s.run(); err != nil {
		return nil, err
	}

	warnings, metrics := s.buildMetrics()
	return &Result{
		Rounds:      s.rounds,
		Warnings:    warnings,
		TeamMetrics: metrics,
	}, nil
}

// ValidateRooms checks that rooms are present, uniquely named and can each
// hold a match.
func ValidateRooms(rooms []Room) error {
	if len(rooms) == 0 {
		return fmt.Errorf("%w: at least one room is required", ErrInvalidConfiguration)
	}
	seen := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		if r.Name == "" {
			return fmt.Errorf("%w: room names must not be empty", ErrInvalidConfiguration)
		}
		if r.Name == ByeRoom {
			return fmt.Errorf("%w: %q is reserved and cannot name a room", ErrInvalidConfiguration, ByeRoom)
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: room %q appears more than once", ErrInvalidConfiguration, r.Name)
		}
		seen[r.Name] = true
		if r.Capacity < 2 {
			return fmt.Errorf("%w: room %q has capacity %d (minimum 2)", ErrInvalidConfiguration, r.Name, r.Capacity)
		}
	}
	return nil
}

func validateInputs(teams []string, rooms []Room, opts Options) error {
	if len(teams) < 2 {
		return fmt.Errorf("%w: at least 2 teams are required, got %d", ErrInvalidConfiguration, len(teams))
	}
	seen := make(map[string]bool, len(teams))
	for _, team := range teams {
		if team == "" {
			return fmt.Errorf("%w: team names must not be empty", ErrInvalidConfiguration)
		}
		if seen[team] {
			return fmt.Errorf("%w: team %q appears more than once", ErrInvalidConfiguration, team)
		}
		seen[team] = true
	}
	if err := ValidateRooms(rooms); err != nil {
		return err
	}
	if opts.MatchesPerTeam < 1 {
		return fmt.Errorf("%w: matches per team must be at least 1, got %d", ErrInvalidConfiguration, opts.MatchesPerTeam)
	}
	if opts.MaxTeamsPerMatch != 0 && opts.MaxTeamsPerMatch < 2 {
		return fmt.Errorf("%w: max teams per match must be 0 or at least 2, got %d", ErrInvalidConfiguration, opts.MaxTeamsPerMatch)
	}
	return nil
}

type scheduler struct {
	teams    []string
	rooms    []Room
	strategy strategy.Strategy
	log      logrus.FieldLogger

	demand  *Demand
	builder *roundBuilder
	rounds  []Round
}

func newScheduler(teams []string, rooms []Room, opts Options) (*scheduler, error) {
	demand, err := NewDemand(teams, opts.MatchesPerTeam)
	if err != nil {
		return nil, err
	}

	strat := opts.Strategy
	if strat == nil {
		strat = strategy.NewSeededShuffle(DefaultSeed)
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &scheduler{
		teams:    teams,
		rooms:    rooms,
		strategy: strat,
		log:      log,
		demand:   demand,
		builder:  newRoundBuilder(teams, rooms, demand, opts.MaxTeamsPerMatch, log),
	}, nil
}

func (s *scheduler) run() error {
	s.log.WithFields(logrus.Fields{
		"teams":       len(s.teams),
		"rooms":       len(s.rooms),
		"outstanding": s.demand.Outstanding(),
	}).Debug("generating schedule")

	stalls := 0
	for !s.demand.Complete() {
		number := len(s.rounds) + 1
		before := s.demand.RemainingCount()

		round, err := s.builder.build(number, s.strategy.Order(number, s.teams))
		if err != nil {
			return err
		}
		s.rounds = append(s.rounds, round)

		s.log.WithFields(logrus.Fields{
			"round":       number,
			"matches":     len(round.Matches),
			"byes":        len(round.Bye),
			"outstanding": s.demand.Outstanding(),
		}).Trace("built round")

		if len(round.Matches) == 0 && s.demand.RemainingCount() == before {
			stalls++
			if stalls >= stallLimit {
				return fmt.Errorf("%w: no progress for %d rounds with %d pairs outstanding",
					ErrSchedulingDeadlock, stalls, before)
			}
			continue
		}
		stalls = 0
	}

	s.log.WithField("rounds", len(s.rounds)).Debug("schedule complete")
	return nil
}

func (s *scheduler) buildMetrics() ([]string, map[string]*TeamMetrics) {
	var warnings []string
	metrics := make(map[string]*TeamMetrics, len(s.teams))
	for _, team := range s.teams {
		metrics[team] = &TeamMetrics{}
	}

	roomUsed := make(map[string]bool, len(s.rooms))
	for _, r := range s.rounds {
		for _, m := range r.Matches {
			roomUsed[m.Room.Name] = true
			for _, team := range m.Teams {
				metrics[team].Matches++
			}
		}
		for _, team := range r.Bye {
			metrics[team].Byes++
		}
	}

	minBye, maxBye := spread(s.teams, metrics, func(m *TeamMetrics) int { return m.Byes })
	if maxBye-minBye > 1 {
		warnings = append(warnings, fmt.Sprintf(
			"bye imbalance: min %d, max %d across teams", minBye, maxBye))
	}

	for _, room := range s.rooms {
		if !roomUsed[room.Name] {
			warnings = append(warnings, fmt.Sprintf("room %q is never used", room.Name))
		}
	}

	return warnings, metrics
}

// softScore ranks complete schedules; lower is better. Fewer rounds dominate,
// then even byes, then even match load.
func (r *Result) softScore(teams []string) float64 {
	minBye, maxBye := spread(teams, r.TeamMetrics, func(m *TeamMetrics) int { return m.Byes })
	minPlay, maxPlay := spread(teams, r.TeamMetrics, func(m *TeamMetrics) int { return m.Matches })
	return float64(len(r.Rounds))*1000 + float64(maxBye-minBye)*10 + float64(maxPlay-minPlay)
}

func spread(teams []string, metrics map[string]*TeamMetrics, value func(*TeamMetrics) int) (int, int) {
	lo, hi := math.MaxInt, 0
	for _, team := range teams {
		m, ok := metrics[team]
		if !ok {
			continue
		}
		v := value(m)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == math.MaxInt {
		lo = 0
	}
	return lo, hi
}
