// Package bracket plans the room structure of an elimination stage. Only
// occupancy counts are planned: who plays after the first round depends on
// results that are not known yet.
package bracket

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/derekprior/roomdraw/internal/schedule"
)

type Mode string

const (
	SingleElimination Mode = "Single Elimination"
	DoubleElimination Mode = "Double Elimination"
)

// ParseMode accepts the canonical mode names and the short forms
// "single" and "double", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single elimination", "single":
		return SingleElimination, nil
	case "double elimination", "double":
		return DoubleElimination, nil
	default:
		return "", fmt.Errorf("%w: unsupported elimination mode %q", schedule.ErrInvalidConfiguration, s)
	}
}

// Side names the part of the bracket a room serves.
type Side string

const (
	Winners    Side = "Winners"
	Losers     Side = "Losers"
	GrandFinal Side = "Grand Final"
)

const (
	LabelFinals      = "Finals"
	LabelConsolation = "Consolation"
	LabelSemiFinal   = "Semi-Final"
)

// Slot is one active room in a bracket round.
type Slot struct {
	Room  schedule.Room
	Teams int
	Side  Side
}

// State is the bracket population after a round. Single elimination only
// uses Winners.
type State struct {
	Winners int
	Losers  int
}

// Round is one planned bracket stage.
type Round struct {
	Number int
	Label  string
	Slots  []Slot
	Byes   int // teams still alive that sit this round out
	After  State
}

// Teams is the total expected occupancy of the round.
func (r Round) Teams() int {
	n := 0
	for _, s := range r.Slots {
		n += s.Teams
	}
	return n
}

// Options tunes the planner.
type Options struct {
	// CarryByes keeps teams that could not be placed in a single
	// elimination round alive for the next one. When false, only the
	// occupants of a round decide how many teams remain.
	CarryByes bool

	Logger logrus.FieldLogger
}

// Plan computes the rounds of an elimination bracket for teamCount teams.
// Rooms are used largest first; rooms and teamCount are not modified.
func Plan(teamCount int, rooms []schedule.Room, mode Mode, opts Options) ([]Round, error) {
	if teamCount < 2 {
		return nil, fmt.Errorf("%w: a bracket needs at least 2 teams, got %d", schedule.ErrInvalidConfiguration, teamCount)
	}
	if err := schedule.ValidateRooms(rooms); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	sorted := make([]schedule.Room, len(rooms))
	copy(sorted, rooms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Capacity > sorted[j].Capacity
	})

	p := &planner{rooms: sorted, limit: 2 * teamCount, carryByes: opts.CarryByes, log: log}

	var rounds []Round
	var err error
	switch mode {
	case SingleElimination:
		rounds, err = p.single(teamCount)
	case DoubleElimination:
		rounds, err = p.double(teamCount)
	default:
		return nil, fmt.Errorf("%w: unsupported elimination mode %q", schedule.ErrInvalidConfiguration, mode)
	}
	if err != nil {
		return nil, err
	}

	labelRounds(rounds)
	log.WithFields(logrus.Fields{"mode": mode, "teams": teamCount, "rounds": len(rounds)}).Debug("bracket planned")
	return rounds, nil
}

type planner struct {
	rooms     []schedule.Room // descending capacity
	limit     int
	carryByes bool
	log       logrus.FieldLogger
}

func (p *planner) checkLimit(rounds []Round) error {
	if len(rounds) >= p.limit {
		return fmt.Errorf("%w: bracket did not converge within %d rounds", schedule.ErrSchedulingDeadlock, p.limit)
	}
	return nil
}

func (p *planner) single(teamCount int) ([]Round, error) {
	var rounds []Round
	remaining := teamCount
	for remaining > 1 {
		if err := p.checkLimit(rounds); err != nil {
			return nil, err
		}

		slots, _, placed := pack(p.rooms, 0, remaining, Winners)
		next := 0
		for _, s := range slots {
			next += advancing(s.Teams)
		}
		byes := remaining - placed
		if p.carryByes {
			next += byes
		}

		rounds = append(rounds, Round{
			Number: len(rounds) + 1,
			Slots:  slots,
			Byes:   byes,
			After:  State{Winners: next},
		})
		p.log.WithFields(logrus.Fields{"round": len(rounds), "placed": placed, "remaining": next}).Trace("single elimination round")
		remaining = next
	}
	return rounds, nil
}

func (p *planner) double(teamCount int) ([]Round, error) {
	var rounds []Round
	winners, losers := teamCount, 0
	for winners > 1 || losers > 1 {
		if err := p.checkLimit(rounds); err != nil {
			return nil, err
		}

		winnersThisRound := evenPart(winners)
		losersThisRound := evenPart(losers)

		wSlots, nextRoom, wPlaced := pack(p.rooms, 0, winnersThisRound, Winners)
		lSlots, _, lPlaced := pack(p.rooms, nextRoom, losersThisRound, Losers)

		dropped, eliminated := 0, 0
		for _, s := range wSlots {
			dropped += s.Teams - advancing(s.Teams)
		}
		for _, s := range lSlots {
			eliminated += s.Teams - advancing(s.Teams)
		}

		byes := (winners - wPlaced) + (losers - lPlaced)
		winners -= dropped
		losers += dropped - eliminated

		rounds = append(rounds, Round{
			Number: len(rounds) + 1,
			Slots:  append(wSlots, lSlots...),
			Byes:   byes,
			After:  State{Winners: winners, Losers: losers},
		})
		p.log.WithFields(logrus.Fields{
			"round":   len(rounds),
			"winners": winners,
			"losers":  losers,
		}).Trace("double elimination round")
	}

	if winners == 1 && losers == 1 {
		if err := p.checkLimit(rounds); err != nil {
			return nil, err
		}
		rounds = append(rounds, Round{
			Number: len(rounds) + 1,
			Slots:  []Slot{{Room: p.rooms[0], Teams: 2, Side: GrandFinal}},
			After:  State{Winners: 1},
		})
	}
	return rounds, nil
}

// pack places up to need teams into rooms[from:], largest room first. A
// room never takes so many teams that a single team is stranded while a
// later room could still host two. It returns the slots used, the index of
// the first untouched room and the number of teams placed.
func pack(rooms []schedule.Room, from, need int, side Side) ([]Slot, int, int) {
	var slots []Slot
	placed := 0
	next := from
	for i := from; i < len(rooms) && need-placed >= 2; i++ {
		left := need - placed
		n := min(rooms[i].Capacity, left)
		if left-n == 1 && n > 2 && i+1 < len(rooms) {
			n--
		}
		slots = append(slots, Slot{Room: rooms[i], Teams: n, Side: side})
		placed += n
		next = i + 1
	}
	return slots, next, placed
}

// advancing is how many of a room's occupants survive: half, rounded up.
func advancing(occupants int) int {
	return (occupants + 1) / 2
}

// evenPart is n when n is even and n-1 otherwise, leaving one team a bye.
func evenPart(n int) int {
	return n - n%2
}

// labelRounds names rounds from the end: the last is the final, the one
// before it the consolation round. A single earlier round is the semi-final;
// several earlier rounds are numbered instead.
func labelRounds(rounds []Round) {
	n := len(rounds)
	for i := range rounds {
		switch {
		case i == n-1:
			rounds[i].Label = LabelFinals
		case i == n-2:
			rounds[i].Label = LabelConsolation
		case n-2 == 1:
			rounds[i].Label = LabelSemiFinal
		default:
			rounds[i].Label = fmt.Sprintf("Round %d", i+1)
		}
	}
}
