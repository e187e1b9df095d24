package schedule

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// ByeRoom is the pseudo-room that lists teams left unplaced in a round.
const ByeRoom = "Bye"

// Room is a space that can host one match per round.
type Room struct {
	Name     string
	Capacity int
}

// Match is a group of teams sharing one room for one round.
type Match struct {
	Room  Room
	Teams []string
}

// Round is one scheduling slot. Every team appears in at most one match or
// in Bye, never both.
type Round struct {
	Number  int
	Matches []Match
	Bye     []string
}

// Teams returns the teams placed in the named room, or nil if the room sat
// empty. ByeRoom returns the bye list.
func (r Round) Teams(room string) []string {
	if room == ByeRoom {
		return r.Bye
	}
	for _, m := range r.Matches {
		if m.Room.Name == room {
			return m.Teams
		}
	}
	return nil
}

// RoomTeams is one cell of a round's table view.
type RoomTeams struct {
	Room  string
	Teams []string
}

// Table lists every room in the given order with its teams (empty when
// unused), followed by the Bye pseudo-room.
func (r Round) Table(rooms []Room) []RoomTeams {
	table := make([]RoomTeams, 0, len(rooms)+1)
	for _, room := range rooms {
		teams := r.Teams(room.Name)
		if teams == nil {
			teams = []string{}
		}
		table = append(table, RoomTeams{Room: room.Name, Teams: teams})
	}
	bye := r.Bye
	if bye == nil {
		bye = []string{}
	}
	return append(table, RoomTeams{Room: ByeRoom, Teams: bye})
}

// roundBuilder fills rooms one round at a time from the outstanding demand.
type roundBuilder struct {
	teams       []string
	rooms       []Room // descending capacity, stable on input order
	demand      *Demand
	played      map[string]int // matches played so far, per team
	maxPerMatch int
	log         logrus.FieldLogger
}

func newRoundBuilder(teams []string, rooms []Room, demand *Demand, maxPerMatch int, log logrus.FieldLogger) *roundBuilder {
	sorted := make([]Room, len(rooms))
	copy(sorted, rooms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Capacity > sorted[j].Capacity
	})

	played := make(map[string]int, len(teams))
	for _, team := range teams {
		played[team] = 0
	}

	return &roundBuilder{
		teams:       teams,
		rooms:       sorted,
		demand:      demand,
		played:      played,
		maxPerMatch: maxPerMatch,
		log:         log,
	}
}

// capacity is the number of teams a room may hold this run.
func (b *roundBuilder) capacity(room Room) int {
	if b.maxPerMatch > 0 && b.maxPerMatch < room.Capacity {
		return b.maxPerMatch
	}
	return room.Capacity
}

// build produces one round. order is the tie-break ranking for this round:
// among equally loaded candidates, the one whose teams come first wins.
func (b *roundBuilder) build(number int, order []string) (Round, error) {
	rank := make(map[string]int, len(order))
	for i, team := range order {
		rank[team] = i
	}

	round := Round{Number: number}
	used := make(map[string]bool, len(b.teams))

	for _, room := range b.rooms {
		seed, ok := b.seedPair(used, rank)
		if !ok {
			b.log.WithFields(logrus.Fields{"round": number, "room": room.Name}).Trace("no eligible pair, room left empty")
			continue
		}

		match := []string{seed.A, seed.B}
		if rank[seed.B] < rank[seed.A] {
			match = []string{seed.B, seed.A}
		}
		for len(match) < b.capacity(room) {
			next, ok := b.extend(match, used, rank)
			if !ok {
				break
			}
			match = append(match, next)
		}

		if err := b.commit(match, used); err != nil {
			return Round{}, fmt.Errorf("round %d, room %s: %w", number, room.Name, err)
		}
		round.Matches = append(round.Matches, Match{Room: room, Teams: match})
	}

	for _, team := range b.teams {
		if !used[team] {
			round.Bye = append(round.Bye, team)
		}
	}
	return round, nil
}

// pairCandidate ranks a pair by combined load, then by tie-break position of
// its better and worse placed member.
type pairCandidate struct {
	key           PairKey
	load          int
	first, second int
}

func (b *roundBuilder) seedPair(used map[string]bool, rank map[string]int) (PairKey, bool) {
	var candidates []pairCandidate
	for _, k := range b.demand.Remaining() {
		if used[k.A] || used[k.B] {
			continue
		}
		first, second := rank[k.A], rank[k.B]
		if second < first {
			first, second = second, first
		}
		candidates = append(candidates, pairCandidate{
			key:    k,
			load:   b.played[k.A] + b.played[k.B],
			first:  first,
			second: second,
		})
	}
	if len(candidates) == 0 {
		return PairKey{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.load != cj.load {
			return ci.load < cj.load
		}
		if ci.first != cj.first {
			return ci.first < cj.first
		}
		return ci.second < cj.second
	})
	return candidates[0].key, true
}

// extend finds the least loaded unused team that still owes a meeting to
// every team already in the match.
func (b *roundBuilder) extend(match []string, used map[string]bool, rank map[string]int) (string, bool) {
	inMatch := make(map[string]bool, len(match))
	for _, team := range match {
		inMatch[team] = true
	}

	var candidates []string
	for _, team := range b.teams {
		if used[team] || inMatch[team] {
			continue
		}
		if b.owesAll(match, team) {
			candidates = append(candidates, team)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		ti, tj := candidates[i], candidates[j]
		if b.played[ti] != b.played[tj] {
			return b.played[ti] < b.played[tj]
		}
		return rank[ti] < rank[tj]
	})
	return candidates[0], true
}

func (b *roundBuilder) owesAll(match []string, team string) bool {
	for _, member := range match {
		if b.demand.Demand(member, team) <= 0 {
			return false
		}
	}
	return true
}

// commit satisfies every pair inside the match exactly once.
func (b *roundBuilder) commit(match []string, used map[string]bool) error {
	for i := 0; i < len(match); i++ {
		for j := i + 1; j < len(match); j++ {
			if err := b.demand.Satisfy(match[i], match[j]); err != nil {
				return err
			}
		}
	}
	for _, team := range match {
		used[team] = true
		b.played[team]++
	}
	return nil
}
