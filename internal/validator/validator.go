package validator

import (
	"fmt"
	"math"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/roomdraw/internal/config"
	"github.com/derekprior/roomdraw/internal/excel"
	"github.com/derekprior/roomdraw/internal/schedule"
)

// Violation represents a constraint violation found during validation.
type Violation struct {
	Row     int    // sheet row, 0 when the violation spans the whole schedule
	Round   int    // round number, 0 when not tied to one round
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a schedule Excel file and checks it against the config.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	parsed, err := excel.ReadSchedule(f)
	if err != nil {
		return nil, fmt.Errorf("reading schedule: %w", err)
	}

	return Check(cfg, parsed), nil
}

// Check runs every rule against an already parsed Schedule sheet.
func Check(cfg *config.Config, parsed *excel.SheetSchedule) []Violation {
	var violations []Violation

	// Check hard constraints
	violations = append(violations, checkRoomColumns(cfg, parsed)...)
	violations = append(violations, checkMatchSizes(cfg, parsed)...)
	violations = append(violations, checkTeamPlacement(cfg, parsed)...)
	violations = append(violations, checkPairCompleteness(cfg, parsed)...)

	// Check soft constraints
	violations = append(violations, checkByeBalance(cfg, parsed)...)

	return violations
}

func checkRoomColumns(cfg *config.Config, parsed *excel.SheetSchedule) []Violation {
	var violations []Violation
	for _, room := range parsed.Rooms {
		if _, ok := cfg.RoomCapacity(room); !ok {
			violations = append(violations, Violation{
				Row:     1,
				Type:    "error",
				Message: fmt.Sprintf("column %q is not a configured room", room),
			})
		}
	}
	return violations
}

func checkMatchSizes(cfg *config.Config, parsed *excel.SheetSchedule) []Violation {
	var violations []Violation
	for _, round := range parsed.Rounds {
		for _, cell := range round.Cells {
			n := len(cell.Teams)
			if n == 0 {
				continue
			}
			if n < 2 {
				violations = append(violations, Violation{
					Row:     round.Row,
					Round:   round.Number,
					Type:    "error",
					Message: fmt.Sprintf("round %d: %s hosts a single team", round.Number, cell.Room),
				})
				continue
			}
			if capacity, ok := cfg.RoomCapacity(cell.Room); ok && n > capacity {
				violations = append(violations, Violation{
					Row:     round.Row,
					Round:   round.Number,
					Type:    "error",
					Message: fmt.Sprintf("round %d: %s holds %d teams (capacity %d)", round.Number, cell.Room, n, capacity),
				})
			}
			if cfg.MaxTeamsPerMatch > 0 && n > cfg.MaxTeamsPerMatch {
				violations = append(violations, Violation{
					Row:     round.Row,
					Round:   round.Number,
					Type:    "error",
					Message: fmt.Sprintf("round %d: %s holds %d teams (max %d per match)", round.Number, cell.Room, n, cfg.MaxTeamsPerMatch),
				})
			}
		}
	}
	return violations
}

// checkTeamPlacement verifies each round partitions the team list: every
// team appears exactly once, in a room or on the bye list.
func checkTeamPlacement(cfg *config.Config, parsed *excel.SheetSchedule) []Violation {
	known := make(map[string]bool, len(cfg.Teams))
	for _, team := range cfg.Teams {
		known[team] = true
	}

	var violations []Violation
	for _, round := range parsed.Rounds {
		seen := make(map[string]int)
		var order []string
		place := func(team string) {
			if seen[team] == 0 {
				order = append(order, team)
			}
			seen[team]++
		}
		for _, cell := range round.Cells {
			for _, team := range cell.Teams {
				place(team)
			}
		}
		for _, team := range round.Bye {
			place(team)
		}

		for _, team := range order {
			if !known[team] {
				violations = append(violations, Violation{
					Row:     round.Row,
					Round:   round.Number,
					Type:    "error",
					Message: fmt.Sprintf("round %d: unknown team %q", round.Number, team),
				})
			} else if seen[team] > 1 {
				violations = append(violations, Violation{
					Row:     round.Row,
					Round:   round.Number,
					Type:    "error",
					Message: fmt.Sprintf("round %d: %s appears %d times", round.Number, team, seen[team]),
				})
			}
		}
		for _, team := range cfg.Teams {
			if seen[team] == 0 {
				violations = append(violations, Violation{
					Row:     round.Row,
					Round:   round.Number,
					Type:    "error",
					Message: fmt.Sprintf("round %d: %s is neither placed nor on the bye list", round.Number, team),
				})
			}
		}
	}
	return violations
}

// checkPairCompleteness verifies every pair of teams met exactly
// matches_per_team times.
func checkPairCompleteness(cfg *config.Config, parsed *excel.SheetSchedule) []Violation {
	known := make(map[string]bool, len(cfg.Teams))
	for _, team := range cfg.Teams {
		known[team] = true
	}

	meetings := make(map[schedule.PairKey]int)
	for _, round := range parsed.Rounds {
		for _, cell := range round.Cells {
			for i := 0; i < len(cell.Teams); i++ {
				for j := i + 1; j < len(cell.Teams); j++ {
					a, b := cell.Teams[i], cell.Teams[j]
					if a == b || !known[a] || !known[b] {
						continue
					}
					meetings[schedule.NewPairKey(a, b)]++
				}
			}
		}
	}

	var violations []Violation
	for i := 0; i < len(cfg.Teams); i++ {
		for j := i + 1; j < len(cfg.Teams); j++ {
			key := schedule.NewPairKey(cfg.Teams[i], cfg.Teams[j])
			got := meetings[key]
			if got == cfg.MatchesPerTeam {
				continue
			}
			violations = append(violations, Violation{
				Type:    "error",
				Message: fmt.Sprintf("%s and %s meet %d times (want %d)", key.A, key.B, got, cfg.MatchesPerTeam),
			})
		}
	}
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Message < violations[j].Message
	})
	return violations
}

func checkByeBalance(cfg *config.Config, parsed *excel.SheetSchedule) []Violation {
	counts := make(map[string]int)
	for _, team := range cfg.Teams {
		counts[team] = 0
	}
	for _, round := range parsed.Rounds {
		for _, team := range round.Bye {
			if _, ok := counts[team]; ok {
				counts[team]++
			}
		}
	}

	maxBye, minBye := 0, math.MaxInt
	for _, c := range counts {
		if c > maxBye {
			maxBye = c
		}
		if c < minBye {
			minBye = c
		}
	}
	if maxBye-minBye > 1 {
		return []Violation{{
			Type:    "warning",
			Message: fmt.Sprintf("bye imbalance: min %d, max %d across teams", minBye, maxBye),
		}}
	}
	return nil
}
