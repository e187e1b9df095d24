package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/roomdraw/internal/config"
	"github.com/derekprior/roomdraw/internal/schedule"
)

// SheetSchedule is the Schedule sheet read back from a workbook.
type SheetSchedule struct {
	Rooms  []string // room columns in sheet order, without Bye
	Rounds []SheetRound
}

// SheetRound is one data row of the Schedule sheet.
type SheetRound struct {
	Row    int // 1-based sheet row
	Number int
	Cells  []schedule.RoomTeams // one per room column, Teams empty when unused
	Bye    []string
}

// ReadSchedule parses the Schedule sheet. Rows without a numeric round are
// skipped.
func ReadSchedule(f *excelize.File) (*SheetSchedule, error) {
	rows, err := f.GetRows(ScheduleSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ScheduleSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", ScheduleSheet)
	}

	header := rows[0]
	byeIndex := -1
	var rooms []string
	for i := leadingCols; i < len(header); i++ {
		if header[i] == schedule.ByeRoom {
			byeIndex = i
			continue
		}
		rooms = append(rooms, header[i])
	}
	if byeIndex < 0 {
		return nil, fmt.Errorf("%s has no %s column", ScheduleSheet, schedule.ByeRoom)
	}

	parsed := &SheetSchedule{Rooms: rooms}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		number, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}

		round := SheetRound{Row: i + 1, Number: number}
		for col := leadingCols; col < len(header); col++ {
			cell := ""
			if col < len(row) {
				cell = row[col]
			}
			if col == byeIndex {
				round.Bye = splitCell(cell, config.ByeSeparator)
				continue
			}
			round.Cells = append(round.Cells, schedule.RoomTeams{
				Room:  header[col],
				Teams: splitCell(cell, config.MatchSeparator),
			})
		}
		parsed.Rounds = append(parsed.Rounds, round)
	}
	return parsed, nil
}

// ScheduleRounds converts the sheet back into schedule rounds, taking room
// capacities from cfg. Rooms missing from cfg get capacity 0.
func (s *SheetSchedule) ScheduleRounds(cfg *config.Config) []schedule.Round {
	rounds := make([]schedule.Round, 0, len(s.Rounds))
	for _, sr := range s.Rounds {
		round := schedule.Round{Number: sr.Number, Bye: sr.Bye}
		for _, cell := range sr.Cells {
			if len(cell.Teams) == 0 {
				continue
			}
			capacity, _ := cfg.RoomCapacity(cell.Room)
			round.Matches = append(round.Matches, schedule.Match{
				Room:  schedule.Room{Name: cell.Room, Capacity: capacity},
				Teams: cell.Teams,
			})
		}
		rounds = append(rounds, round)
	}
	return rounds
}

// splitCell splits a cell into trimmed, non-empty team names.
func splitCell(cell, sep string) []string {
	teams := []string{}
	for _, part := range strings.Split(cell, sep) {
		if name := strings.TrimSpace(part); name != "" {
			teams = append(teams, name)
		}
	}
	return teams
}
