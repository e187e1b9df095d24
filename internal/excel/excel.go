package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/roomdraw/internal/bracket"
	"github.com/derekprior/roomdraw/internal/config"
	"github.com/derekprior/roomdraw/internal/schedule"
)

const (
	ScheduleSheet = "Schedule"
	FinalsSheet   = "Finals"
)

// Columns before the first room column on the Schedule sheet.
const leadingCols = 2

// Generate creates an Excel workbook with the round-robin schedule, the
// finals plan and one sheet per team. finals may be nil.
func Generate(cfg *config.Config, result *schedule.Result, finals []bracket.Round) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	start, err := cfg.Event.StartTime()
	if err != nil {
		return nil, err
	}
	clock := roundClock{start: start, length: cfg.Event.RoundLength()}

	if err := writeScheduleSheet(f, cfg.ScheduleRooms(), result.Rounds, clock); err != nil {
		return nil, fmt.Errorf("writing schedule sheet: %w", err)
	}

	if len(finals) > 0 {
		clock.offset = len(result.Rounds)
		if err := writeFinalsSheet(f, finals, clock); err != nil {
			return nil, fmt.Errorf("writing finals sheet: %w", err)
		}
	}

	clock.offset = 0
	if err := writeTeamSheets(f, cfg.Teams, result.Rounds, clock); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// UpdateTeamSheets re-reads the Schedule sheet of the workbook at path and
// rewrites every team sheet from it, so hand edits to the schedule carry
// through to the team views.
func UpdateTeamSheets(path string, cfg *config.Config) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	parsed, err := ReadSchedule(f)
	if err != nil {
		return err
	}

	start, err := cfg.Event.StartTime()
	if err != nil {
		return err
	}

	for _, name := range teamSheetNames(cfg.Teams) {
		if idx, _ := f.GetSheetIndex(name); idx >= 0 {
			if err := f.DeleteSheet(name); err != nil {
				return fmt.Errorf("removing sheet %s: %w", name, err)
			}
		}
	}

	clock := roundClock{start: start, length: cfg.Event.RoundLength()}
	if err := writeTeamSheets(f, cfg.Teams, parsed.ScheduleRounds(cfg), clock); err != nil {
		return fmt.Errorf("writing team sheets: %w", err)
	}
	return f.Save()
}

// roundClock turns round numbers into start times. A zero start leaves the
// time column blank.
type roundClock struct {
	start  time.Time
	length time.Duration
	offset int
}

func (c roundClock) label(round int) string {
	if c.start.IsZero() {
		return ""
	}
	return c.start.Add(time.Duration(c.offset+round-1) * c.length).Format("15:04")
}

func headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return style
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style := headerStyle(f); style != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), style)
	}
}

func writeScheduleSheet(f *excelize.File, rooms []schedule.Room, rounds []schedule.Round, clock roundClock) error {
	sheet := ScheduleSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Round", "Start"}
	for _, r := range rooms {
		headers = append(headers, r.Name)
	}
	headers = append(headers, schedule.ByeRoom)
	writeHeaders(f, sheet, headers)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	roomCellStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, round := range rounds {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), round.Number)
		f.SetCellValue(sheet, cellRef(2, row), clock.label(round.Number))

		for ci, cell := range round.Table(rooms) {
			if len(cell.Teams) == 0 {
				continue
			}
			sep := config.MatchSeparator
			if cell.Room == schedule.ByeRoom {
				sep = config.ByeSeparator
			}
			f.SetCellValue(sheet, cellRef(ci+leadingCols+1, row), strings.Join(cell.Teams, sep))
		}

		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(leadingCols, row), cellStyle)
		}
		if roomCellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(leadingCols+1, row), cellRef(len(headers), row), roomCellStyle)
		}
	}

	// Set column widths (sized for Arial 16)
	f.SetColWidth(sheet, "A", "A", 10)
	f.SetColWidth(sheet, "B", "B", 10)
	for i := range rooms {
		col := colLetter(i + leadingCols + 1)
		f.SetColWidth(sheet, col, col, 36)
	}
	byeCol := colLetter(len(headers))
	f.SetColWidth(sheet, byeCol, byeCol, 30)

	// Teams sitting out a round get a light red fill
	if len(rounds) > 0 {
		redFill, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
			Font: &excelize.Font{Size: 16, Family: "Arial"},
		})
		topCell := fmt.Sprintf("%s2", byeCol)
		f.SetConditionalFormat(sheet, fmt.Sprintf("%s2:%s%d", byeCol, byeCol, len(rounds)+1), []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: fmt.Sprintf(`%s<>""`, topCell),
				Format:   &redFill,
			},
		})
	}

	return nil
}

func writeFinalsSheet(f *excelize.File, rounds []bracket.Round, clock roundClock) error {
	sheet := FinalsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Round", "Start", "Stage", "Room", "Bracket", "Teams", "Byes"}
	writeHeaders(f, sheet, headers)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})

	row := 2
	for _, round := range rounds {
		for i, slot := range round.Slots {
			f.SetCellValue(sheet, cellRef(1, row), round.Number)
			f.SetCellValue(sheet, cellRef(2, row), clock.label(round.Number))
			f.SetCellValue(sheet, cellRef(3, row), round.Label)
			f.SetCellValue(sheet, cellRef(4, row), slot.Room.Name)
			f.SetCellValue(sheet, cellRef(5, row), string(slot.Side))
			f.SetCellValue(sheet, cellRef(6, row), slot.Teams)
			if i == 0 && round.Byes > 0 {
				f.SetCellValue(sheet, cellRef(7, row), round.Byes)
			}
			if cellStyle != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), cellStyle)
			}
			row++
		}
	}

	widths := map[string]float64{"A": 10, "B": 10, "C": 18, "D": 28, "E": 16, "F": 10, "G": 10}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeTeamSheets(f *excelize.File, teams []string, rounds []schedule.Round, clock roundClock) error {
	names := teamSheetNames(teams)
	for _, team := range teams {
		sheet := names[team]
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet for %s: %w", team, err)
		}

		headers := []string{"Round", "Start", "Room", "Opponents"}
		writeHeaders(f, sheet, headers)

		cellStyle, _ := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Size: 16, Family: "Arial"},
		})

		for i, round := range rounds {
			row := i + 2
			room, opponents := schedule.ByeRoom, ""
			for _, m := range round.Matches {
				if !contains(m.Teams, team) {
					continue
				}
				room = m.Room.Name
				var others []string
				for _, t := range m.Teams {
					if t != team {
						others = append(others, t)
					}
				}
				opponents = strings.Join(others, ", ")
				break
			}

			f.SetCellValue(sheet, cellRef(1, row), round.Number)
			f.SetCellValue(sheet, cellRef(2, row), clock.label(round.Number))
			f.SetCellValue(sheet, cellRef(3, row), room)
			f.SetCellValue(sheet, cellRef(4, row), opponents)
			if cellStyle != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), cellStyle)
			}
		}

		// Set column widths (sized for Arial 16)
		widths := map[string]float64{"A": 10, "B": 10, "C": 28, "D": 40}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

// teamSheetNames maps each team to a unique, valid worksheet name. Excel
// limits names to 31 characters and forbids a handful of symbols.
func teamSheetNames(teams []string) map[string]string {
	used := map[string]bool{
		strings.ToLower(ScheduleSheet): true,
		strings.ToLower(FinalsSheet):   true,
	}
	names := make(map[string]string, len(teams))
	for _, team := range teams {
		base := strings.Map(func(r rune) rune {
			if strings.ContainsRune(`:\/?*[]`, r) {
				return '_'
			}
			return r
		}, team)
		base = strings.Trim(base, "'")
		if base == "" {
			base = "Team"
		}

		name := truncate(base, 31)
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncate(base, 31-len(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		names[team] = name
	}
	return names
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
