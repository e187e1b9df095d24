// Package export flattens a schedule and its finals plan into spreadsheet
// rows, one per room per round, and writes them as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/derekprior/roomdraw/internal/bracket"
	"github.com/derekprior/roomdraw/internal/schedule"
)

// TimestampLayout formats the Timestamp column.
const TimestampLayout = "2006-01-02 15:04"

// Header is the first CSV record.
var Header = []string{"Timestamp", "Event ID", "Event", "Round", "Room", "Left", "Center", "Right"}

// Metadata describes the event every row belongs to.
type Metadata struct {
	EventID     string
	EventName   string
	Start       time.Time // zero leaves timestamps blank
	RoundLength time.Duration
}

func (m Metadata) timestamp(index int) time.Time {
	if m.Start.IsZero() {
		return time.Time{}
	}
	return m.Start.Add(time.Duration(index) * m.RoundLength)
}

// Row is one room in one round. Team slots are blank for unused rooms and
// for bracket rounds, whose occupants are not known in advance.
type Row struct {
	Timestamp time.Time
	EventID   string
	Event     string
	Round     string
	Room      string
	Left      string
	Center    string
	Right     string
}

// Record renders the row as CSV fields.
func (r Row) Record() []string {
	ts := ""
	if !r.Timestamp.IsZero() {
		ts = r.Timestamp.Format(TimestampLayout)
	}
	return []string{ts, r.EventID, r.Event, r.Round, r.Room, r.Left, r.Center, r.Right}
}

// Rows lists, for each room in input order, one row per round-robin round.
// Bracket rounds follow, one row per active room, timed after the last
// round-robin round. finals may be nil.
func Rows(meta Metadata, rooms []schedule.Room, result *schedule.Result, finals []bracket.Round) []Row {
	var rows []Row
	for _, room := range rooms {
		for i, round := range result.Rounds {
			row := Row{
				Timestamp: meta.timestamp(i),
				EventID:   meta.EventID,
				Event:     meta.EventName,
				Round:     fmt.Sprintf("Round %d", round.Number),
				Room:      room.Name,
			}
			row.Left, row.Center, row.Right = slots(round.Teams(room.Name))
			rows = append(rows, row)
		}
	}

	offset := len(result.Rounds)
	for i, round := range finals {
		for _, slot := range round.Slots {
			rows = append(rows, Row{
				Timestamp: meta.timestamp(offset + i),
				EventID:   meta.EventID,
				Event:     meta.EventName,
				Round:     round.Label,
				Room:      slot.Room.Name,
			})
		}
	}
	return rows
}

// slots fills left, center and right in order. Teams beyond the third share
// the right slot.
func slots(teams []string) (left, center, right string) {
	switch {
	case len(teams) == 0:
		return "", "", ""
	case len(teams) == 1:
		return teams[0], "", ""
	case len(teams) == 2:
		return teams[0], teams[1], ""
	default:
		return teams[0], teams[1], strings.Join(teams[2:], " / ")
	}
}

// WriteCSV writes the header and rows to w.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
