package bracket

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/roomdraw/internal/schedule"
)

func quietOptions() Options {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return Options{Logger: l}
}

func twoRooms(n int) []schedule.Room {
	rooms := make([]schedule.Room, n)
	for i := range rooms {
		rooms[i] = schedule.Room{Name: string(rune('A' + i)), Capacity: 2}
	}
	return rooms
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"Single Elimination", SingleElimination},
		{"single", SingleElimination},
		{"  DOUBLE ", DoubleElimination},
		{"Double Elimination", DoubleElimination},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMode("swiss")
	assert.ErrorIs(t, err, schedule.ErrInvalidConfiguration)
}

func TestSingleEliminationEightTeams(t *testing.T) {
	layouts := map[string][]schedule.Room{
		"one room of eight": {{Name: "Arena", Capacity: 8}},
		"four rooms of two": twoRooms(4),
	}

	for name, rooms := range layouts {
		t.Run(name, func(t *testing.T) {
			rounds, err := Plan(8, rooms, SingleElimination, quietOptions())
			require.NoError(t, err)
			require.Len(t, rounds, 3)

			final := rounds[2]
			require.Len(t, final.Slots, 1)
			assert.Equal(t, 2, final.Slots[0].Teams)
			assert.Equal(t, 1, final.After.Winners)

			assert.Equal(t, []string{LabelSemiFinal, LabelConsolation, LabelFinals},
				[]string{rounds[0].Label, rounds[1].Label, rounds[2].Label})
		})
	}
}

func TestSingleEliminationFiveTeams(t *testing.T) {
	rooms := []schedule.Room{{Name: "R1", Capacity: 2}, {Name: "R2", Capacity: 2}}

	t.Run("byes are not carried", func(t *testing.T) {
		rounds, err := Plan(5, rooms, SingleElimination, quietOptions())
		require.NoError(t, err)
		require.Len(t, rounds, 2)

		assert.Len(t, rounds[0].Slots, 2)
		assert.Equal(t, 4, rounds[0].Teams())
		assert.Equal(t, 1, rounds[0].Byes)
		assert.Equal(t, 2, rounds[0].After.Winners)

		require.Len(t, rounds[1].Slots, 1)
		assert.Equal(t, "R1", rounds[1].Slots[0].Room.Name)
		assert.Equal(t, 2, rounds[1].Slots[0].Teams)
		assert.Equal(t, LabelFinals, rounds[1].Label)
	})

	t.Run("byes carried into the next round", func(t *testing.T) {
		opts := quietOptions()
		opts.CarryByes = true
		rounds, err := Plan(5, rooms, SingleElimination, opts)
		require.NoError(t, err)
		require.Len(t, rounds, 3)
		assert.Equal(t, 3, rounds[0].After.Winners)
		assert.Equal(t, 2, rounds[1].After.Winners)
		assert.Equal(t, 1, rounds[2].After.Winners)
	})
}

func TestSingleEliminationMonotonic(t *testing.T) {
	rooms := []schedule.Room{{Name: "Big", Capacity: 4}, {Name: "Mid", Capacity: 3}, {Name: "Small", Capacity: 2}}
	for _, carry := range []bool{false, true} {
		for n := 2; n <= 40; n++ {
			opts := quietOptions()
			opts.CarryByes = carry
			rounds, err := Plan(n, rooms, SingleElimination, opts)
			require.NoError(t, err, "n=%d carry=%v", n, carry)
			require.NotEmpty(t, rounds)

			prev := n
			for _, r := range rounds {
				assert.Less(t, r.After.Winners, prev, "n=%d carry=%v round %d", n, carry, r.Number)
				prev = r.After.Winners
				for _, s := range r.Slots {
					assert.GreaterOrEqual(t, s.Teams, 2)
					assert.LessOrEqual(t, s.Teams, s.Room.Capacity)
				}
			}
			assert.Equal(t, 1, prev, "n=%d carry=%v", n, carry)
			assert.Equal(t, LabelFinals, rounds[len(rounds)-1].Label)
		}
	}
}

func TestPackAvoidsStrandingOneTeam(t *testing.T) {
	rooms := []schedule.Room{{Name: "Trio", Capacity: 3}, {Name: "Duo", Capacity: 2}}
	slots, next, placed := pack(rooms, 0, 4, Winners)

	require.Len(t, slots, 2)
	assert.Equal(t, 2, slots[0].Teams)
	assert.Equal(t, 2, slots[1].Teams)
	assert.Equal(t, 2, next)
	assert.Equal(t, 4, placed)
}

func TestDoubleElimination(t *testing.T) {
	t.Run("two teams", func(t *testing.T) {
		rounds, err := Plan(2, twoRooms(1), DoubleElimination, quietOptions())
		require.NoError(t, err)
		require.Len(t, rounds, 2)
		assert.Equal(t, State{Winners: 1, Losers: 1}, rounds[0].After)
		assert.Equal(t, GrandFinal, rounds[1].Slots[0].Side)
		assert.Equal(t, LabelFinals, rounds[1].Label)
		assert.Equal(t, LabelConsolation, rounds[0].Label)
	})

	t.Run("four teams two rooms", func(t *testing.T) {
		rounds, err := Plan(4, twoRooms(2), DoubleElimination, quietOptions())
		require.NoError(t, err)
		require.Len(t, rounds, 4)

		assert.Equal(t, State{Winners: 2, Losers: 2}, rounds[0].After)
		assert.Equal(t, State{Winners: 1, Losers: 2}, rounds[1].After)
		assert.Equal(t, State{Winners: 1, Losers: 1}, rounds[2].After)

		require.Len(t, rounds[1].Slots, 2)
		assert.Equal(t, Winners, rounds[1].Slots[0].Side)
		assert.Equal(t, Losers, rounds[1].Slots[1].Side)

		final := rounds[3]
		require.Len(t, final.Slots, 1)
		assert.Equal(t, GrandFinal, final.Slots[0].Side)
		assert.Equal(t, 2, final.Slots[0].Teams)

		labels := []string{rounds[0].Label, rounds[1].Label, rounds[2].Label, rounds[3].Label}
		assert.Equal(t, []string{"Round 1", "Round 2", LabelConsolation, LabelFinals}, labels)
	})

	t.Run("losers deferred when rooms run out", func(t *testing.T) {
		rounds, err := Plan(4, twoRooms(1), DoubleElimination, quietOptions())
		require.NoError(t, err)
		require.Len(t, rounds, 6)

		third := rounds[2]
		require.Len(t, third.Slots, 1)
		assert.Equal(t, Winners, third.Slots[0].Side)
		assert.Equal(t, State{Winners: 1, Losers: 3}, third.After)
		assert.Equal(t, GrandFinal, rounds[5].Slots[0].Side)
	})

	t.Run("converges for many sizes", func(t *testing.T) {
		rooms := []schedule.Room{{Name: "Hall", Capacity: 4}, {Name: "Lab", Capacity: 2}, {Name: "Den", Capacity: 2}}
		for n := 2; n <= 40; n++ {
			rounds, err := Plan(n, rooms, DoubleElimination, quietOptions())
			require.NoError(t, err, "n=%d", n)
			require.LessOrEqual(t, len(rounds), 2*n)

			last := rounds[len(rounds)-1]
			assert.Equal(t, GrandFinal, last.Slots[0].Side, "n=%d", n)
			for _, r := range rounds {
				for _, s := range r.Slots {
					assert.GreaterOrEqual(t, s.Teams, 2, "n=%d round %d", n, r.Number)
					assert.LessOrEqual(t, s.Teams, s.Room.Capacity, "n=%d round %d", n, r.Number)
				}
			}
		}
	})
}

func TestPlanInvalidConfiguration(t *testing.T) {
	rooms := twoRooms(2)
	tests := []struct {
		name  string
		teams int
		rooms []schedule.Room
		mode  Mode
	}{
		{"one team", 1, rooms, SingleElimination},
		{"no rooms", 4, nil, SingleElimination},
		{"small room", 4, []schedule.Room{{Name: "Closet", Capacity: 1}}, DoubleElimination},
		{"unknown mode", 4, rooms, Mode("Swiss")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.teams, tt.rooms, tt.mode, quietOptions())
			assert.ErrorIs(t, err, schedule.ErrInvalidConfiguration)
		})
	}
}

func TestLabelRounds(t *testing.T) {
	tests := []struct {
		n    int
		want []string
	}{
		{1, []string{LabelFinals}},
		{2, []string{LabelConsolation, LabelFinals}},
		{3, []string{LabelSemiFinal, LabelConsolation, LabelFinals}},
		{5, []string{"Round 1", "Round 2", "Round 3", LabelConsolation, LabelFinals}},
	}
	for _, tt := range tests {
		rounds := make([]Round, tt.n)
		labelRounds(rounds)
		for i, r := range rounds {
			assert.Equal(t, tt.want[i], r.Label, "n=%d round %d", tt.n, i+1)
		}
	}
}
