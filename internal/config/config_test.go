package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testConfigYAML = `
event:
  name: Spring Quiz Bowl
  id: 5b1d7a2e-7f63-4c1b-9a4e-2c9f0e1d3a11
  start: "2026-04-25 09:00"
  round_minutes: 20

teams: [Aardvarks, Badgers, Cougars, Dingoes, Eagles, Falcons]

rooms:
  - name: Library
    capacity: 3
  - name: Gym
    capacity: 2

matches_per_team: 2
max_teams_per_match: 3

tie_break:
  strategy: rotate
  seed: 7

search:
  attempts: 10

finals:
  mode: Single Elimination
  teams: 4
  carry_byes: true
  rooms:
    - name: Auditorium
      capacity: 2

export:
  s3_bucket: quiz-results
  s3_key: spring/schedule.csv
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("event", func(t *testing.T) {
		if cfg.Event.Name != "Spring Quiz Bowl" {
			t.Errorf("event name = %q", cfg.Event.Name)
		}
		start, err := cfg.Event.StartTime()
		if err != nil {
			t.Fatalf("start time: %v", err)
		}
		want := time.Date(2026, 4, 25, 9, 0, 0, 0, time.UTC)
		if !start.Equal(want) {
			t.Errorf("start = %v, want %v", start, want)
		}
		if cfg.Event.RoundLength() != 20*time.Minute {
			t.Errorf("round length = %v, want 20m", cfg.Event.RoundLength())
		}
	})

	t.Run("teams and rooms", func(t *testing.T) {
		if len(cfg.Teams) != 6 {
			t.Fatalf("teams = %d, want 6", len(cfg.Teams))
		}
		rooms := cfg.ScheduleRooms()
		if len(rooms) != 2 || rooms[0].Name != "Library" || rooms[0].Capacity != 3 {
			t.Errorf("rooms = %+v", rooms)
		}
		if c, ok := cfg.RoomCapacity("Gym"); !ok || c != 2 {
			t.Errorf("Gym capacity = %d, %v", c, ok)
		}
		if _, ok := cfg.RoomCapacity("Cafeteria"); ok {
			t.Error("expected unknown room")
		}
	})

	t.Run("scheduling", func(t *testing.T) {
		if cfg.MatchesPerTeam != 2 {
			t.Errorf("matches_per_team = %d, want 2", cfg.MatchesPerTeam)
		}
		if cfg.MaxTeamsPerMatch != 3 {
			t.Errorf("max_teams_per_match = %d, want 3", cfg.MaxTeamsPerMatch)
		}
		if cfg.TieBreak.Strategy != "rotate" || cfg.TieBreak.Seed != 7 {
			t.Errorf("tie_break = %+v", cfg.TieBreak)
		}
		if cfg.Search.Attempts != 10 {
			t.Errorf("attempts = %d, want 10", cfg.Search.Attempts)
		}
	})

	t.Run("finals", func(t *testing.T) {
		if !cfg.Finals.Enabled() {
			t.Fatal("finals should be enabled")
		}
		if cfg.FinalsTeams() != 4 {
			t.Errorf("finals teams = %d, want 4", cfg.FinalsTeams())
		}
		rooms := cfg.FinalsRooms()
		if len(rooms) != 1 || rooms[0].Name != "Auditorium" {
			t.Errorf("finals rooms = %+v", rooms)
		}
		if !cfg.Finals.CarryByes {
			t.Error("carry_byes should be true")
		}
	})

	t.Run("export", func(t *testing.T) {
		if cfg.Export.S3Bucket != "quiz-results" || cfg.Export.S3Key != "spring/schedule.csv" {
			t.Errorf("export = %+v", cfg.Export)
		}
	})
}

func TestFinalsDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
teams: [A, B, C]
rooms:
  - name: Hall
    capacity: 2
matches_per_team: 1
finals:
  mode: double
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FinalsTeams() != 3 {
		t.Errorf("finals teams = %d, want 3", cfg.FinalsTeams())
	}
	rooms := cfg.FinalsRooms()
	if len(rooms) != 1 || rooms[0].Name != "Hall" {
		t.Errorf("finals rooms = %+v, want round-robin rooms", rooms)
	}
	start, err := cfg.Event.StartTime()
	if err != nil || !start.IsZero() {
		t.Errorf("start = %v, %v; want zero time", start, err)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	base := `
rooms:
  - name: Hall
    capacity: 2
matches_per_team: 1
`
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"one team", "teams: [A]\n" + base, "at least two teams"},
		{"empty team name", "teams: [A, \"  \"]\n" + base, "must not be empty"},
		{"duplicate team", "teams: [A, B, A]\n" + base, "more than once"},
		{"separator in team name", "teams: [A, \"B vs C\"]\n" + base, "must not contain"},
		{"comma in team name", "teams: [A, \"B, C\"]\n" + base, "must not contain"},
		{"padded team name", "teams: [\" Alpha\", Bravo]\n" + base, "whitespace"},
		{"padded room name", "teams: [A, B]\nrooms: [{name: \"Hall \", capacity: 2}]\nmatches_per_team: 1\n", "whitespace"},
		{"no rooms", "teams: [A, B]\nmatches_per_team: 1\n", "at least one room"},
		{"reserved room", "teams: [A, B]\nrooms: [{name: Bye, capacity: 2}]\nmatches_per_team: 1\n", "reserved"},
		{"duplicate room", "teams: [A, B]\nrooms: [{name: X, capacity: 2}, {name: X, capacity: 3}]\nmatches_per_team: 1\n", "more than once"},
		{"small room", "teams: [A, B]\nrooms: [{name: X, capacity: 1}]\nmatches_per_team: 1\n", "capacity of at least 2"},
		{"zero matches", "teams: [A, B]\nrooms: [{name: X, capacity: 2}]\n", "matches_per_team"},
		{"max per match of one", "teams: [A, B]\n" + base + "max_teams_per_match: 1\n", "max_teams_per_match"},
		{"unknown strategy", "teams: [A, B]\n" + base + "tie_break: {strategy: coin_flip}\n", "unknown tie_break"},
		{"negative attempts", "teams: [A, B]\n" + base + "search: {attempts: -1}\n", "attempts"},
		{"bad start", "teams: [A, B]\n" + base + "event: {start: \"not a date\"}\n", "invalid event start"},
		{"unknown finals mode", "teams: [A, B]\n" + base + "finals: {mode: swiss}\n", "unknown finals mode"},
		{"too many finals teams", "teams: [A, B]\n" + base + "finals: {mode: single, teams: 3}\n", "finals teams"},
		{"key without bucket", "teams: [A, B]\n" + base + "export: {s3_key: out.csv}\n", "s3_bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestFinalsModeSpelling(t *testing.T) {
	for _, mode := range []string{"Single Elimination ", " double", "DOUBLE ELIMINATION", "single"} {
		t.Run(mode, func(t *testing.T) {
			cfg, err := LoadFromBytes([]byte("teams: [A, B]\nrooms: [{name: Hall, capacity: 2}]\nmatches_per_team: 1\nfinals: {mode: \"" + mode + "\"}\n"))
			if err != nil {
				t.Fatalf("mode %q rejected: %v", mode, err)
			}
			if !cfg.Finals.Enabled() {
				t.Error("finals should be enabled")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env := map[string]string{EnvS3Bucket: "other-bucket", EnvSeed: "99"}
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Export.S3Bucket != "other-bucket" {
		t.Errorf("bucket = %q, want other-bucket", cfg.Export.S3Bucket)
	}
	if cfg.TieBreak.Seed != 99 {
		t.Errorf("seed = %d, want 99", cfg.TieBreak.Seed)
	}

	env[EnvSeed] = "many"
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err == nil {
		t.Error("expected error for non-numeric seed")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomdraw.yaml")
	if err := os.WriteFile(path, []byte(testConfigYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvSeed, "123")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TieBreak.Seed != 123 {
		t.Errorf("seed = %d, want 123 from environment", cfg.TieBreak.Seed)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
