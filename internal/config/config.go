package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/roomdraw/internal/bracket"
	"github.com/derekprior/roomdraw/internal/schedule"
	"github.com/derekprior/roomdraw/internal/strategy"
)

// Separators used when teams are listed inside one workbook cell.
const (
	MatchSeparator = " vs "
	ByeSeparator   = ", "
)

// Environment overrides applied by LoadFromFile.
const (
	EnvS3Bucket = "ROOMDRAW_S3_BUCKET"
	EnvSeed     = "ROOMDRAW_SEED"
)

type Event struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Start        string `yaml:"start"`
	RoundMinutes int    `yaml:"round_minutes"`
}

// StartTime parses Event.Start. An empty start yields the zero time.
func (e Event) StartTime() (time.Time, error) {
	if strings.TrimSpace(e.Start) == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseAny(e.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid event start %q: %w", e.Start, err)
	}
	return t, nil
}

// RoundLength is the time allotted to one round.
func (e Event) RoundLength() time.Duration {
	return time.Duration(e.RoundMinutes) * time.Minute
}

type Room struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}

type TieBreak struct {
	Strategy string `yaml:"strategy"`
	Seed     int64  `yaml:"seed"`
}

type Search struct {
	Attempts int `yaml:"attempts"`
}

type Finals struct {
	Mode      string `yaml:"mode"`
	Teams     int    `yaml:"teams"`
	CarryByes bool   `yaml:"carry_byes"`
	Rooms     []Room `yaml:"rooms"`
}

// Enabled reports whether an elimination stage is configured.
func (f Finals) Enabled() bool {
	return f.Mode != ""
}

type Export struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Key    string `yaml:"s3_key"`
}

type Config struct {
	Event            Event    `yaml:"event"`
	Teams            []string `yaml:"teams"`
	Rooms            []Room   `yaml:"rooms"`
	MatchesPerTeam   int      `yaml:"matches_per_team"`
	MaxTeamsPerMatch int      `yaml:"max_teams_per_match"`
	TieBreak         TieBreak `yaml:"tie_break"`
	Search           Search   `yaml:"search"`
	Finals           Finals   `yaml:"finals"`
	Export           Export   `yaml:"export"`
}

// ScheduleRooms returns the round-robin rooms in input order.
func (c *Config) ScheduleRooms() []schedule.Room {
	return toScheduleRooms(c.Rooms)
}

// FinalsRooms returns the rooms used by the elimination stage, falling back
// to the round-robin rooms.
func (c *Config) FinalsRooms() []schedule.Room {
	if len(c.Finals.Rooms) > 0 {
		return toScheduleRooms(c.Finals.Rooms)
	}
	return c.ScheduleRooms()
}

// FinalsTeams is the number of teams entering the elimination stage.
func (c *Config) FinalsTeams() int {
	if c.Finals.Teams > 0 {
		return c.Finals.Teams
	}
	return len(c.Teams)
}

// RoomCapacity returns the capacity of a named round-robin room.
func (c *Config) RoomCapacity(name string) (int, bool) {
	for _, r := range c.Rooms {
		if r.Name == name {
			return r.Capacity, true
		}
	}
	return 0, false
}

func toScheduleRooms(rooms []Room) []schedule.Room {
	out := make([]schedule.Room, len(rooms))
	for i, r := range rooms {
		out[i] = schedule.Room{Name: r.Name, Capacity: r.Capacity}
	}
	return out
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file. Values from a .env file
// in the working directory and the process environment override the file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := LoadFromBytes(data)
	if err != nil {
		return nil, err
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables looked up with
// getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if bucket := getenv(EnvS3Bucket); bucket != "" {
		c.Export.S3Bucket = bucket
	}
	if seed := getenv(EnvSeed); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		c.TieBreak.Seed = v
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.Teams) < 2 {
		return fmt.Errorf("at least two teams are required")
	}

	seen := make(map[string]bool)
	for _, team := range c.Teams {
		if strings.TrimSpace(team) == "" {
			return fmt.Errorf("team names must not be empty")
		}
		if strings.TrimSpace(team) != team {
			return fmt.Errorf("team %q must not start or end with whitespace", team)
		}
		for _, sep := range []string{MatchSeparator, ByeSeparator} {
			if strings.Contains(team, sep) {
				return fmt.Errorf("team %q must not contain %q", team, sep)
			}
		}
		if seen[team] {
			return fmt.Errorf("team %q appears more than once", team)
		}
		seen[team] = true
	}

	if len(c.Rooms) == 0 {
		return fmt.Errorf("at least one room is required")
	}
	if err := validateRooms("rooms", c.Rooms); err != nil {
		return err
	}

	if c.MatchesPerTeam < 1 {
		return fmt.Errorf("matches_per_team must be at least 1, got %d", c.MatchesPerTeam)
	}
	if c.MaxTeamsPerMatch != 0 && c.MaxTeamsPerMatch < 2 {
		return fmt.Errorf("max_teams_per_match must be 0 or at least 2, got %d", c.MaxTeamsPerMatch)
	}
	if c.TieBreak.Strategy != "" && !slices.Contains(strategy.Names, c.TieBreak.Strategy) {
		return fmt.Errorf("unknown tie_break strategy %q, want one of %s", c.TieBreak.Strategy, strings.Join(strategy.Names, ", "))
	}
	if c.Search.Attempts < 0 {
		return fmt.Errorf("search attempts must not be negative, got %d", c.Search.Attempts)
	}

	if _, err := c.Event.StartTime(); err != nil {
		return err
	}
	if c.Event.RoundMinutes < 0 {
		return fmt.Errorf("round_minutes must not be negative, got %d", c.Event.RoundMinutes)
	}

	if c.Finals.Enabled() {
		if _, err := bracket.ParseMode(c.Finals.Mode); err != nil {
			return fmt.Errorf("unknown finals mode %q: %w", c.Finals.Mode, err)
		}
		if c.Finals.Teams != 0 && (c.Finals.Teams < 2 || c.Finals.Teams > len(c.Teams)) {
			return fmt.Errorf("finals teams must be between 2 and %d, got %d", len(c.Teams), c.Finals.Teams)
		}
		if err := validateRooms("finals rooms", c.Finals.Rooms); err != nil {
			return err
		}
	}

	if c.Export.S3Key != "" && c.Export.S3Bucket == "" {
		return fmt.Errorf("export s3_key is set but s3_bucket is empty")
	}

	return nil
}

func validateRooms(what string, rooms []Room) error {
	seen := make(map[string]bool)
	for _, r := range rooms {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("%s: room names must not be empty", what)
		}
		if strings.TrimSpace(r.Name) != r.Name {
			return fmt.Errorf("%s: room %q must not start or end with whitespace", what, r.Name)
		}
		if r.Name == schedule.ByeRoom {
			return fmt.Errorf("%s: %q is reserved", what, schedule.ByeRoom)
		}
		if seen[r.Name] {
			return fmt.Errorf("%s: room %q appears more than once", what, r.Name)
		}
		seen[r.Name] = true
		if r.Capacity < 2 {
			return fmt.Errorf("%s: room %q needs a capacity of at least 2, got %d", what, r.Name, r.Capacity)
		}
	}
	return nil
}
