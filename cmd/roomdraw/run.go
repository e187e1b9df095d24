package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/derekprior/roomdraw/internal/bracket"
	"github.com/derekprior/roomdraw/internal/config"
	"github.com/derekprior/roomdraw/internal/excel"
	"github.com/derekprior/roomdraw/internal/export"
	"github.com/derekprior/roomdraw/internal/schedule"
	"github.com/derekprior/roomdraw/internal/strategy"
	"github.com/derekprior/roomdraw/internal/validator"
)

// spinnerCharSet is the briandowns/spinner character set shown while
// schedules are generated.
const spinnerCharSet = 14

type generateOptions struct {
	output   string
	csv      string
	seed     int64
	seedSet  bool
	attempts int
}

func runGenerate(ctx context.Context, configPath string, opts generateOptions) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if opts.seedSet {
		cfg.TieBreak.Seed = opts.seed
	}
	if opts.attempts > 0 {
		cfg.Search.Attempts = opts.attempts
	}
	if cfg.Event.ID == "" {
		cfg.Event.ID = uuid.NewString()
	}

	rooms := cfg.ScheduleRooms()
	pairs := len(cfg.Teams) * (len(cfg.Teams) - 1) / 2
	fmt.Printf("Scheduling %d teams into %d rooms (%d pairs, %d meeting(s) each)...\n",
		len(cfg.Teams), len(rooms), pairs, cfg.MatchesPerTeam)

	result, seed, err := generate(ctx, cfg, rooms)
	if err != nil {
		return err
	}
	fmt.Printf("✓ %d rounds scheduled (seed %d)\n", len(result.Rounds), seed)

	fmt.Println("\nPer Team Metrics:")
	fmt.Printf("  %-20s %7s %4s\n", "Team", "Matches", "Byes")
	for _, team := range cfg.Teams {
		m := result.TeamMetrics[team]
		fmt.Printf("  %-20s %7d %4d\n", team, m.Matches, m.Byes)
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	} else {
		fmt.Println("\n✓ No warnings")
	}

	var finals []bracket.Round
	if cfg.Finals.Enabled() {
		mode, err := bracket.ParseMode(cfg.Finals.Mode)
		if err != nil {
			return err
		}
		finals, err = bracket.Plan(cfg.FinalsTeams(), cfg.FinalsRooms(), mode, bracket.Options{
			CarryByes: cfg.Finals.CarryByes,
			Logger:    logrus.StandardLogger(),
		})
		if err != nil {
			return fmt.Errorf("planning finals: %w", err)
		}
		fmt.Println()
		printBracket(mode, cfg.FinalsTeams(), finals)
	}

	f, err := excel.Generate(cfg, result, finals)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(opts.output); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Schedule saved to %s\n", opts.output)

	if opts.csv == "" && cfg.Export.S3Bucket == "" {
		return nil
	}
	return writeExport(ctx, cfg, rooms, result, finals, opts.csv)
}

// generate runs a single seeded generation, or a seed search when more than
// one attempt is configured for the seeded shuffle. It returns the seed the
// result was built from.
func generate(ctx context.Context, cfg *config.Config, rooms []schedule.Room) (*schedule.Result, int64, error) {
	opts := schedule.Options{
		MatchesPerTeam:   cfg.MatchesPerTeam,
		MaxTeamsPerMatch: cfg.MaxTeamsPerMatch,
		Logger:           logrus.StandardLogger(),
	}

	seed := cfg.TieBreak.Seed
	if seed == 0 {
		seed = schedule.DefaultSeed
	}

	s := spinner.New(spinner.CharSets[spinnerCharSet], 100*time.Millisecond)
	s.Start()
	defer s.Stop()

	shuffled := cfg.TieBreak.Strategy == "" || cfg.TieBreak.Strategy == "seeded_shuffle"
	if cfg.Search.Attempts > 1 {
		if shuffled {
			best, err := schedule.Search(ctx, cfg.Teams, rooms, opts, cfg.Search.Attempts, seed)
			if err != nil {
				return nil, 0, fmt.Errorf("generating schedule: %w", err)
			}
			return best.Result, best.Seed, nil
		}
		logrus.Warnf("search attempts only apply to seeded_shuffle; running %s once", cfg.TieBreak.Strategy)
	}

	strat, err := strategy.Get(cfg.TieBreak.Strategy, seed)
	if err != nil {
		return nil, 0, err
	}
	opts.Strategy = strat

	result, err := schedule.Generate(cfg.Teams, rooms, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("generating schedule: %w", err)
	}
	return result, seed, nil
}

func writeExport(ctx context.Context, cfg *config.Config, rooms []schedule.Room, result *schedule.Result, finals []bracket.Round, csvPath string) error {
	start, err := cfg.Event.StartTime()
	if err != nil {
		return err
	}
	meta := export.Metadata{
		EventID:     cfg.Event.ID,
		EventName:   cfg.Event.Name,
		Start:       start,
		RoundLength: cfg.Event.RoundLength(),
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, export.Rows(meta, rooms, result, finals)); err != nil {
		return err
	}

	if csvPath != "" {
		if err := os.WriteFile(csvPath, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		fmt.Printf("✓ CSV saved to %s\n", csvPath)
	}

	if cfg.Export.S3Bucket != "" {
		uploader, err := export.NewS3Uploader(ctx, cfg.Export.S3Bucket)
		if err != nil {
			return err
		}
		uploader.Logger = logrus.StandardLogger()

		key := cfg.Export.S3Key
		if key == "" {
			key = export.DefaultKey(cfg.Event.ID)
		}
		if err := uploader.Upload(ctx, key, buf.Bytes()); err != nil {
			return err
		}
		fmt.Printf("✓ CSV uploaded to s3://%s/%s\n", cfg.Export.S3Bucket, key)
	}
	return nil
}

func runValidate(configPath, schedulePath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	violations, err := validator.Validate(cfg, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ Rule violation: %s\n", v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Warning: %s\n", v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d warnings\n", errors, warnings)

	// Regenerate team sheets from the Schedule sheet
	if err := excel.UpdateTeamSheets(schedulePath, cfg); err != nil {
		return fmt.Errorf("updating team sheets: %w", err)
	}
	fmt.Printf("✓ Team sheets updated in %s\n", schedulePath)

	if errors > 0 {
		return fmt.Errorf("%d constraint violations found", errors)
	}
	return nil
}

func runBracketPlan(configPath string, teams int, modeFlag string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if teams == 0 {
		teams = cfg.FinalsTeams()
	}
	if modeFlag == "" {
		modeFlag = cfg.Finals.Mode
	}
	if modeFlag == "" {
		modeFlag = string(bracket.SingleElimination)
	}
	mode, err := bracket.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	rounds, err := bracket.Plan(teams, cfg.FinalsRooms(), mode, bracket.Options{
		CarryByes: cfg.Finals.CarryByes,
		Logger:    logrus.StandardLogger(),
	})
	if err != nil {
		return err
	}
	printBracket(mode, teams, rounds)
	return nil
}

func printBracket(mode bracket.Mode, teams int, rounds []bracket.Round) {
	fmt.Printf("%s for %d teams (%d rounds):\n", mode, teams, len(rounds))
	for _, r := range rounds {
		fmt.Printf("  %-12s", r.Label)
		for i, s := range r.Slots {
			if i > 0 {
				fmt.Print(",")
			}
			if s.Side == bracket.Winners {
				fmt.Printf(" %s (%d)", s.Room.Name, s.Teams)
			} else {
				fmt.Printf(" %s (%d, %s)", s.Room.Name, s.Teams, s.Side)
			}
		}
		if r.Byes > 0 {
			fmt.Printf("  [%d bye]", r.Byes)
		}
		fmt.Println()
	}
}
