package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "roomdraw.yaml"

// xdgConfigFile is searched for under the XDG config directories when no
// config is given and none exists in the working directory.
var xdgConfigFile = filepath.Join("roomdraw", "config.yaml")

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	if path, err := xdg.SearchConfigFile(xdgConfigFile); err == nil {
		logrus.Debugf("using config %s", path)
		return path, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory, place one at $XDG_CONFIG_HOME/%s or pass --config", defaultConfigFile, xdgConfigFile)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	logrus.SetLevel(logrus.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		stop()
		logrus.Fatal(err)
	}
}

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "roomdraw",
		Short: "Round-robin room scheduler and elimination bracket planner",
		Long: heredoc.Doc(`
			roomdraw assigns teams to rooms round by round so that every pair of
			teams shares a room a fixed number of times, then plans the rooms
			needed for an elimination stage.
		`),

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// If --trace flag is provided, set logging level to Trace.
			if cmd.Flag("trace").Changed {
				logrus.SetLevel(logrus.TraceLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolP("trace", "t", false, "Show trace information")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter roomdraw.yaml in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate round-robin schedules",
	}

	var configFile string
	scheduleCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: roomdraw.yaml in current directory)")

	var genOpts generateOptions
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a schedule from a config file",
		Long: heredoc.Doc(`
			generate builds the round-robin schedule described by the config,
			plans the finals when a finals mode is set and writes an Excel
			workbook. With --csv, or when an S3 bucket is configured, the
			schedule is also exported as one CSV row per room per round.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			genOpts.seedSet = cmd.Flags().Changed("seed")
			return runGenerate(cmd.Context(), configPath, genOpts)
		},
	}
	generateCmd.Flags().StringVarP(&genOpts.output, "output", "o", "schedule.xlsx", "Output Excel file path")
	generateCmd.Flags().StringVar(&genOpts.csv, "csv", "", "Also write the schedule as CSV to this path")
	generateCmd.Flags().Int64Var(&genOpts.seed, "seed", 0, "Override the tie-break seed from the config")
	generateCmd.Flags().IntVar(&genOpts.attempts, "attempts", 0, "Override the number of seeds searched")

	validateCmd := &cobra.Command{
		Use:   "validate <schedule.xlsx>",
		Short: "Validate a schedule against the config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}

	scheduleCmd.AddCommand(generateCmd, validateCmd)

	bracketCmd := &cobra.Command{
		Use:   "bracket",
		Short: "Plan elimination brackets",
	}
	bracketCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: roomdraw.yaml in current directory)")

	var planTeams int
	var planMode string
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the rounds and rooms of an elimination bracket",
		Long: heredoc.Doc(`
			plan prints how many teams each finals room hosts per round. Team
			count and mode default to the finals section of the config.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runBracketPlan(configPath, planTeams, planMode)
		},
	}
	planCmd.Flags().IntVar(&planTeams, "teams", 0, "Number of teams entering the bracket")
	planCmd.Flags().StringVar(&planMode, "mode", "", "Elimination mode: single or double")

	bracketCmd.AddCommand(planCmd)
	rootCmd.AddCommand(initCmd, scheduleCmd, bracketCmd)
	return rootCmd
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

var configTemplate = heredoc.Doc(`
	# roomdraw event configuration
	# ============================
	# Every pair of teams shares a room matches_per_team times. Teams that do
	# not fit into a room in a round sit out on the bye list.

	event:
	  name: "Spring Invitational"
	  # Leave empty to generate a new id on every run.
	  id: ""
	  # Any common date format works, e.g. "2026-04-25 09:00".
	  start: "2026-04-25 09:00"
	  round_minutes: 20

	# Team names must be unique and may not contain " vs " or ", ".
	teams: [Aardvarks, Badgers, Cougars, Dingoes, Eagles, Falcons]

	# Rooms are filled largest first. Capacity must be at least 2.
	rooms:
	  - name: Library
	    capacity: 3
	  - name: Gym
	    capacity: 2

	matches_per_team: 1

	# Caps every match below its room capacity; 0 lets capacity decide.
	# Set to 2 for strictly head-to-head matches.
	max_teams_per_match: 0

	# How ties between equally rested teams are broken:
	#   seeded_shuffle  reshuffle every round from the seed
	#   input_order     always prefer teams listed first
	#   rotate          shift the preference by one team each round
	tie_break:
	  strategy: seeded_shuffle
	  seed: 42

	# With seeded_shuffle, try this many consecutive seeds and keep the
	# schedule with the fewest rounds and the most even byes.
	search:
	  attempts: 1

	# Elimination stage planned after the round robin. Leave mode empty to
	# skip it. Modes: "Single Elimination", "Double Elimination".
	finals:
	  mode: ""
	  teams: 0          # 0 means every team advances
	  carry_byes: false # keep unplaced teams alive in single elimination
	  rooms: []         # defaults to the rooms above

	# Upload the CSV export to S3. ROOMDRAW_S3_BUCKET overrides the bucket.
	export:
	  s3_bucket: ""
	  s3_key: ""
`)
