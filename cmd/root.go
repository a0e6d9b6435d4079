package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/broadcast-sim/broadcast-sim/sim"
	"github.com/broadcast-sim/broadcast-sim/sim/config"
	"github.com/broadcast-sim/broadcast-sim/sim/trace"
)

var (
	configFile string // Run configuration file
	section    string // Section inside the configuration file
	runNumber  int    // Run index within the section's cartesian product
	logLevel   string // Log verbosity level
	showParams bool   // Include resolved parameter values when listing runs

	// Verbose trace toggles
	logQueueLengths bool
	logStates       bool
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "broadcast-sim",
	Short: "Discrete-event simulator for a shared wireless broadcast medium",
}

// runCmd executes one simulation run selected by --run-number
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one configured simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := config.Load(configFile, section)
		if err != nil {
			logrus.Fatalf("Configuration error: %v", err)
		}
		run, err := cfg.Run(runNumber)
		if err != nil {
			logrus.Fatalf("%v. Use the list-runs command to list all possible runs.", err)
		}

		outputFile, err := run.OutputFile()
		if err != nil {
			logrus.Fatalf("Configuration error: %v", err)
		}
		out, err := os.Create(outputFile)
		if err != nil {
			logrus.Fatalf("Unable to create output file: %v", err)
		}
		defer out.Close()

		opts := trace.DefaultOptions()
		opts.QueueLengths = logQueueLengths
		opts.States = logStates
		tw := trace.NewWriter(out, opts)

		logrus.Infof("Starting run %d of section %q, output %s", runNumber, section, outputFile)
		startTime := time.Now()

		s := sim.NewSimulator()
		if err := s.Initialize(run, tw); err != nil {
			logrus.Fatalf("Configuration error: %v", err)
		}
		s.Run()

		if err := tw.Flush(); err != nil {
			logrus.Fatalf("Unable to write trace: %v", err)
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime).Round(time.Millisecond))
	},
}

// listRunsCmd enumerates the runs a section expands to
var listRunsCmd = &cobra.Command{
	Use:   "list-runs",
	Short: "List the runs the configuration expands to",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configFile, section)
		if err != nil {
			logrus.Fatalf("Configuration error: %v", err)
		}
		listing, err := FormatRunListing(cfg, showParams)
		if err != nil {
			logrus.Fatalf("Configuration error: %v", err)
		}
		fmt.Print(listing)
	},
}

// FormatRunListing renders one line per run index, optionally with the
// resolved list-parameter values for that run.
func FormatRunListing(cfg *config.Config, withParams bool) (string, error) {
	out := ""
	for i := 0; i < cfg.RunCount(); i++ {
		line := fmt.Sprintf("broadcast-sim run -c %s -s %s -r %d", configFile, cfg.Section(), i)
		if withParams {
			params, err := cfg.Params(i)
			if err != nil {
				return "", err
			}
			line += ": " + params
		}
		out += line + "\n"
	}
	return out, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, listRunsCmd} {
		c.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Simulation config file")
		c.Flags().StringVarP(&section, "section", "s", "simulation", "Section inside the configuration file")
	}

	runCmd.Flags().IntVarP(&runNumber, "run-number", "r", 0, "Run simulation number RUN")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().BoolVar(&logQueueLengths, "log-queue-lengths", false, "Record queue lengths in the trace")
	runCmd.Flags().BoolVar(&logStates, "log-states", false, "Record node state transitions in the trace")

	listRunsCmd.Flags().BoolVar(&showParams, "params", false, "Include resolved parameter values per run")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listRunsCmd)
}
