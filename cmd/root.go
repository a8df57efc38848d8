package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vecu-cosim/cosim-host/sim/host"
	"github.com/vecu-cosim/cosim-host/sim/trace"
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cosim-host",
	Short: "Co-simulation host bridging virtual ECUs to a vehicle signal broker",
}

// runCmd loads the three units and runs them against the broker until
// interrupted, the stop time is reached, or a unit fails.
var runCmd = &cobra.Command{
	Use:   "run [<host>:<port>]",
	Short: "Run the co-simulation",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if err := configureLogging(cfg.Logging.Level, cfg.Logging.Format); err != nil {
			logrus.Fatal(err)
		}

		addr := cfg.Broker.Address
		if len(args) == 1 {
			addr = args[0]
		}
		brokerHost, brokerPort := ResolveBrokerAddress(addr)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sup, err := host.New(cfg.HostConfig(brokerHost, brokerPort))
		if err != nil {
			logrus.Fatalf("Could not start co-simulation: %v", err)
		}
		runErr := sup.Run(ctx)

		sup.Orchestrator().Metrics.Print(os.Stdout)
		if sup.Trace().Enabled() {
			summary := trace.Summarize(sup.Trace())
			logrus.Infof("Trace: %d ticks, disable lamp on for %d, feedback changed %d times, warning states %v",
				summary.TotalTicks, summary.DisableLampOnTicks, summary.FeedbackChanges, summary.WarningStates)
		}
		if cfg.Trace.Output != "" && sup.Trace().Enabled() {
			if err := trace.ExportCSV(cfg.Trace.Output, sup.Trace()); err != nil {
				logrus.Errorf("Writing trace: %v", err)
			} else {
				logrus.Infof("Wrote %d tick records to %s", len(sup.Trace().Ticks()), cfg.Trace.Output)
			}
		}
		if runErr != nil {
			logrus.Fatalf("Co-simulation failed: %v", runErr)
		}
		logrus.Info("Co-simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addRunFlags declares the run command's configuration flags on fs.
func addRunFlags(fs *pflag.FlagSet) {
	defaults := Default()
	fs.String("log", defaults.Logging.Level, "Log level (trace, debug, info, warn, error, fatal, panic)")
	fs.String("log-format", defaults.Logging.Format, "Log format (text, json)")
	fs.Float64("step-size", defaults.Simulation.StepSize, "Simulation step size in seconds")
	fs.Float64("stop-time", defaults.Simulation.StopTime, "Simulated stop time in seconds (0 runs until interrupted)")
	fs.String("trace", defaults.Trace.Level, "Trace level (none, ticks)")
	fs.String("trace-out", defaults.Trace.Output, "CSV file receiving the tick trace when the run ends")
}

// runFlagKeys maps run flags to configuration keys.
var runFlagKeys = map[string]string{
	"log":        "logging.level",
	"log-format": "logging.format",
	"step-size":  "simulation.step_size",
	"stop-time":  "simulation.stop_time",
	"trace":      "trace.level",
	"trace-out":  "trace.output",
}

func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if f := fs.Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

func initConfig() {
	configureViper()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			logrus.Fatalf("Reading config file %s: %v", cfgFile, err)
		}
	}
}

// configureViper registers defaults and environment overrides.
func configureViper() {
	SetDefaults()
	viper.AutomaticEnv()
	viper.SetEnvPrefix("COSIM")
	// COSIM_BROKER_ADDRESS for broker.address
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// init sets up CLI flags and subcommands
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	addRunFlags(runCmd.Flags())
	bindFlags(runCmd.Flags(), runFlagKeys)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(brokerCmd)
	rootCmd.AddCommand(unitsCmd)
}
