// Package cmd implements the lunarlearn command line
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/samuelfneumann/lunarlearn/config"
)

var (
	configFile    string
	envKind       string
	broker        string
	seed          uint64
	metricsAddr   string
	checkpointDir string
	redisAddr     string
	episodes      int
	restore       bool
	progress      bool
)

// GetRootCommand returns the root command with every subcommand added
func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "lunarlearn",
		Short:         "Train agents to land the lunar lander",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCommand.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "JSON configuration file")
	flags.StringVar(&envKind, "env", "", "Environment to use: mqtt, sim or cartpole")
	flags.StringVar(&broker, "broker", "", "MQTT broker URL")
	flags.Uint64Var(&seed, "seed", 0, "Random seed")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Address to serve prometheus metrics on, e.g. :9090")
	flags.StringVar(&checkpointDir, "checkpoint-dir", "", "Directory to save checkpoints in")
	flags.StringVar(&redisAddr, "redis-addr", "", "Redis server to save checkpoints in")
	flags.IntVarP(&episodes, "episodes", "e", 0, "Maximum number of training episodes")
	flags.BoolVar(&restore, "restore", false, "Restore the latest checkpoint before training")
	flags.BoolVar(&progress, "progress", true, "Show a progress bar")

	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	flags.AddGoFlagSet(klogFlags)

	// adding the subcommands here
	rootCommand.AddCommand(QLearnCommand())
	rootCommand.AddCommand(DeepQCommand())
	rootCommand.AddCommand(SimulateCommand())
	rootCommand.AddCommand(ConfigCommand())
	return rootCommand
}

// Execute runs the root command and exits with a non-zero status if it
// fails
func Execute() {
	defer klog.Flush()
	if err := GetRootCommand().Execute(); err != nil {
		klog.ErrorS(err, "Command failed")
		klog.Flush()
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, or the defaults of the
// variant selected by --env, and applies the flags that were set
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var c config.Config
	var err error

	if configFile != "" {
		c, err = config.Load(configFile)
	} else if envKind == "cartpole" {
		c, err = config.Default(config.Cartpole)
	} else {
		c, err = config.Default(config.Lunar)
	}
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("env") {
		switch envKind {
		case "cartpole":
			if c.Variant != config.Cartpole {
				return config.Config{}, fmt.Errorf("--env cartpole "+
					"conflicts with variant %q", c.Variant)
			}
		case string(config.MQTT), string(config.Simulator):
			if c.Variant != config.Lunar {
				return config.Config{}, fmt.Errorf("--env %v conflicts "+
					"with variant %q", envKind, c.Variant)
			}
			c.Transport.Kind = config.TransportKind(envKind)
		default:
			return config.Config{}, fmt.Errorf("no such environment %q",
				envKind)
		}
	}
	if flags.Changed("broker") {
		c.Transport.MQTT.Broker = broker
	}
	if flags.Changed("seed") {
		c.Seed = seed
	}
	if flags.Changed("metrics-addr") {
		c.Metrics.Addr = metricsAddr
	}
	if flags.Changed("checkpoint-dir") {
		c.Checkpoint.Dir = checkpointDir
	}
	if flags.Changed("redis-addr") {
		c.Checkpoint.RedisAddr = redisAddr
	}
	if flags.Changed("episodes") {
		c.Training.MaxEpisodes = episodes
	}
	if flags.Changed("restore") {
		c.Checkpoint.Restore = restore
	}

	if err := c.Validate(); err != nil {
		return config.Config{}, err
	}
	return c, nil
}
