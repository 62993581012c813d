package main

import (
	"fmt"
	"github.com/iti/jsqps/cmd/jsqps/commands"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"os"
	"strings"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "jsqps",
	Short: "Sojourn-time distributions of join-shortest-queue processor-sharing farms",
	Long: `jsqps computes the sojourn-time CDF of a farm of processor-sharing servers
fed by join-the-shortest-queue routing, by solving the farm's Markov chain and
either the h(n,k) recursion or a defective generator.  It can also simulate the
farm and compare the two.

Every flag can also be given as an environment variable, e.g. JSQPS_LOG_LEVEL=debug.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
			return fmt.Errorf("log-level: %w", err)
		}
		slog.SetDefault(slog.New(
			tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: "15:04:05",
			}),
		))
		return nil
	},
}

func main() {

	// Register commands

	rootCmd.AddCommand(commands.SolveCmd)

	rootCmd.AddCommand(commands.SweepCmd)

	rootCmd.AddCommand(commands.SimulateCmd)

	rootCmd.AddCommand(commands.CompareCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	viper.SetEnvPrefix("JSQPS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
