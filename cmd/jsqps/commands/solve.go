package commands

import (
	"fmt"
	"github.com/iti/jsqps"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"os"
)

var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Compute the sojourn-time CDF of one farm with one method",
	Long: `Compute the sojourn-time CDF of one farm.  The method is one of
methodA .. methodF (or just A .. F) or mm1ps; see 'jsqps solve --help' for
the farm parameters.`,
	Example: "  jsqps solve --method D --servers 3 --lambda 1.5 --mu 1 --limit 8 --infty 120 --tmax 10 --tstep 0.1",
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		method, err := jsqps.MethodByName(viper.GetString("method"))
		if err != nil {
			return err
		}
		solver, err := jsqps.ParseSolveMethod(viper.GetString("solver"))
		if err != nil {
			return err
		}
		times, err := timeGrid()
		if err != nil {
			return err
		}

		params := jsqps.Params{
			Lambda:  viper.GetFloat64("lambda"),
			Mu:      viper.GetFloat64("mu"),
			Servers: viper.GetInt("servers"),
			Limit:   viper.GetInt("limit"),
			Infty:   viper.GetInt("infty"),
			Zero:    viper.GetFloat64("zero"),
			Solver:  solver,
			Logger:  slog.Default(),
		}

		res, err := method.Analyze(params, times)
		if err != nil {
			return err
		}
		slog.Info("solved", "method", res.Method, "rho", res.Rho, "runtime", res.Runtime)

		if viper.GetBool("occupancy") {
			if err := reportOccupancy(params); err != nil {
				return err
			}
		}

		if output := viper.GetString("output"); output != "" {
			if err := jsqps.WriteResult(output, res); err != nil {
				return err
			}
			fmt.Printf("Result written to %s\n", output)
			return nil
		}
		printCDF(os.Stdout, res.Times, []string{res.Method}, res.CDF)
		return nil
	},
}

// reportOccupancy prints the occupancy summaries of the solved chain, with the
// total occupancy set beside that of the pooled M/M/R-PS queue
func reportOccupancy(params jsqps.Params) error {
	chain, err := jsqps.SolveChain(params)
	if err != nil {
		return err
	}
	ag := jsqps.NewAggregator(chain.Dist, params.Zero)
	total := ag.TotalOccupancy()

	printDist(os.Stdout, "LEAST_OCCUPANCY", []string{"PROBABILITY"}, ag.MinOccupancy())
	fmt.Println()
	printDist(os.Stdout, "SERVER0_OCCUPANCY", []string{"PROBABILITY"}, ag.MarginalOccupancy(0))
	fmt.Println()
	// the pooled queue has no stationary distribution once rho reaches 1
	pooled, err := jsqps.AggregatedOccupancy(params.Lambda, params.Mu, params.Servers, len(total))
	if err != nil {
		slog.Warn("pooled M/M/R-PS occupancy not shown", "err", err)
		printDist(os.Stdout, "TOTAL_OCCUPANCY", []string{"JSQ"}, total)
	} else {
		printDist(os.Stdout, "TOTAL_OCCUPANCY", []string{"JSQ", "POOLED_MMR"}, total, pooled)
	}
	fmt.Println()
	return nil
}

func init() {
	SolveCmd.Flags().String("method", "methodD", "method name, methodA .. methodF or mm1ps")
	SolveCmd.Flags().Int("servers", 2, "number of PS servers R")
	SolveCmd.Flags().Float64("lambda", 1.0, "external arrival rate")
	SolveCmd.Flags().Float64("mu", 1.0, "service rate of each server")
	SolveCmd.Flags().Int("limit", 10, "per-server occupancy truncation of the Markov chain")
	SolveCmd.Flags().Int("infty", 200, "truncation of the sojourn-time series")
	SolveCmd.Flags().Float64("zero", jsqps.DefaultZero, "numerical zero")
	SolveCmd.Flags().String("solver", "lstsq", "stationary solver, lstsq or direct")
	SolveCmd.Flags().Bool("occupancy", false, "also print the occupancy distributions of the chain")
	SolveCmd.Flags().StringP("output", "o", "", "write the full result to this .yaml or .json file instead of printing the CDF")
	gridFlags(SolveCmd)
}
