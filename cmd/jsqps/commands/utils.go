package commands

import (
	"context"
	"fmt"
	"github.com/iti/jsqps"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
)

// bindFlags makes the flags of the command being run visible to viper, so that
// JSQPS_* environment variables fill in any flag not given on the command line
func bindFlags(cmd *cobra.Command, args []string) error {
	return viper.BindPFlags(cmd.Flags())
}

// signalContext is cancelled by an interrupt, stopping a sweep between jobs
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// gridFlags adds the flags of the time grid the CDF is evaluated on
func gridFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("tmax", 10.0, "largest sojourn time evaluated")
	cmd.Flags().Float64("tstep", 0.1, "spacing of the sojourn-time grid")
}

func timeGrid() ([]float64, error) {
	return jsqps.TimeGrid(viper.GetFloat64("tmax"), viper.GetFloat64("tstep"))
}

// printCDF writes one row per time point, with a column per CDF
func printCDF(out io.Writer, times []float64, headers []string, cdfs ...[]float64) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprint(w, "SOJOURN_TIME")
	for _, h := range headers {
		fmt.Fprintf(w, "\t%s", h)
	}
	fmt.Fprintln(w)
	for i, t := range times {
		fmt.Fprintf(w, "%.4g", t)
		for _, cdf := range cdfs {
			fmt.Fprintf(w, "\t%.6f", cdf[i])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

// printDist writes probability vectors of equal length, one row per index and
// a column per vector
func printDist(out io.Writer, label string, headers []string, dists ...[]float64) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprint(w, label)
	for _, h := range headers {
		fmt.Fprintf(w, "\t%s", h)
	}
	fmt.Fprintln(w)
	for n := range dists[0] {
		fmt.Fprintf(w, "%d", n)
		for _, dist := range dists {
			fmt.Fprintf(w, "\t%.6g", dist[n])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

// readSweepCfg reads a sweep description, YAML or JSON by extension,
// and applies the command-line overrides
func readSweepCfg(filename string) (*jsqps.SweepCfg, error) {
	sc, err := jsqps.ReadSweepCfg(filename, jsqps.IsYAML(filename), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep configuration: %w", err)
	}
	if viper.IsSet("workers") {
		sc.Workers = viper.GetInt("workers")
	}
	if outdir := viper.GetString("outdir"); outdir != "" {
		sc.OutDir = outdir
	}
	return sc, nil
}
