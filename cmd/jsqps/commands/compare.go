package commands

import (
	"fmt"
	"github.com/iti/jsqps"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"os"
	"text/tabwriter"
)

var CompareCmd = &cobra.Command{
	Use:   "compare CONFIG",
	Short: "Measure how far each method's CDF lies from the simulated farm",
	Long: `Run the sweep described by CONFIG, simulate every (R, rho) it covers with the
simulation settings of CONFIG, and print the Wasserstein distance between each
analytic CDF and the mean simulated CDF.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := readSweepCfg(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		comps, err := jsqps.Compare(ctx, sc, nil, slog.Default())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tR\tRHO\tWASSERSTEIN\tRUNTIME")
		for _, c := range comps {
			fmt.Fprintf(w, "%s\t%d\t%g\t%.6f\t%s\n", c.Method, c.Servers, c.Rho, c.Distance, c.Analytic.Runtime)
		}
		w.Flush()

		if output := viper.GetString("output"); output != "" {
			if err := jsqps.WriteComparisons(output, comps); err != nil {
				return err
			}
			fmt.Printf("Comparisons written to %s\n", output)
		}
		return nil
	},
}

func init() {
	CompareCmd.Flags().Int("workers", 0, "analyses run at once (default: as set in CONFIG, 0 for no bound)")
	CompareCmd.Flags().StringP("output", "o", "", "also write every comparison to this .yaml or .json file")
}
