package commands

import (
	"fmt"
	"github.com/iti/jsqps"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"path/filepath"
)

var SweepCmd = &cobra.Command{
	Use:   "sweep CONFIG",
	Short: "Run every (method, R, rho) of a sweep configuration and write the CDF tables",
	Long: `Run a sweep described by a YAML or JSON file (chosen by extension).  One CSV
file per analysis is written to <outdir>/<method>/, together with a run log of
timings.  An interrupt stops the sweep before the next analysis starts.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := readSweepCfg(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		runLog := jsqps.CreateRunLog(sc.Name, viper.GetString("runlog") != "")
		results, err := jsqps.Sweep(ctx, sc, runLog, slog.Default())
		if err != nil {
			return err
		}

		paths, err := jsqps.WriteSweep(sc, results)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d CDF tables under %s\n", len(paths), sc.OutDir)

		if runLog.Active() {
			filename := filepath.Join(sc.OutDir, viper.GetString("runlog"))
			if _, err := runLog.WriteToFile(filename); err != nil {
				return err
			}
			fmt.Printf("Run log written to %s\n", filename)
		}
		return nil
	},
}

func init() {
	SweepCmd.Flags().Int("workers", 0, "analyses run at once (default: as set in CONFIG, 0 for no bound)")
	SweepCmd.Flags().String("outdir", "", "output directory (default: as set in CONFIG)")
	SweepCmd.Flags().String("runlog", "runlog.yaml", "run log file name inside outdir, empty for none")
}
