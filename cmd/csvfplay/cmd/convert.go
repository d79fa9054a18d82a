package cmd

import (
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/csvfplay/pkg/player"
)

var convertOutput string

var convertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Compile an SVF file to CSVF byte-code",
	Long: `Compile an SVF file into the byte-code played by "csvfplay play".
The result goes to standard output unless --output is given.

Examples:
  csvfplay convert design.svf -o design.csvf
  csvfplay convert --frequency 250000 design.svf > design.csvf`,
	Args: exactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	program, maxBuf, err := cfg.Converter().Convert(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s: %w", player.ErrFile, args[0], err)
	}
	glog.V(1).Infof("%s: %d bytes, widest shift %d bytes", args[0], len(program), maxBuf)

	if convertOutput == "" || convertOutput == "-" {
		if _, err := os.Stdout.Write(program); err != nil {
			return fmt.Errorf("%w: %w", player.ErrFile, err)
		}
		return nil
	}
	if err := os.WriteFile(convertOutput, program, 0o644); err != nil {
		return fmt.Errorf("%w: %w", player.ErrFile, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(program), convertOutput)
	return nil
}
