package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/csvfplay/pkg/player"
)

var playCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Play a CSVF or SVF file into the JTAG port",
	Long: `Play a program into the JTAG port. Files ending in .csvf or .bin are
played as compiled byte-code; anything else is compiled from SVF first.

The exit status is 0 on success, otherwise the failure class:
  1 usage, 2 TDO mismatch, 3 bad command, 4 allocation, 5 file,
  6 truncated program, 7 shift too long, 8 no device.

Examples:
  csvfplay play design.svf
  csvfplay play --driver sim --verbose design.csvf`,
	Args: exactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) (err error) {
	drv, err := openDriver()
	if err != nil {
		return err
	}
	defer closeDriver(drv, &err)

	p, err := player.New(drv, cfg.PlayerConfig())
	if err != nil {
		return err
	}

	start := time.Now()
	if err = p.PlayFile(args[0], cfg.Converter()); err == nil {
		err = drv.Err()
		if err != nil {
			err = fmt.Errorf("%w: %v", player.ErrNoDevice, err)
		}
	}
	if err != nil {
		fmt.Printf("%s %s: %s\n", color.RedString("FAIL"), args[0], player.Classify(err))
		return err
	}
	fmt.Printf("%s %s (%v)\n", color.GreenString("PASS"), args[0], time.Since(start).Round(time.Millisecond))
	return nil
}
