package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/csvfplay/pkg/idcode"
	"github.com/OpenTraceLab/csvfplay/pkg/player"
)

var idcodeCmd = &cobra.Command{
	Use:   "idcode",
	Short: "Read the IDCODE of the device on the port",
	Long: `Reset the TAP and read the 32-bit IDCODE of a single device. Use it to
check the wiring before playing a program.

Examples:
  csvfplay idcode
  csvfplay idcode --driver sim --sim-idcode 0x41111043`,
	Args: exactArgs(0),
	RunE: runIDCode,
}

func init() {
	rootCmd.AddCommand(idcodeCmd)
}

func runIDCode(cmd *cobra.Command, args []string) (err error) {
	drv, err := openDriver()
	if err != nil {
		return err
	}
	defer closeDriver(drv, &err)

	raw, err := player.ReadIDCode(drv)
	if err != nil {
		return err
	}
	fmt.Println(idcode.Describe(raw))
	return nil
}
