package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/csvfplay/pkg/jtag"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List available pin drivers",
	Long: `Scan the host for CMSIS-DAP probes and GPIO controllers and print the
drivers that can be passed to --driver.`,
	Args: exactArgs(0),
	RunE: runInterfaces,
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	infos, err := jtag.DiscoverInterfaces(ctx)
	if err != nil {
		return fmt.Errorf("discover interfaces: %w", err)
	}

	fmt.Println("Detected JTAG interfaces:")
	for _, iface := range infos {
		switch {
		case iface.VendorID != 0:
			fmt.Printf("  - %s [%s] (VID:PID %04X:%04X %s)\n", iface.Label(), iface.Kind, iface.VendorID, iface.ProductID, iface.Path)
		default:
			fmt.Printf("  - %s [%s]\n", iface.Label(), iface.Kind)
		}
	}
	return nil
}
