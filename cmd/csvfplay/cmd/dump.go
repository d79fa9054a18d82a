package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/csvfplay/pkg/csvf"
	"github.com/OpenTraceLab/csvfplay/pkg/player"
)

var dumpStats bool

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Print the byte-code of a CSVF or SVF file",
	Long: `Decode a program and print one record per line without touching any
hardware. SVF input is compiled first.

Examples:
  csvfplay dump design.svf
  csvfplay dump --stats design.csvf`,
	Args: exactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpStats, "stats", false, "print opcode counts instead of records")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	program, _, err := cfg.Converter().Convert(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s: %w", player.ErrFile, args[0], err)
	}

	if !dumpStats {
		if err := csvf.Dump(os.Stdout, program); err != nil {
			return fmt.Errorf("%w: %w", player.ErrBadCommand, err)
		}
		return nil
	}

	st, err := csvf.Scan(program)
	if err != nil {
		return fmt.Errorf("%w: %w", player.ErrBadCommand, err)
	}
	fmt.Printf("%d bytes, %d records, widest shift %d bytes\n", len(program), st.Records, st.MaxShiftBytes)
	ops := make([]csvf.Opcode, 0, len(st.Opcodes))
	for op := range st.Opcodes {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	for _, op := range ops {
		fmt.Printf("  %-10s %d\n", op, st.Opcodes[op])
	}
	return nil
}
