package cmd

import (
	"errors"
	goflag "flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/OpenTraceLab/csvfplay/internal/config"
	"github.com/OpenTraceLab/csvfplay/pkg/player"
)

const envPrefix = "CSVFPLAY_"

var (
	// Global flags
	configPath string
	verbose    bool
	driverName string
	probeVID   hexUint16
	probePID   hexUint16
	clockHz    uint32
	pinTCK     string
	pinTMS     string
	pinTDI     string
	pinTDO     string
	bufferSize int
	maxSize    int64
	frequency  float64
	simIDCode  hexUint32

	// cfg is the effective configuration, set before any subcommand runs.
	cfg *config.Config
	// started is set once a subcommand begins.
	started bool
)

var rootCmd = &cobra.Command{
	Use:   "csvfplay",
	Short: "CSVF/SVF JTAG player",
	Long: `Play compact serial vector format (CSVF) programs and SVF files into a
JTAG port driven by GPIO lines or a CMSIS-DAP probe.

Every flag can also be set from the environment as CSVFPLAY_<FLAG>, for
example CSVFPLAY_DRIVER=cmsis-dap.

Examples:
  csvfplay play design.svf                         # Program over Raspberry Pi GPIO
  csvfplay play --driver cmsis-dap design.csvf     # Program through a CMSIS-DAP probe
  csvfplay dump design.svf                         # Show the compiled byte-code
  csvfplay idcode --driver sim --sim-idcode 41111043`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command and returns the process exit status, which
// is the player status of the failure.
func Execute() int {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return 0
}

// run executes the root command. Errors cobra raises before any command
// starts, such as an unknown subcommand, are usage errors.
func run() error {
	started = false
	err := rootCmd.Execute()
	if err != nil && !started && !errors.Is(err, player.ErrUsage) {
		err = fmt.Errorf("%w: %v", player.ErrUsage, err)
	}
	return err
}

func exitCode(err error) int {
	return int(player.Classify(err))
}

func init() {
	// glog registers its flags on the standard flag set.
	goflag.CommandLine.Set("logtostderr", "true")
	pf := rootCmd.PersistentFlags()
	pf.AddGoFlagSet(goflag.CommandLine)
	goflag.CommandLine.VisitAll(func(f *goflag.Flag) {
		pf.MarkHidden(f.Name)
	})

	pf.StringVar(&configPath, "config", "", "YAML configuration file")
	pf.BoolVar(&verbose, "verbose", false, "verbose logging (same as -v=1)")
	pf.StringVarP(&driverName, "driver", "d", "", "pin driver: rpi, periph, cmsis-dap or sim")
	pf.Var(&probeVID, "vid", "CMSIS-DAP USB vendor ID (hex)")
	pf.Var(&probePID, "pid", "CMSIS-DAP USB product ID (hex)")
	pf.Uint32Var(&clockHz, "clock", 0, "CMSIS-DAP TCK rate in Hz")
	pf.StringVar(&pinTCK, "tck", "", "TCK GPIO line")
	pf.StringVar(&pinTMS, "tms", "", "TMS GPIO line")
	pf.StringVar(&pinTDI, "tdi", "", "TDI GPIO line")
	pf.StringVar(&pinTDO, "tdo", "", "TDO GPIO line")
	pf.IntVar(&bufferSize, "buffer-size", 0, "shift buffer capacity in bytes")
	pf.Int64Var(&maxSize, "max-size", 0, "largest program accepted, in bytes")
	pf.Float64Var(&frequency, "frequency", 0, "TCK rate in Hz used to convert SVF RUNTEST times")
	pf.Var(&simIDCode, "sim-idcode", "IDCODE presented by the simulator driver (hex)")

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", player.ErrUsage, err)
	})
}

// loadConfig builds cfg from the defaults, the --config file, the
// environment and finally the command line.
func loadConfig(c *cobra.Command, args []string) error {
	started = true
	fs := c.Flags()
	envFallback(fs, envPrefix)

	if verbose {
		goflag.CommandLine.Set("v", "1")
	}

	cfg = config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("%w: %v", player.ErrUsage, err)
		}
		cfg = loaded
	}

	if fs.Changed("driver") {
		cfg.Driver = driverName
	}
	if fs.Changed("vid") {
		cfg.CMSISDAP.VID = uint16(probeVID)
	}
	if fs.Changed("pid") {
		cfg.CMSISDAP.PID = uint16(probePID)
	}
	if fs.Changed("clock") {
		cfg.CMSISDAP.ClockHz = clockHz
	}
	for name, dst := range map[string]*string{
		"tck": &cfg.Pins.TCK, "tms": &cfg.Pins.TMS, "tdi": &cfg.Pins.TDI, "tdo": &cfg.Pins.TDO,
	} {
		if f := fs.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	if fs.Changed("buffer-size") {
		cfg.Player.BufferCapacity = bufferSize
	}
	if fs.Changed("max-size") {
		cfg.Player.MaxProgramSize = maxSize
	}
	if fs.Changed("frequency") {
		cfg.SVF.TCKFrequency = frequency
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", player.ErrUsage, err)
	}
	glog.V(1).Infof("driver %s, buffers %d bytes", cfg.Driver, cfg.Player.BufferCapacity)
	return nil
}

// envFallback fills every flag not given on the command line from the
// environment variable envPrefix+NAME, with dashes mapped to underscores.
func envFallback(fs *pflag.FlagSet, prefix string) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		v := os.Getenv(envName(prefix, f.Name))
		if v == "" {
			return
		}
		if err := f.Value.Set(v); err != nil {
			glog.Warningf("ignoring %s=%q: %v", envName(prefix, f.Name), v, err)
			return
		}
		f.Changed = true
	})
}

func envName(prefix, flag string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(c *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: %s takes %d argument(s), got %d", player.ErrUsage, c.Name(), n, len(args))
		}
		return nil
	}
}
