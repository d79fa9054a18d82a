package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/OpenTraceLab/csvfplay/pkg/player"
)

const passingSVF = `! two scans against a blank simulator
SIR 6 TDI (09);
SDR 32 TDI (00000000) TDO (00000000) MASK (FFFFFFFF);
RUNTEST 100 TCK;
SDR 8 TDI (A5);
`

const failingSVF = `SDR 8 TDI (00) TDO (FF) MASK (FF);
SDR 8 TDI (A5);
`

// resetFlags puts every visible flag back to its default so that runs do
// not leak state into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Read in background to prevent the pipe buffer from blocking.
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	err := run()

	w.Close()
	os.Stdout = old
	<-done
	return buf.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCommandsE2E(t *testing.T) {
	pass := writeFile(t, "pass.svf", passingSVF)
	fail := writeFile(t, "fail.svf", failingSVF)
	missing := filepath.Join(t.TempDir(), "missing.svf")

	tests := []struct {
		name        string
		args        []string
		wantStatus  player.Status
		wantContain []string
	}{
		{
			name:        "play passes",
			args:        []string{"play", "--driver", "sim", pass},
			wantContain: []string{"PASS", "pass.svf"},
		},
		{
			name:        "play mismatch",
			args:        []string{"play", "--driver", "sim", fail},
			wantStatus:  player.StatusMismatch,
			wantContain: []string{"FAIL", "mismatch"},
		},
		{
			name:        "play missing file",
			args:        []string{"play", "--driver", "sim", missing},
			wantStatus:  player.StatusFile,
			wantContain: []string{"FAIL", "file error"},
		},
		{
			name:        "play buffer too small",
			args:        []string{"play", "--driver", "sim", "--buffer-size", "2", pass},
			wantStatus:  player.StatusShiftTooLong,
			wantContain: []string{"FAIL"},
		},
		{
			name:       "play without a file",
			args:       []string{"play", "--driver", "sim"},
			wantStatus: player.StatusUsage,
		},
		{
			name:       "unknown driver",
			args:       []string{"play", "--driver", "parport", pass},
			wantStatus: player.StatusUsage,
		},
		{
			name:       "unknown command",
			args:       []string{"frobnicate", pass},
			wantStatus: player.StatusUsage,
		},
		{
			name:       "unknown flag",
			args:       []string{"play", "--no-such-flag", pass},
			wantStatus: player.StatusUsage,
		},
		{
			name: "dump svf",
			args: []string{"dump", pass},
			wantContain: []string{
				"XSIR(06, 09)",
				"XSDRSIZE(00000020)",
				"XRUNTEST(00000064)",
				"XSDR(A5)",
				"XCOMPLETE",
			},
		},
		{
			name:        "dump stats",
			args:        []string{"dump", "--stats", pass},
			wantContain: []string{"records", "widest shift 4 bytes", "XSDRTDO"},
		},
		{
			name:        "idcode",
			args:        []string{"idcode", "--driver", "sim", "--sim-idcode", "0x41111043"},
			wantContain: []string{"0x41111043", "LFE5U-25F"},
		},
		{
			name:       "idcode without device",
			args:       []string{"idcode", "--driver", "sim"},
			wantStatus: player.StatusNoDevice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := execute(t, tt.args...)
			if got := player.Classify(err); got != tt.wantStatus {
				t.Fatalf("status = %s (%v), want %s\nOutput: %s", got, err, tt.wantStatus, output)
			}
			if exitCode(err) != int(tt.wantStatus) {
				t.Errorf("exit code = %d, want %d", exitCode(err), tt.wantStatus)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestConvertThenPlayE2E(t *testing.T) {
	src := writeFile(t, "design.svf", passingSVF)
	out := filepath.Join(t.TempDir(), "design.csvf")

	if _, err := execute(t, "convert", src, "-o", out); err != nil {
		t.Fatalf("convert: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 || data[len(data)-1] != 0x00 {
		t.Fatalf("compiled program does not end in XCOMPLETE: % X", data)
	}

	output, err := execute(t, "play", "--driver", "sim", out)
	if err != nil {
		t.Fatalf("play: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "PASS") {
		t.Fatalf("Output: %s", output)
	}

	dumped, err := execute(t, "dump", out)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	fromSVF, err := execute(t, "dump", src)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if dumped != fromSVF {
		t.Fatalf("compiled dump differs from SVF dump:\n%s\nvs\n%s", dumped, fromSVF)
	}
}

func TestConfigSourcesE2E(t *testing.T) {
	path := writeFile(t, "csvfplay.yaml", "driver: sim\nplayer:\n  buffer_capacity: 512\n")
	t.Setenv("CSVFPLAY_MAX_SIZE", "65536")

	output, err := execute(t, "config", "--config", path, "--tck", "21")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{
		"driver: sim",
		"buffer_capacity: 512",
		"max_program_size: 65536",
		`tck: "21"`,
		`tms: "2"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
		}
	}

	// The file's driver is enough to play on the simulator.
	src := writeFile(t, "design.svf", passingSVF)
	if _, err := execute(t, "play", "--config", path, src); err != nil {
		t.Fatalf("play with config driver: %v", err)
	}

	if _, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "none.yaml")); player.Classify(err) != player.StatusUsage {
		t.Fatalf("missing config: %v", err)
	}
}

func TestHexFlag(t *testing.T) {
	var h hexUint16
	for _, in := range []string{"2e8a", "0x2E8A", "0X2e8a"} {
		if err := h.Set(in); err != nil || h != 0x2E8A {
			t.Errorf("Set(%q) = %04X, %v", in, uint16(h), err)
		}
	}
	if err := h.Set("12345"); err == nil {
		t.Error("17-bit value accepted")
	}
	if err := h.Set("xyz"); err == nil {
		t.Error("non-hex value accepted")
	}
	if h.String() != "2E8A" {
		t.Errorf("String() = %q", h.String())
	}
}

func TestEnvName(t *testing.T) {
	if got := envName(envPrefix, "buffer-size"); got != "CSVFPLAY_BUFFER_SIZE" {
		t.Fatalf("envName = %q", got)
	}
}
