package player

import (
	"errors"
	"os"
	"testing"
)

func TestPlayFile(t *testing.T) {
	program := mustBuild(t, sdrSize(8), sdr(0xA5))

	m := &mockPins{}
	p, err := New(m, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	var gotPath string
	conv := ConverterFunc(func(path string) ([]byte, uint32, error) {
		gotPath = path
		return program, 1, nil
	})
	if err := p.PlayFile("blink.svf", conv); err != nil {
		t.Fatalf("PlayFile: %v", err)
	}
	if gotPath != "blink.svf" {
		t.Fatalf("converter saw path %q", gotPath)
	}
	if len(m.edges) != resetEdges+3+8+2 {
		t.Fatalf("TCK edges = %d, want %d", len(m.edges), resetEdges+3+8+2)
	}
}

func TestPlayFileErrors(t *testing.T) {
	ok := ConverterFunc(func(string) ([]byte, uint32, error) { return []byte{0x00}, 0, nil })

	cases := []struct {
		name string
		path string
		conv Converter
		cfg  Config
		want Status
	}{
		{"no path", "", ok, DefaultConfig(), StatusUsage},
		{"no converter", "x.csvf", nil, DefaultConfig(), StatusUsage},
		{
			name: "unreadable",
			path: "missing.csvf",
			conv: ConverterFunc(func(string) ([]byte, uint32, error) { return nil, 0, os.ErrNotExist }),
			cfg:  DefaultConfig(),
			want: StatusFile,
		},
		{
			name: "hint beyond capacity",
			path: "wide.svf",
			conv: ConverterFunc(func(string) ([]byte, uint32, error) { return []byte{0x00}, 4096, nil }),
			cfg:  DefaultConfig(),
			want: StatusShiftTooLong,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockPins{}
			p, err := New(m, tc.cfg)
			if err != nil {
				t.Fatal(err)
			}
			err = p.PlayFile(tc.path, tc.conv)
			if got := Classify(err); got != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", err, got, tc.want)
			}
			if len(m.calls) != 0 {
				t.Fatalf("%d pin calls issued before failing", len(m.calls))
			}
		})
	}
}

func TestPlayFileKeepsCause(t *testing.T) {
	p, err := New(&mockPins{}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	err = p.PlayFile("gone.bin", ConverterFunc(func(string) ([]byte, uint32, error) {
		return nil, 0, os.ErrNotExist
	}))
	if !errors.Is(err, ErrFile) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error %v should wrap both ErrFile and the cause", err)
	}
}
