package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/moffa90/go-maestro-flash/bootloader"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		count, total int
		filled       int
		percent      string
	}{
		{0, 2500, 0, "0.0%"},
		{1000, 2500, 24, "40.0%"},
		{1000, 3000, 20, "33.3%"},
		{2000, 3000, 40, "66.7%"},
		{2500, 2500, 60, "100.0%"},
		{0, 0, 60, "100.0%"},
	}

	for _, tt := range tests {
		got := renderBar(tt.count, tt.total)

		inner := got[1:strings.Index(got, "]")]
		if len(inner) != barWidth {
			t.Errorf("renderBar(%d, %d) width = %d, want %d", tt.count, tt.total, len(inner), barWidth)
		}
		if n := strings.Count(inner, "="); n != tt.filled {
			t.Errorf("renderBar(%d, %d) filled = %d, want %d", tt.count, tt.total, n, tt.filled)
		}
		if !strings.HasSuffix(got, " "+tt.percent) {
			t.Errorf("renderBar(%d, %d) = %q, want suffix %q", tt.count, tt.total, got, tt.percent)
		}
	}
}

func TestReporterSuccess(t *testing.T) {
	var out bytes.Buffer
	rep := newReporter(&out)

	for _, p := range []bootloader.Phase{bootloader.PhaseHandshaking, bootloader.PhaseErasing, bootloader.PhaseTransferring} {
		rep.phase(p)
	}
	rep.progress(bootloader.Progress{BytesSent: 1000, TotalBytes: 2000})
	rep.progress(bootloader.Progress{BytesSent: 2000, TotalBytes: 2000})
	rep.phase(bootloader.PhaseFinalizing)
	rep.result(&bootloader.Result{Warnings: []error{bootloader.ErrMarkerMissing}})

	got := out.String()
	want := []string{
		"Connected to Maestro bootloader.\n",
		"Erasing existing Maestro firmware...\n",
		"Uploading new firmware...\n",
		"50.0%\r",
		"100.0%\r\n",
		"Expected to receive the '|' character, but did not.\n",
		"Upload completed successfully.\n",
	}

	pos := 0
	for _, w := range want {
		i := strings.Index(got[pos:], w)
		if i < 0 {
			t.Fatalf("output missing %q after offset %d:\n%s", w, pos, got)
		}
		pos += i + len(w)
	}
}

func TestReporterFailureEndsBar(t *testing.T) {
	var out bytes.Buffer
	rep := newReporter(&out)

	rep.progress(bootloader.Progress{BytesSent: 500, TotalBytes: 2000})
	rep.failure(errors.New("transfer failed at offset 1000 of 2000: write: device gone"))

	if !strings.Contains(out.String(), "\r\nError: transfer failed at offset 1000") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	if code := run(nil, &stdout, &stderr); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Usage: maestro-flash") {
		t.Errorf("usage not printed: %q", stderr.String())
	}
}

func TestRunMissingFirmware(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	var stdout, stderr bytes.Buffer
	code := run([]string{"--port", "/dev/null-maestro", "missing.pgm"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if !strings.Contains(stdout.String(), "Error: failed to open firmware") {
		t.Errorf("unexpected output: %q", stdout.String())
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
