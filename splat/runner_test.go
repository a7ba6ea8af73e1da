package splat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// fakeSplatScript behaves like splat for the happy path: it pulls the
// site names out of the submitted .qth files (line 1) and writes the
// report SPLAT would write into its working directory.
const fakeSplatScript = `#!/bin/sh
tx=""
rx=""
while [ $# -gt 0 ]; do
  case "$1" in
    -t) tx="$2"; shift 2 ;;
    -r) rx="$2"; shift 2 ;;
    *) shift ;;
  esac
done
[ -f "$tx" ] || exit 2
[ -f "$rx" ] || exit 2
txname=$(head -n 1 "$tx")
rxname=$(head -n 1 "$rx")
cat > "${txname}-to-${rxname}.txt" <<EOF
Free space path loss: 104.55 dB
ITWOM Version 3.0 path loss: 141.82 dB
Field strength at ${rxname}: 42.53 dBuV/meter
EOF
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "splat")
	if err := os.WriteFile(path, []byte(body), 0755); err != nil {
		t.Fatalf("write fake splat: %v", err)
	}
	return path
}

func testRunner(t *testing.T, script string) (*Runner, string) {
	t.Helper()
	workRoot := t.TempDir()
	terrain := t.TempDir()
	cities := filepath.Join(t.TempDir(), "cities.dat")
	if err := os.WriteFile(cities, []byte("Dijon;47.3216;354.9581\n"), 0644); err != nil {
		t.Fatalf("write cities file: %v", err)
	}
	return &Runner{
		SplatPath:  writeScript(t, script),
		TerrainDir: terrain,
		CitiesFile: cities,
		Timeout:    5 * time.Second,
		WorkRoot:   workRoot,
	}, workRoot
}

func bure(t *testing.T) Receiver {
	t.Helper()
	rx, err := NewReceiver("Bure", "47.738787", "4.8892801", "2.0")
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	return rx
}

func assertNoWorkspaceResidue(t *testing.T, workRoot string) {
	t.Helper()
	entries, err := os.ReadDir(workRoot)
	if err != nil {
		t.Fatalf("read work root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("workspace leaked: %d entries left in %s", len(entries), workRoot)
	}
}

func TestRunnerReportValues(t *testing.T) {
	runner, workRoot := testRunner(t, fakeSplatScript)

	report, err := runner.ReportValues(context.Background(), menesble(t), bure(t))
	if err != nil {
		t.Fatalf("ReportValues: %v", err)
	}

	if want := decimal.RequireFromString("104.55"); !report.FreeSpacePathLossDB.Equal(want) {
		t.Errorf("FreeSpacePathLossDB = %s, want %s", report.FreeSpacePathLossDB, want)
	}
	if want := decimal.RequireFromString("141.82"); !report.ITWOMPathLossDB.Equal(want) {
		t.Errorf("ITWOMPathLossDB = %s, want %s", report.ITWOMPathLossDB, want)
	}
	if want := decimal.RequireFromString("42.53"); !report.FieldStrengthDBuVm.Equal(want) {
		t.Errorf("FieldStrengthDBuVm = %s, want %s", report.FieldStrengthDBuVm, want)
	}

	assertNoWorkspaceResidue(t, workRoot)
}

func TestRunnerTimeout(t *testing.T) {
	runner, workRoot := testRunner(t, "#!/bin/sh\nexec sleep 30\n")
	runner.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, err := runner.ReportValues(context.Background(), menesble(t), bure(t))
	elapsed := time.Since(start)

	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("got %v, want *TimeoutError", err)
	}
	if terr.Timeout != runner.Timeout {
		t.Errorf("Timeout = %v, want %v", terr.Timeout, runner.Timeout)
	}
	if elapsed > 10*time.Second {
		t.Errorf("timeout took %v, child was not killed promptly", elapsed)
	}

	assertNoWorkspaceResidue(t, workRoot)
}

func TestRunnerExecError(t *testing.T) {
	runner, workRoot := testRunner(t, "#!/bin/sh\necho 'splat: bad terrain data' >&2\nexit 1\n")

	_, err := runner.ReportValues(context.Background(), menesble(t), bure(t))
	var eerr *ExecError
	if !errors.As(err, &eerr) {
		t.Fatalf("got %v, want *ExecError", err)
	}
	if eerr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", eerr.ExitCode)
	}
	if want := "splat: bad terrain data"; !strings.Contains(eerr.Stderr, want) {
		t.Errorf("Stderr = %q, want it to contain %q", eerr.Stderr, want)
	}

	assertNoWorkspaceResidue(t, workRoot)
}

func TestRunnerMissingReport(t *testing.T) {
	runner, workRoot := testRunner(t, "#!/bin/sh\nexit 0\n")

	_, err := runner.ReportValues(context.Background(), menesble(t), bure(t))
	if err == nil {
		t.Fatal("ReportValues succeeded without a report file")
	}

	assertNoWorkspaceResidue(t, workRoot)
}

func TestRunnerRequiresTimeout(t *testing.T) {
	runner, _ := testRunner(t, fakeSplatScript)
	runner.Timeout = 0

	if _, err := runner.ReportValues(context.Background(), menesble(t), bure(t)); err == nil {
		t.Fatal("ReportValues accepted a zero Timeout")
	}
}

func TestRunnerWritesInputFiles(t *testing.T) {
	// A script that snapshots its working directory before exiting
	// nonzero, so the input files can be inspected through ExecError.
	script := `#!/bin/sh
for f in *; do
  echo "== $f"
  cat "$f"
  echo
done
exit 3
`
	runner, workRoot := testRunner(t, script)

	_, err := runner.ReportValues(context.Background(), menesble(t), bure(t))
	var eerr *ExecError
	if !errors.As(err, &eerr) {
		t.Fatalf("got %v, want *ExecError", err)
	}

	for _, want := range []string{
		"== transmitter-Menesble.qth",
		"== transmitter-Menesble.lrp",
		"== receiver-Bure.qth",
		"355.09083",
		"41.0 meters",
		"48.7804878048780488 ; ERP",
	} {
		if !strings.Contains(eerr.Stdout, want) {
			t.Errorf("workspace snapshot missing %q", want)
		}
	}

	assertNoWorkspaceResidue(t, workRoot)
}
