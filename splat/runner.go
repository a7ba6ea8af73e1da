package splat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// waitDelay bounds how long Wait blocks on output pipes after the
// process has been killed.
const waitDelay = 5 * time.Second

// Runner invokes SPLAT for point-to-point analyses. Each invocation
// owns a scoped temporary workspace that is removed on every exit path,
// so independent Runners (or concurrent calls on one Runner) are safe
// to run in parallel.
type Runner struct {
	SplatPath  string        // splat binary; "splat" on PATH when empty
	TerrainDir string        // terrain elevation database directory
	CitiesFile string        // semicolon-delimited city/obstruction database
	Timeout    time.Duration // hard wall-clock bound per invocation, required
	WorkRoot   string        // base directory for workspaces; system temp when empty
}

// ReportValues runs one transmitter-to-receiver analysis and returns
// the three quantities from SPLAT's report.
//
// Failure modes: *TimeoutError when the process outlives Timeout (the
// child is killed before the error is returned), *ExecError on a
// nonzero exit, *ReportError when the report does not parse. All are
// terminal for the invocation; no retries happen here.
func (r *Runner) ReportValues(ctx context.Context, tx Transmitter, rx Receiver) (LinkReport, error) {
	if r.Timeout <= 0 {
		return LinkReport{}, errors.New("splat: Runner.Timeout must be set; tool run time scales with terrain data volume")
	}

	dir, err := os.MkdirTemp(r.WorkRoot, "splatlink-")
	if err != nil {
		return LinkReport{}, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	txQTH := filepath.Join(dir, "transmitter-"+tx.Name+".qth")
	txLRP := filepath.Join(dir, "transmitter-"+tx.Name+".lrp")
	rxQTH := filepath.Join(dir, "receiver-"+rx.Name+".qth")

	if err := os.WriteFile(txQTH, []byte(tx.QTH().Encode()), 0644); err != nil {
		return LinkReport{}, fmt.Errorf("write transmitter site file: %w", err)
	}
	if err := os.WriteFile(txLRP, []byte(tx.LRP().Encode()), 0644); err != nil {
		return LinkReport{}, fmt.Errorf("write link parameter file: %w", err)
	}
	if err := os.WriteFile(rxQTH, []byte(rx.QTH().Encode()), 0644); err != nil {
		return LinkReport{}, fmt.Errorf("write receiver site file: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	splatPath := r.SplatPath
	if splatPath == "" {
		splatPath = "splat"
	}

	cmd := exec.CommandContext(runCtx, splatPath,
		"-metric",
		"-s", r.CitiesFile,
		"-d", r.TerrainDir,
		"-t", txQTH,
		"-r", rxQTH)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	runErr := cmd.Run()

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return LinkReport{}, &TimeoutError{Path: splatPath, Timeout: r.Timeout}
		}
		// Caller cancellation, not a per-run timeout.
		return LinkReport{}, ctxErr
	}
	if runErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		return LinkReport{}, &ExecError{
			Path:     splatPath,
			ExitCode: code,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}

	reportPath := filepath.Join(dir, tx.Name+"-to-"+rx.Name+".txt")
	raw, err := os.ReadFile(reportPath)
	if err != nil {
		return LinkReport{}, fmt.Errorf("read report %s: %w", filepath.Base(reportPath), err)
	}

	return ParseReport(raw)
}
