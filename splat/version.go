package splat

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"

	goversion "github.com/hashicorp/go-version"
)

// MinVersion is the oldest SPLAT release whose report wording matches
// the patterns in ParseReport.
const MinVersion = "1.4.0"

// splat prints "--==[ SPLAT! v1.4.2 Available Options... ]==--" when
// invoked without arguments.
var versionBannerPattern = regexp.MustCompile(`SPLAT!\s+v(\d+(?:\.\d+)*)`)

// Version runs the splat binary without arguments and scrapes the
// version from its usage banner. splat exits nonzero when invoked bare,
// so the exit status is ignored as long as a banner was produced.
func Version(ctx context.Context, splatPath string) (*goversion.Version, error) {
	if splatPath == "" {
		splatPath = "splat"
	}

	cmd := exec.CommandContext(ctx, splatPath)
	out, runErr := cmd.CombinedOutput()

	m := versionBannerPattern.FindSubmatch(out)
	if m == nil {
		if runErr != nil && len(out) == 0 {
			return nil, fmt.Errorf("run %s: %w", splatPath, runErr)
		}
		return nil, fmt.Errorf("no SPLAT version banner in %s output", splatPath)
	}

	v, err := goversion.NewVersion(string(m[1]))
	if err != nil {
		return nil, fmt.Errorf("parse SPLAT version %q: %w", m[1], err)
	}
	return v, nil
}

// CheckMinVersion verifies that the installed splat binary is at least
// MinVersion.
func CheckMinVersion(ctx context.Context, splatPath string) error {
	v, err := Version(ctx, splatPath)
	if err != nil {
		return err
	}
	min := goversion.Must(goversion.NewVersion(MinVersion))
	if v.LessThan(min) {
		return fmt.Errorf("splat %s is older than the required %s", v, min)
	}
	return nil
}
