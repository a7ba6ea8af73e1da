package splat

import (
	"context"
	"testing"
)

const usageBanner = `#!/bin/sh
cat <<'EOF'

		 --==[ SPLAT! v1.4.2 Available Options... ]==--

       -t txsite(s).qth (max of 4 with -c, max of 30 with -L)
       -r rxsite.qth
EOF
exit 1
`

func TestVersion(t *testing.T) {
	path := writeScript(t, usageBanner)

	v, err := Version(context.Background(), path)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if got := v.String(); got != "1.4.2" {
		t.Errorf("version = %q, want %q", got, "1.4.2")
	}
}

func TestCheckMinVersion(t *testing.T) {
	path := writeScript(t, usageBanner)
	if err := CheckMinVersion(context.Background(), path); err != nil {
		t.Errorf("CheckMinVersion(1.4.2): %v", err)
	}

	old := writeScript(t, "#!/bin/sh\necho ' --==[ SPLAT! v1.1.0 Available Options... ]==--'\nexit 1\n")
	if err := CheckMinVersion(context.Background(), old); err == nil {
		t.Error("CheckMinVersion accepted 1.1.0")
	}
}

func TestVersionNoBanner(t *testing.T) {
	path := writeScript(t, "#!/bin/sh\necho 'not splat'\nexit 0\n")
	if _, err := Version(context.Background(), path); err == nil {
		t.Error("Version parsed a banner from unrelated output")
	}
}
