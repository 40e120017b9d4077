package e2e

import (
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// buildNudgeBinary builds the nudge binary in the specified directory and returns its path.
func buildNudgeBinary(t *testing.T, dir string) string {
	t.Helper()
	name := "nudge"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	bin := filepath.Join(dir, name)
	buildCmd := exec.Command("go", "build", "-o", bin, "../../cmd/nudge")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build nudge: %v\n%s", err, string(out))
	}
	return bin
}

// runNudge runs the binary against vault and returns its combined output.
func runNudge(t *testing.T, bin, vault string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(bin, append([]string{"--dir", vault}, args...)...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
