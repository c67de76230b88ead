package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/flarebyte/stagetrack/internal/testutil"
)

type runResult struct {
	code   int
	stdout []byte
	stderr []byte
}

func repoRoot() string {
	wd, _ := os.Getwd()
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func buildStagetrack(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "stagetrack")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/stagetrack")
	cmd.Dir = repoRoot()
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, string(out))
	}
	return bin
}

func runCmd(t *testing.T, bin string, args ...string) runResult {
	t.Helper()
	cmd := exec.Command(bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		} else {
			code = -1
		}
	}
	return runResult{code: code, stdout: stdout.Bytes(), stderr: stderr.Bytes()}
}

// seedProject writes a project with two stored stages; only A is registered.
func seedProject(t *testing.T, extra map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "project")
	files := map[string]string{
		"config/internals.json": `{"A": {"0": {"params": {"x": 5}}}, "B": {"0": {"params": {"x": 1}}, "2": {"params": {"x": 7}}}}`,
		"outs/0_A.json":         `{"total": 10}`,
		"dvc.yaml":              "stages:\n  A:\n    cmd: ./pipeline exec --module pipeline --class A --name A --id 0\n",
	}
	for k, v := range extra {
		files[k] = v
	}
	if err := testutil.WriteFiles(dir, files); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return dir
}
