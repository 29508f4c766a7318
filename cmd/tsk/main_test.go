package main

import (
	"os/exec"
	"strings"
	"testing"
)

func TestMain_VersionFlag(t *testing.T) {
	t.Parallel()

	out, err := exec.Command("go", "run", ".", "--version").CombinedOutput()
	if err != nil {
		t.Fatalf("--version failed: %v\noutput: %s", err, out)
	}
	if !strings.HasPrefix(string(out), "tsk ") {
		t.Errorf("--version output = %q, want tsk <version>", out)
	}
}

func TestMain_UnknownTaskExitCode(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("go", "run", ".", "-f", "../../test/fixtures/basic/tsk.json", "no_such_task")
	out, err := cmd.CombinedOutput()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("run error = %v, want exit error\noutput: %s", err, out)
	}
	if exitErr.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1\noutput: %s", exitErr.ExitCode(), out)
	}
	if !strings.Contains(string(out), `[tsk] task "no_such_task" not found`) {
		t.Errorf("output = %q, want not found message", out)
	}
}
