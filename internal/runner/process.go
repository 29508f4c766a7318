package runner

import (
	"errors"
	"io"
	"os"
	osexec "os/exec"
)

// Command is a child process to start.
type Command struct {
	Argv   []string
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Process is a started child process.
type Process interface {
	// Wait blocks until the process exits and returns its exit code.
	// A non-nil error means the exit code could not be determined.
	Wait() (int, error)
	Signal(sig os.Signal) error
}

// Spawner starts child processes.
type Spawner interface {
	Start(cmd *Command) (Process, error)
}

// ExecSpawner starts real processes with os/exec.
type ExecSpawner struct{}

// Start implements Spawner.
func (ExecSpawner) Start(c *Command) (Process, error) {
	cmd := osexec.Command(c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *osexec.Cmd
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// terminated by a signal
			code = 1
		}
		return code, nil
	}
	return -1, err
}

func (p *execProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}
