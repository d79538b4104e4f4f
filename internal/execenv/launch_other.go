//go:build !unix

package execenv

import (
	"os"
	"os/exec"
	"os/signal"

	dserrors "github.com/systmms/secretsinit/internal/errors"
)

// launch approximates process replacement where execve is unavailable:
// spawn the child with inherited stdio, forward every catchable signal, and
// exit with the child's exit code. Only returns on startup failure.
func launch(path string, argv []string, env []string) error {
	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return dserrors.ExecError{Command: argv[0], Err: err}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh)
	go func() {
		for sig := range sigCh {
			_ = cmd.Process.Signal(sig)
		}
	}()

	err := cmd.Wait()
	signal.Stop(sigCh)

	if exitErr, ok := err.(*exec.ExitError); ok {
		os.Exit(exitErr.ExitCode())
	}
	if err != nil {
		return dserrors.ExecError{Command: argv[0], Err: err}
	}
	os.Exit(0)
	return nil
}
