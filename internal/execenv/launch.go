// Package execenv replaces the current process with the target command.
// On unix this is a true execve: the child inherits the PID, standard
// streams, and signal routing of this process, so a wrapping supervisor
// (the Lambda runtime, an init system) observes the child directly. On
// other platforms the contract is preserved by spawning a child, forwarding
// signals, and exiting with the child's exit code.
package execenv

import (
	"os/exec"

	dserrors "github.com/systmms/secretsinit/internal/errors"
	"github.com/systmms/secretsinit/internal/logging"
)

// Launcher hands the process over to the target command.
type Launcher struct {
	logger *logging.Logger
}

// New creates a new launcher
func New(logger *logging.Logger) *Launcher {
	return &Launcher{logger: logger}
}

// Launch resolves argv[0] on PATH and replaces this process with it, using
// env as the complete child environment. On success it does not return.
func (l *Launcher) Launch(argv []string, env []string) error {
	if len(argv) == 0 {
		return dserrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide the target command: secretsinit -- <command> [args...]",
		}
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return dserrors.ExecError{Command: argv[0], Err: err}
	}

	l.logger.Debug("Launching %s with %d environment variables", path, len(env))
	return launch(path, argv, env)
}
