//go:build unix

package execenv

import (
	"syscall"

	dserrors "github.com/systmms/secretsinit/internal/errors"
)

// launch replaces the process image. Exec only returns on failure.
func launch(path string, argv []string, env []string) error {
	if err := syscall.Exec(path, argv, env); err != nil {
		return dserrors.ExecError{Command: argv[0], Err: err}
	}
	return nil
}
