package cli

import "fmt"

// ExitError carries the process exit code out of a command. Err is nil when
// the run itself succeeded but the verdict maps to a non-zero code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
