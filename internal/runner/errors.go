package runner

import "fmt"

// FatalSetupError means the run could not classify anything
type FatalSetupError struct {
	Step string
	Err  error
}

func (e *FatalSetupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *FatalSetupError) Unwrap() error {
	return e.Err
}

func fatal(step string, err error) error {
	return &FatalSetupError{Step: step, Err: err}
}
