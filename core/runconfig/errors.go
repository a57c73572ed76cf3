package runconfig

import (
	"github.com/FocuswithJustin/Gantry/core/errors"
)

// ConfigurationError reports a module binding problem that prevents the
// configuration from running.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return errors.ErrInvalidInput
}

// ConfigurationWarning reports a module binding problem the run can
// proceed despite.
type ConfigurationWarning struct {
	Message string
}

func (e *ConfigurationWarning) Error() string {
	return e.Message
}

func (e *ConfigurationWarning) Unwrap() error {
	return errors.ErrInvalidInput
}
