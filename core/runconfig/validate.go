package runconfig

import "fmt"

// Severity classifies a validation problem.
type Severity string

const (
	// SeverityWarning marks a problem that degrades the run but does not
	// prevent it.
	SeverityWarning Severity = "warning"

	// SeverityError marks a problem that makes the configuration
	// unrunnable until fixed.
	SeverityError Severity = "error"
)

// Problem is the structured result of validating a module binding.
// A nil *Problem means the binding is fully valid.
type Problem struct {
	Severity Severity
	Message  string
}

// Err converts the problem to a typed error for callers that require a
// deterministically valid module. Raising is the caller's decision; the
// validation itself never fails.
func (p *Problem) Err() error {
	if p == nil {
		return nil
	}
	if p.Severity == SeverityWarning {
		return &ConfigurationWarning{Message: p.Message}
	}
	return &ConfigurationError{Message: p.Message}
}

// Validate checks the module binding and reports at most one problem.
// The checks run in order and exactly one branch applies:
//
//  1. The name resolves: a module without a toolchain yields a warning,
//     otherwise the binding is valid.
//  2. A name is stored but does not resolve: an unloaded module yields a
//     dedicated error, any other name reports a missing module.
//  3. No name is stored: the configuration never specified a module.
func (r *ModuleReference) Validate() *Problem {
	if m := r.Resolve(); m != nil {
		if m.Toolchain() == nil {
			return &Problem{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("no toolchain specified for module %s", m.Name()),
			}
		}
		return nil
	}

	if r.moduleName != "" {
		if r.project.ModuleManager().UnloadedModule(r.moduleName) != nil {
			return &Problem{
				Severity: SeverityError,
				Message:  fmt.Sprintf("module is unloaded from project: %s", r.moduleName),
			}
		}
		return &Problem{
			Severity: SeverityError,
			Message:  fmt.Sprintf("module does not exist in project: %s", r.moduleName),
		}
	}

	return &Problem{Severity: SeverityError, Message: "module not specified"}
}
