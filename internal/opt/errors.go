package opt

import "fmt"

// ConfigurationError reports an input or environment problem that makes the
// request unsolvable before any search starts.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "opt: configuration: " + e.Reason
	}
	return fmt.Sprintf("opt: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
