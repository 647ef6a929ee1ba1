package corpus

import "fmt"

// ConfigError reports a problem that prevents a stage from starting:
// missing paths, missing credentials, invalid options.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError is a shorthand for a ConfigError with a formatted cause.
func NewConfigError(op, format string, args ...any) *ConfigError {
	return &ConfigError{Op: op, Err: fmt.Errorf(format, args...)}
}

// ParseError is returned when no DOM can be produced for a page.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }
