package filter

import "fmt"

// ConfigError rejects a malformed filter change. It is recoverable: callers
// keep their previous view.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid filter %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }
