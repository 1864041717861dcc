package trim

import "fmt"

// ValidationError contains details about a batch-level validation failure with suggestions
type ValidationError struct {
	Message    string
	Suggestion string
	Err        error
}

func (e *ValidationError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s\n\nTo fix this, run:\n  %s", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying error kind
func (e *ValidationError) Unwrap() error {
	return e.Err
}
