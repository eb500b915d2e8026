package content

import "fmt"

// GenerationError wraps a failed or unusable generation call.
type GenerationError struct {
	Purpose string // "solution", "tip" or "variant"
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Purpose, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
