package daily

import (
	"errors"
	"fmt"

	"github.com/tawjihi/mathbot/internal/config"
	"github.com/tawjihi/mathbot/internal/content"
	"github.com/tawjihi/mathbot/internal/rotation"
	"github.com/tawjihi/mathbot/internal/store"
	"github.com/tawjihi/mathbot/internal/telegram"
)

// PersistError reports a store save that failed after the message was
// already delivered. The channel and the store now disagree.
type PersistError struct {
	QuestionID int
	Err        error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("question %d was published but not marked used: %v", e.QuestionID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Process exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitStore         = 3
	ExitPoolExhausted = 4
	ExitGeneration    = 5
	ExitPublish       = 6
	ExitPersist       = 7
)

// ExitCode maps a run error to the process exit code. Wrapping errors are
// checked before the errors they may wrap: a PersistError wraps a
// StoreError and a PoolExhaustedError may wrap a GenerationError.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		configErr  *config.ConfigurationError
		persistErr *PersistError
		poolErr    *rotation.PoolExhaustedError
		storeErr   *store.StoreError
		publishErr *telegram.PublishError
		genErr     *content.GenerationError
	)
	switch {
	case errors.As(err, &configErr):
		return ExitConfiguration
	case errors.As(err, &persistErr):
		return ExitPersist
	case errors.As(err, &poolErr):
		return ExitPoolExhausted
	case errors.As(err, &storeErr):
		return ExitStore
	case errors.As(err, &publishErr):
		return ExitPublish
	case errors.As(err, &genErr):
		return ExitGeneration
	}
	return ExitFailure
}
