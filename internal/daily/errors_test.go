package daily

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tawjihi/mathbot/internal/config"
	"github.com/tawjihi/mathbot/internal/content"
	"github.com/tawjihi/mathbot/internal/rotation"
	"github.com/tawjihi/mathbot/internal/store"
	"github.com/tawjihi/mathbot/internal/telegram"
)

func TestExitCode(t *testing.T) {
	storeErr := &store.StoreError{Op: "save", Err: errors.New("disk full")}
	genErr := &content.GenerationError{Purpose: "variant", Err: errors.New("503")}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"config", &config.ConfigurationError{Missing: []string{"TELEGRAM_BOT_TOKEN"}}, ExitConfiguration},
		{"store", fmt.Errorf("load: %w", storeErr), ExitStore},
		{"pool", &rotation.PoolExhaustedError{}, ExitPoolExhausted},
		{"pool wrapping generation", &rotation.PoolExhaustedError{Total: 3, Err: genErr}, ExitPoolExhausted},
		{"generation", genErr, ExitGeneration},
		{"publish", &telegram.PublishError{StatusCode: 500}, ExitPublish},
		{"persist wrapping store", &PersistError{QuestionID: 1, Err: storeErr}, ExitPersist},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if StateGeneratingSolution.String() != "generating_solution" {
		t.Errorf("unexpected name %q", StateGeneratingSolution.String())
	}
	if State(99).String() != "unknown" {
		t.Error("out of range state should be unknown")
	}
	if StateAborted.String() != "aborted" || StateDone.String() != "done" {
		t.Error("terminal states have unexpected names")
	}
}
