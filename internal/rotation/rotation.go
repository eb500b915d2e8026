// Package rotation decides which question is posted next. Unused questions
// go out in stored order; once the pool is exhausted a variant of a
// randomly chosen used question is generated and appended.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/tawjihi/mathbot/internal/store"
)

// VariantSuffix is appended to the source of generated variants.
const VariantSuffix = " - Variant"

// VariantGenerator produces the text of a new question derived from an
// existing one.
type VariantGenerator interface {
	GenerateVariant(ctx context.Context, original string) (string, error)
}

// Selection is the outcome of Select.
type Selection struct {
	// Question points into the set passed to Select.
	Question *store.Question

	// Variant is set when the question was generated because the pool was
	// exhausted. OriginalID names the question it was derived from.
	Variant    bool
	OriginalID int
}

// PoolExhaustedError reports that no question could be selected.
type PoolExhaustedError struct {
	Total int
	Err   error
}

func (e *PoolExhaustedError) Error() string {
	if e.Total == 0 {
		return "question pool exhausted: store is empty"
	}
	return fmt.Sprintf("question pool exhausted (%d used): %v", e.Total, e.Err)
}

func (e *PoolExhaustedError) Unwrap() error { return e.Err }

var errEmptyVariant = errors.New("variant generator returned blank text")

// Select returns the first unused question in set. When every question is
// used it asks gen for a variant of a random used question, appends it to
// set with id max(id)+1 and returns it. set is only modified in that case.
func Select(ctx context.Context, set *store.QuestionSet, gen VariantGenerator, rng *rand.Rand) (Selection, error) {
	if q, ok := set.FirstUnused(); ok {
		return Selection{Question: q}, nil
	}

	used := set.Used()
	if len(used) == 0 {
		return Selection{}, &PoolExhaustedError{}
	}
	if gen == nil {
		return Selection{}, &PoolExhaustedError{Total: len(used), Err: errors.New("no variant generator configured")}
	}

	original := used[rng.IntN(len(used))]

	text, err := gen.GenerateVariant(ctx, original.Question)
	if err != nil {
		return Selection{}, &PoolExhaustedError{
			Total: len(used),
			Err:   fmt.Errorf("variant of question %d: %w", original.ID, err),
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Selection{}, &PoolExhaustedError{
			Total: len(used),
			Err:   fmt.Errorf("variant of question %d: %w", original.ID, errEmptyVariant),
		}
	}

	q := set.Append(store.Question{
		Question: text,
		Type:     original.Type,
		Chapter:  original.Chapter,
		Source:   variantSource(original.Source),
	})
	return Selection{Question: q, Variant: true, OriginalID: original.ID}, nil
}

func variantSource(source string) string {
	if strings.TrimSpace(source) == "" {
		source = "unknown"
	}
	return source + VariantSuffix
}
