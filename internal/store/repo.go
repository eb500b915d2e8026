package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // LLM events only; "" = all purposes
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a recorded LLM request.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PostEventData captures one publish attempt.
type PostEventData struct {
	RunID        string
	QuestionID   int
	Variant      bool
	Success      bool
	MessageID    int
	StatusCode   int
	ErrorMessage string
}

// PostEvent is a recorded publish attempt.
type PostEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	PostEventData
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append access to the event ledger.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendPostEvent records a publish attempt.
	AppendPostEvent(ctx context.Context, data PostEventData) error
}

// EventQuerier reads the event ledger back for the CLI.
type EventQuerier interface {
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
	QueryPostEvents(ctx context.Context, opts QueryOpts) ([]PostEvent, error)
}
