package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/tawjihi/mathbot/internal/store"
)

type recordingRepo struct {
	llm    []store.LLMRequestEventData
	failed bool
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	if r.failed {
		return errors.New("disk full")
	}
	r.llm = append(r.llm, data)
	return nil
}

func (r *recordingRepo) AppendPostEvent(context.Context, store.PostEventData) error { return nil }

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`✅ الإجابة: 2`),
		Usage:   Usage{InputTokens: 7, OutputTokens: 3},
	})
	p := WithLogging(mock, ProviderMock, repo, nil)

	ctx := WithPurpose(context.Background(), PurposeSolution)
	if _, err := p.Generate(ctx, Request{Messages: UserPrompt("2x+3=7")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.llm) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.llm))
	}
	ev := repo.llm[0]
	if ev.Purpose != PurposeSolution || !ev.Success || ev.Provider != ProviderMock {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.InputTokens != 7 || ev.OutputTokens != 3 {
		t.Fatalf("unexpected tokens: %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "[user]\n2x+3=7") {
		t.Fatalf("request body not captured: %q", ev.RequestBody)
	}
	if ev.ResponseBody != "✅ الإجابة: 2" {
		t.Fatalf("response body not captured: %q", ev.ResponseBody)
	}
}

func TestLogging_RecordsFailure(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}})
	p := WithLogging(mock, ProviderMock, repo, nil)

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if repo.llm[0].Success || repo.llm[0].ErrorMessage == "" {
		t.Fatalf("expected failure event, got %+v", repo.llm[0])
	}
	if repo.llm[0].Purpose != "unknown" {
		t.Fatalf("expected unknown purpose, got %q", repo.llm[0].Purpose)
	}
}

func TestLogging_LedgerFailureIsOnlyAWarning(t *testing.T) {
	logger, hook := test.NewNullLogger()
	repo := &recordingRepo{failed: true}
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`ok`)})
	p := WithLogging(mock, ProviderMock, repo, logger)

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("ledger failure must not fail the request: %v", err)
	}
	if resp.Text() != "ok" {
		t.Fatalf("unexpected content %q", resp.Text())
	}
	last := hook.LastEntry()
	if last == nil || last.Level != logrus.WarnLevel {
		t.Fatalf("expected a warning, got %+v", last)
	}
}
