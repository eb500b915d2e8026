package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.EventRepo().AppendPostEvent(context.Background(), PostEventData{RunID: "r1", QuestionID: 1, Success: true}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EventRepo().AppendPostEvent(context.Background(), PostEventData{RunID: "r2", QuestionID: 2}))

	events, err := s.EventQuerier().QueryPostEvents(context.Background(), QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "r2", events[0].RunID)
	assert.Greater(t, events[0].Sequence, events[1].Sequence)
}

func TestLLMEvents(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	repo := s.EventRepo()
	q := s.EventQuerier()

	calls := []LLMRequestEventData{
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "solution", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "[user]\nسؤال", ResponseBody: "✅ الإجابة: 2"},
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "tip", InputTokens: 20, OutputTokens: 10, LatencyMs: 100, Success: true},
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "solution", InputTokens: 80, OutputTokens: 0, LatencyMs: 400, ErrorMessage: "rate limited"},
	}
	for _, c := range calls {
		require.NoError(t, repo.AppendLLMRequest(ctx, c))
	}

	all, err := q.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "rate limited", all[0].ErrorMessage)
	assert.False(t, all[0].Success)

	solutions, err := q.QueryLLMEvents(ctx, QueryOpts{Purpose: "solution", Limit: 1})
	require.NoError(t, err)
	require.Len(t, solutions, 1)
	assert.Equal(t, 80, solutions[0].InputTokens)

	first := all[2]
	got, err := q.GetLLMEvent(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "✅ الإجابة: 2", got.ResponseBody)
	assert.Equal(t, "[user]\nسؤال", got.RequestBody)
	assert.False(t, got.Timestamp.IsZero())

	_, err = q.GetLLMEvent(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	byPurpose, err := q.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, PurposeUsage{Purpose: "solution", Calls: 2, InputTokens: 180, OutputTokens: 50, AvgLatencyMs: 300}, byPurpose[0])
	assert.Equal(t, "tip", byPurpose[1].Purpose)

	byModel, err := q.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, ModelUsage{Model: "gemini-2.5-flash", Calls: 3, InputTokens: 200, OutputTokens: 60}, byModel[0])
}

func TestPostEvents_Limit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.EventRepo().AppendPostEvent(ctx, PostEventData{
			RunID: "run", QuestionID: i, Success: i != 2, MessageID: 100 + i, StatusCode: 200,
		}))
	}

	events, err := s.EventQuerier().QueryPostEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 3, events[0].QuestionID)
	assert.Equal(t, 103, events[0].MessageID)
	assert.True(t, events[0].Success)
	assert.False(t, events[1].Success)
}

func TestSequenceSharedAcrossTables(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "solution"}))
	require.NoError(t, s.EventRepo().AppendPostEvent(ctx, PostEventData{RunID: "r", QuestionID: 1}))

	llm, err := s.EventQuerier().QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	posts, err := s.EventQuerier().QueryPostEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	assert.Equal(t, llm[0].Sequence+1, posts[0].Sequence)
}
