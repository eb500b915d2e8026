package daily

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tawjihi/mathbot/internal/config"
	"github.com/tawjihi/mathbot/internal/content"
	"github.com/tawjihi/mathbot/internal/llm"
	"github.com/tawjihi/mathbot/internal/rotation"
	"github.com/tawjihi/mathbot/internal/store"
	"github.com/tawjihi/mathbot/internal/telegram"
)

var fixedNow = time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)

type stubSolutions struct {
	text  string
	err   error
	calls int
}

func (s *stubSolutions) Generate(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubTips struct {
	text string
	err  error
}

func (s *stubTips) Generate(_ context.Context, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubVariants struct {
	text string
	err  error
}

func (s *stubVariants) GenerateVariant(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

type stubPublisher struct {
	err   error
	posts []string
}

func (p *stubPublisher) Publish(_ context.Context, text string) (*telegram.Message, error) {
	p.posts = append(p.posts, text)
	if p.err != nil {
		return nil, p.err
	}
	return &telegram.Message{MessageID: 555}, nil
}

type failingSave struct {
	store.QuestionFile
}

func (failingSave) Save(*store.QuestionSet) error {
	return &store.StoreError{Op: "save", Err: errors.New("read-only file system")}
}

type recordingEvents struct {
	posts []store.PostEventData
}

func (r *recordingEvents) AppendLLMRequest(context.Context, store.LLMRequestEventData) error {
	return nil
}

func (r *recordingEvents) AppendPostEvent(_ context.Context, data store.PostEventData) error {
	r.posts = append(r.posts, data)
	return nil
}

func validConfig(storePath string) config.Config {
	cfg := config.Default()
	cfg.Telegram.Token = "tok"
	cfg.Telegram.ChatID = "@chan"
	cfg.LLM.Provider = llm.ProviderMock
	cfg.Store.Path = storePath
	return cfg
}

func writeStore(t *testing.T, questions ...store.Question) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, store.SaveQuestions(path, &store.QuestionSet{Questions: questions}))
	return path
}

type harness struct {
	path      string
	solutions *stubSolutions
	tips      *stubTips
	variants  *stubVariants
	publisher *stubPublisher
	events    *recordingEvents
	hook      *test.Hook
}

func newHarness(t *testing.T, questions ...store.Question) *harness {
	return &harness{
		path:      writeStore(t, questions...),
		solutions: &stubSolutions{text: "1. اطرح 3 من الطرفين\n✅ الإجابة: 2"},
		tips:      &stubTips{text: "💡 نصيحة: راجع الإشارات."},
		variants:  &stubVariants{text: "3x-1=8"},
		publisher: &stubPublisher{},
		events:    &recordingEvents{},
	}
}

func (h *harness) runner(t *testing.T, opts ...Option) *Runner {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h.hook = hook

	deps := Deps{
		Questions: store.QuestionFile{Path: h.path},
		Solutions: h.solutions,
		Tips:      h.tips,
		Variants:  h.variants,
		Publisher: h.publisher,
		Events:    h.events,
	}
	opts = append([]Option{
		WithLogger(logger),
		WithClock(func() time.Time { return fixedNow }),
		WithRand(rand.New(rand.NewPCG(1, 1))),
	}, opts...)
	return New(validConfig(h.path), deps, opts...)
}

func (h *harness) load(t *testing.T) *store.QuestionSet {
	t.Helper()
	set, err := store.LoadQuestions(h.path)
	require.NoError(t, err)
	return set
}

func TestRun_HappyPath(t *testing.T) {
	h := newHarness(t, store.Question{ID: 1, Question: "2x+3=7", Type: "algebra", Chapter: "Equations"})

	res, err := h.runner(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 1, res.QuestionID)
	assert.Equal(t, 555, res.MessageID)
	assert.False(t, res.Variant)

	set := h.load(t)
	require.Len(t, set.Questions, 1)
	assert.True(t, set.Questions[0].Used)

	require.Len(t, h.publisher.posts, 1)
	post := h.publisher.posts[0]
	assert.Contains(t, post, "2x+3=7")
	assert.Contains(t, post, "✅ الإجابة: 2")
	assert.Contains(t, post, "💡 نصيحة: راجع الإشارات.")
	assert.Contains(t, post, "_الوقت: 2026-09-01 06:00:00 UTC_")
	assert.Contains(t, post, "_رقم السؤال: 1_")

	require.Len(t, h.events.posts, 1)
	assert.Equal(t, store.PostEventData{
		RunID: res.RunID, QuestionID: 1, Success: true, MessageID: 555, StatusCode: 200,
	}, h.events.posts[0])
}

func TestRun_LogsEveryTransition(t *testing.T) {
	h := newHarness(t, store.Question{ID: 1, Question: "q"})

	res, err := h.runner(t).Run(context.Background())
	require.NoError(t, err)

	var path []string
	for _, e := range h.hook.AllEntries() {
		if e.Message != "state transition" {
			continue
		}
		assert.Equal(t, res.RunID, e.Data["run_id"])
		path = append(path, e.Data["to"].(string))
	}
	assert.Equal(t, []string{
		"validating", "loading", "selecting", "generating_solution",
		"generating_tip", "formatting", "publishing", "persisting", "done",
	}, path)
}

func TestRun_ExhaustedPoolUsesVariant(t *testing.T) {
	h := newHarness(t, store.Question{ID: 1, Question: "2x+3=7", Type: "algebra", Chapter: "Equations", Source: "2023 exam", Used: true})

	res, err := h.runner(t).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Variant)
	assert.Equal(t, 2, res.QuestionID)

	set := h.load(t)
	require.Len(t, set.Questions, 2)
	assert.Equal(t, store.Question{
		ID: 2, Question: "3x-1=8", Type: "algebra", Chapter: "Equations", Source: "2023 exam - Variant", Used: true,
	}, set.Questions[1])
	assert.True(t, h.events.posts[0].Variant)
}

func TestRun_PublishFailureLeavesStoreUntouched(t *testing.T) {
	h := newHarness(t, store.Question{ID: 1, Question: "2x+3=7", Used: true})
	h.publisher.err = &telegram.PublishError{StatusCode: 400, Body: `{"ok":false}`}
	before, err := os.ReadFile(h.path)
	require.NoError(t, err)

	res, err := h.runner(t).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ExitPublish, ExitCode(err))
	assert.Equal(t, StateAborted, res.State)

	after, err := os.ReadFile(h.path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "store must stay byte-identical, variant included")

	require.Len(t, h.events.posts, 1)
	assert.False(t, h.events.posts[0].Success)
	assert.Equal(t, 400, h.events.posts[0].StatusCode)

	entry := h.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level, "the last entry is the transition to aborted")
	var logged bool
	for _, e := range h.hook.AllEntries() {
		if e.Message == "daily run aborted" {
			logged = true
			assert.Equal(t, 400, e.Data["status"])
			assert.Equal(t, "publishing", e.Data["state"])
		}
	}
	assert.True(t, logged)
}

func TestRun_TipFailureStillCompletes(t *testing.T) {
	h := newHarness(t, store.Question{ID: 1, Question: "q"})
	h.tips.err = &content.GenerationError{Purpose: llm.PurposeTip, Err: errors.New("quota")}

	res, err := h.runner(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Contains(t, h.publisher.posts[0], content.DefaultTip)
	assert.True(t, h.load(t).Questions[0].Used)
}

func TestRun_BlankTipUsesDefault(t *testing.T) {
	h := newHarness(t, store.Question{ID: 1, Question: "q"})
	h.tips.text = "  \n"

	res, err := h.runner(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	require.Len(t, h.publisher.posts, 1)
	assert.Contains(t, h.publisher.posts[0], content.DefaultTip)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name      string
		questions []store.Question
		setup     func(*harness)
		wantCode  int
		wantState string
	}{
		{
			name:      "solution failure",
			questions: []store.Question{{ID: 1, Question: "q"}},
			setup: func(h *harness) {
				h.solutions.err = &content.GenerationError{Purpose: llm.PurposeSolution, Err: errors.New("503")}
			},
			wantCode:  ExitGeneration,
			wantState: "generating_solution",
		},
		{
			name:      "variant failure",
			questions: []store.Question{{ID: 1, Question: "q", Used: true}},
			setup: func(h *harness) {
				h.variants.err = &content.GenerationError{Purpose: llm.PurposeVariant, Err: errors.New("503")}
			},
			wantCode:  ExitPoolExhausted,
			wantState: "selecting",
		},
		{
			name:      "empty store",
			questions: nil,
			wantCode:  ExitPoolExhausted,
			wantState: "selecting",
		},
		{
			name:      "corrupt store",
			questions: []store.Question{{ID: 1, Question: "q"}},
			setup: func(h *harness) {
				_ = os.WriteFile(h.path, []byte(`[{"id":1,`), 0o644)
			},
			wantCode:  ExitStore,
			wantState: "loading",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.questions...)
			if tt.setup != nil {
				tt.setup(h)
			}
			before, _ := os.ReadFile(h.path)

			_, err := h.runner(t).Run(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ExitCode(err))
			assert.Empty(t, h.publisher.posts, "nothing may be published")

			after, _ := os.ReadFile(h.path)
			assert.Equal(t, before, after)

			for _, e := range h.hook.AllEntries() {
				if e.Message == "daily run aborted" {
					assert.Equal(t, tt.wantState, e.Data["state"])
				}
			}
		})
	}
}

func TestRun_MissingConfigDoesNoWork(t *testing.T) {
	h := newHarness(t, store.Question{ID: 1, Question: "q"})
	r := h.runner(t)
	r.cfg.Telegram.Token = ""

	res, err := r.Run(context.Background())
	var ce *config.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Missing, "TELEGRAM_BOT_TOKEN")
	assert.Equal(t, ExitConfiguration, ExitCode(err))
	assert.Equal(t, StateAborted, res.State)
	assert.Zero(t, h.solutions.calls)
	assert.Empty(t, h.publisher.posts)
}

func TestRun_PersistFailure(t *testing.T) {
	h := newHarness(t, store.Question{ID: 1, Question: "q"})
	r := h.runner(t)
	r.deps.Questions = failingSave{QuestionFile: store.QuestionFile{Path: h.path}}

	_, err := r.Run(context.Background())
	var pe *PersistError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.QuestionID)
	assert.Equal(t, ExitPersist, ExitCode(err))
	assert.Len(t, h.publisher.posts, 1, "message was delivered before the save failed")

	var warned bool
	for _, e := range h.hook.AllEntries() {
		if e.Message == "daily run aborted" {
			warned = e.Data["consistency"] == "message already delivered"
		}
	}
	assert.True(t, warned)
}

func TestRun_DryRun(t *testing.T) {
	h := newHarness(t, store.Question{ID: 1, Question: "q"})
	before, _ := os.ReadFile(h.path)

	res, err := h.runner(t, DryRun(true)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, StateDone, res.State)
	assert.True(t, strings.HasPrefix(res.Post, "📚 *السؤال*"))
	assert.Empty(t, h.publisher.posts)
	assert.Empty(t, h.events.posts)

	after, _ := os.ReadFile(h.path)
	assert.Equal(t, before, after)
}

// TestRun_EndToEnd wires the real generators, a mock LLM and a Telegram
// client against a local server.
func TestRun_EndToEnd(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":9}}`))
	}))
	t.Cleanup(server.Close)

	path := writeStore(t, store.Question{ID: 4, Question: "Solve 2x + 3 = 7", Type: "algebra", Chapter: "Equations", Used: true})
	provider := llm.NewMockProvider(
		llm.MockText(`{"question": "Solve 3x - 1 = 8"}`),
		llm.MockText("1. أضف 1\n2. اقسم على 3\n✅ الإجابة: x = 3"),
		llm.MockText("💡 نصيحة: تحقق من الحل بالتعويض."),
	)
	cfg := validConfig(path)
	cfg.Telegram.BaseURL = server.URL

	logger, _ := test.NewNullLogger()
	r := New(cfg, Deps{
		Questions: store.QuestionFile{Path: path},
		Solutions: content.NewSolutionGenerator(provider, cfg.Content),
		Tips:      content.NewTipGenerator(provider, cfg.Content),
		Variants:  content.NewVariantGenerator(provider, cfg.Content),
		Publisher: telegram.New(cfg.Telegram),
	}, WithLogger(logger), WithClock(func() time.Time { return fixedNow }))

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, res.MessageID)
	assert.Equal(t, 5, res.QuestionID)
	assert.Contains(t, body, "Solve 3x - 1 = 8")
	assert.Contains(t, body, `"parse_mode":"Markdown"`)

	set, err := store.LoadQuestions(path)
	require.NoError(t, err)
	require.Len(t, set.Questions, 2)
	assert.True(t, set.Questions[1].Used)
	assert.Equal(t, "unknown - Variant", set.Questions[1].Source)
	assert.Equal(t, 3, provider.CallCount())
}

var _ rotation.VariantGenerator = (*stubVariants)(nil)
