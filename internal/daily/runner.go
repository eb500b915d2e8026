// Package daily runs the once-per-invocation posting workflow: pick a
// question, generate its solution and tip, publish the post, and only then
// mark the question used.
package daily

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tawjihi/mathbot/internal/config"
	"github.com/tawjihi/mathbot/internal/content"
	"github.com/tawjihi/mathbot/internal/post"
	"github.com/tawjihi/mathbot/internal/rotation"
	"github.com/tawjihi/mathbot/internal/store"
	"github.com/tawjihi/mathbot/internal/telegram"
)

// QuestionRepo loads and saves the whole question pool.
type QuestionRepo interface {
	Load() (*store.QuestionSet, error)
	Save(set *store.QuestionSet) error
}

// SolutionGenerator writes a solution for a question of the given topic.
type SolutionGenerator interface {
	Generate(ctx context.Context, question, topic string) (string, error)
}

// TipGenerator writes a tip for a chapter. It returns a usable tip even
// when it also returns an error.
type TipGenerator interface {
	Generate(ctx context.Context, topic string) (string, error)
}

// Publisher delivers the formatted post.
type Publisher interface {
	Publish(ctx context.Context, text string) (*telegram.Message, error)
}

// Deps are the collaborators of a run. Events is optional.
type Deps struct {
	Questions QuestionRepo
	Solutions SolutionGenerator
	Tips      TipGenerator
	Variants  rotation.VariantGenerator
	Publisher Publisher
	Events    store.EventRepo
}

// Result describes a finished run.
type Result struct {
	RunID      string
	State      State
	QuestionID int
	Variant    bool
	Post       string
	MessageID  int
	DryRun     bool
}

// Runner executes one daily run.
type Runner struct {
	cfg    config.Config
	deps   Deps
	log    logrus.FieldLogger
	now    func() time.Time
	rng    *rand.Rand
	dryRun bool

	runID string
	state State
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Runner) { r.log = log }
}

// WithClock sets the time source used for the post timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithRand sets the random source used to pick the question a variant is
// derived from.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) { r.rng = rng }
}

// DryRun stops the run after formatting: nothing is published or saved.
func DryRun(enabled bool) Option {
	return func(r *Runner) { r.dryRun = enabled }
}

// New creates a Runner.
func New(cfg config.Config, deps Deps, opts ...Option) *Runner {
	r := &Runner{
		cfg:  cfg,
		deps: deps,
		log:  logrus.StandardLogger(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		seed := uint64(time.Now().UnixNano())
		r.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return r
}

// Run executes the workflow once. The returned Result is non-nil even on
// failure and records the state the run stopped in.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.runID = uuid.New().String()
	r.state = StateInit
	r.log = r.log.WithField("run_id", r.runID)
	res := &Result{RunID: r.runID, DryRun: r.dryRun}

	r.log.Info("daily run starting")

	r.transition(StateValidating)
	if err := r.cfg.Validate(); err != nil {
		return r.abort(res, err, logrus.Fields{})
	}

	r.transition(StateLoading)
	set, err := r.deps.Questions.Load()
	if err != nil {
		return r.abort(res, err, logrus.Fields{})
	}
	r.log.WithFields(logrus.Fields{
		"total":  len(set.Questions),
		"unused": set.Unused(),
	}).Info("question store loaded")

	r.transition(StateSelecting)
	sel, err := rotation.Select(ctx, set, r.deps.Variants, r.rng)
	if err != nil {
		return r.abort(res, err, logrus.Fields{"total": len(set.Questions)})
	}
	q := sel.Question
	res.QuestionID = q.ID
	res.Variant = sel.Variant
	qlog := r.log.WithField("question_id", q.ID)
	if sel.Variant {
		qlog.WithField("original_id", sel.OriginalID).Warn("all questions used, generated a variant")
	}
	qlog.WithFields(logrus.Fields{
		"type":    q.Type,
		"chapter": q.Chapter,
	}).Info("question selected")

	r.transition(StateGeneratingSolution)
	solution, err := r.deps.Solutions.Generate(ctx, q.Question, q.Type)
	if err != nil {
		return r.abort(res, err, logrus.Fields{"question_id": q.ID})
	}

	r.transition(StateGeneratingTip)
	tip, err := r.deps.Tips.Generate(ctx, q.Chapter)
	switch {
	case err != nil:
		qlog.WithError(err).Warn("tip generation failed, using default tip")
		tip = content.DefaultTip
	case strings.TrimSpace(tip) == "":
		qlog.Warn("tip generator returned nothing, using default tip")
		tip = content.DefaultTip
	}

	r.transition(StateFormatting)
	res.Post = post.Format(*q, solution, tip, r.now())

	if r.dryRun {
		qlog.Info("dry run, skipping publish and persist")
		r.transition(StateDone)
		res.State = r.state
		return res, nil
	}

	r.transition(StatePublishing)
	msg, err := r.deps.Publisher.Publish(ctx, res.Post)
	r.recordPost(ctx, sel, msg, err)
	if err != nil {
		fields := logrus.Fields{"question_id": q.ID}
		var pe *telegram.PublishError
		if errors.As(err, &pe) && pe.StatusCode != 0 {
			fields["status"] = pe.StatusCode
			fields["body"] = pe.Body
		}
		return r.abort(res, err, fields)
	}
	if msg != nil {
		res.MessageID = msg.MessageID
	}
	qlog.WithField("message_id", res.MessageID).Info("post published")

	r.transition(StatePersisting)
	if err := r.persist(set, q.ID); err != nil {
		return r.abort(res, err, logrus.Fields{
			"question_id": q.ID,
			"consistency": "message already delivered",
		})
	}
	qlog.Info("question marked as used")

	r.transition(StateDone)
	res.State = r.state
	r.log.Info("daily run completed")
	return res, nil
}

func (r *Runner) persist(set *store.QuestionSet, id int) error {
	if err := set.MarkUsed(id); err != nil {
		return &PersistError{QuestionID: id, Err: err}
	}
	if err := r.deps.Questions.Save(set); err != nil {
		return &PersistError{QuestionID: id, Err: err}
	}
	return nil
}

func (r *Runner) transition(to State) {
	r.log.WithFields(logrus.Fields{
		"from": r.state.String(),
		"to":   to.String(),
	}).Info("state transition")
	r.state = to
}

// abort logs err once with its context and moves to StateAborted.
func (r *Runner) abort(res *Result, err error, fields logrus.Fields) (*Result, error) {
	failed := r.state
	fields["state"] = failed.String()
	fields["exit_code"] = ExitCode(err)
	r.log.WithError(err).WithFields(fields).Error("daily run aborted")

	r.transition(StateAborted)
	res.State = r.state
	return res, err
}

// recordPost appends the publish attempt to the ledger. Ledger failures
// never change the outcome of the run.
func (r *Runner) recordPost(ctx context.Context, sel rotation.Selection, msg *telegram.Message, err error) {
	if r.deps.Events == nil {
		return
	}

	data := store.PostEventData{
		RunID:      r.runID,
		QuestionID: sel.Question.ID,
		Variant:    sel.Variant,
		Success:    err == nil,
	}
	if msg != nil {
		data.MessageID = msg.MessageID
	}
	if err == nil {
		data.StatusCode = 200
	} else {
		data.ErrorMessage = err.Error()
		var pe *telegram.PublishError
		if errors.As(err, &pe) {
			data.StatusCode = pe.StatusCode
		}
	}

	if logErr := r.deps.Events.AppendPostEvent(ctx, data); logErr != nil {
		r.log.WithError(logErr).Warn("failed to record post event")
	}
}
