package dialog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
	"github.com/iLeonidze/OXPAHA28-bot/internal/dedup"
	"github.com/iLeonidze/OXPAHA28-bot/internal/pipeline"
)

// StartCommand resets the dialog and greets the user.
const StartCommand = "start"

// Result describes one transition.
type Result struct {
	Outcome domain.Outcome
	// Effects are rendered in order to the user's chat.
	Effects []domain.Effect
	// SubmissionID is the moderation channel message id for submitted and
	// duplicate outcomes.
	SubmissionID int64
	// Err is the publish error of a submit_failed outcome.
	Err error
}

// Engine applies inbound input to sessions. It is safe for concurrent use
// on different sessions; callers serialize work on one session.
type Engine struct {
	graph     *Graph
	cfg       *config.Config
	format    *Formatter
	sanitizer TextSanitizer
	dedup     *dedup.Cache
	publisher ports.Publisher
	now       func() time.Time
	logger    *slog.Logger
	tracer    trace.Tracer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine wires the engine's collaborators.
func NewEngine(graph *Graph, cfg *config.Config, sanitizer TextSanitizer, cache *dedup.Cache, publisher ports.Publisher, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:     graph,
		cfg:       cfg,
		format:    NewFormatter(cfg),
		sanitizer: sanitizer,
		dedup:     cache,
		publisher: publisher,
		now:       time.Now,
		logger:    slog.Default(),
		tracer:    otel.Tracer("github.com/iLeonidze/OXPAHA28-bot/internal/dialog"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the step graph.
func (e *Engine) Graph() *Graph {
	return e.graph
}

// Formatter returns the report formatter.
func (e *Engine) Formatter() *Formatter {
	return e.format
}

// Transition applies in to a copy of sess and returns the updated session
// with the effects to render. sess itself is never modified. On fallback
// outcomes the returned session equals sess.
func (e *Engine) Transition(ctx context.Context, sess *domain.Session, in domain.Input) (*domain.Session, *Result) {
	ctx, span := e.tracer.Start(ctx, "dialog.transition",
		trace.WithAttributes(
			attribute.Int64("user_id", sess.UserID),
			attribute.String("step", string(sess.CurrentStep)),
		))
	defer span.End()

	next := sess.Clone()
	res := e.transition(ctx, next, in)

	span.SetAttributes(
		attribute.String("outcome", string(res.Outcome)),
		attribute.String("next_step", string(next.CurrentStep)),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}

	for i := range res.Effects {
		if res.Effects[i].ChatID == 0 {
			res.Effects[i].ChatID = in.ChatID
		}
	}
	return next, res
}

func (e *Engine) transition(ctx context.Context, sess *domain.Session, in domain.Input) *Result {
	now := e.now()
	text := strings.TrimSpace(in.Text)

	if in.IsCommand {
		if in.Command != StartCommand {
			return &Result{Outcome: domain.OutcomeIgnored}
		}
		if sess.StartedAt.IsZero() {
			sess.StartedAt = now
		}
		sess.Reset(e.graph.Initial(), now)
		res := &Result{Outcome: domain.OutcomeStarted}
		res.Effects = append(res.Effects, textEffect(e.cfg.Template(config.TemplateWelcome), nil))
		res.Effects = append(res.Effects, e.render(sess, in.Sender)...)
		return res
	}

	if sess.IsNew() {
		sess.Touch(now)
		return &Result{Outcome: domain.OutcomeStarted, Effects: e.render(sess, in.Sender)}
	}

	if containsAny(text, e.cfg.Keyphrases.GoBack) {
		e.back(sess, now)
		return &Result{Outcome: domain.OutcomeBack, Effects: e.render(sess, in.Sender)}
	}
	if containsAny(text, e.cfg.Keyphrases.GoRestart) {
		sess.Reset(e.graph.Initial(), now)
		return &Result{Outcome: domain.OutcomeRestart, Effects: e.render(sess, in.Sender)}
	}

	def, ok := e.graph.Step(sess.CurrentStep)
	if !ok {
		e.logger.Warn("session on unknown step, resetting",
			slog.Int64("user_id", sess.UserID),
			slog.String("step", string(sess.CurrentStep)))
		sess.Reset(e.graph.Initial(), now)
		return &Result{Outcome: domain.OutcomeRestart, Effects: e.render(sess, in.Sender)}
	}

	if def.ID == e.graph.Initial() {
		if b, ok := e.specialButton(text); ok {
			return &Result{Outcome: domain.OutcomeInfo, Effects: []domain.Effect{textEffect(e.cfg.Template(b.Template), nil)}}
		}
	}

	if def.Kind == InputConfirm {
		return e.confirm(ctx, sess, def, in, now)
	}

	answer, err := parseAnswer(def, in, e.sanitizer)
	if err != nil {
		return e.fallback(sess, in, err)
	}

	if def.Detour {
		sess.Answers[def.Field] = answer
		// Return to the step the detour was entered from.
		back := e.graph.Initial()
		if n := len(sess.StepHistory); n > 0 {
			back = sess.StepHistory[n-1]
			sess.StepHistory = sess.StepHistory[:n-1]
		}
		sess.CurrentStep = back
		sess.Touch(now)
		return &Result{Outcome: domain.OutcomeAdvanced, Effects: e.render(sess, in.Sender)}
	}

	answers := sess.Answers.Clone()
	answers[def.Field] = answer
	e.graph.Prune(answers)
	target := def.Branch(answers)
	if !e.graph.CanTransition(def.ID, target) {
		e.logger.Error("branch returned undeclared step",
			slog.String("step", string(def.ID)),
			slog.String("target", string(target)))
		return e.fallback(sess, in, &ValidationError{Step: def.ID, Reason: "no route for answers"})
	}

	sess.Answers = answers
	e.advance(sess, target, now)
	return &Result{Outcome: domain.OutcomeAdvanced, Effects: e.render(sess, in.Sender)}
}

func (e *Engine) confirm(ctx context.Context, sess *domain.Session, def *StepDefinition, in domain.Input, now time.Time) *Result {
	action, ok := matchAction(def, in.Text)
	if !ok || !e.graph.CanTransition(def.ID, action.Target) {
		return e.fallback(sess, in, &ValidationError{Step: def.ID, Reason: "no action matched"})
	}
	if action.Target == StepSubmit {
		return e.submit(ctx, sess, in, now)
	}
	e.advance(sess, action.Target, now)
	return &Result{Outcome: domain.OutcomeAdvanced, Effects: e.render(sess, in.Sender)}
}

func (e *Engine) submit(ctx context.Context, sess *domain.Session, in domain.Input, now time.Time) *Result {
	answers := sess.Answers.Clone()
	e.graph.Prune(answers)
	hash := dedup.ContentHash(answers)
	initialKeyboard := e.keyboard(e.graph.Initial())

	prev, claim, err := e.dedup.Reserve(ctx, hash)
	if err != nil {
		return e.submitFailed(sess, err)
	}
	if claim == nil {
		sess.Reset(e.graph.Initial(), now)
		return &Result{
			Outcome:      domain.OutcomeDuplicate,
			SubmissionID: prev.SubmissionID,
			Effects: []domain.Effect{
				markdownEffect(e.format.LinkMessage(config.TemplateDuplicate, prev.SubmissionID), initialKeyboard),
			},
		}
	}
	defer claim.Release()

	category := answers.Text(domain.FieldCategory)
	sub := e.format.Submission(answers, in.Sender, hash)

	id, err := e.publisher.Publish(ctx, sub)
	if err != nil {
		return e.submitFailed(sess, err)
	}

	claim.Commit(sess.UserID, id)
	sess.SubmissionIDs = append(sess.SubmissionIDs, id)
	sess.LastSubmittedAt = now
	sess.Reset(e.graph.Initial(), now)

	res := &Result{Outcome: domain.OutcomeSubmitted, SubmissionID: id}
	res.Effects = append(res.Effects, markdownEffect(e.format.LinkMessage(config.TemplateSuccess, id), initialKeyboard))
	if hint := e.cfg.Template(config.TemplateFireHint); hint != "" && e.cfg.IsFireCategory(category) {
		res.Effects = append(res.Effects, textEffect(hint, nil))
	}

	e.logger.Info("submission published",
		slog.Int64("user_id", sess.UserID),
		slog.Int64("submission_id", id))
	return res
}

func (e *Engine) submitFailed(sess *domain.Session, err error) *Result {
	e.logger.Error("failed to publish submission",
		slog.Int64("user_id", sess.UserID),
		slog.String("error", err.Error()))
	return &Result{
		Outcome: domain.OutcomeSubmitFailed,
		Err:     err,
		Effects: []domain.Effect{textEffect(e.cfg.Template(config.TemplateSubmitFailed), e.keyboard(StepConfirm))},
	}
}

// advance moves to target, pushing the current step onto the history unless
// it is already on top, and truncating the history when target was visited
// before.
func (e *Engine) advance(sess *domain.Session, target domain.StepID, now time.Time) {
	prev := sess.CurrentStep
	if n := len(sess.StepHistory); prev != target && (n == 0 || sess.StepHistory[n-1] != prev) {
		sess.StepHistory = append(sess.StepHistory, prev)
	}
	for i, id := range sess.StepHistory {
		if id == target {
			sess.StepHistory = sess.StepHistory[:i]
			break
		}
	}
	sess.CurrentStep = target
	sess.Touch(now)
}

// back pops the history. With an empty history the session stays at, or
// returns to, the initial step.
func (e *Engine) back(sess *domain.Session, now time.Time) {
	n := len(sess.StepHistory)
	if n == 0 {
		sess.CurrentStep = e.graph.Initial()
	} else {
		sess.CurrentStep = sess.StepHistory[n-1]
		sess.StepHistory = sess.StepHistory[:n-1]
	}
	sess.Touch(now)
}

func (e *Engine) fallback(sess *domain.Session, in domain.Input, err error) *Result {
	outcome := domain.OutcomeFallback
	template := config.TemplateFallback
	if pipeline.IsDenied(err) {
		outcome = domain.OutcomeContentRejected
		template = config.TemplateContentRejected
	} else if !IsValidationError(err) {
		e.logger.Warn("unexpected answer error",
			slog.Int64("user_id", sess.UserID),
			slog.String("error", err.Error()))
	} else {
		e.logger.Debug("answer rejected",
			slog.Int64("user_id", sess.UserID),
			slog.String("reason", err.Error()))
	}

	res := &Result{Outcome: outcome}
	res.Effects = append(res.Effects, textEffect(e.cfg.Template(template), nil))
	res.Effects = append(res.Effects, e.render(sess, in.Sender)...)
	return res
}

func (e *Engine) specialButton(text string) (config.SpecialButton, bool) {
	lower := strings.ToLower(text)
	if lower == "" {
		return config.SpecialButton{}, false
	}
	for _, b := range e.cfg.Keyphrases.SpecialButtons {
		if text == b.Label {
			return b, true
		}
		if m := strings.ToLower(strings.TrimSpace(b.Match)); m != "" && strings.Contains(lower, m) {
			return b, true
		}
	}
	return config.SpecialButton{}, false
}

// render describes the prompt of the session's current step.
func (e *Engine) render(sess *domain.Session, author domain.Sender) []domain.Effect {
	def, ok := e.graph.Step(sess.CurrentStep)
	if !ok {
		return nil
	}

	if def.Kind != InputConfirm {
		return []domain.Effect{textEffect(e.cfg.Template(def.Prompt), e.keyboard(def.ID))}
	}

	effects := []domain.Effect{markdownEffect(e.format.Preview(sess.Answers, author), e.keyboard(def.ID))}
	if a, ok := sess.Answers.Get(domain.FieldMedia); ok && a.Media != nil {
		m := *a.Media
		effects = append(effects, domain.Effect{Kind: domain.EffectMedia, Media: &m, Silent: true})
	}
	if a, ok := sess.Answers.Get(domain.FieldLocation); ok && a.Location != nil {
		l := *a.Location
		effects = append(effects, domain.Effect{Kind: domain.EffectLocation, Location: &l, Silent: true})
	}
	return effects
}

// keyboard lays out one button per row. The initial step adds the special
// buttons as a last row; other steps end with the control buttons.
func (e *Engine) keyboard(id domain.StepID) domain.Keyboard {
	def, ok := e.graph.Step(id)
	if !ok {
		return nil
	}

	var kb domain.Keyboard
	for _, opt := range def.Options {
		kb = append(kb, []string{opt})
	}
	for _, a := range def.Actions {
		kb = append(kb, []string{a.Label})
	}

	if id == e.graph.Initial() {
		var row []string
		for _, b := range e.cfg.Keyphrases.SpecialButtons {
			row = append(row, b.Label)
		}
		if len(row) > 0 {
			kb = append(kb, row)
		}
		return kb
	}

	for _, c := range e.cfg.Keyphrases.ControlButtons {
		kb = append(kb, []string{c})
	}
	return kb
}

func textEffect(text string, kb domain.Keyboard) domain.Effect {
	return domain.Effect{Kind: domain.EffectText, Text: text, Keyboard: kb}
}

func markdownEffect(text string, kb domain.Keyboard) domain.Effect {
	return domain.Effect{Kind: domain.EffectText, Text: text, Markdown: true, Keyboard: kb}
}
