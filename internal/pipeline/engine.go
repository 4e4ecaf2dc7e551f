package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/assemble"
	"github.com/mabouzeid04/workflow-daddy/internal/config"
	"github.com/mabouzeid04/workflow-daddy/internal/history"
	"github.com/mabouzeid04/workflow-daddy/internal/observe"
	"github.com/mabouzeid04/workflow-daddy/internal/question"
	"github.com/mabouzeid04/workflow-daddy/internal/reason"
	"github.com/mabouzeid04/workflow-daddy/internal/session"
	"github.com/mabouzeid04/workflow-daddy/internal/summarize"
	"github.com/mabouzeid04/workflow-daddy/internal/task"
)

// confusionEvery is how many observations pass between confusion
// evaluations when no app switch forces one sooner.
const confusionEvery = 4

// shutdownTimeout bounds the final summary and storage writes at session
// end.
const shutdownTimeout = 15 * time.Second

// Stores groups the persistence surfaces the engine writes to.
type Stores struct {
	Sessions  *session.Store
	Tasks     *task.Store
	Questions *question.Store
	Summaries *summarize.Store
}

// Engine drives one session. Observations are consumed in submission
// order on a single goroutine; reasoning calls run on side goroutines,
// at most one in flight per concern, and their results come back as
// deltas that are dropped if the state they refer to is gone.
type Engine struct {
	cfg    *config.Config
	logger *log.Logger

	tracker    *observe.Tracker
	detector   *task.Detector
	sess       *session.Context
	hist       *history.HistoricalContext
	assembler  *assemble.Assembler
	reasoner   *reason.Reasoner
	evaluator  *question.Evaluator
	throttler  *question.Throttler
	summarizer *summarize.Summarizer
	stores     Stores

	obsCh   chan *observe.Observation
	applyCh chan func()
	cmdCh   chan func()
	events  chan Event

	confusionBusy atomic.Bool
	contextBusy   atomic.Bool
	summaryBusy   atomic.Bool

	runCtx         context.Context
	prevObs        *observe.Observation
	lastObsTime    time.Time
	sinceConfusion int
}

// NewEngine wires an engine for one session. The historical context is
// loaded once by the caller and stays fixed for the session's lifetime.
func NewEngine(cfg *config.Config, reasoner *reason.Reasoner, stores Stores, hist *history.HistoricalContext, sess *session.Context, logger *log.Logger) *Engine {
	policy := task.PolicyFromConfig(cfg)
	budget := assemble.Budget{
		Session:    cfg.SessionBudget,
		Historical: cfg.HistoricalBudget,
		Baseline:   cfg.BaselineBudget,
	}
	return &Engine{
		cfg:        cfg,
		logger:     logger,
		tracker:    observe.NewTracker(cfg.ImmediateBufferSize),
		detector:   task.NewDetector(policy, sess.SessionID),
		sess:       sess,
		hist:       hist,
		assembler:  assemble.New(budget),
		reasoner:   reasoner,
		evaluator:  question.NewEvaluator(cfg.ConfidenceThreshold),
		throttler:  question.NewThrottler(cfg.MaxQuestionsPerHour, time.Duration(cfg.MinTimeBetweenQuestionsSeconds)*time.Second),
		summarizer: summarize.New(reasoner, stores.Summaries, summarize.DefaultInterval),
		stores:     stores,

		obsCh:   make(chan *observe.Observation, 64),
		applyCh: make(chan func(), 16),
		cmdCh:   make(chan func(), 4),
		events:  make(chan Event, 128),
	}
}

// SetSummarizer replaces the default summarizer, wiring in its store.
func (e *Engine) SetSummarizer(s *summarize.Summarizer) {
	e.summarizer = s
}

// Events is the fan-out channel for UI and storage consumers. It is
// closed when the engine stops.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Submit enqueues an observation. Order of submission is the order of
// processing.
func (e *Engine) Submit(ctx context.Context, obs *observe.Observation) error {
	select {
	case e.obsCh <- obs:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("engine not accepting observations: %w", ctx.Err())
	}
}

// UserIndication forwards an explicit "I started something new" from an
// answered clarification. It forces a task boundary.
func (e *Engine) UserIndication(explanation string) {
	select {
	case e.cmdCh <- func() { e.applyUserIndication(explanation) }:
	default:
		e.logger.Printf("warning: dropping user indication, command queue full")
	}
}

// applyUserIndication forces a boundary on the observation clock, never
// the wall clock, so segments cannot outrun the last observation.
func (e *Engine) applyUserIndication(explanation string) {
	e.handleBoundaries(e.detector.OnUserIndication(explanation, e.lastObsTime))
}

// Run processes events until ctx is cancelled, then closes out the
// session. It owns all mutable state; nothing else touches the detector
// or tracker while Run is live.
func (e *Engine) Run(ctx context.Context) error {
	e.runCtx = ctx
	if err := e.stores.Sessions.Create(context.Background(), e.sess.SessionID, e.sess.StartTime); err != nil {
		return fmt.Errorf("creating session record: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return e.shutdown()
		case obs := <-e.obsCh:
			e.handleObservation(obs)
		case apply := <-e.applyCh:
			apply()
		case cmd := <-e.cmdCh:
			cmd()
		}
	}
}

func (e *Engine) handleObservation(obs *observe.Observation) {
	imm := e.tracker.Update(obs)

	switched := e.prevObs != nil && e.prevObs.ActiveApp != obs.ActiveApp
	if e.prevObs != nil {
		gap := obs.Timestamp.Sub(e.prevObs.Timestamp)
		idle := time.Duration(e.cfg.IdleThresholdSeconds) * time.Second
		if gap > 0 && gap <= idle {
			e.sess.OnAppTime(e.prevObs.ActiveApp, gap)
		}
	}

	boundaries := e.detector.Observe(obs)
	taskClosed := e.handleBoundaries(boundaries)

	e.sinceConfusion++
	if switched || e.sinceConfusion >= confusionEvery {
		e.sinceConfusion = 0
		e.launchConfusion(obs, &imm)
	}
	if switched {
		e.launchContextChange(obs, &imm)
	}
	if e.summarizer.ShouldSummarize(e.sess, taskClosed, obs.Timestamp) {
		e.launchSummary(obs.Timestamp)
	}

	e.prevObs = obs
	e.lastObsTime = obs.Timestamp
	e.emit(Event{Type: EventObservation, At: obs.Timestamp, SessionID: e.sess.SessionID})
}

// handleBoundaries applies detector events to the session, persists the
// affected tasks, and fans the events out. Returns whether a task closed.
func (e *Engine) handleBoundaries(events []task.BoundaryEvent) bool {
	closed := false
	for i := range events {
		evt := events[i]
		e.sess.OnTaskBoundary(evt)

		switch evt.Type {
		case task.EventTaskEnded:
			closed = true
			if evt.Task.Name == "" {
				evt.Task.Name = fallbackName(evt.Task)
			}
			e.saveTask(evt.Task)
			e.launchNaming(evt.Task)
		case task.EventTaskMerged:
			e.saveTask(evt.Task)
			if err := e.stores.Tasks.Delete(context.Background(), evt.MergedID); err != nil {
				e.logger.Printf("warning: deleting merged task %s: %v", evt.MergedID, err)
			}
		default:
			e.saveTask(evt.Task)
		}

		e.emit(Event{Type: EventTaskBoundary, At: evt.At, SessionID: e.sess.SessionID, Boundary: &evt})
	}
	if len(events) > 0 {
		if err := e.stores.Sessions.Save(context.Background(), e.sess); err != nil {
			e.logger.Printf("warning: saving session: %v", err)
		}
	}
	return closed
}

// saveTask persists a task, logging rather than failing the pipeline on
// storage errors. In-memory state is kept so a later save retries.
func (e *Engine) saveTask(t *task.Task) {
	if err := e.stores.Tasks.Save(context.Background(), t); err != nil {
		e.logger.Printf("warning: saving task %s: %v", t.ID, err)
	}
}

func (e *Engine) launchConfusion(obs *observe.Observation, imm *observe.ImmediateContext) {
	if !e.confusionBusy.CompareAndSwap(false, true) {
		return
	}
	bundle := e.assembler.Assemble(imm, e.sess, e.hist)
	taskID := e.currentTaskID()
	obsTime := obs.Timestamp

	go func() {
		res, err := e.reasoner.EvaluateConfusion(e.runCtx, bundle.Prompt(), bundle.ImageURLs)
		e.confusionBusy.Store(false)
		if err != nil {
			e.logger.Printf("confusion evaluation skipped: %v", err)
			return
		}
		e.sendApply(func() { e.applyConfusion(res, taskID, obsTime) })
	}()
}

// applyConfusion lands a confusion result on the loop goroutine. The
// result is keyed to the task that was current at launch; if that task is
// gone the delta is dropped.
func (e *Engine) applyConfusion(res reason.ConfusionResult, taskID string, at time.Time) {
	if e.currentTaskID() != taskID {
		return
	}
	if !res.Confused {
		if res.Understanding != "" && res.Understanding != e.sess.TaskTheory() {
			e.sess.SetTaskTheory(res.Understanding)
			e.emit(Event{Type: EventTheoryUpdated, At: at, SessionID: e.sess.SessionID, Theory: res.Understanding})
		}
		return
	}

	sig := e.evaluator.Evaluate(res)
	if sig == nil {
		return
	}
	now := e.lastObsTime
	if !e.throttler.ShouldAsk(sig, e.sess, now) {
		return
	}
	q := e.throttler.Accept(sig, e.sess, now)
	if err := e.stores.Questions.Create(context.Background(), q); err != nil {
		e.logger.Printf("warning: saving question: %v", err)
	}
	e.emit(Event{Type: EventQuestionRaised, At: now, SessionID: e.sess.SessionID, Question: q})
}

func (e *Engine) launchContextChange(obs *observe.Observation, imm *observe.ImmediateContext) {
	if !e.contextBusy.CompareAndSwap(false, true) {
		return
	}
	theory := e.sess.TaskTheory()
	activity := recentActivity(imm)
	taskID := e.currentTaskID()
	obsTime := obs.Timestamp

	go func() {
		res, err := e.reasoner.EvaluateContextChange(e.runCtx, theory, activity)
		e.contextBusy.Store(false)
		if err != nil {
			e.logger.Printf("context-change evaluation skipped: %v", err)
			return
		}
		e.sendApply(func() { e.applyContextChange(res, taskID, obsTime) })
	}()
}

// applyContextChange lands a context-change verdict, dropped if the task
// it was evaluated against is no longer current.
func (e *Engine) applyContextChange(res reason.ContextChangeResult, taskID string, at time.Time) {
	if e.currentTaskID() != taskID {
		return
	}
	events := e.detector.OnContextChange(res.SameTask, res.Confidence, e.cfg.ConfidenceThreshold, at)
	e.handleBoundaries(events)
}

func (e *Engine) launchSummary(now time.Time) {
	if !e.summaryBusy.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer e.summaryBusy.Store(false)
		answered, err := e.stores.Questions.CountAnswered(context.Background(), e.sess.SessionID)
		if err != nil {
			e.logger.Printf("summary skipped: %v", err)
			return
		}
		sum, err := e.summarizer.Summarize(e.runCtx, e.sess, answered, now)
		if err != nil {
			e.logger.Printf("summary skipped: %v", err)
			return
		}
		e.sendApply(func() {
			e.emit(Event{Type: EventSummaryCreated, At: now, SessionID: e.sess.SessionID, Summary: sum})
		})
	}()
}

// launchNaming asks the reasoning collaborator for a task label. Failure
// leaves the fallback name in place.
func (e *Engine) launchNaming(t *task.Task) {
	apps := make([]string, 0, len(t.Segments))
	titles := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		apps = append(apps, seg.App)
		if seg.WindowTitle != "" {
			titles = append(titles, seg.WindowTitle)
		}
	}
	baseline := ""
	if e.hist != nil {
		baseline = e.hist.InterviewSummary
	}
	taskID := t.ID

	go func() {
		name, err := e.reasoner.NameTask(e.runCtx, apps, titles, baseline)
		if err != nil {
			e.logger.Printf("task %s keeps fallback name: %v", taskID, err)
			return
		}
		e.sendApply(func() {
			named := e.findSessionTask(taskID)
			if named == nil {
				return
			}
			named.Name = name
			e.saveTask(named)
			e.emit(Event{Type: EventTaskRenamed, At: e.lastObsTime, SessionID: e.sess.SessionID, Task: named})
		})
	}()
}

// shutdown closes the active task, writes a final summary, and ends the
// session record. In-flight reasoning results are dropped.
func (e *Engine) shutdown() error {
	e.handleBoundaries(e.detector.Close())

	endTime := e.lastObsTime
	if endTime.IsZero() {
		endTime = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if len(e.sess.Tasks()) > 0 {
		answered, err := e.stores.Questions.CountAnswered(ctx, e.sess.SessionID)
		if err == nil {
			if sum, err := e.summarizer.Summarize(ctx, e.sess, answered, endTime); err == nil {
				e.emit(Event{Type: EventSummaryCreated, At: endTime, SessionID: e.sess.SessionID, Summary: sum})
			} else {
				e.logger.Printf("final summary skipped: %v", err)
			}
		}
	}

	if err := e.stores.Sessions.Save(ctx, e.sess); err != nil {
		e.logger.Printf("warning: saving session at shutdown: %v", err)
	}
	if err := e.stores.Sessions.End(ctx, e.sess.SessionID, endTime); err != nil {
		e.logger.Printf("warning: ending session record: %v", err)
	}

	e.emit(Event{Type: EventSessionEnded, At: endTime, SessionID: e.sess.SessionID})
	close(e.events)
	return nil
}

// sendApply hands a delta back to the loop goroutine. Deltas are dropped
// if the engine is shutting down.
func (e *Engine) sendApply(apply func()) {
	select {
	case e.applyCh <- apply:
	case <-e.runCtx.Done():
	}
}

func (e *Engine) currentTaskID() string {
	if t := e.detector.Current(); t != nil {
		return t.ID
	}
	return ""
}

func (e *Engine) findSessionTask(id string) *task.Task {
	for _, t := range e.sess.Tasks() {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// emit fans an event out without blocking the loop. A full buffer means
// the consumer fell behind; the event is dropped and logged.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.logger.Printf("warning: dropping %s event, consumer behind", ev.Type)
	}
}

func fallbackName(t *task.Task) string {
	if app := t.DominantApp(); app != "" {
		return app + " work"
	}
	return "untitled work"
}

func recentActivity(imm *observe.ImmediateContext) string {
	var lines []string
	for _, obs := range imm.Buffer {
		line := obs.Timestamp.Format("15:04:05") + " " + obs.ActiveApp
		if obs.WindowTitle != "" {
			line += " (" + obs.WindowTitle + ")"
		}
		lines = append(lines, line)
	}
	if imm.LastChangeDescription != "" {
		lines = append(lines, "last change: "+imm.LastChangeDescription)
	}
	return strings.Join(lines, "\n")
}
