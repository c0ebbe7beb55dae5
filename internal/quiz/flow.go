// Package quiz drives the linear recipient-then-questions intake flow.
package quiz

import (
	"fmt"
	"sync"
	"time"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
)

// TransitionDelay is the pause between answering and showing the next question.
const TransitionDelay = 300 * time.Millisecond

// Stage is the flow's current screen.
type Stage string

const (
	StageRecipient Stage = "recipient" // choosing or creating a recipient
	StageQuestion  Stage = "question"
	StageComplete  Stage = "complete"
	StageExited    Stage = "exited"
)

// Result is the completion payload.
type Result struct {
	Answers   map[int]string `json:"answers"`
	Recipient gift.Recipient `json:"recipient"`
}

// Timer is the handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. time.AfterFunc satisfies it via AfterFunc.
type Scheduler func(d time.Duration, f func()) Timer

// AfterFunc schedules with time.AfterFunc.
func AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type immediateTimer struct{}

func (immediateTimer) Stop() bool { return false }

// Immediate runs f synchronously, skipping the transition delay.
func Immediate(_ time.Duration, f func()) Timer {
	f()
	return immediateTimer{}
}

// Option configures a Flow.
type Option func(*Flow)

// WithScheduler replaces the default time.AfterFunc scheduler.
func WithScheduler(s Scheduler) Option {
	return func(f *Flow) { f.schedule = s }
}

// WithOnComplete sets the completion callback.
func WithOnComplete(fn func(Result)) Option {
	return func(f *Flow) { f.onComplete = fn }
}

// WithOnExit sets the callback invoked when Back leaves the flow.
func WithOnExit(fn func()) Option {
	return func(f *Flow) { f.onExit = fn }
}

// Flow is the quiz state machine. It is safe for concurrent use; callbacks
// run without the lock held.
type Flow struct {
	mu        sync.Mutex
	questions []gift.Question
	stage     Stage
	current   int
	answers   map[int]string
	recipient *gift.Recipient
	pending   Timer
	gen       int // invalidates stale transitions after Back

	schedule   Scheduler
	onComplete func(Result)
	onExit     func()
}

// NewFlow starts a flow in the recipient stage.
func NewFlow(questions []gift.Question, opts ...Option) *Flow {
	f := &Flow{
		questions: questions,
		stage:     StageRecipient,
		answers:   make(map[int]string),
		schedule:  AfterFunc,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Stage returns the current stage.
func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Current returns the index of the question on screen.
func (f *Flow) Current() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Question returns the question on screen.
func (f *Flow) Question() (gift.Question, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage != StageQuestion {
		return gift.Question{}, false
	}
	return f.questions[f.current], true
}

// Answers returns a copy of the retained answer history.
func (f *Flow) Answers() map[int]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyAnswers(f.answers)
}

// Pending reports whether a transition is scheduled.
func (f *Flow) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending != nil
}

// SelectRecipient picks the recipient and shows the first question.
func (f *Flow) SelectRecipient(r gift.Recipient) error {
	f.mu.Lock()
	if f.stage != StageRecipient {
		f.mu.Unlock()
		return errors.NewInvalidRequest(fmt.Sprintf("cannot select recipient in %s stage", f.stage))
	}
	if r.ID == "" {
		f.mu.Unlock()
		return errors.NewInvalidRequest("recipient id is required")
	}
	f.recipient = &r
	f.current = 0
	f.stage = StageQuestion
	empty := len(f.questions) == 0
	if empty {
		f.stage = StageComplete
	}
	res := f.resultLocked()
	onComplete := f.onComplete
	f.mu.Unlock()

	if empty && onComplete != nil {
		onComplete(res)
	}
	return nil
}

// Answer records choice for question index and schedules the advance.
// Only the question on screen can be answered; earlier answers are changed
// by going Back and answering again, which keeps later answers intact.
func (f *Flow) Answer(index int, choice string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stage != StageQuestion {
		return errors.NewInvalidRequest(fmt.Sprintf("cannot answer in %s stage", f.stage))
	}
	if f.pending != nil {
		return errors.NewConflict("transition in progress")
	}
	if index != f.current {
		return errors.NewInvalidRequest(fmt.Sprintf("question %d is not on screen (current %d)", index, f.current))
	}
	if !f.questions[index].HasOption(choice) {
		return errors.NewInvalidRequest(fmt.Sprintf("%q is not an option for question %d", choice, index))
	}

	f.answers[index] = choice
	gen := f.gen
	f.pending = pendingMarker{}
	// Unlock around scheduling: Immediate runs advance inline.
	f.mu.Unlock()
	t := f.schedule(TransitionDelay, func() { f.advance(gen) })
	f.mu.Lock()
	if f.gen == gen && f.pending != nil {
		f.pending = t
	}
	return nil
}

type pendingMarker struct{}

func (pendingMarker) Stop() bool { return false }

// advance moves to the next question or completes the flow.
func (f *Flow) advance(gen int) {
	f.mu.Lock()
	if gen != f.gen || f.stage != StageQuestion {
		f.mu.Unlock()
		return
	}
	f.pending = nil
	f.gen++

	if f.current < len(f.questions)-1 {
		f.current++
		f.mu.Unlock()
		return
	}

	f.stage = StageComplete
	res := f.resultLocked()
	onComplete := f.onComplete
	f.mu.Unlock()

	if onComplete != nil {
		onComplete(res)
	}
}

// Back navigates one step: previous question, then recipient selection,
// then out of the flow. A pending transition is cancelled.
func (f *Flow) Back() {
	f.mu.Lock()
	if f.pending != nil {
		f.pending.Stop()
		f.pending = nil
	}
	f.gen++

	var onExit func()
	switch f.stage {
	case StageQuestion:
		if f.current > 0 {
			f.current--
		} else {
			f.stage = StageRecipient
		}
	case StageRecipient:
		f.stage = StageExited
		onExit = f.onExit
	}
	f.mu.Unlock()

	if onExit != nil {
		onExit()
	}
}

// Result returns the completion payload once the flow is complete.
func (f *Flow) Result() (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage != StageComplete {
		return Result{}, false
	}
	return f.resultLocked(), true
}

func (f *Flow) resultLocked() Result {
	res := Result{Answers: copyAnswers(f.answers)}
	if f.recipient != nil {
		res.Recipient = *f.recipient
	}
	return res
}

func copyAnswers(m map[int]string) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Complete runs a whole flow synchronously for front ends that collect all
// answers at once (web form, MCP). answers is keyed by question index.
func Complete(questions []gift.Question, recipient gift.Recipient, answers map[int]string) (Result, error) {
	f := NewFlow(questions, WithScheduler(Immediate))
	if err := f.SelectRecipient(recipient); err != nil {
		return Result{}, err
	}
	for i := range questions {
		choice, ok := answers[i]
		if !ok {
			return Result{}, errors.NewInvalidRequest(fmt.Sprintf("question %d is unanswered", i))
		}
		if err := f.Answer(i, choice); err != nil {
			return Result{}, err
		}
	}
	res, ok := f.Result()
	if !ok {
		return Result{}, errors.NewInternal(fmt.Errorf("quiz did not complete"))
	}
	return res, nil
}
