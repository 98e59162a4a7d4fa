package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
)

// celCostLimit bounds custom expression evaluation so a pathological
// expression cannot stall an evaluation pass.
const celCostLimit = 100000

// Evaluator selects status transitions from an effective rule list. Both
// entry points are total: malformed rules simply never match, and no input
// makes them panic. The only internal state is the compiled-expression
// cache for custom CEL conditions, guarded for concurrent use.
type Evaluator struct {
	env *cel.Env
	now func() time.Time

	mu       sync.RWMutex
	programs map[string]cel.Program // expression -> compiled program
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock replaces the evaluator's time source. Inactivity math is the
// only consumer.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

// NewEvaluator builds an Evaluator with a CEL environment exposing Work and
// Context facts to custom rule expressions.
func NewEvaluator(opts ...Option) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("Work", cel.DynType),
		cel.Variable("Context", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &Evaluator{
		env:      env,
		now:      time.Now,
		programs: make(map[string]cel.Program),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EvaluateChapterRead returns the transition a chapter-read event proposes
// for the work, or nil when no enabled rule applies. The rule list must
// already be priority-ordered (MergeRules output); the first applicant
// wins.
func (e *Evaluator) EvaluateChapterRead(work Work, ctx ChapterReadContext, rules []Rule) *Decision {
	for _, r := range rules {
		if !r.Enabled || r.Trigger != TriggerChapterRead {
			continue
		}
		if !statusMatches(r, work.ReadingStatus) {
			continue
		}
		if !matchBool(r.Conditions.RequireLatestChapter, ctx.IsLatestChapter) {
			continue
		}
		if !matchBool(r.Conditions.RequireStoryComplete, ctx.IsStoryComplete) {
			continue
		}
		if !e.expressionMatches(r, work, &ctx) {
			continue
		}
		return &Decision{ToStatus: r.ToStatus, RuleID: r.ID, RuleName: r.Name}
	}
	return nil
}

// EvaluateInactivity returns the transition the inactivity sweep proposes
// for the work, or nil. Days since last access count from the most recent
// of last access, last update and added-at; a work with none of those
// recorded counts as touched right now.
func (e *Evaluator) EvaluateInactivity(work Work, rules []Rule) *Decision {
	now := e.now()
	last := latestTime(work.LastAccessedAt, work.LastUpdatedAt, work.AddedAt)
	if last.IsZero() {
		last = now
	}
	days := now.Sub(last).Hours() / 24
	chaptersRead := work.LastReadChapter
	if work.CurrentChapter > chaptersRead {
		chaptersRead = work.CurrentChapter
	}

	for _, r := range rules {
		if !r.Enabled || r.Trigger != TriggerInactivity {
			continue
		}
		if !statusMatches(r, work.ReadingStatus) {
			continue
		}
		if days < r.Conditions.InactivityDays {
			continue
		}
		if min := r.Conditions.ChaptersReadMin; min != nil && chaptersRead < *min {
			continue
		}
		if max := r.Conditions.ChaptersReadMax; max != nil && chaptersRead > *max {
			continue
		}
		if !e.expressionMatches(r, work, nil) {
			continue
		}
		return &Decision{ToStatus: r.ToStatus, RuleID: r.ID, RuleName: r.Name}
	}
	return nil
}

// CheckExpression compiles a custom rule expression without evaluating it.
// The settings surface uses this to reject broken expressions before they
// are persisted; the evaluator itself stays permissive.
func (e *Evaluator) CheckExpression(expression string) error {
	if expression == "" {
		return nil
	}
	_, err := e.program(expression)
	return err
}

// statusMatches applies the from/exclude sets. Exclusions always
// disqualify first; the wildcard "*" matches any status; an empty from set
// matches nothing.
func statusMatches(r Rule, status string) bool {
	for _, ex := range r.ExcludeStatuses {
		if ex == status {
			return false
		}
	}
	for _, from := range r.FromStatuses {
		if from == "*" || from == status {
			return true
		}
	}
	return false
}

// matchBool checks an optional boolean condition: nil means don't care,
// otherwise the context value must equal it exactly.
func matchBool(want *bool, got bool) bool {
	return want == nil || *want == got
}

// expressionMatches evaluates a custom rule's CEL condition against the
// work and event facts. Rules without an expression pass. A compile or
// evaluation failure, or a non-boolean result, makes the rule not match;
// the evaluator never surfaces the error.
func (e *Evaluator) expressionMatches(r Rule, work Work, ctx *ChapterReadContext) bool {
	if r.Expression == "" {
		return true
	}

	prog, err := e.program(r.Expression)
	if err != nil {
		return false
	}

	facts := map[string]any{
		"Work": map[string]any{
			"readingStatus":   work.ReadingStatus,
			"rereading":       work.Rereading,
			"lastReadChapter": work.LastReadChapter,
			"currentChapter":  work.CurrentChapter,
			"lastAccessedAt":  work.LastAccessedAt,
			"lastUpdatedAt":   work.LastUpdatedAt,
			"addedAt":         work.AddedAt,
		},
	}
	if ctx != nil {
		facts["Context"] = map[string]any{
			"isLatestChapter": ctx.IsLatestChapter,
			"isStoryComplete": ctx.IsStoryComplete,
		}
	} else {
		facts["Context"] = map[string]any{}
	}

	out, _, err := prog.Eval(facts)
	if err != nil {
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}

// program returns the compiled program for an expression, compiling and
// caching it on first use.
func (e *Evaluator) program(expression string) (cel.Program, error) {
	e.mu.RLock()
	prog, ok := e.programs[expression]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prog, err := e.env.Program(ast, cel.CostLimit(celCostLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	e.mu.Lock()
	e.programs[expression] = prog
	e.mu.Unlock()
	return prog, nil
}

func latestTime(ts ...time.Time) time.Time {
	var out time.Time
	for _, t := range ts {
		if t.After(out) {
			out = t
		}
	}
	return out
}
