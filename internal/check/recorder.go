package check

import (
	"fmt"
	"sync"
)

// Result is one recorded check.
type Result struct {
	Iteration string
	Scenario  string
	Name      string
	Outcome
}

// Recorder collects check results for one iteration. Create a new recorder
// per iteration so counters never carry over.
type Recorder struct {
	mu        sync.Mutex
	iteration string
	scenario  string
	results   []Result
	observers []func(Result)
}

// NewRecorder creates an empty recorder.
func NewRecorder(iterationID string) *Recorder {
	return &Recorder{iteration: iterationID}
}

// Scenario sets the scenario subsequent checks are filed under.
func (r *Recorder) Scenario(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenario = name
}

// CurrentScenario returns the active scenario name.
func (r *Recorder) CurrentScenario() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scenario
}

// OnResult registers fn to be called with every recorded result.
func (r *Recorder) OnResult(fn func(Result)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Check evaluates and records each property. It reports whether all passed.
func (r *Recorder) Check(props ...Property) bool {
	all := true
	for _, p := range props {
		res := Result{Name: p.Name, Outcome: evaluate(p)}

		r.mu.Lock()
		res.Iteration = r.iteration
		res.Scenario = r.scenario
		r.results = append(r.results, res)
		observers := r.observers
		r.mu.Unlock()

		for _, fn := range observers {
			fn(res)
		}
		all = all && res.Passed
	}
	return all
}

func evaluate(p Property) (out Outcome) {
	if p.Eval == nil {
		return Fail(ReasonAssertion, "predicate", "nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = Fail(ReasonAssertion, "no panic", fmt.Sprint(rec))
		}
	}()
	return p.Eval()
}

// Report snapshots the recorded results.
func (r *Recorder) Report() *Report {
	r.mu.Lock()
	results := append([]Result(nil), r.results...)
	r.mu.Unlock()
	return NewReport(results)
}

// Reset discards all results and the current scenario.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = nil
	r.scenario = ""
}
