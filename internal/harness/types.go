package harness

import "github.com/isleshocky77/crmsetup/internal/install"

// TraceEvent is one hook firing observed during a scenario.
type TraceEvent struct {
	Run     string `json:"run"`
	Hook    string `json:"hook"`
	Subject string `json:"subject,omitempty"`
	Seq     int64  `json:"seq"`
}

// key identifies the event for trace_order. Events with a subject are
// written "hook:subject".
func (e TraceEvent) key() string {
	if e.Subject == "" {
		return e.Hook
	}
	return e.Hook + ":" + e.Subject
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every run matched its expectations and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace holds hook firings of all runs in firing order.
	Trace []TraceEvent `json:"trace"`

	// Runs holds one report per scenario run, keyed by run name.
	Runs map[string]install.Report `json:"runs"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Runs:   make(map[string]install.Report),
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addTrace appends a hook firing with the next sequence number.
func (r *Result) addTrace(run, hook, subject string) {
	r.Trace = append(r.Trace, TraceEvent{
		Run:     run,
		Hook:    hook,
		Subject: subject,
		Seq:     int64(len(r.Trace) + 1),
	})
}
