package harness

// Trace entry types.
const (
	TraceStep     = "step"     // a flow step submitted to the engine
	TraceCallback = "callback" // a listener callback fired by a session
)

// Callback names recorded in the trace. Step entries are named after the
// flow action instead.
const (
	CallbackDragStarted = "drag_started"
	CallbackDragEnded   = "drag_ended"
	CallbackReordered   = "reordered"
	CallbackInvalidDrop = "invalid_drop"
	CallbackDropped     = "dropped"
	CallbackMalformed   = "malformed"
)

// TraceEvent is one trace entry: a flow step with the engine's answer, or a
// listener callback the step caused.
type TraceEvent struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Surface string   `json:"surface"`
	Item    string   `json:"item,omitempty"`
	Target  string   `json:"target,omitempty"`
	Gesture string   `json:"gesture,omitempty"`
	Outcome string   `json:"outcome,omitempty"`
	Detail  string   `json:"detail,omitempty"`
	Order   []string `json:"order,omitempty"`
	Seq     int64    `json:"seq"`
}

// Result is what one scenario run produced. Pass is false as soon as any
// step expectation or assertion failed; Errors then says which.
type Result struct {
	Pass   bool                `json:"pass"`
	Trace  []TraceEvent        `json:"trace"`
	Errors []string            `json:"errors,omitempty"`
	State  map[string][]string `json:"state,omitempty"` // surface id to final order
}

// NewResult returns an empty passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  map[string][]string{},
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Pass = false
	r.Errors = append(r.Errors, err)
}
