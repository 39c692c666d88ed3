package pipeline

// State is a phase of one job.
type State string

const (
	StateReceived   State = "RECEIVED"
	StateProbing    State = "PROBING"
	StateEncoding   State = "ENCODING"
	StateAssembling State = "ASSEMBLING"
	StateUploading  State = "UPLOADING"
	StateCompleted  State = "COMPLETED"
	StateError      State = "ERROR"
)

var next = map[State]State{
	StateReceived:   StateProbing,
	StateProbing:    StateEncoding,
	StateEncoding:   StateAssembling,
	StateAssembling: StateUploading,
	StateUploading:  StateCompleted,
}

// CanTransition reports whether from → to is a legal edge. ERROR is
// reachable from every non-terminal state.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	return to == StateError || next[from] == to
}

// Terminal reports whether s absorbs the job.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError
}
