package assemble

// State is a step of the assembly state machine. A run starts in Loading,
// walks each record through Filtering to Emitting, and ends in Done.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateFiltering
	StateDeduplicating
	StateClassifying
	StateScoring
	StateEmitting
	StateDone
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateLoading:       "loading",
	StateFiltering:     "filtering",
	StateDeduplicating: "deduplicating",
	StateClassifying:   "classifying",
	StateScoring:       "scoring",
	StateEmitting:      "emitting",
	StateDone:          "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// next returns the state that follows s for a record that passed s.
func (s State) next() State {
	switch s {
	case StateLoading:
		return StateFiltering
	case StateFiltering:
		return StateDeduplicating
	case StateDeduplicating:
		return StateClassifying
	case StateClassifying:
		return StateScoring
	case StateScoring:
		return StateEmitting
	default:
		return StateDone
	}
}
