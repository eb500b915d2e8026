package daily

// State is a step of the daily run.
type State int

const (
	StateInit State = iota
	StateValidating
	StateLoading
	StateSelecting
	StateGeneratingSolution
	StateGeneratingTip
	StateFormatting
	StatePublishing
	StatePersisting
	StateDone
	StateAborted
)

var stateNames = [...]string{
	StateInit:               "init",
	StateValidating:         "validating",
	StateLoading:            "loading",
	StateSelecting:          "selecting",
	StateGeneratingSolution: "generating_solution",
	StateGeneratingTip:      "generating_tip",
	StateFormatting:         "formatting",
	StatePublishing:         "publishing",
	StatePersisting:         "persisting",
	StateDone:               "done",
	StateAborted:            "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
