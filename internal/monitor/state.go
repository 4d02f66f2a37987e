package monitor

// State is a step of the monitoring loop
type State int

const (
	Polling State = iota
	Evaluating
	Alerted
	Sleeping
	Stopped
)

func (s State) String() string {
	switch s {
	case Polling:
		return "polling"
	case Evaluating:
		return "evaluating"
	case Alerted:
		return "alerted"
	case Sleeping:
		return "sleeping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
