package fetcher

// State is a step in the per-document fetch loop.
type State int

// Fetch loop states.
const (
	StateFetching State = iota
	StateTriggering
	StateWaitingForConversion
	StateDone
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateTriggering:
		return "triggering"
	case StateWaitingForConversion:
		return "waiting_for_conversion"
	case StateDone:
		return "done"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// machine tracks the attempt budget for one document.
type machine struct {
	state       State
	attempts    int
	maxAttempts int
	canTrigger  bool
}

func newMachine(maxAttempts int, canTrigger bool) *machine {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &machine{
		state:       StateFetching,
		maxAttempts: maxAttempts,
		canTrigger:  canTrigger,
	}
}

// fetched records the outcome of one fetch attempt.
func (m *machine) fetched(gotText bool) State {
	m.attempts++
	switch {
	case gotText:
		m.state = StateDone
	case m.attempts >= m.maxAttempts:
		m.state = StateExhausted
	case m.canTrigger:
		m.state = StateTriggering
	default:
		m.state = StateFetching
	}
	return m.state
}

// triggered moves on to the wait regardless of the trigger's result.
func (m *machine) triggered() State {
	m.state = StateWaitingForConversion
	return m.state
}

// waited resumes fetching, or gives up when the wait was interrupted.
func (m *machine) waited(err error) State {
	if err != nil {
		m.state = StateExhausted
		return m.state
	}
	m.state = StateFetching
	return m.state
}
