package cpu

// State is the execution state of the CPU.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_RUNNING = State(0) // running
	STATE_HALTED  = State(1) // halted
	STATE_FAULTED = State(2) // faulted
)

// Terminal returns true once no further instructions can execute.
func (state State) Terminal() bool {
	return state != STATE_RUNNING
}
