package world

// State is the closed set of FSM states. Every switch over State handles
// each value; reaching a default branch is a programming error.
type State uint8

const (
	StateIdle State = iota
	StateMoving
	StateCasting
	StateDead
	StateTrading
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateMoving:
		return "MOVING"
	case StateCasting:
		return "CASTING"
	case StateDead:
		return "DEAD"
	case StateTrading:
		return "TRADING"
	}
	return "INVALID"
}
