package purchase

// State represents a step of a purchase flow
type State string

const (
	StateSelectProvider State = "SELECT_PROVIDER"
	StateEnterDetails   State = "ENTER_DETAILS"
	StateValidate       State = "VALIDATE"
	StateConfirm        State = "CONFIRM"
	StateSuccess        State = "SUCCESS"
)

var validStates = map[State]bool{
	StateSelectProvider: true,
	StateEnterDetails:   true,
	StateValidate:       true,
	StateConfirm:        true,
	StateSuccess:        true,
}

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return s == StateSuccess
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid flow state
func (s State) IsValid() bool {
	return validStates[s]
}
