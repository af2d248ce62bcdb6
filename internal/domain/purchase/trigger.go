package purchase

// Trigger represents a user action that can cause a step transition
type Trigger string

const (
	TriggerNext Trigger = "NEXT"
	TriggerBack Trigger = "BACK"
	TriggerPay  Trigger = "PAY"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
