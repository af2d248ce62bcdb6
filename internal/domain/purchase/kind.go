package purchase

import "strings"

// Kind identifies a purchase flow
type Kind string

const (
	KindData        Kind = "DATA"
	KindAirtime     Kind = "AIRTIME"
	KindElectricity Kind = "ELECTRICITY"
	KindCable       Kind = "CABLE"
)

// ParseKind parses a flow kind case-insensitively
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrUnknownKind
	}
	return k, nil
}

// IsValid checks if the Kind is a valid value
func (k Kind) IsValid() bool {
	switch k {
	case KindData, KindAirtime, KindElectricity, KindCable:
		return true
	}
	return false
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// RequiresValidation returns true if the flow verifies the customer with
// the provider before the confirmation step
func (k Kind) RequiresValidation() bool {
	return k == KindElectricity || k == KindCable
}

// Steps returns the ordered steps of the flow
func (k Kind) Steps() []State {
	if k.RequiresValidation() {
		return []State{StateSelectProvider, StateEnterDetails, StateValidate, StateConfirm, StateSuccess}
	}
	return []State{StateSelectProvider, StateEnterDetails, StateConfirm, StateSuccess}
}
