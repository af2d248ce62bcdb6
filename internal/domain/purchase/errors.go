package purchase

import "github.com/datapadi/web/internal/domain/shared"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted in the current step
	ErrInvalidTransition = shared.NewDomainError(shared.CodeInvalidState, "invalid step transition")

	// ErrUnknownKind is returned for an unsupported flow kind
	ErrUnknownKind = shared.NewDomainError(shared.CodeInvalidInput, "unknown purchase flow")
)

func invalidTransition(trigger Trigger, from State) error {
	return shared.NewDomainError(shared.CodeInvalidState,
		"cannot "+trigger.String()+" from step "+from.String())
}
