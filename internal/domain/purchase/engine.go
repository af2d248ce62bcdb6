package purchase

import (
	"context"
	"strings"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/domain/voucher"
)

// Engine holds one machine per flow kind. All four flows share the same
// step graph; they differ only in their guards.
type Engine struct {
	currency valueobject.Currency
	machines map[Kind]*Machine
}

// NewEngine builds the machines for every flow kind
func NewEngine(currency valueobject.Currency) *Engine {
	e := &Engine{currency: currency, machines: make(map[Kind]*Machine, 4)}
	for _, k := range []Kind{KindData, KindAirtime, KindElectricity, KindCable} {
		e.machines[k] = e.build(k)
	}
	return e
}

// Machine returns the machine for a kind
func (e *Engine) Machine(kind Kind) (*Machine, error) {
	m, ok := e.machines[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return m, nil
}

// Fire applies a trigger to the session using the machine of its kind
func (e *Engine) Fire(ctx context.Context, s *Session, trigger Trigger) error {
	m, err := e.Machine(s.Kind)
	if err != nil {
		return err
	}
	return m.Fire(ctx, s, trigger)
}

// CanFire reports whether the trigger is configured for the session's step
func (e *Engine) CanFire(s *Session, trigger Trigger) bool {
	m, err := e.Machine(s.Kind)
	if err != nil {
		return false
	}
	return m.CanFire(s, trigger)
}

// CheckDetails runs the details guard without moving the session
func (e *Engine) CheckDetails(s *Session) error {
	return e.detailsGuard(s.Kind)(context.Background(), s)
}

func (e *Engine) build(kind Kind) *Machine {
	b := NewBuilder()

	b.Configure(StateSelectProvider).
		PermitIf(TriggerNext, StateEnterDetails, e.providerGuard(kind))

	details := b.Configure(StateEnterDetails).
		Permit(TriggerBack, StateSelectProvider).
		OnEntry(func(s *Session) { s.Draft.clearVerification() })

	if kind.RequiresValidation() {
		details.PermitIf(TriggerNext, StateValidate, e.detailsGuard(kind))

		b.Configure(StateValidate).
			PermitIf(TriggerNext, StateConfirm, verifiedGuard).
			Permit(TriggerBack, StateEnterDetails)

		b.Configure(StateConfirm).
			PermitIf(TriggerPay, StateSuccess, receiptGuard).
			Permit(TriggerBack, StateEnterDetails)
	} else {
		details.PermitIf(TriggerNext, StateConfirm, e.detailsGuard(kind))

		b.Configure(StateConfirm).
			PermitIf(TriggerPay, StateSuccess, receiptGuard).
			Permit(TriggerBack, StateEnterDetails)
	}

	return b.Build()
}

func (e *Engine) providerGuard(kind Kind) GuardFunc {
	return func(_ context.Context, s *Session) error {
		code := strings.TrimSpace(s.Draft.Provider.Code)
		if code == "" {
			return shared.NewValidationError("select a provider to continue")
		}
		switch kind {
		case KindData, KindAirtime:
			if !voucher.ParseNetwork(code).IsValid() {
				return shared.NewValidationError("unsupported network: " + code)
			}
		case KindCable:
			if !IsCableProvider(code) {
				return shared.NewValidationError("unsupported cable provider: " + code)
			}
		}
		return nil
	}
}

func (e *Engine) detailsGuard(kind Kind) GuardFunc {
	return func(_ context.Context, s *Session) error {
		d := s.Draft
		switch kind {
		case KindData:
			if d.ProductCode == "" {
				return shared.NewValidationError("select a data plan to continue")
			}
		case KindAirtime:
			if err := ValidateAmount(d.Amount, AirtimeLimits.Intersect(d.Provider.Limits), e.currency); err != nil {
				return err
			}
		case KindElectricity:
			if err := ValidateMeter(d.MeterNumber, d.MeterType); err != nil {
				return err
			}
			if err := ValidateAmount(d.Amount, ElectricityLimits.Intersect(d.Provider.Limits), e.currency); err != nil {
				return err
			}
		case KindCable:
			if err := ValidateSmartCard(d.SmartCard); err != nil {
				return err
			}
			if d.ProductCode == "" {
				return shared.NewValidationError("select a package to continue")
			}
		}
		return ValidatePhone(d.Phone)
	}
}

func verifiedGuard(_ context.Context, s *Session) error {
	if !s.Draft.Verified {
		return shared.NewValidationError("verify the customer details to continue")
	}
	return nil
}

func receiptGuard(_ context.Context, s *Session) error {
	if s.Receipt == nil {
		return shared.NewValidationError("payment has not been completed")
	}
	return nil
}
