package purchase

import (
	"context"
	"errors"
	"testing"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_IsTerminal(t *testing.T) {
	for _, s := range []State{StateSelectProvider, StateEnterDetails, StateValidate, StateConfirm} {
		assert.False(t, s.IsTerminal(), s)
	}
	assert.True(t, StateSuccess.IsTerminal())
	assert.False(t, State("DONE").IsValid())
}

func TestMachine_FireUnconfiguredTrigger(t *testing.T) {
	m := NewBuilder().Build()
	s := &Session{State: StateConfirm}

	err := m.Fire(context.Background(), s, TriggerPay)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, StateConfirm, s.State)
	assert.Empty(t, s.Error)
}

func TestMachine_GuardOrder(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateEnterDetails).
		PermitIf(TriggerNext, StateValidate, func(context.Context, *Session) error {
			return shared.NewValidationError("first")
		}).
		PermitIf(TriggerNext, StateConfirm, nil)
	m := b.Build()

	s := &Session{State: StateEnterDetails}
	require.NoError(t, m.Fire(context.Background(), s, TriggerNext))
	assert.Equal(t, StateConfirm, s.State)
}

func TestMachine_AllGuardsFailKeepsState(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateEnterDetails).
		PermitIf(TriggerNext, StateConfirm, func(context.Context, *Session) error {
			return shared.NewValidationError("phone number is required")
		})
	m := b.Build()

	s := &Session{State: StateEnterDetails}
	err := m.Fire(context.Background(), s, TriggerNext)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Equal(t, StateEnterDetails, s.State)
	assert.Equal(t, "phone number is required", s.Error)
}

func TestMachine_OnEntryAndErrorReset(t *testing.T) {
	entered := 0
	b := NewBuilder()
	b.Configure(StateConfirm).Permit(TriggerBack, StateEnterDetails)
	b.Configure(StateEnterDetails).OnEntry(func(*Session) { entered++ })
	m := b.Build()

	s := &Session{State: StateConfirm, Error: "insufficient balance"}
	require.NoError(t, m.Fire(context.Background(), s, TriggerBack))
	assert.Equal(t, StateEnterDetails, s.State)
	assert.Equal(t, 1, entered)
	assert.Empty(t, s.Error)
}

func TestMachine_BuildIsImmutable(t *testing.T) {
	b := NewBuilder()
	cfg := b.Configure(StateConfirm).Permit(TriggerBack, StateEnterDetails)
	m := b.Build()

	cfg.Permit(TriggerPay, StateSuccess)

	assert.False(t, m.CanFire(&Session{State: StateConfirm}, TriggerPay))
	assert.Equal(t, []Trigger{TriggerBack}, m.PermittedTriggers(StateConfirm))
}

func TestBuilder_PanicsOnInvalidState(t *testing.T) {
	assert.Panics(t, func() { NewBuilder().Configure(State("NOPE")) })
	assert.Panics(t, func() { NewBuilder().Configure(StateConfirm).Permit(TriggerNext, State("NOPE")) })
}
