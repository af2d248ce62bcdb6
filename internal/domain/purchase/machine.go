package purchase

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc evaluates whether a transition is allowed for a session.
// A non-nil error blocks the transition and is reported to the user.
type GuardFunc func(ctx context.Context, s *Session) error

// EntryAction runs after a session enters a state
type EntryAction func(s *Session)

// Builder builds a configured flow machine
type Builder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates an immutable machine from the configured transitions
	Build() *Machine
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf allows a trigger to transition to the target state if the guard passes
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration

	// OnEntry registers an action run whenever the state is entered
	OnEntry(action EntryAction) StateConfiguration
}

type transition struct {
	toState State
	guard   GuardFunc
}

type stateConfig struct {
	transitions map[Trigger][]transition
	onEntry     []EntryAction
}

type builder struct {
	configurations map[State]*stateConfig
}

// Machine evaluates triggers against sessions. It holds no session state
// and is safe to share between goroutines once built.
type Machine struct {
	configurations map[State]*stateConfig
}

// NewBuilder creates a new machine builder
func NewBuilder() Builder {
	return &builder{configurations: make(map[State]*stateConfig)}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{transitions: make(map[Trigger][]transition)}
		b.configurations[state] = config
	}
	return config
}

func (b *builder) Build() *Machine {
	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitionsCopy := make(map[Trigger][]transition, len(config.transitions))
		for trigger, transitions := range config.transitions {
			transitionsCopy[trigger] = append([]transition{}, transitions...)
		}
		configsCopy[state] = &stateConfig{
			transitions: transitionsCopy,
			onEntry:     append([]EntryAction{}, config.onEntry...),
		}
	}
	return &Machine{configurations: configsCopy}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition{
		toState: toState,
		guard:   guard,
	})
	return c
}

func (c *stateConfig) OnEntry(action EntryAction) StateConfiguration {
	c.onEntry = append(c.onEntry, action)
	return c
}

// CanFire returns true if the trigger is configured for the session's current state.
// Guards are not evaluated.
func (m *Machine) CanFire(s *Session, trigger Trigger) bool {
	config, exists := m.configurations[s.State]
	if !exists {
		return false
	}
	return len(config.transitions[trigger]) > 0
}

// Fire attempts the trigger. On success the session moves to the target
// state and its error is cleared; when every guard fails the session keeps
// its state and records the first guard error.
func (m *Machine) Fire(ctx context.Context, s *Session, trigger Trigger) error {
	config, exists := m.configurations[s.State]
	if !exists {
		return invalidTransition(trigger, s.State)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return invalidTransition(trigger, s.State)
	}

	var firstErr error
	for _, t := range transitions {
		if t.guard != nil {
			if err := t.guard(ctx, s); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		s.enter(t.toState)
		if target, ok := m.configurations[t.toState]; ok {
			for _, action := range target.onEntry {
				action(s)
			}
		}
		return nil
	}

	s.fail(firstErr.Error())
	return firstErr
}

// PermittedTriggers returns the triggers configured for a state, sorted
func (m *Machine) PermittedTriggers(state State) []Trigger {
	config, exists := m.configurations[state]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
