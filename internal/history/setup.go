package history

import (
	"fmt"

	"trailbook/internal/domain"
	"trailbook/internal/provenance"
)

// Graph is a provenance graph over the application state
type Graph = provenance.Graph[domain.State]

// Registry builds Graphs over the application state
type Registry = provenance.Registry[domain.State]

// Actions holds the action creators of the default registry, one per
// interaction kind. Each takes a domain.Interaction.
type Actions struct {
	byKind map[domain.Kind]provenance.ActionCreator
}

// For returns the action creator for kind
func (a Actions) For(kind domain.Kind) (provenance.ActionCreator, bool) {
	create, ok := a.byKind[kind]
	return create, ok
}

// Action binds rec to the action of its kind
func (a Actions) Action(rec domain.Interaction) (provenance.Action, error) {
	create, ok := a.For(rec.Kind)
	if !ok {
		return provenance.Action{}, fmt.Errorf("%w: %q", provenance.ErrUnknownKind, rec.Kind)
	}
	return create(rec)
}

// NewRegistry builds a registry with a reducer for every interaction kind.
// Every reducer appends the record; the test kind also sets msg from the
// record name.
func NewRegistry(opts ...provenance.Option) (*Registry, Actions) {
	r := provenance.NewRegistry(domain.DefaultState, opts...)
	actions := Actions{byKind: make(map[domain.Kind]provenance.ActionCreator, len(domain.Kinds))}

	actions.byKind[domain.KindTest] = r.MustRegister(string(domain.KindTest),
		provenance.Typed(func(s *domain.State, rec domain.Interaction) error {
			if rec.Name != "" {
				s.Msg = rec.Name
			}
			s.Interactions = append(s.Interactions, rec)
			return nil
		}))

	appendRecord := provenance.Typed(func(s *domain.State, rec domain.Interaction) error {
		s.Interactions = append(s.Interactions, rec)
		return nil
	})
	for _, kind := range []domain.Kind{domain.KindSelectionAdd, domain.KindSelectionInterval, domain.KindFilter} {
		actions.byKind[kind] = r.MustRegister(string(kind), appendRecord)
	}
	return r, actions
}

// Create returns a graph and its actions: saved is loaded when non-empty,
// otherwise the graph starts from the default state
func Create(saved string, opts ...provenance.Option) (*Graph, Actions, error) {
	r, actions := NewRegistry(opts...)
	g, err := r.Create(saved)
	if err != nil {
		return nil, Actions{}, err
	}
	return g, actions, nil
}

// CreateFrom returns a graph seeded with initial
func CreateFrom(initial domain.State, opts ...provenance.Option) (*Graph, Actions, error) {
	r, actions := NewRegistry(opts...)
	g, err := r.NewFrom(initial)
	if err != nil {
		return nil, Actions{}, err
	}
	return g, actions, nil
}
