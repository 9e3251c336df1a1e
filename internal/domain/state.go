package domain

// DefaultMessage seeds the msg field of a fresh history
const DefaultMessage = "Hello, World!"

// State is the application state recorded at every node of a history
type State struct {
	Msg          string        `json:"msg"`
	Interactions []Interaction `json:"interactions"`
}

// DefaultState returns the state every new history starts from
func DefaultState() State {
	return State{
		Msg:          DefaultMessage,
		Interactions: []Interaction{},
	}
}

// Last returns the most recently applied interaction
func (s State) Last() (Interaction, bool) {
	if len(s.Interactions) == 0 {
		return Interaction{}, false
	}
	return s.Interactions[len(s.Interactions)-1], true
}

// LastSpec returns the specification of the most recent interaction that
// carries one
func (s State) LastSpec() (Spec, bool) {
	for i := len(s.Interactions) - 1; i >= 0; i-- {
		if s.Interactions[i].Spec != nil {
			return s.Interactions[i].Spec, true
		}
	}
	return nil, false
}

// OfKind returns the interactions of the given kind, oldest first
func (s State) OfKind(kind Kind) []Interaction {
	var out []Interaction
	for _, i := range s.Interactions {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}
