package domain

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/copystructure"
)

// Kind identifies the interaction kind and the reducer that applies it
type Kind string

const (
	KindTest              Kind = "test"
	KindSelectionAdd      Kind = "selection-add"
	KindSelectionInterval Kind = "selection-interval"
	KindFilter            Kind = "filter"
)

// Kinds lists every interaction kind known to the default registry
var Kinds = []Kind{KindTest, KindSelectionAdd, KindSelectionInterval, KindFilter}

// String returns the kind tag
func (k Kind) String() string {
	return string(k)
}

// Label returns the human-readable default label for a kind
func (k Kind) Label() string {
	switch k {
	case KindTest:
		return "Test"
	case KindSelectionAdd:
		return "Selection"
	case KindSelectionInterval:
		return "Brush selection"
	case KindFilter:
		return "Filter"
	default:
		return string(k)
	}
}

// IsValid reports whether k is one of the known kinds
func (k Kind) IsValid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Range is a closed numeric interval [lo, hi]
type Range [2]float64

// Lo returns the lower bound
func (r Range) Lo() float64 { return r[0] }

// Hi returns the upper bound
func (r Range) Hi() float64 { return r[1] }

// IntervalParams holds the live values of an interval (brush) selection.
// Selection maps each encoded field to its selected range; X and Y are the
// pixel extents of the brush.
type IntervalParams struct {
	Selection map[string]Range `json:"selection" validate:"required,min=1"`
	X         []float64        `json:"x,omitempty"`
	Y         []float64        `json:"y,omitempty"`
}

// Interaction is an immutable record of one user action and the
// specification it produced
type Interaction struct {
	ID     string          `json:"id,omitempty" validate:"required,uuid4"`
	Kind   Kind            `json:"type" validate:"required"`
	Name   string          `json:"name,omitempty"`
	Path   string          `json:"path,omitempty"`
	Params *IntervalParams `json:"params,omitempty" validate:"required_if=Kind selection-interval"`
	Spec   Spec            `json:"spec,omitempty"`
}

// Clone returns a deep copy of the interaction
func (i Interaction) Clone() Interaction {
	out := i
	out.Spec = i.Spec.Clone()
	if i.Params != nil {
		out.Params = copystructure.Must(copystructure.Copy(i.Params)).(*IntervalParams)
	}
	return out
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidateInteraction checks that a record is complete enough to commit
func ValidateInteraction(i Interaction) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("invalid interaction: %w", err)
	}
	return nil
}
