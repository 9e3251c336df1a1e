package ports

import "trailbook/internal/domain"

// Observer is notified about history activity, e.g. for metrics
type Observer interface {
	InteractionAdded(entityID string, kind domain.Kind)
	Navigated(entityID string)
	Reset(entityID string)
	PersistFailed(entityID string)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) InteractionAdded(string, domain.Kind) {}
func (NopObserver) Navigated(string)                      {}
func (NopObserver) Reset(string)                          {}
func (NopObserver) PersistFailed(string)                  {}
