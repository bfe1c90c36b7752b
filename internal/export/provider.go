// Package export drives the delivery of canonical workouts to external
// fitness-device platforms: payload building, the provider API call, and the
// persisted per-session delivery state.
package export

import (
	"github.com/meltforce/paceline/internal/models"
)

// Payload is a provider-specific workout representation. Shapes are owned by
// each builder and never round-tripped back to canonical form.
type Payload map[string]any

// Builder maps a validated canonical workout into one provider's payload
// shape. Builders are pure and assume validated input; they share no field
// names with each other.
type Builder interface {
	ID() string
	Build(w *models.NormalizedWorkout) Payload
}

// Registry resolves builders by provider ID.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry creates a registry over the given builders.
func NewRegistry(builders ...Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder, len(builders))}
	for _, b := range builders {
		r.builders[b.ID()] = b
	}
	return r
}

// Builder returns the builder for a provider ID.
func (r *Registry) Builder(id string) (Builder, bool) {
	b, ok := r.builders[id]
	return b, ok
}

// IDs lists the registered provider IDs.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.builders))
	for id := range r.builders {
		ids = append(ids, id)
	}
	return ids
}
