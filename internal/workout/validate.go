package workout

import (
	"fmt"

	"github.com/meltforce/paceline/internal/models"
)

// ValidationError reports a canonical workout that breaks a domain rule.
// The reason is user-facing and recorded verbatim on the session.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid workout: " + e.Reason
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a normalized workout against the structural rules every
// exporter relies on. It never mutates its input. Runs after Normalize and
// before any exporter; exporters assume validated input.
func Validate(w *models.NormalizedWorkout) error {
	if len(w.Steps) == 0 {
		return invalid("workout has no steps")
	}

	for i, step := range w.Steps {
		if err := validateDuration(i, step.Duration); err != nil {
			return err
		}
		if err := validateTarget(i, step.PrimaryTarget); err != nil {
			return err
		}
		// Cadence is a sport-level rule, not a per-step one: it depends on
		// the workout's sport, which is why it lives here and not in the
		// normalizer.
		if step.CadenceTarget != nil && w.Sport != models.SportBike {
			return invalid("step %d: cadence targets are only allowed for BIKE workouts", i+1)
		}
	}

	return nil
}

func validateDuration(i int, d models.StepDuration) error {
	switch {
	case d.Seconds == nil && d.Meters == nil:
		return invalid("step %d: duration is missing", i+1)
	case d.Seconds != nil && d.Meters != nil:
		return invalid("step %d: duration has both seconds and meters", i+1)
	case d.Seconds != nil && *d.Seconds <= 0:
		return invalid("step %d: duration must be a positive number of seconds", i+1)
	case d.Meters != nil && *d.Meters <= 0:
		return invalid("step %d: duration must be a positive number of meters", i+1)
	}
	return nil
}

func validateTarget(i int, t *models.PrimaryTarget) error {
	if t == nil {
		return nil
	}
	switch {
	case t.Zone != nil && (t.Min != nil || t.Max != nil):
		return invalid("step %d: %s target has both a zone and a range", i+1, t.Kind)
	case t.Zone == nil && (t.Min == nil || t.Max == nil):
		return invalid("step %d: %s target requires both min and max", i+1, t.Kind)
	}
	return nil
}
