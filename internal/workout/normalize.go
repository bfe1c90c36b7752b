// Package workout turns coach-authored prescriptions into the flat canonical
// form consumed by every provider exporter, and validates that form against
// the sport's domain rules.
package workout

import (
	"fmt"

	"github.com/meltforce/paceline/internal/models"
)

// MalformedTargetError reports a primary target that carries neither a zone
// nor a complete min/max pair.
type MalformedTargetError struct {
	Kind models.TargetKind
}

func (e *MalformedTargetError) Error() string {
	return fmt.Sprintf("malformed %s target: requires both min and max when no zone is set", e.Kind)
}

// targetUnits maps each target kind to the unit the canonical form reports.
var targetUnits = map[models.TargetKind]string{
	models.TargetPower:     "watts",
	models.TargetHeartRate: "bpm",
	models.TargetPace:      "sec_per_km",
}

// Normalize expands a prescription into a flat canonical step sequence.
// Repeat blocks become count consecutive copies of their steps, in order.
// Normalize performs no I/O and enforces no sport rules; Validate does that,
// so normalization stays usable on inputs that will later fail validation.
func Normalize(p *models.Prescription) (*models.NormalizedWorkout, error) {
	w := &models.NormalizedWorkout{
		Sport:     p.Sport,
		Objective: p.Objective,
		Notes:     p.Notes,
	}

	for _, block := range p.Blocks {
		switch {
		case block.Step != nil:
			step, err := normalizeStep(block.Step)
			if err != nil {
				return nil, err
			}
			w.Steps = append(w.Steps, step)
		case block.Repeat != nil:
			// Normalize each inner step once, then append count copies.
			inner := make([]models.NormalizedStep, 0, len(block.Repeat.Steps))
			for i := range block.Repeat.Steps {
				step, err := normalizeStep(&block.Repeat.Steps[i])
				if err != nil {
					return nil, err
				}
				inner = append(inner, step)
			}
			for rep := 0; rep < block.Repeat.Count; rep++ {
				w.Steps = append(w.Steps, inner...)
			}
		}
	}

	return w, nil
}

func normalizeStep(s *models.PrescriptionStep) (models.NormalizedStep, error) {
	step := models.NormalizedStep{
		Type: s.Type,
		Note: s.Note,
	}

	value := s.Duration.Value
	switch s.Duration.Type {
	case models.DurationTime:
		step.Duration.Seconds = &value
	case models.DurationDistance:
		step.Duration.Meters = &value
	default:
		return models.NormalizedStep{}, &ValidationError{
			Reason: fmt.Sprintf("unknown duration type %q", s.Duration.Type),
		}
	}

	if s.Target != nil {
		target, err := normalizeTarget(s.Target)
		if err != nil {
			return models.NormalizedStep{}, err
		}
		step.PrimaryTarget = target
	}

	if s.Cadence != nil {
		step.CadenceTarget = &models.CadenceTarget{
			MinRPM: s.Cadence.MinRPM,
			MaxRPM: s.Cadence.MaxRPM,
		}
	}

	return step, nil
}

func normalizeTarget(t *models.PrescriptionTarget) (*models.PrimaryTarget, error) {
	out := &models.PrimaryTarget{
		Kind: t.Kind,
		Unit: targetUnits[t.Kind],
	}

	if t.Zone != nil {
		zone := *t.Zone
		out.Zone = &zone
		return out, nil
	}

	var min, max *int
	switch t.Kind {
	case models.TargetPower:
		min, max = t.MinWatts, t.MaxWatts
	case models.TargetHeartRate:
		min, max = t.MinBPM, t.MaxBPM
	case models.TargetPace:
		min, max = t.MinSecPerKm, t.MaxSecPerKm
	}
	if min == nil || max == nil {
		return nil, &MalformedTargetError{Kind: t.Kind}
	}

	lo, hi := *min, *max
	out.Min = &lo
	out.Max = &hi
	return out, nil
}
