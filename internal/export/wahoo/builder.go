// Package wahoo builds draft workout payloads for the Wahoo ecosystem.
//
// Like the garmin builder this is a placeholder for a certified integration:
// payloads carry a draft flag and a version and are never submitted for
// athlete execution.
package wahoo

import (
	"github.com/meltforce/paceline/internal/export"
	"github.com/meltforce/paceline/internal/models"
)

// ProviderID is the registry key for this builder.
const ProviderID = "wahoo"

// payloadVersion tags the draft interval layout so a future certified
// builder can tell old payloads apart.
const payloadVersion = "2024.1"

var workoutTypes = map[models.Sport]string{
	models.SportBike: "ride",
	models.SportRun:  "run",
	models.SportSwim: "swim",
}

// Builder maps canonical workouts to the Wahoo draft shape: a name, a
// workout_type, and an intervals array with targets inlined flat on each
// interval record.
type Builder struct{}

func (Builder) ID() string { return ProviderID }

// Build assumes w has passed validation.
func (Builder) Build(w *models.NormalizedWorkout) export.Payload {
	intervals := make([]map[string]any, 0, len(w.Steps))
	for _, s := range w.Steps {
		interval := map[string]any{
			"phase": phaseName(s.Type),
		}

		if s.Duration.Seconds != nil {
			interval["duration_sec"] = *s.Duration.Seconds
		} else if s.Duration.Meters != nil {
			interval["distance_m"] = *s.Duration.Meters
		}

		if t := s.PrimaryTarget; t != nil {
			interval["target_kind"] = targetKind(t.Kind)
			interval["target_unit"] = t.Unit
			if t.Zone != nil {
				interval["target_zone"] = *t.Zone
			} else {
				interval["target_min"] = *t.Min
				interval["target_max"] = *t.Max
			}
		}
		if c := s.CadenceTarget; c != nil {
			interval["cadence_min_rpm"] = c.MinRPM
			interval["cadence_max_rpm"] = c.MaxRPM
		}
		if s.Note != "" {
			interval["note"] = s.Note
		}
		intervals = append(intervals, interval)
	}

	payload := export.Payload{
		"name":         name(w),
		"workout_type": workoutTypes[w.Sport],
		"version":      payloadVersion,
		"draft":        true,
		"intervals":    intervals,
	}
	if w.Notes != "" {
		payload["notes"] = w.Notes
	}
	return payload
}

func phaseName(t models.StepType) string {
	switch t {
	case models.StepWarmup:
		return "warmup"
	case models.StepRecovery:
		return "recovery"
	case models.StepCooldown:
		return "cooldown"
	default:
		return "work"
	}
}

func targetKind(k models.TargetKind) string {
	switch k {
	case models.TargetPower:
		return "power"
	case models.TargetHeartRate:
		return "heart_rate"
	default:
		return "pace"
	}
}

func name(w *models.NormalizedWorkout) string {
	if w.Objective != "" {
		return w.Objective
	}
	return "Paceline workout"
}
