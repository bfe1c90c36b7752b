// Package garmin builds draft workout payloads for the Garmin ecosystem.
//
// The payload is a placeholder for a certified Garmin Training API
// integration: it stays marked "draft" and is never submitted for athlete
// execution. Do not treat its field layout as a stable contract.
package garmin

import (
	"github.com/meltforce/paceline/internal/export"
	"github.com/meltforce/paceline/internal/models"
)

// ProviderID is the registry key for this builder.
const ProviderID = "garmin"

var sportNames = map[models.Sport]string{
	models.SportBike: "CYCLING",
	models.SportRun:  "RUNNING",
	models.SportSwim: "LAP_SWIMMING",
}

// Builder maps canonical workouts to the Garmin draft shape: a workoutName,
// a steps array, and per-step targets nested under a targets object keyed by
// kind.
type Builder struct{}

func (Builder) ID() string { return ProviderID }

// Build assumes w has passed validation.
func (Builder) Build(w *models.NormalizedWorkout) export.Payload {
	steps := make([]map[string]any, 0, len(w.Steps))
	for i, s := range w.Steps {
		step := map[string]any{
			"stepOrder": i + 1,
			"stepType":  s.Type,
		}

		if s.Duration.Seconds != nil {
			step["durationType"] = "TIME"
			step["durationValue"] = *s.Duration.Seconds
		} else if s.Duration.Meters != nil {
			step["durationType"] = "DISTANCE"
			step["durationValue"] = *s.Duration.Meters
		}

		targets := map[string]any{}
		if t := s.PrimaryTarget; t != nil {
			target := map[string]any{"unit": t.Unit}
			if t.Zone != nil {
				target["zone"] = *t.Zone
			} else {
				target["low"] = *t.Min
				target["high"] = *t.Max
			}
			switch t.Kind {
			case models.TargetPower:
				targets["power"] = target
			case models.TargetHeartRate:
				targets["heartRate"] = target
			case models.TargetPace:
				targets["pace"] = target
			}
		}
		if c := s.CadenceTarget; c != nil {
			targets["cadence"] = map[string]any{
				"low":  c.MinRPM,
				"high": c.MaxRPM,
				"unit": "rpm",
			}
		}
		if len(targets) > 0 {
			step["targets"] = targets
		}

		if s.Note != "" {
			step["description"] = s.Note
		}
		steps = append(steps, step)
	}

	payload := export.Payload{
		"workoutName": workoutName(w),
		"sport":       sportNames[w.Sport],
		"status":      "draft",
		"steps":       steps,
	}
	if w.Notes != "" {
		payload["description"] = w.Notes
	}
	return payload
}

func workoutName(w *models.NormalizedWorkout) string {
	if w.Objective != "" {
		return w.Objective
	}
	return "Paceline workout"
}
