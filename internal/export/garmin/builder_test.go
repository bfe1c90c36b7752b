package garmin

import (
	"testing"

	"github.com/meltforce/paceline/internal/models"
)

func intPtr(v int) *int { return &v }

// TestBuildDraftEnvelope verifies the payload carries the Garmin sport name,
// the workout objective as its name, and the draft marker.
func TestBuildDraftEnvelope(t *testing.T) {
	w := &models.NormalizedWorkout{
		Sport:     models.SportBike,
		Objective: "Sweet spot intervals",
		Notes:     "Keep it smooth",
		Steps: []models.NormalizedStep{
			{Type: models.StepWarmup, Duration: models.StepDuration{Seconds: intPtr(600)}},
		},
	}

	p := Builder{}.Build(w)

	if got := p["workoutName"]; got != "Sweet spot intervals" {
		t.Errorf("workoutName = %v, want Sweet spot intervals", got)
	}
	if got := p["sport"]; got != "CYCLING" {
		t.Errorf("sport = %v, want CYCLING", got)
	}
	if got := p["status"]; got != "draft" {
		t.Errorf("status = %v, want draft", got)
	}
	if got := p["description"]; got != "Keep it smooth" {
		t.Errorf("description = %v, want Keep it smooth", got)
	}
}

// TestBuildDefaultName verifies a fallback name is used when the session has
// no objective.
func TestBuildDefaultName(t *testing.T) {
	w := &models.NormalizedWorkout{
		Sport: models.SportRun,
		Steps: []models.NormalizedStep{
			{Type: models.StepWork, Duration: models.StepDuration{Meters: intPtr(5000)}},
		},
	}

	p := Builder{}.Build(w)
	if got := p["workoutName"]; got != "Paceline workout" {
		t.Errorf("workoutName = %v, want Paceline workout", got)
	}
	if got := p["sport"]; got != "RUNNING" {
		t.Errorf("sport = %v, want RUNNING", got)
	}
}

// TestBuildSteps verifies step ordering, duration mapping, and the nested
// targets object.
func TestBuildSteps(t *testing.T) {
	w := &models.NormalizedWorkout{
		Sport: models.SportBike,
		Steps: []models.NormalizedStep{
			{
				Type:     models.StepWarmup,
				Duration: models.StepDuration{Seconds: intPtr(600)},
				PrimaryTarget: &models.PrimaryTarget{
					Kind: models.TargetPower, Unit: "watts", Zone: intPtr(2),
				},
			},
			{
				Type:     models.StepWork,
				Duration: models.StepDuration{Meters: intPtr(4000)},
				PrimaryTarget: &models.PrimaryTarget{
					Kind: models.TargetHeartRate, Unit: "bpm",
					Min: intPtr(150), Max: intPtr(165),
				},
				CadenceTarget: &models.CadenceTarget{MinRPM: 85, MaxRPM: 95},
			},
		},
	}

	p := Builder{}.Build(w)
	steps, ok := p["steps"].([]map[string]any)
	if !ok {
		t.Fatalf("steps has type %T, want []map[string]any", p["steps"])
	}
	if len(steps) != 2 {
		t.Fatalf("len(steps) = %d, want 2", len(steps))
	}

	first := steps[0]
	if got := first["stepOrder"]; got != 1 {
		t.Errorf("steps[0].stepOrder = %v, want 1", got)
	}
	if got := first["durationType"]; got != "TIME" {
		t.Errorf("steps[0].durationType = %v, want TIME", got)
	}
	if got := first["durationValue"]; got != 600 {
		t.Errorf("steps[0].durationValue = %v, want 600", got)
	}
	targets := first["targets"].(map[string]any)
	power := targets["power"].(map[string]any)
	if power["zone"] != 2 || power["unit"] != "watts" {
		t.Errorf("power target = %v, want zone 2 in watts", power)
	}

	second := steps[1]
	if got := second["durationType"]; got != "DISTANCE" {
		t.Errorf("steps[1].durationType = %v, want DISTANCE", got)
	}
	if got := second["durationValue"]; got != 4000 {
		t.Errorf("steps[1].durationValue = %v, want 4000", got)
	}
	targets = second["targets"].(map[string]any)
	hr := targets["heartRate"].(map[string]any)
	if hr["low"] != 150 || hr["high"] != 165 {
		t.Errorf("heartRate target = %v, want low 150 high 165", hr)
	}
	cadence := targets["cadence"].(map[string]any)
	if cadence["low"] != 85 || cadence["high"] != 95 || cadence["unit"] != "rpm" {
		t.Errorf("cadence target = %v, want 85-95 rpm", cadence)
	}
}

// TestBuildStepWithoutTargets verifies the targets object is omitted
// entirely for a step with no intensity prescription.
func TestBuildStepWithoutTargets(t *testing.T) {
	w := &models.NormalizedWorkout{
		Sport: models.SportSwim,
		Steps: []models.NormalizedStep{
			{Type: models.StepCooldown, Duration: models.StepDuration{Meters: intPtr(200)}},
		},
	}

	p := Builder{}.Build(w)
	steps := p["steps"].([]map[string]any)
	if _, ok := steps[0]["targets"]; ok {
		t.Error("targets present on a step with no prescription")
	}
	if got := p["sport"]; got != "LAP_SWIMMING" {
		t.Errorf("sport = %v, want LAP_SWIMMING", got)
	}
}
