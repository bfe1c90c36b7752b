package workout

import (
	"errors"
	"strings"
	"testing"

	"github.com/meltforce/paceline/internal/models"
)

func secondsStep(stepType models.StepType, seconds int) models.NormalizedStep {
	return models.NormalizedStep{
		Type:     stepType,
		Duration: models.StepDuration{Seconds: &seconds},
	}
}

// TestValidateAcceptsWellFormed verifies a typical bike workout passes.
func TestValidateAcceptsWellFormed(t *testing.T) {
	zone := 2
	w := &models.NormalizedWorkout{
		Sport: models.SportBike,
		Steps: []models.NormalizedStep{
			{
				Type:          models.StepWarmup,
				Duration:      models.StepDuration{Seconds: intPtr(600)},
				PrimaryTarget: &models.PrimaryTarget{Kind: models.TargetPower, Unit: "watts", Zone: &zone},
				CadenceTarget: &models.CadenceTarget{MinRPM: 85, MaxRPM: 95},
			},
			secondsStep(models.StepWork, 1200),
		},
	}

	if err := Validate(w); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestValidateRejectsEmpty verifies an empty step list is a hard failure.
func TestValidateRejectsEmpty(t *testing.T) {
	w := &models.NormalizedWorkout{Sport: models.SportRun}

	err := Validate(w)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !strings.Contains(validationErr.Reason, "no steps") {
		t.Errorf("reason = %q, want mention of no steps", validationErr.Reason)
	}
}

// TestValidateDuration verifies the duration rules: present, exclusive, and
// positive.
func TestValidateDuration(t *testing.T) {
	tests := []struct {
		name       string
		duration   models.StepDuration
		wantReason string
	}{
		{name: "missing", duration: models.StepDuration{}, wantReason: "missing"},
		{name: "both present", duration: models.StepDuration{Seconds: intPtr(60), Meters: intPtr(400)}, wantReason: "both"},
		{name: "zero seconds", duration: models.StepDuration{Seconds: intPtr(0)}, wantReason: "positive"},
		{name: "negative meters", duration: models.StepDuration{Meters: intPtr(-100)}, wantReason: "positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &models.NormalizedWorkout{
				Sport: models.SportRun,
				Steps: []models.NormalizedStep{{Type: models.StepWork, Duration: tt.duration}},
			}

			err := Validate(w)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if !strings.Contains(validationErr.Reason, tt.wantReason) {
				t.Errorf("reason = %q, want mention of %q", validationErr.Reason, tt.wantReason)
			}
		})
	}
}

// TestValidateTargetRange verifies that a target with min but no max fails
// with the "requires both min and max" reason.
func TestValidateTargetRange(t *testing.T) {
	w := &models.NormalizedWorkout{
		Sport: models.SportBike,
		Steps: []models.NormalizedStep{{
			Type:          models.StepWork,
			Duration:      models.StepDuration{Seconds: intPtr(300)},
			PrimaryTarget: &models.PrimaryTarget{Kind: models.TargetPower, Unit: "watts", Min: intPtr(200)},
		}},
	}

	err := Validate(w)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !strings.Contains(validationErr.Reason, "requires both min and max") {
		t.Errorf("reason = %q, want %q", validationErr.Reason, "requires both min and max")
	}
}

// TestValidateTargetZoneAndRange verifies that a target carrying both a zone
// and a range is rejected.
func TestValidateTargetZoneAndRange(t *testing.T) {
	zone := 3
	w := &models.NormalizedWorkout{
		Sport: models.SportBike,
		Steps: []models.NormalizedStep{{
			Type:     models.StepWork,
			Duration: models.StepDuration{Seconds: intPtr(300)},
			PrimaryTarget: &models.PrimaryTarget{
				Kind: models.TargetPower, Unit: "watts",
				Zone: &zone, Min: intPtr(200), Max: intPtr(250),
			},
		}},
	}

	err := Validate(w)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !strings.Contains(validationErr.Reason, "both a zone and a range") {
		t.Errorf("reason = %q, want mention of zone and range", validationErr.Reason)
	}
}

// TestValidateCadenceSportRule verifies that cadence targets pass on BIKE and
// fail everywhere else with the BIKE-only message.
func TestValidateCadenceSportRule(t *testing.T) {
	buildWorkout := func(sport models.Sport) *models.NormalizedWorkout {
		return &models.NormalizedWorkout{
			Sport: sport,
			Steps: []models.NormalizedStep{{
				Type:          models.StepWork,
				Duration:      models.StepDuration{Seconds: intPtr(300)},
				CadenceTarget: &models.CadenceTarget{MinRPM: 85, MaxRPM: 95},
			}},
		}
	}

	if err := Validate(buildWorkout(models.SportBike)); err != nil {
		t.Errorf("BIKE: unexpected error: %v", err)
	}

	err := Validate(buildWorkout(models.SportRun))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("RUN: error = %v, want ValidationError", err)
	}
	if !strings.Contains(validationErr.Reason, "only allowed for BIKE workouts") {
		t.Errorf("reason = %q, want %q", validationErr.Reason, "only allowed for BIKE workouts")
	}
}
