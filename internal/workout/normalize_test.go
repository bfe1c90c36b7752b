package workout

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/meltforce/paceline/internal/models"
)

func intPtr(v int) *int { return &v }

func timeStep(stepType models.StepType, seconds int) models.PrescriptionStep {
	return models.PrescriptionStep{
		Type:     stepType,
		Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: seconds},
	}
}

// TestNormalizeTimeDuration verifies that a TIME duration becomes seconds in
// the canonical form.
func TestNormalizeTimeDuration(t *testing.T) {
	p := &models.Prescription{
		Sport:  models.SportBike,
		Blocks: []models.Block{{Step: &models.PrescriptionStep{
			Type:     models.StepWarmup,
			Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: 600},
		}}},
	}

	w, err := Normalize(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.Steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(w.Steps))
	}
	d := w.Steps[0].Duration
	if d.Seconds == nil || *d.Seconds != 600 {
		t.Errorf("seconds = %v, want 600", d.Seconds)
	}
	if d.Meters != nil {
		t.Errorf("meters = %v, want nil", *d.Meters)
	}
}

// TestNormalizeDistanceDuration verifies that a DISTANCE duration becomes
// meters in the canonical form.
func TestNormalizeDistanceDuration(t *testing.T) {
	p := &models.Prescription{
		Sport: models.SportSwim,
		Blocks: []models.Block{{Step: &models.PrescriptionStep{
			Type:     models.StepWork,
			Duration: models.PrescriptionDuration{Type: models.DurationDistance, Value: 400},
		}}},
	}

	w, err := Normalize(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := w.Steps[0].Duration
	if d.Meters == nil || *d.Meters != 400 {
		t.Errorf("meters = %v, want 400", d.Meters)
	}
	if d.Seconds != nil {
		t.Errorf("seconds = %v, want nil", *d.Seconds)
	}
}

// TestNormalizeRepeatExpansion verifies that a repeat block with count=4 over
// 2 steps expands to 8 steps in repeated-block order.
func TestNormalizeRepeatExpansion(t *testing.T) {
	p := &models.Prescription{
		Sport: models.SportRun,
		Blocks: []models.Block{{Repeat: &models.RepeatBlock{
			Count: 4,
			Steps: []models.PrescriptionStep{
				timeStep(models.StepWork, 120),
				timeStep(models.StepRecovery, 60),
			},
		}}},
	}

	w, err := Normalize(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.Steps) != 8 {
		t.Fatalf("steps = %d, want 8", len(w.Steps))
	}
	want := []models.StepType{
		models.StepWork, models.StepRecovery,
		models.StepWork, models.StepRecovery,
		models.StepWork, models.StepRecovery,
		models.StepWork, models.StepRecovery,
	}
	for i, step := range w.Steps {
		if step.Type != want[i] {
			t.Errorf("step %d type = %s, want %s", i, step.Type, want[i])
		}
	}
	// Expansion is lossless: every WORK copy keeps the original duration.
	if *w.Steps[6].Duration.Seconds != 120 {
		t.Errorf("step 6 seconds = %d, want 120", *w.Steps[6].Duration.Seconds)
	}
}

// TestNormalizeDeterministic verifies that normalizing the same prescription
// twice yields structurally equal output.
func TestNormalizeDeterministic(t *testing.T) {
	zone := 3
	p := &models.Prescription{
		Sport:     models.SportBike,
		Objective: "Threshold blocks",
		Blocks: []models.Block{
			{Step: &models.PrescriptionStep{
				Type:     models.StepWarmup,
				Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: 900},
				Target:   &models.PrescriptionTarget{Kind: models.TargetPower, Zone: &zone},
			}},
			{Repeat: &models.RepeatBlock{
				Count: 3,
				Steps: []models.PrescriptionStep{
					timeStep(models.StepWork, 300),
					timeStep(models.StepRecovery, 120),
				},
			}},
		},
	}

	first, err := Normalize(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Normalize(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalize is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// TestNormalizeZoneTarget verifies that a zone target normalizes to
// kind/unit/zone with no range.
func TestNormalizeZoneTarget(t *testing.T) {
	p := &models.Prescription{
		Sport: models.SportBike,
		Blocks: []models.Block{{Step: &models.PrescriptionStep{
			Type:     models.StepWork,
			Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: 300},
			Target:   &models.PrescriptionTarget{Kind: models.TargetPower, Zone: intPtr(3)},
		}}},
	}

	w, err := Normalize(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := w.Steps[0].PrimaryTarget
	if target == nil {
		t.Fatal("primary target missing")
	}
	if target.Kind != models.TargetPower {
		t.Errorf("kind = %s, want POWER", target.Kind)
	}
	if target.Unit != "watts" {
		t.Errorf("unit = %q, want %q", target.Unit, "watts")
	}
	if target.Zone == nil || *target.Zone != 3 {
		t.Errorf("zone = %v, want 3", target.Zone)
	}
	if target.Min != nil || target.Max != nil {
		t.Errorf("range = %v..%v, want none", target.Min, target.Max)
	}
}

// TestNormalizeRangeTargets verifies the sport/kind-specific min/max pairs
// are extracted per kind with the right unit.
func TestNormalizeRangeTargets(t *testing.T) {
	tests := []struct {
		name     string
		target   models.PrescriptionTarget
		wantUnit string
		wantMin  int
		wantMax  int
	}{
		{
			name:     "power watts",
			target:   models.PrescriptionTarget{Kind: models.TargetPower, MinWatts: intPtr(200), MaxWatts: intPtr(250)},
			wantUnit: "watts",
			wantMin:  200,
			wantMax:  250,
		},
		{
			name:     "heart rate bpm",
			target:   models.PrescriptionTarget{Kind: models.TargetHeartRate, MinBPM: intPtr(140), MaxBPM: intPtr(155)},
			wantUnit: "bpm",
			wantMin:  140,
			wantMax:  155,
		},
		{
			name:     "pace sec per km",
			target:   models.PrescriptionTarget{Kind: models.TargetPace, MinSecPerKm: intPtr(255), MaxSecPerKm: intPtr(270)},
			wantUnit: "sec_per_km",
			wantMin:  255,
			wantMax:  270,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Prescription{
				Sport: models.SportBike,
				Blocks: []models.Block{{Step: &models.PrescriptionStep{
					Type:     models.StepWork,
					Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: 300},
					Target:   &tt.target,
				}}},
			}

			w, err := Normalize(p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			target := w.Steps[0].PrimaryTarget
			if target.Unit != tt.wantUnit {
				t.Errorf("unit = %q, want %q", target.Unit, tt.wantUnit)
			}
			if target.Min == nil || *target.Min != tt.wantMin {
				t.Errorf("min = %v, want %d", target.Min, tt.wantMin)
			}
			if target.Max == nil || *target.Max != tt.wantMax {
				t.Errorf("max = %v, want %d", target.Max, tt.wantMax)
			}
			if target.Zone != nil {
				t.Errorf("zone = %d, want nil", *target.Zone)
			}
		})
	}
}

// TestNormalizeMalformedTarget verifies that a target with neither zone nor a
// complete range fails with MalformedTargetError.
func TestNormalizeMalformedTarget(t *testing.T) {
	p := &models.Prescription{
		Sport: models.SportBike,
		Blocks: []models.Block{{Step: &models.PrescriptionStep{
			Type:     models.StepWork,
			Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: 300},
			Target:   &models.PrescriptionTarget{Kind: models.TargetPower, MinWatts: intPtr(200)},
		}}},
	}

	_, err := Normalize(p)
	var malformed *MalformedTargetError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedTargetError", err)
	}
	if malformed.Kind != models.TargetPower {
		t.Errorf("kind = %s, want POWER", malformed.Kind)
	}
}

// TestNormalizeCadencePassthrough verifies that cadence targets pass through
// unit-stripped regardless of sport; the BIKE-only rule is the validator's.
func TestNormalizeCadencePassthrough(t *testing.T) {
	p := &models.Prescription{
		Sport: models.SportRun,
		Blocks: []models.Block{{Step: &models.PrescriptionStep{
			Type:     models.StepWork,
			Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: 300},
			Cadence:  &models.PrescriptionCadence{MinRPM: 85, MaxRPM: 95},
		}}},
	}

	w, err := Normalize(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := w.Steps[0].CadenceTarget
	if c == nil {
		t.Fatal("cadence target missing")
	}
	if c.MinRPM != 85 || c.MaxRPM != 95 {
		t.Errorf("cadence = %d..%d, want 85..95", c.MinRPM, c.MaxRPM)
	}
}

// TestNormalizeUnknownDurationType verifies that a duration tag outside
// TIME/DISTANCE fails normalization instead of defaulting to seconds.
func TestNormalizeUnknownDurationType(t *testing.T) {
	p := &models.Prescription{
		Sport: models.SportBike,
		Blocks: []models.Block{{Step: &models.PrescriptionStep{
			Type:     models.StepWork,
			Duration: models.PrescriptionDuration{Type: "LAPS", Value: 4},
		}}},
	}

	_, err := Normalize(p)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !strings.Contains(verr.Reason, `unknown duration type "LAPS"`) {
		t.Errorf("reason = %q, want unknown duration type", verr.Reason)
	}
}
