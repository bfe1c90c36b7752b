package models

// Sport identifies the discipline of an endurance workout.
type Sport string

const (
	SportBike Sport = "BIKE"
	SportRun  Sport = "RUN"
	SportSwim Sport = "SWIM"
)

// StepType classifies what a step is for within a session.
type StepType string

const (
	StepWarmup   StepType = "WARMUP"
	StepWork     StepType = "WORK"
	StepRecovery StepType = "RECOVERY"
	StepCooldown StepType = "COOLDOWN"
)

// DurationType tags how a prescribed step duration is measured.
type DurationType string

const (
	DurationTime     DurationType = "TIME"     // value in seconds
	DurationDistance DurationType = "DISTANCE" // value in meters
)

// TargetKind identifies the primary intensity metric of a step.
type TargetKind string

const (
	TargetPower     TargetKind = "POWER"
	TargetHeartRate TargetKind = "HEART_RATE"
	TargetPace      TargetKind = "PACE"
)

// Prescription is the coach-authored workout definition as stored on a
// training session. It is owned by the plan editor; this service only reads
// it.
type Prescription struct {
	Sport     Sport   `json:"sport"`
	Objective string  `json:"objective,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	Blocks    []Block `json:"blocks"`
}

// Block is one top-level entry in a prescription: either a single step or a
// repeat block. Exactly one of the two fields is set.
type Block struct {
	Step   *PrescriptionStep `json:"step,omitempty"`
	Repeat *RepeatBlock      `json:"repeat,omitempty"`
}

// RepeatBlock prescribes its inner steps to be performed count times in
// sequence.
type RepeatBlock struct {
	Count int                `json:"count"`
	Steps []PrescriptionStep `json:"steps"`
}

// PrescriptionStep is a single step as authored in the plan editor.
type PrescriptionStep struct {
	Type     StepType              `json:"type"`
	Duration PrescriptionDuration  `json:"duration"`
	Target   *PrescriptionTarget   `json:"target,omitempty"`
	Cadence  *PrescriptionCadence  `json:"cadence,omitempty"`
	Note     string                `json:"note,omitempty"`
}

// PrescriptionDuration is a tagged duration: TIME carries seconds, DISTANCE
// carries meters.
type PrescriptionDuration struct {
	Type  DurationType `json:"type"`
	Value int          `json:"value"`
}

// PrescriptionTarget carries either a zone or a sport-specific min/max range
// in the unit of its kind. The range fields are kind-specific because the
// plan editor stores them under different keys per sport.
type PrescriptionTarget struct {
	Kind TargetKind `json:"kind"`
	Zone *int       `json:"zone,omitempty"`

	MinWatts *int `json:"minWatts,omitempty"`
	MaxWatts *int `json:"maxWatts,omitempty"`

	MinBPM *int `json:"minBpm,omitempty"`
	MaxBPM *int `json:"maxBpm,omitempty"`

	MinSecPerKm *int `json:"minSecPerKm,omitempty"`
	MaxSecPerKm *int `json:"maxSecPerKm,omitempty"`
}

// PrescriptionCadence is a cadence range in RPM. Only meaningful for BIKE;
// the validator rejects it elsewhere.
type PrescriptionCadence struct {
	MinRPM int `json:"minRpm"`
	MaxRPM int `json:"maxRpm"`
}

// NormalizedWorkout is the flat canonical representation all exporters
// consume. It is recomputed on every export attempt and never persisted.
type NormalizedWorkout struct {
	Sport     Sport            `json:"sport"`
	Objective string           `json:"objective,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	Steps     []NormalizedStep `json:"steps"`
}

// NormalizedStep is one flattened step of a canonical workout.
type NormalizedStep struct {
	Type          StepType       `json:"type"`
	Duration      StepDuration   `json:"duration"`
	PrimaryTarget *PrimaryTarget `json:"primaryTarget,omitempty"`
	CadenceTarget *CadenceTarget `json:"cadenceTarget,omitempty"`
	Note          string         `json:"note,omitempty"`
}

// StepDuration holds exactly one of seconds or meters.
type StepDuration struct {
	Seconds *int `json:"seconds,omitempty"`
	Meters  *int `json:"meters,omitempty"`
}

// PrimaryTarget is a normalized intensity target: a zone, or a closed
// min/max range in Unit.
type PrimaryTarget struct {
	Kind TargetKind `json:"kind"`
	Unit string     `json:"unit"`
	Zone *int       `json:"zone,omitempty"`
	Min  *int       `json:"min,omitempty"`
	Max  *int       `json:"max,omitempty"`
}

// CadenceTarget is a normalized cadence range in RPM.
type CadenceTarget struct {
	MinRPM int `json:"minRpm"`
	MaxRPM int `json:"maxRpm"`
}
