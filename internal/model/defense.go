package model

import "time"

// DefenseStage distinguishes the predefense round from the final defense.
type DefenseStage string

const (
	StagePredefense DefenseStage = "PREDEFENSE"
	StageFinal      DefenseStage = "FINAL"
)

// Valid reports whether the stage is one of the two configured rounds.
func (s DefenseStage) Valid() bool {
	return s == StagePredefense || s == StageFinal
}

// DefenseWindow is an administrator-defined time range during which jury
// members may open booking slots for a given period and stage.
type DefenseWindow struct {
	ID        string
	PeriodID  string
	Stage     DefenseStage
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedBy string
	CreatedAt time.Time
}

// DefenseSlot is a bookable interval a jury member opened inside a window.
type DefenseSlot struct {
	ID        string
	WindowID  string
	JuryID    string
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedAt time.Time
}

// Booking ties a slot to at most one student.
type Booking struct {
	ID        string
	SlotID    string
	StudentID string
	BookedBy  string
	CreatedAt time.Time
}

// Evaluation is one jury member's score for a booked slot.
// Scores are on the [0,10] band.
type Evaluation struct {
	ID        string
	SlotID    string
	JuryID    string
	Score     float64
	Comments  string
	CreatedAt time.Time
}

// EvaluationSummary aggregates a student's recorded scores for one stage.
type EvaluationSummary struct {
	StudentID string
	Stage     DefenseStage
	Count     int
	Average   float64
	Passed    bool
}
