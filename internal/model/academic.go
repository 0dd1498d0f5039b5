package model

import "time"

// Period is an academic period (e.g. "2026-1"). At most one period is
// active at a time; activation deactivates the rest.
type Period struct {
	ID        string
	Name      string
	StartsAt  time.Time
	EndsAt    time.Time
	Active    bool
	CreatedAt time.Time
}

// Career is a degree program students belong to.
type Career struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Student is a thesis candidate tracked through a period. TutorID is empty
// until a tutor is assigned.
type Student struct {
	ID        string
	FullName  string
	Email     string
	CareerID  string
	PeriodID  string
	TutorID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IncidentKind distinguishes formal incidents from routine observations.
type IncidentKind string

const (
	IncidentKindIncident    IncidentKind = "incident"
	IncidentKindObservation IncidentKind = "observation"
)

// Incident is a dated tracking entry a coordinator or tutor records against
// a student. Body is sanitized before storage.
type Incident struct {
	ID         string
	StudentID  string
	AuthorID   string
	Kind       IncidentKind
	Body       string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// Project is the thesis project assigned to a student. One project per
// student per period.
type Project struct {
	ID          string
	StudentID   string
	PeriodID    string
	Title       string
	Description string
	AssignedBy  string
	CreatedAt   time.Time
}
