package repository

import (
	"testing"

	"github.com/dquezada/titula/internal/model"
)

func TestPostgresStudentRepoImplementsInterface(t *testing.T) {
	var _ StudentRepository = (*PostgresStudentRepo)(nil)
}

func TestPostgresPeriodRepoImplementsInterface(t *testing.T) {
	var _ PeriodRepository = (*PostgresPeriodRepo)(nil)
}

func TestPostgresCareerRepoImplementsInterface(t *testing.T) {
	var _ CareerRepository = (*PostgresCareerRepo)(nil)
}

func TestNewPostgresStudentRepoInitializes(t *testing.T) {
	if repo := NewPostgresStudentRepo(nil); repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestNewPostgresPeriodRepoInitializes(t *testing.T) {
	if repo := NewPostgresPeriodRepo(nil); repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestNewPostgresCareerRepoInitializes(t *testing.T) {
	if repo := NewPostgresCareerRepo(nil); repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// A freshly registered student has no tutor until one is assigned.
func TestStudentTutorUnassignedByDefault(t *testing.T) {
	student := &model.Student{
		ID:       "st-1",
		FullName: "Ana Quiroz",
		CareerID: "car-1",
		PeriodID: "per-1",
	}

	if student.TutorID != "" {
		t.Error("tutor_id should be empty by default")
	}
}
