package dto

import "github.com/yigit/schoolrecords/internal/app/models"

// CreateStudentRequest is the profile of a new student. The academic year is
// taken from the caller's active selection.
type CreateStudentRequest struct {
	models.StudentProfile
}

// UpdateStudentRequest is a partial patch keyed by profile field name
type UpdateStudentRequest map[string]string

// StudentFieldResponse describes one editable field
type StudentFieldResponse struct {
	Name    string   `json:"name" example:"gender"`
	Label   string   `json:"label" example:"Jenis Kelamin"`
	Options []string `json:"options,omitempty" example:"Laki-laki,Perempuan"`
}

// SubmitCorrectionRequest proposes a change to one field of a student
type SubmitCorrectionRequest struct {
	StudentID      string `json:"studentId" binding:"required"`
	FieldToCorrect string `json:"fieldToCorrect" binding:"required"`
	NewValue       string `json:"newValue"`
	Notes          string `json:"notes"`
}

// ActiveYearRequest selects the session's academic year
type ActiveYearRequest struct {
	Year string `json:"year" binding:"required" example:"2024/2025"`
}

// ActiveYearResponse is the session's academic year, empty when none is selected
type ActiveYearResponse struct {
	Year string `json:"year" example:"2024/2025"`
}

// AddAcademicYearRequest adds a year to the catalog
type AddAcademicYearRequest struct {
	Year string `json:"year" binding:"required" example:"2024/2025"`
}
