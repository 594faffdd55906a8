package models

import (
	"time"
)

// CorrectionStatus is the lifecycle state of a correction request
type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionApproved CorrectionStatus = "approved"
	CorrectionRejected CorrectionStatus = "rejected"
)

// Decision is an admin's verdict on a pending request
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Status returns the terminal status a decision moves a request to.
func (d Decision) Status() (CorrectionStatus, bool) {
	switch d {
	case DecisionApprove:
		return CorrectionApproved, true
	case DecisionReject:
		return CorrectionRejected, true
	}
	return "", false
}

// CorrectionRequest is a proposed change to a single field of a student record
type CorrectionRequest struct {
	ID                  string           `json:"id" db:"id"`
	StudentID           string           `json:"studentId" db:"student_id"`
	StudentName         string           `json:"studentName" db:"student_name"`                   // Denormalized at submission
	RequestedByUserID   string           `json:"requestedByUserId" db:"requested_by_user_id"`
	RequestedByUserName string           `json:"requestedByUserName" db:"requested_by_user_name"`
	FieldToCorrect      string           `json:"fieldToCorrect" db:"field_to_correct"`
	OldValue            string           `json:"oldValue" db:"old_value"` // Snapshot at submission, may be empty
	NewValue            string           `json:"newValue" db:"new_value"`
	Notes               string           `json:"notes" db:"notes"`
	Status              CorrectionStatus `json:"status" db:"status" example:"pending"`
	RequestDate         time.Time        `json:"requestDate" db:"request_date"`
	ResolvedByUserID    *string          `json:"approvedByUserId,omitempty" db:"resolved_by_user_id"`
	ResolutionDate      *time.Time       `json:"approvalDate,omitempty" db:"resolution_date"`
}

// IsPending reports whether the request can still be resolved.
func (r *CorrectionRequest) IsPending() bool {
	return r.Status == CorrectionPending
}
