package models

import "time"

// RoleType defines the user role type
type RoleType string

const (
	RoleUser  RoleType = "user"  // Default for every new identity
	RoleAdmin RoleType = "admin" // May resolve corrections and manage users and years
)

// Valid reports whether r is a known role.
func (r RoleType) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// AcademicYear is an entry in the catalog of selectable academic years
type AcademicYear struct {
	ID        string    `json:"id" db:"id"`
	Year      string    `json:"year" db:"year" example:"2024/2025"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// DashboardStats summarizes the active academic year
type DashboardStats struct {
	AcademicYear         string `json:"academicYear"`
	StudentCount         int    `json:"studentCount"`
	PendingRequestsCount int    `json:"pendingRequestsCount"`
}
