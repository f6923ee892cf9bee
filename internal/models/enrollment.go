package models

import "time"

// EnrollmentStatus is the lifecycle of a student's registration in a subject.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentStatusApproved  EnrollmentStatus = "approved"
	EnrollmentStatusFailed    EnrollmentStatus = "failed"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
)

// StudentSubject is an enrollment row in the profiles database. The
// (student_profile_id, subject_id) pair is unique; the row is only ever
// created by the enrollment transaction.
type StudentSubject struct {
	ID               string           `db:"id" json:"id"`
	StudentProfileID string           `db:"student_profile_id" json:"student_profile_id"`
	SubjectID        string           `db:"subject_id" json:"subject_id"`
	CycleID          *string          `db:"cycle_id" json:"cycle_id,omitempty"`
	Grade            *float64         `db:"grade" json:"grade"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt       time.Time        `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentResult is returned by the enrollment transaction: the created
// row plus the subject's post-decrement seat counts.
type EnrollmentResult struct {
	Enrollment     StudentSubject `json:"enrollment"`
	SubjectID      string         `json:"subject_id"`
	SubjectName    string         `json:"subject_name"`
	AvailableSpots int            `json:"available_spots"`
	TotalSpots     int            `json:"total_spots"`
}

// StudentEnrollmentRow joins an enrollment with mirrored subject/cycle data
// for the per-student listing.
type StudentEnrollmentRow struct {
	StudentSubject
	SubjectName string  `db:"subject_name" json:"subject_name"`
	CicleNumber int     `db:"cicle_number" json:"cicle_number"`
	CycleName   *string `db:"cycle_name" json:"cycle_name,omitempty"`
	CycleYear   *int    `db:"cycle_year" json:"cycle_year,omitempty"`
	CyclePeriod *int    `db:"cycle_period" json:"cycle_period,omitempty"`
}
