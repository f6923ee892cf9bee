package models

// PerformanceFilter narrows the student performance report.
type PerformanceFilter struct {
	CareerID string
	MinGrade *float64
	Status   EnrollmentStatus
}

// PerformanceRow aggregates a student's results across enrollments.
type PerformanceRow struct {
	StudentID        string  `db:"student_id" json:"student_id"`
	StudentUserID    string  `db:"student_user_id" json:"student_user_id"`
	StudentName      string  `db:"student_name" json:"student_name"`
	CareerName       string  `db:"career_name" json:"career_name"`
	CurrentCicle     int     `db:"current_cicle" json:"current_cicle"`
	TotalSubjects    int     `db:"total_subjects" json:"total_subjects"`
	AverageGrade     float64 `db:"average_grade" json:"average_grade"`
	ApprovedSubjects int     `db:"approved_subjects" json:"approved_subjects"`
	FailedSubjects   int     `db:"failed_subjects" json:"failed_subjects"`
}
