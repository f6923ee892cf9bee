package models

// EmploymentType classifies a teacher's contract.
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "FULL_TIME"
	EmploymentPartTime EmploymentType = "PART_TIME"
)

// TeacherProfile lives in the profiles database. UserID, SpecialityID and
// CareerID are weak references into the mirror tables; they are validated by
// explicit lookups at write time since no cross-database FK can enforce them.
type TeacherProfile struct {
	ID             string         `db:"id" json:"id"`
	UserID         string         `db:"user_id" json:"user_id"`
	SpecialityID   string         `db:"speciality_id" json:"speciality_id"`
	CareerID       string         `db:"career_id" json:"career_id"`
	EmploymentType EmploymentType `db:"employment_type" json:"employment_type"`
}

// TeacherProfileDetail enriches the profile with mirrored names.
type TeacherProfileDetail struct {
	TeacherProfile
	TeacherName    string `db:"teacher_name" json:"teacher_name"`
	SpecialityName string `db:"speciality_name" json:"speciality_name"`
	CareerName     string `db:"career_name" json:"career_name"`
}

// SubjectAssignment links a teacher profile to a subject reference. The
// (teacher_profile_id, subject_id) pair is unique.
type SubjectAssignment struct {
	ID               string `db:"id" json:"id"`
	TeacherProfileID string `db:"teacher_profile_id" json:"teacher_profile_id"`
	SubjectID        string `db:"subject_id" json:"subject_id"`
}

// StudentProfile lives in the profiles database.
type StudentProfile struct {
	ID           string `db:"id" json:"id"`
	UserID       string `db:"user_id" json:"user_id"`
	CareerID     string `db:"career_id" json:"career_id"`
	CurrentCicle int    `db:"current_cicle" json:"current_cicle"`
}

// StudentProfileDetail enriches the profile with mirrored user/career data.
type StudentProfileDetail struct {
	StudentProfile
	StudentName string     `db:"student_name" json:"student_name"`
	Email       string     `db:"email" json:"email"`
	Status      UserStatus `db:"status" json:"status"`
	CareerName  string     `db:"career_name" json:"career_name"`
}

// StudentFilter narrows student profile listings.
type StudentFilter struct {
	CareerID     string
	CurrentCicle int
	MinCicle     int
	MaxCicle     int
	Page         int
	PageSize     int
}
