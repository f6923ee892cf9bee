package models

// Reference rows are denormalized copies of users/academic rows stored in the
// profiles database. Their primary key equals the source row's id, which is
// what makes the sync upserts idempotent. They are written exclusively by the
// reference sync engine, never by profile operations.

// UserReference mirrors a user from the users database.
type UserReference struct {
	ID       string     `db:"id" json:"id"`
	Name     string     `db:"name" json:"name"`
	Email    string     `db:"email" json:"email"`
	RoleID   string     `db:"role_id" json:"role_id"`
	RoleName string     `db:"role_name" json:"role_name"`
	Status   UserStatus `db:"status" json:"status"`
}

// SpecialityReference mirrors a speciality from the academic database.
type SpecialityReference struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// CareerReference mirrors a career from the academic database.
type CareerReference struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	TotalCicles int    `db:"total_cicles" json:"total_cicles"`
}

// SubjectReference mirrors a subject from the academic database and owns the
// live seat counters. Sync seeds TotalSpots/AvailableSpots when the row is
// first inserted and never touches them again; only the enrollment
// transaction mutates AvailableSpots afterwards.
type SubjectReference struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	CareerID       string `db:"career_id" json:"career_id"`
	CicleNumber    int    `db:"cicle_number" json:"cicle_number"`
	TotalSpots     int    `db:"total_spots" json:"total_spots"`
	AvailableSpots int    `db:"available_spots" json:"available_spots"`
}

// CycleReference mirrors a cycle from the academic database.
type CycleReference struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Year   int    `db:"year" json:"year"`
	Period int    `db:"period" json:"period"`
}

// SyncKind identifies one reference table refreshed by a sync run.
type SyncKind string

const (
	SyncKindUsers        SyncKind = "users"
	SyncKindSpecialities SyncKind = "specialities"
	SyncKindCareers      SyncKind = "careers"
	SyncKindSubjects     SyncKind = "subjects"
	SyncKindCycles       SyncKind = "cycles"
)

// SyncKindResult reports the outcome for a single reference kind. Kinds fail
// independently; a failed kind never rolls back an already-committed one.
type SyncKindResult struct {
	Kind   SyncKind `json:"kind"`
	Synced int      `json:"synced"`
	Error  string   `json:"error,omitempty"`
}

// SyncReport aggregates the per-kind results of one sync run.
type SyncReport struct {
	Results []SyncKindResult `json:"results"`
}

// Failed returns the kinds that reported an error.
func (r *SyncReport) Failed() []SyncKind {
	var kinds []SyncKind
	for _, res := range r.Results {
		if res.Error != "" {
			kinds = append(kinds, res.Kind)
		}
	}
	return kinds
}
