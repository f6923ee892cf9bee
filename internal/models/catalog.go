package models

import "time"

// Speciality is a catalog node in the academic database.
type Speciality struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
}

// Career is a degree program owned by the academic database.
type Career struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	TotalCicles   int    `db:"total_cicles" json:"total_cicles"`
	DurationYears int    `db:"duration_years" json:"duration_years"`
}

// Cycle is an academic period (year + period pair, unique).
type Cycle struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Year      int       `db:"year" json:"year"`
	Period    int       `db:"period" json:"period"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsActive  bool      `db:"is_active" json:"is_active"`
}

// Subject is a course in the academic catalog. TotalSpots and AvailableSpots
// here are seed values only; once mirrored into the profiles database the
// live counters belong to the subject reference and are never read again.
type Subject struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	CareerID       string `db:"career_id" json:"career_id"`
	CycleID        string `db:"cycle_id" json:"cycle_id"`
	CicleNumber    int    `db:"cicle_number" json:"cicle_number"`
	TotalSpots     int    `db:"total_spots" json:"total_spots"`
	AvailableSpots int    `db:"available_spots" json:"available_spots"`
}
