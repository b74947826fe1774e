package domain

// Driver is a driver with a home postcode.
type Driver struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Postcode string `json:"postcode"`
}

// MatchCandidate is a scored (job, driver) pairing produced by the matcher.
type MatchCandidate struct {
	JobID         int64   `json:"job_id"`
	DriverID      int64   `json:"driver_id"`
	MatchScore    float64 `json:"match_score"`
	DistanceMiles float64 `json:"distance_miles"`
	Reasoning     string  `json:"reasoning"`
}

// Match is a persisted candidate joined with the driver and job it pairs.
type Match struct {
	ID             int64   `json:"id"`
	JobID          int64   `json:"job_id"`
	DriverID       int64   `json:"driver_id"`
	MatchScore     float64 `json:"match_score"`
	DistanceMiles  float64 `json:"distance_miles"`
	Reasoning      string  `json:"reasoning"`
	DriverName     string  `json:"driver_name"`
	DriverPostcode string  `json:"driver_postcode"`
	DayNumber      int     `json:"day_number"`
	JobNumber      int     `json:"job_number"`
}

// DayCount is the number of jobs registered for a day.
type DayCount struct {
	Day   int `json:"day"`
	Count int `json:"count"`
}

// Statistics aggregates record counts.
type Statistics struct {
	DriverCount int        `json:"driver_count"`
	JobCount    int        `json:"job_count"`
	MatchCount  int        `json:"match_count"`
	JobsByDay   []DayCount `json:"jobs_by_day"`
}

// Route is the driving distance and time between two places.
type Route struct {
	DistanceMiles   float64 `json:"distance_miles"`
	DurationMinutes float64 `json:"duration_minutes"`
}
