package client

import "time"

// Club is the subset of a club representation used for scope checks.
type Club struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
	Private     bool   `json:"private"`
}

// AthleteSummary is a member row of GET /clubs/{id}/members.
type AthleteSummary struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Admin     bool   `json:"admin"`
	Owner     bool   `json:"owner"`
}

// ActivitySummary is a row of GET /athlete/activities.
type ActivitySummary struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	SportType   string    `json:"sport_type"`
	Distance    float64   `json:"distance"`
	MovingTime  int       `json:"moving_time"`
	ElapsedTime int       `json:"elapsed_time"`
	StartDate   time.Time `json:"start_date"`
}

// SegmentEffort is a row of GET /segment_efforts.
type SegmentEffort struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ElapsedTime int       `json:"elapsed_time"`
	MovingTime  int       `json:"moving_time"`
	StartDate   time.Time `json:"start_date"`
	PRRank      *int      `json:"pr_rank"`
}

// Upload is the processing state of an activity upload.
type Upload struct {
	ID         int64  `json:"id"`
	IDStr      string `json:"id_str"`
	ExternalID string `json:"external_id"`
	Error      string `json:"error"`
	Status     string `json:"status"`
	ActivityID *int64 `json:"activity_id"`
}

// Processing reports whether Strava is still turning the upload into an activity.
func (u *Upload) Processing() bool {
	return u != nil && u.Error == "" && u.ActivityID == nil
}
