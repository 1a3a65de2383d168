// Package leaderboard reassembles Strava segment leaderboards.
//
// A leaderboard page may interleave two row groups ("neighborhoods"): the ranked
// list itself and the rows around the authenticated athlete. The Assembler separates
// them, accumulates the ranked list across pages and keeps the most recent context rows.
package leaderboard

import "time"

// Entry is one leaderboard row.
type Entry struct {
	AthleteID         int64     `json:"athlete_id"`
	AthleteName       string    `json:"athlete_name"`
	AthleteGender     string    `json:"athlete_gender,omitempty"`
	Rank              int       `json:"rank"`
	ElapsedTime       int       `json:"elapsed_time"`
	MovingTime        int       `json:"moving_time"`
	StartDate         time.Time `json:"start_date"`
	StartDateLocal    time.Time `json:"start_date_local"`
	ActivityID        int64     `json:"activity_id"`
	EffortID          int64     `json:"effort_id"`
	NeighborhoodIndex int       `json:"neighborhood_index"`
}

// Page is a single leaderboard response as returned by GET /segments/{id}/leaderboard.
type Page struct {
	EffortCount       int     `json:"effort_count"`
	EntryCount        int     `json:"entry_count"`
	KOMType           string  `json:"kom_type"`
	NeighborhoodCount int     `json:"neighborhood_count"`
	Entries           []Entry `json:"entries"`
}

// Assembled is a leaderboard split into its ranked rows and the rows around
// the principal.
type Assembled struct {
	// Entries is the ranked list, trimmed to the requested window.
	Entries []Entry `json:"entries"`

	// Context holds the rows around the principal. Never trimmed.
	Context []Entry `json:"context"`

	// EntryCount and EffortCount are the totals reported by the last page read.
	EntryCount  int `json:"entry_count"`
	EffortCount int `json:"effort_count"`
}

func containsAthlete(entries []Entry, athleteID int64) bool {
	for _, e := range entries {
		if e.AthleteID == athleteID {
			return true
		}
	}
	return false
}
