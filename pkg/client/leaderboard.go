package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Sternrassler/strava-client/pkg/leaderboard"
	"github.com/Sternrassler/strava-client/pkg/pagination"
)

// LeaderboardQuery holds the filters of GET /segments/{id}/leaderboard.
type LeaderboardQuery struct {
	Gender      string // "M" or "F"
	AgeGroup    string // e.g. "25_34"
	WeightClass string // e.g. "75_84"
	DateRange   string // this_year, this_month, this_week, today
	Following   bool
	ClubID      int64

	// ContextEntries overrides Config.ContextEntries when set.
	ContextEntries *int
}

func (q LeaderboardQuery) values(contextEntries int) url.Values {
	v := url.Values{}
	v.Set("context_entries", strconv.Itoa(contextEntries))
	if q.Gender != "" {
		v.Set("gender", q.Gender)
	}
	if q.AgeGroup != "" {
		v.Set("age_group", q.AgeGroup)
	}
	if q.WeightClass != "" {
		v.Set("weight_class", q.WeightClass)
	}
	if q.DateRange != "" {
		v.Set("date_range", q.DateRange)
	}
	if q.Following {
		v.Set("following", "true")
	}
	if q.ClubID != 0 {
		v.Set("club_id", strconv.FormatInt(q.ClubID, 10))
	}
	return v
}

// SegmentLeaderboard reads the leaderboard of a segment. d selects a window of the
// ranked list. A nil d does not read the remote default page: it walks the whole
// ranked list in pages of MaxPageSize, one request per page, which for popular
// segments means many requests. Pass a descriptor to bound it. A segment or club
// that does not exist or is not visible to the credential yields nil with a nil error.
func (c *Client) SegmentLeaderboard(ctx context.Context, segmentID int64, q LeaderboardQuery, d *pagination.Descriptor) (*leaderboard.Assembled, error) {
	contextEntries := c.config.ContextEntries
	if q.ContextEntries != nil {
		contextEntries = leaderboard.ClampContextEntries(*q.ContextEntries)
	}

	endpoint := fmt.Sprintf("/segments/%d/leaderboard", segmentID)
	query := q.values(contextEntries)

	fetch := func(ctx context.Context, page, perPage int) (*leaderboard.Page, error) {
		pq := url.Values{}
		for k, v := range query {
			pq[k] = v
		}
		pq.Set("page", strconv.Itoa(page))
		if perPage > 0 {
			pq.Set("per_page", strconv.Itoa(perPage))
		}

		var p leaderboard.Page
		if err := c.GetJSON(ctx, endpoint, pq, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	cfg := leaderboard.Config{
		ContextEntries: contextEntries,
		MaxPageSize:    c.config.MaxPageSize,
		Principal:      c.Credential().AthleteID,
	}
	if q.ClubID != 0 {
		clubID := q.ClubID
		cfg.ScopeCheck = func(ctx context.Context) error {
			_, err := c.Club(ctx, clubID)
			return err
		}
	}

	logger := c.logger.With().Int64("segment_id", segmentID).Logger()
	return leaderboard.NewAssembler(fetch, cfg, logger).Assemble(ctx, d)
}

// Club reads a club representation.
func (c *Client) Club(ctx context.Context, clubID int64) (*Club, error) {
	var club Club
	if err := c.GetJSON(ctx, fmt.Sprintf("/clubs/%d", clubID), nil, &club); err != nil {
		return nil, err
	}
	return &club, nil
}
