package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/strava-client/pkg/pagination"
)

// AthleteActivities reads one logical page of the authenticated athlete's activities.
// Zero before/after times are not sent.
func (c *Client) AthleteActivities(ctx context.Context, before, after time.Time, d *pagination.Descriptor) ([]ActivitySummary, error) {
	q := url.Values{}
	if !before.IsZero() {
		q.Set("before", strconv.FormatInt(before.Unix(), 10))
	}
	if !after.IsZero() {
		q.Set("after", strconv.FormatInt(after.Unix(), 10))
	}

	items, _, err := ListPage[ActivitySummary](ctx, c, "/athlete/activities", q, d)
	return items, err
}

// SegmentEfforts reads every effort of the authenticated athlete on a segment.
func (c *Client) SegmentEfforts(ctx context.Context, segmentID int64) ([]SegmentEffort, error) {
	q := url.Values{}
	q.Set("segment_id", strconv.FormatInt(segmentID, 10))
	return ListAll[SegmentEffort](ctx, c, "/segment_efforts", q)
}

// ClubMembers reads every member of a club.
func (c *Client) ClubMembers(ctx context.Context, clubID int64) ([]AthleteSummary, error) {
	return ListAll[AthleteSummary](ctx, c, fmt.Sprintf("/clubs/%d/members", clubID), nil)
}

// Upload reads an upload, polling while it is still being processed. The returned
// upload may still be processing when the attempts ran out.
func (c *Client) Upload(ctx context.Context, uploadID int64) (*Upload, error) {
	return GetWithPolling[Upload](ctx, c, fmt.Sprintf("/uploads/%d", uploadID), (*Upload).Processing)
}
