package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Deauthorize revokes the client's credential at Strava and removes it from the
// credential cache. The client must not be used afterwards.
func (c *Client) Deauthorize(ctx context.Context) error {
	cred := c.Credential()

	form := url.Values{}
	form.Set("access_token", cred.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.OAuthURL+"/deauthorize", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("deauthorize: %w", err)
	}
	resp.Body.Close()

	if err := c.tokens.Revoke(ctx, cred); err != nil {
		return err
	}

	c.logger.Info().Int64("athlete_id", cred.AthleteID).Msg("Credential deauthorized")
	return nil
}
