package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Sternrassler/strava-client/pkg/apierr"
	"github.com/Sternrassler/strava-client/pkg/logging"
	"github.com/Sternrassler/strava-client/pkg/pagination"
	"github.com/Sternrassler/strava-client/pkg/polling"
)

// FetchPage returns a pagination.FetchFunc reading one remote page of endpoint.
// query is copied; page and per_page are set per call (per_page is omitted for 0).
func FetchPage[T any](c *Client, endpoint string, query url.Values) pagination.FetchFunc[T] {
	return func(ctx context.Context, page, perPage int) ([]T, error) {
		q := url.Values{}
		for k, v := range query {
			q[k] = append([]string(nil), v...)
		}
		q.Set("page", strconv.Itoa(page))
		if perPage > 0 {
			q.Set("per_page", strconv.Itoa(perPage))
		}

		logging.Request(c.logger.Trace(), endpoint, page, perPage).Msg("Fetching page")

		var items []T
		if err := c.GetJSON(ctx, endpoint, q, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
}

func (c *Client) pagingConfig() pagination.Config {
	return pagination.Config{MaxPageSize: c.config.MaxPageSize}
}

// ListPage reads the logical page d of a paged collection. A nil d reads the
// remote default page. The boolean is false when the collection does not exist.
func ListPage[T any](ctx context.Context, c *Client, endpoint string, query url.Values, d *pagination.Descriptor) ([]T, bool, error) {
	tr := pagination.NewTranslator(FetchPage[T](c, endpoint, query), c.pagingConfig())

	items, err := tr.RetrievePage(ctx, d)
	if err != nil {
		if apierr.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return items, true, nil
}

// ListAll reads every element of a paged collection. A collection that does not
// exist yields an empty slice.
func ListAll[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	return pagination.NewDrainer(FetchPage[T](c, endpoint, query), c.pagingConfig()).RetrieveAll(ctx)
}

// GetWithPolling reads endpoint until isTransient reports false or the polling
// attempts run out, and returns the last representation read.
func GetWithPolling[T any](ctx context.Context, c *Client, endpoint string, isTransient func(*T) bool) (*T, error) {
	r := polling.New[*T](c.config.Polling, c.logger)

	fetchOne := func(ctx context.Context) (*T, error) {
		var v T
		if err := c.GetJSON(ctx, endpoint, nil, &v); err != nil {
			return nil, err
		}
		return &v, nil
	}

	return r.Retrieve(ctx, fetchOne, isTransient)
}
