package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/strava-client/pkg/apierr"
	"github.com/rs/zerolog/log"
)

// RemoteMaxPageSize is the largest per_page value Strava honours.
const RemoteMaxPageSize = 200

// Config holds translator and drainer configuration.
type Config struct {
	// MaxPageSize is the remote maximum page size. Logical pages larger than this
	// are served from several remote pages.
	MaxPageSize int

	// MaxPages caps the number of logical pages the Drainer walks (0 = unbounded).
	MaxPages int
}

// DefaultConfig returns the configuration matching Strava's limits.
func DefaultConfig() Config {
	return Config{
		MaxPageSize: RemoteMaxPageSize,
		MaxPages:    0,
	}
}

// FetchFunc fetches one remote page. perPage 0 asks for the remote default size.
// Implementations return errors classified by package apierr.
type FetchFunc[T any] func(ctx context.Context, page, perPage int) ([]T, error)

// remotePage is one fetch the translator issues to satisfy a descriptor.
type remotePage struct {
	number int
	size   int
	// offset is the absolute index of the page's first item.
	offset int
}

// Translator serves logical page requests from fixed-size remote pages.
type Translator[T any] struct {
	fetch  FetchFunc[T]
	config Config
}

// NewTranslator creates a translator over fetch.
func NewTranslator[T any](fetch FetchFunc[T], config Config) *Translator[T] {
	if fetch == nil {
		panic("pagination: fetch func cannot be nil")
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = RemoteMaxPageSize
	}

	return &Translator[T]{
		fetch:  fetch,
		config: config,
	}
}

// plan returns the consecutive remote pages covering the descriptor's window.
func (t *Translator[T]) plan(d Descriptor) []remotePage {
	lo, hi := d.window()

	size := d.pageSize
	if size > t.config.MaxPageSize {
		size = t.config.MaxPageSize
	}

	first := lo/size + 1
	last := (hi-1)/size + 1

	pages := make([]remotePage, 0, last-first+1)
	for n := first; n <= last; n++ {
		pages = append(pages, remotePage{
			number: n,
			size:   size,
			offset: (n - 1) * size,
		})
	}
	return pages
}

// RetrievePage returns exactly the items the descriptor selects, in remote order.
// A nil descriptor or a PageSize of 0 issues a single fetch with the remote default
// page size and returns it untouched. A zero-value descriptor is rejected with
// apierr.ErrInvalidDescriptor before any fetch. Any failed fetch aborts the call; its error,
// NotFound included, is returned and nothing is merged.
func (t *Translator[T]) RetrievePage(ctx context.Context, d *Descriptor) ([]T, error) {
	if d != nil && d.page < 1 {
		return nil, invalid("page must be >= 1 (got %d)", d.page)
	}

	if d == nil || d.pageSize == 0 {
		page := 1
		if d != nil {
			page = d.page
		}
		items, err := t.fetchOne(ctx, page, 0)
		if err != nil {
			return nil, err
		}
		return items, nil
	}

	start := time.Now()
	lo, hi := d.window()
	pages := t.plan(*d)

	buf := make([]T, 0, hi-lo)
	base := pages[0].offset
	for _, p := range pages {
		items, err := t.fetchOne(ctx, p.number, p.size)
		if err != nil {
			return nil, err
		}
		if len(items) > p.size {
			items = items[:p.size]
		}
		buf = append(buf, items...)

		// A short page is the last page of the collection.
		if len(items) < p.size {
			break
		}
	}

	from, to := lo-base, hi-base
	if to > len(buf) {
		to = len(buf)
	}
	if from > to {
		from = to
	}

	log.Debug().
		Str("descriptor", d.String()).
		Int("remote_pages", len(pages)).
		Int("items", to-from).
		Dur("duration", time.Since(start)).
		Msg("Logical page assembled")

	return buf[from:to:to], nil
}

func (t *Translator[T]) fetchOne(ctx context.Context, page, perPage int) ([]T, error) {
	items, err := t.fetch(ctx, page, perPage)
	if err != nil {
		pageFetchesTotal.WithLabelValues(outcomeLabel(err)).Inc()
		log.Debug().
			Err(err).
			Int("page", page).
			Int("per_page", perPage).
			Msg("Remote page fetch failed")
		return nil, fmt.Errorf("fetch page %d (per_page %d): %w", page, perPage, err)
	}

	pageFetchesTotal.WithLabelValues("ok").Inc()
	pageItemsTotal.Add(float64(len(items)))
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func outcomeLabel(err error) string {
	switch apierr.KindOf(err) {
	case apierr.KindNotFound:
		return "not_found"
	case apierr.KindNotAuthorized:
		return "not_authorized"
	default:
		return "error"
	}
}
